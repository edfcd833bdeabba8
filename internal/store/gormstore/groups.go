package gormstore

import (
	"context"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/functional"
	"github.com/siahsang/yatube/models"
	"gorm.io/gorm"
)

type groupStore struct {
	db *gorm.DB
}

func (s *groupStore) Create(ctx context.Context, group *models.Group) error {
	row := groupRow{Title: group.Title, Slug: group.Slug, Description: group.Description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return xerrors.New(store.ErrDuplicate)
		}
		return xerrors.New(err)
	}
	group.ID = row.ID
	return nil
}

func (s *groupStore) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var row groupRow
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return row.toGroup(), nil
}

func (s *groupStore) ListByIDs(ctx context.Context, ids []int64) ([]*models.Group, error) {
	if len(ids) == 0 {
		return []*models.Group{}, nil
	}

	var rows []groupRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, xerrors.New(err)
	}
	return functional.Map(rows, func(r groupRow) *models.Group { return r.toGroup() }), nil
}

func (s *groupStore) List(ctx context.Context) ([]*models.Group, error) {
	var rows []groupRow
	if err := s.db.WithContext(ctx).Order("title").Find(&rows).Error; err != nil {
		return nil, xerrors.New(err)
	}
	return functional.Map(rows, func(r groupRow) *models.Group { return r.toGroup() }), nil
}

func (r groupRow) toGroup() *models.Group {
	return &models.Group{ID: r.ID, Title: r.Title, Slug: r.Slug, Description: r.Description}
}
