package gormstore

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/functional"
	"gorm.io/gorm"
)

type userStore struct {
	db  *gorm.DB
	log *slog.Logger
}

func (s *userStore) Create(ctx context.Context, user *auth.User) error {
	row := userRow{
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "email") {
				return xerrors.New(store.ErrDuplicateEmail)
			}
			return xerrors.New(store.ErrDuplicateUsername)
		}
		return xerrors.New(err)
	}

	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	s.log.Debug("user row created", slog.Int64("user_id", row.ID))
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translateError(err)
	}
	return row.toUser(), nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return row.toUser(), nil
}

func (s *userStore) ListByIDs(ctx context.Context, ids []int64) ([]*auth.User, error) {
	if len(ids) == 0 {
		return []*auth.User{}, nil
	}

	var rows []userRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, xerrors.New(err)
	}
	return functional.Map(rows, func(r userRow) *auth.User { return r.toUser() }), nil
}

func (r userRow) toUser() *auth.User {
	return &auth.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		Bio:       r.Bio,
		CreatedAt: r.CreatedAt,
	}
}
