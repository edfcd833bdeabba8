package gormstore

import (
	"context"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/functional"
	"github.com/siahsang/yatube/models"
	"gorm.io/gorm"
)

type postStore struct {
	db  *gorm.DB
	log *slog.Logger
}

func (s *postStore) Create(ctx context.Context, post *models.Post) error {
	row := postRow{
		Text:      post.Text,
		Image:     post.Image,
		GroupID:   post.GroupID,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return xerrors.New(err)
	}
	post.ID = row.ID
	post.CreatedAt = row.CreatedAt
	return nil
}

func (s *postStore) Update(ctx context.Context, post *models.Post) error {
	result := s.db.WithContext(ctx).Model(&postRow{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"text":     post.Text,
		"group_id": post.GroupID,
		"image":    post.Image,
	})
	if result.Error != nil {
		return xerrors.New(result.Error)
	}
	if result.RowsAffected == 0 {
		return xerrors.New(store.ErrRecordNotFound)
	}
	return nil
}

func (s *postStore) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var row postRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translateError(err)
	}
	return row.toPost(), nil
}

func (s *postStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := tx.Where("post_id = ?", id).Delete(&commentRow{})
		if comments.Error != nil {
			return xerrors.New(comments.Error)
		}

		result := tx.Delete(&postRow{}, id)
		if result.Error != nil {
			return xerrors.New(result.Error)
		}
		if result.RowsAffected == 0 {
			return xerrors.New(store.ErrRecordNotFound)
		}

		s.log.Debug("post deleted", slog.Int64("post_id", id), slog.Int64("comments_deleted", comments.RowsAffected))
		return nil
	})
}

func (s *postStore) Count(ctx context.Context, filter store.PostFilter) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&postRow{}).Scopes(s.filtered(filter)).Count(&n).Error; err != nil {
		return 0, xerrors.New(err)
	}
	return n, nil
}

func (s *postStore) List(ctx context.Context, filter store.PostFilter, limit, offset int) ([]*models.Post, error) {
	var rows []postRow
	err := s.db.WithContext(ctx).
		Scopes(s.filtered(filter)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, xerrors.New(err)
	}
	return functional.Map(rows, func(r postRow) *models.Post { return r.toPost() }), nil
}

func (s *postStore) filtered(filter store.PostFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if filter.AuthorID != 0 {
			q = q.Where("author_id = ?", filter.AuthorID)
		}
		if filter.GroupID != 0 {
			q = q.Where("group_id = ?", filter.GroupID)
		}
		if filter.FollowedBy != 0 {
			followed := s.db.Model(&followRow{}).Select("followed_id").Where("follower_id = ?", filter.FollowedBy)
			q = q.Where("author_id IN (?)", followed)
		}
		return q
	}
}

func (r postRow) toPost() *models.Post {
	return &models.Post{
		ID:        r.ID,
		AuthorID:  r.AuthorID,
		GroupID:   r.GroupID,
		Text:      r.Text,
		Image:     r.Image,
		CreatedAt: r.CreatedAt,
	}
}
