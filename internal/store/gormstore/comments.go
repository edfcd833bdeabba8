package gormstore

import (
	"context"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/utils/collectionutils"
	"github.com/siahsang/yatube/internal/utils/functional"
	"github.com/siahsang/yatube/models"
	"gorm.io/gorm"
)

type commentStore struct {
	db *gorm.DB
}

func (s *commentStore) Create(ctx context.Context, comment *models.Comment) error {
	row := commentRow{
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return xerrors.New(err)
	}
	comment.ID = row.ID
	comment.CreatedAt = row.CreatedAt
	return nil
}

func (s *commentStore) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	var rows []commentRow
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, xerrors.New(err)
	}
	return functional.Map(rows, func(r commentRow) *models.Comment {
		return &models.Comment{ID: r.ID, PostID: r.PostID, AuthorID: r.AuthorID, Text: r.Text, CreatedAt: r.CreatedAt}
	}), nil
}

func (s *commentStore) CountByPostIDs(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	if len(postIDs) == 0 {
		return map[int64]int64{}, nil
	}

	type countRow struct {
		PostID int64
		N      int64
	}

	var rows []countRow
	err := s.db.WithContext(ctx).
		Model(&commentRow{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, xerrors.New(err)
	}

	return collectionutils.Associate(rows, func(r countRow) (int64, int64) { return r.PostID, r.N }), nil
}
