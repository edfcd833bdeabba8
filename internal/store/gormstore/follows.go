package gormstore

import (
	"context"

	"github.com/mdobak/go-xerrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type followStore struct {
	db *gorm.DB
}

func (s *followStore) Create(ctx context.Context, followerID, followedID int64) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&followRow{FollowerID: followerID, FollowedID: followedID})
	if result.Error != nil {
		return false, xerrors.New(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *followStore) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&followRow{})
	if result.Error != nil {
		return false, xerrors.New(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *followStore) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&followRow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&n).Error
	if err != nil {
		return false, xerrors.New(err)
	}
	return n > 0, nil
}

func (s *followStore) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	return s.count(ctx, "followed_id = ?", userID)
}

func (s *followStore) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	return s.count(ctx, "follower_id = ?", userID)
}

func (s *followStore) count(ctx context.Context, cond string, userID int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&followRow{}).Where(cond, userID).Count(&n).Error; err != nil {
		return 0, xerrors.New(err)
	}
	return n, nil
}
