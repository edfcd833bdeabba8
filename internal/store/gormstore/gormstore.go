// Package gormstore implements the repositories on gorm, over sqlite for
// local runs and tests or postgres in deployment.
package gormstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"gorm.io/gorm"
)

type userRow struct {
	ID        int64     `gorm:"primaryKey"`
	Username  string    `gorm:"size:150;not null;uniqueIndex"`
	Email     string    `gorm:"size:254;not null;uniqueIndex"`
	Password  []byte    `gorm:"not null"`
	Bio       string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type groupRow struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:100;not null;uniqueIndex"`
	Description string `gorm:"not null"`
}

func (groupRow) TableName() string { return "post_groups" }

type postRow struct {
	ID        int64     `gorm:"primaryKey"`
	Text      string    `gorm:"not null"`
	Image     *string   `gorm:"size:255"`
	GroupID   *int64    `gorm:"index"`
	AuthorID  int64     `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (postRow) TableName() string { return "posts" }

type commentRow struct {
	ID        int64     `gorm:"primaryKey"`
	PostID    int64     `gorm:"not null;index"`
	AuthorID  int64     `gorm:"not null"`
	Text      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (commentRow) TableName() string { return "comments" }

type followRow struct {
	ID         int64     `gorm:"primaryKey"`
	FollowerID int64     `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1"`
	FollowedID int64     `gorm:"not null;uniqueIndex:idx_follows_pair,priority:2;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (followRow) TableName() string { return "follows" }

// New returns the repositories backed by db.
func New(db *gorm.DB, log *slog.Logger) *store.Store {
	return &store.Store{
		Users:    &userStore{db: db, log: log},
		Groups:   &groupStore{db: db},
		Posts:    &postStore{db: db, log: log},
		Comments: &commentStore{db: db},
		Follows:  &followStore{db: db},
	}
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(&userRow{}, &groupRow{}, &postRow{}, &commentRow{}, &followRow{})
	if err != nil {
		return xerrors.New(err)
	}
	return nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xerrors.New(store.ErrRecordNotFound)
	}
	return xerrors.New(err)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
