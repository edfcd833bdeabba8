// Package store declares the repositories the core reads and writes through.
// Every call is transactional on its own; multi-statement writes (post
// deletion) run inside one transaction in the implementation.
package store

import (
	"context"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/models"
)

var (
	ErrRecordNotFound = xerrors.Message("Record not found")
	ErrDuplicate      = xerrors.Message("Duplicate record")

	ErrDuplicateUsername = xerrors.Message("Duplicate username")
	ErrDuplicateEmail    = xerrors.Message("Duplicate email")
)

// PostFilter selects posts. Zero fields do not filter.
type PostFilter struct {
	AuthorID int64
	GroupID  int64
	// FollowedBy keeps posts whose author is followed by this user id.
	FollowedBy int64
}

type Users interface {
	// Create fails with ErrDuplicateUsername or ErrDuplicateEmail.
	Create(ctx context.Context, user *auth.User) error
	GetByID(ctx context.Context, id int64) (*auth.User, error)
	GetByUsername(ctx context.Context, username string) (*auth.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*auth.User, error)
}

type Groups interface {
	// Create fails with ErrDuplicate when the slug is taken.
	Create(ctx context.Context, group *models.Group) error
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
}

type Posts interface {
	Create(ctx context.Context, post *models.Post) error
	// Update rewrites text, group and image; CreatedAt never changes.
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	// Delete removes the post and its comments atomically.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, filter PostFilter) (int64, error)
	// List returns posts newest first, ties broken by id descending.
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
}

type Comments interface {
	Create(ctx context.Context, comment *models.Comment) error
	// ListByPost returns the comments of a post newest first.
	ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error)
	// CountByPostIDs returns the live comment count of each post; posts
	// without comments are absent from the map.
	CountByPostIDs(ctx context.Context, postIDs []int64) (map[int64]int64, error)
}

type Follows interface {
	// Create inserts the edge and reports whether it was new. An existing
	// edge is not an error.
	Create(ctx context.Context, followerID, followedID int64) (bool, error)
	// Delete removes the edge and reports whether one existed.
	Delete(ctx context.Context, followerID, followedID int64) (bool, error)
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	CountFollowers(ctx context.Context, userID int64) (int64, error)
	CountFollowing(ctx context.Context, userID int64) (int64, error)
}

type Store struct {
	Users    Users
	Groups   Groups
	Posts    Posts
	Comments Comments
	Follows  Follows
}
