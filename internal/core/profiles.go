package core

import (
	"context"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/models"
)

// GetProfile returns the author summary shown above an author feed.
func (c *Core) GetProfile(ctx context.Context, username string, viewer *auth.User) (*models.Profile, error) {
	author, err := c.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}

	postsCount, err := c.store.Posts.Count(ctx, store.PostFilter{AuthorID: author.ID})
	if err != nil {
		return nil, xerrors.New(err)
	}

	return c.profile(ctx, author, viewer, postsCount)
}

func (c *Core) profile(ctx context.Context, author *auth.User, viewer *auth.User, postsCount int64) (*models.Profile, error) {
	followers, err := c.store.Follows.CountFollowers(ctx, author.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	following, err := c.store.Follows.CountFollowing(ctx, author.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}

	profile := &models.Profile{
		ID:                author.ID,
		Username:          author.Username,
		Bio:               author.Bio,
		PostsCount:        postsCount,
		FollowersCount:    followers,
		FollowingCount:    following,
		ShowFollowControl: viewer == nil || viewer.ID != author.ID,
	}

	if viewer != nil && viewer.ID != author.ID {
		profile.Following, err = c.IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	return profile, nil
}

// Follow makes viewer follow the named author. Following yourself or an
// author you already follow does nothing.
func (c *Core) Follow(ctx context.Context, viewer *auth.User, username string) error {
	if viewer == nil {
		return xerrors.New(ErrUnauthorized)
	}

	followed, err := c.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return notFound(err)
	}
	if followed.ID == viewer.ID {
		return nil
	}

	created, err := c.store.Follows.Create(ctx, viewer.ID, followed.ID)
	if err != nil {
		return xerrors.New(err)
	}
	if created {
		c.log.Info("author followed", slog.Int64("follower_id", viewer.ID), slog.Int64("followed_id", followed.ID))
	}

	return nil
}

// Unfollow removes the edge from viewer to the named author, failing with
// ErrNotFound when there is none.
func (c *Core) Unfollow(ctx context.Context, viewer *auth.User, username string) error {
	if viewer == nil {
		return xerrors.New(ErrUnauthorized)
	}

	followed, err := c.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return notFound(err)
	}

	existed, err := c.store.Follows.Delete(ctx, viewer.ID, followed.ID)
	if err != nil {
		return xerrors.New(err)
	}
	if !existed {
		return xerrors.New(ErrNotFound)
	}

	c.log.Info("author unfollowed", slog.Int64("follower_id", viewer.ID), slog.Int64("followed_id", followed.ID))
	return nil
}

func (c *Core) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	ok, err := c.store.Follows.Exists(ctx, followerID, followedID)
	if err != nil {
		return false, xerrors.New(err)
	}
	return ok, nil
}
