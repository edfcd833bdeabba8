package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/validator"
	"github.com/siahsang/yatube/models"
)

// PostInput is what an author submits for a new or edited post.
type PostInput struct {
	Text      string
	GroupSlug string
	// Image is a stored media reference; nil keeps the current image on
	// update.
	Image *string
}

type CommentItem struct {
	ID             int64     `json:"id"`
	AuthorUsername string    `json:"authorUsername"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

type PostDetail struct {
	Post             FeedItem      `json:"post"`
	Comments         []CommentItem `json:"comments"`
	AuthorPostsCount int64         `json:"authorPostsCount"`
}

func (c *Core) CreatePost(ctx context.Context, viewer *auth.User, in PostInput) (*FeedItem, error) {
	if viewer == nil {
		return nil, xerrors.New(ErrUnauthorized)
	}

	groupID, err := c.validatePost(ctx, &in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:  viewer.ID,
		GroupID:   groupID,
		Text:      in.Text,
		Image:     in.Image,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.Posts.Create(ctx, post); err != nil {
		return nil, xerrors.New(err)
	}

	c.log.Info("post created", slog.Int64("post_id", post.ID), slog.String("author", viewer.Username))
	return c.feedItem(ctx, post)
}

// UpdatePost rewrites a post owned by viewer. It also returns the image
// reference that the update replaced, if any.
func (c *Core) UpdatePost(ctx context.Context, viewer *auth.User, postID int64, in PostInput) (*FeedItem, *string, error) {
	post, err := c.ownedPost(ctx, viewer, postID)
	if err != nil {
		return nil, nil, err
	}

	groupID, err := c.validatePost(ctx, &in)
	if err != nil {
		return nil, nil, err
	}

	var replaced *string
	if in.Image != nil {
		replaced = post.Image
		post.Image = in.Image
	}
	post.Text = in.Text
	post.GroupID = groupID

	if err := c.store.Posts.Update(ctx, post); err != nil {
		return nil, nil, notFound(err)
	}

	item, err := c.feedItem(ctx, post)
	if err != nil {
		return nil, nil, err
	}
	return item, replaced, nil
}

// DeletePost removes a post owned by viewer together with its comments.
func (c *Core) DeletePost(ctx context.Context, viewer *auth.User, postID int64) (*models.Post, error) {
	post, err := c.ownedPost(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}

	if err := c.store.Posts.Delete(ctx, post.ID); err != nil {
		return nil, notFound(err)
	}

	c.log.Info("post deleted", slog.Int64("post_id", post.ID), slog.String("author", viewer.Username))
	return post, nil
}

// GetPost returns a post with its comments, newest first, and the number of
// posts its author has written.
func (c *Core) GetPost(ctx context.Context, postID int64) (*PostDetail, error) {
	post, err := c.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}

	item, err := c.feedItem(ctx, post)
	if err != nil {
		return nil, err
	}

	comments, err := c.store.Comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	commentItems, err := c.commentItems(ctx, comments)
	if err != nil {
		return nil, err
	}

	postsCount, err := c.store.Posts.Count(ctx, store.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, xerrors.New(err)
	}

	return &PostDetail{
		Post:             *item,
		Comments:         commentItems,
		AuthorPostsCount: postsCount,
	}, nil
}

func (c *Core) ownedPost(ctx context.Context, viewer *auth.User, postID int64) (*models.Post, error) {
	if viewer == nil {
		return nil, xerrors.New(ErrUnauthorized)
	}

	post, err := c.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	if post.AuthorID != viewer.ID {
		return nil, xerrors.New(ErrForbidden)
	}
	return post, nil
}

// validatePost checks the input and resolves its group slug.
func (c *Core) validatePost(ctx context.Context, in *PostInput) (*int64, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.GroupSlug = strings.TrimSpace(in.GroupSlug)

	v := validator.New()
	v.CheckNotBlank(in.Text, "text", "This field is required.")
	if !v.IsValid() {
		return nil, newValidationError(v)
	}

	if in.GroupSlug == "" {
		return nil, nil
	}
	group, err := c.store.Groups.GetBySlug(ctx, in.GroupSlug)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fieldError("group", "Select a valid choice. That choice is not one of the available choices.")
		}
		return nil, xerrors.New(err)
	}
	return &group.ID, nil
}

func (c *Core) feedItem(ctx context.Context, post *models.Post) (*FeedItem, error) {
	items, err := c.annotate(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}
