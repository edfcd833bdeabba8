package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/utils/collectionutils"
	"github.com/siahsang/yatube/internal/utils/functional"
	"github.com/siahsang/yatube/internal/validator"
	"github.com/siahsang/yatube/models"
)

// AddComment attaches a comment by viewer to an existing post.
func (c *Core) AddComment(ctx context.Context, viewer *auth.User, postID int64, text string) (*CommentItem, error) {
	if viewer == nil {
		return nil, xerrors.New(ErrUnauthorized)
	}

	text = strings.TrimSpace(text)
	v := validator.New()
	v.CheckNotBlank(text, "text", "This field is required.")
	if !v.IsValid() {
		return nil, newValidationError(v)
	}

	post, err := c.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}

	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  viewer.ID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.Comments.Create(ctx, comment); err != nil {
		return nil, xerrors.New(err)
	}

	c.log.Info("comment added", slog.Int64("post_id", post.ID), slog.Int64("comment_id", comment.ID))
	return &CommentItem{
		ID:             comment.ID,
		AuthorUsername: viewer.Username,
		Text:           comment.Text,
		CreatedAt:      comment.CreatedAt,
	}, nil
}

func (c *Core) commentItems(ctx context.Context, comments []*models.Comment) ([]CommentItem, error) {
	authorIDs := collectionutils.Distinct(comments, func(cm *models.Comment) (int64, bool) { return cm.AuthorID, true })
	authors, err := c.store.Users.ListByIDs(ctx, authorIDs)
	if err != nil {
		return nil, xerrors.New(err)
	}
	usernameByID := collectionutils.Associate(authors, func(u *auth.User) (int64, string) { return u.ID, u.Username })

	return functional.Map(comments, func(cm *models.Comment) CommentItem {
		return CommentItem{
			ID:             cm.ID,
			AuthorUsername: usernameByID[cm.AuthorID],
			Text:           cm.Text,
			CreatedAt:      cm.CreatedAt,
		}
	}), nil
}
