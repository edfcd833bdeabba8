package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/databaseutils"
	"github.com/siahsang/yatube/models"
)

const postColumns = `id, author_id, group_id, text, image, created_at`

type postStore struct {
	sqlTemplate *databaseutils.SQLTemplate
	session     databaseutils.Session
	log         *slog.Logger
}

func scanPost(rows *sql.Rows) (*models.Post, error) {
	var post = &models.Post{}
	if err := rows.Scan(&post.ID, &post.AuthorID, &post.GroupID, &post.Text, &post.Image, &post.CreatedAt); err != nil {
		return nil, xerrors.New(err)
	}
	return post, nil
}

func (s *postStore) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (author_id, group_id, text, image, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	args := []any{post.AuthorID, post.GroupID, post.Text, post.Image, nowIfZero(post.CreatedAt)}
	_, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (*models.Post, error) {
		if err := rows.Scan(&post.ID, &post.CreatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return post, nil
	}, args...)
	if err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (s *postStore) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET text = $1, group_id = $2, image = $3
		WHERE id = $4
	`
	affected, err := databaseutils.ExecuteUpdate(s.sqlTemplate, ctx, query, post.Text, post.GroupID, post.Image, post.ID)
	if err != nil {
		return xerrors.New(err)
	}
	if affected == 0 {
		return xerrors.New(store.ErrRecordNotFound)
	}
	return nil
}

func (s *postStore) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanPost, id)
	if err != nil {
		return nil, translateError(err)
	}
	return post, nil
}

func (s *postStore) Delete(ctx context.Context, id int64) error {
	comments, err := databaseutils.DoTransactionally(ctx, s.session, func(txCtx context.Context) (int64, error) {
		comments, err := databaseutils.ExecuteUpdate(s.sqlTemplate, txCtx, `DELETE FROM comments WHERE post_id = $1`, id)
		if err != nil {
			return 0, xerrors.New(err)
		}

		affected, err := databaseutils.ExecuteUpdate(s.sqlTemplate, txCtx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return 0, xerrors.New(err)
		}
		if affected == 0 {
			return 0, xerrors.New(store.ErrRecordNotFound)
		}
		return comments, nil
	})
	if err != nil {
		return err
	}

	s.log.Debug("post deleted", slog.Int64("post_id", id), slog.Int64("comments_deleted", comments))
	return nil
}

func (s *postStore) Count(ctx context.Context, filter store.PostFilter) (int64, error) {
	where, args := whereClause(filter)
	query := `SELECT COUNT(*) FROM posts ` + where

	n, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (int64, error) {
		var n int64
		err := rows.Scan(&n)
		return n, err
	}, args...)
	if err != nil {
		return 0, xerrors.New(err)
	}
	return n, nil
}

func (s *postStore) List(ctx context.Context, filter store.PostFilter, limit, offset int) ([]*models.Post, error) {
	where, args := whereClause(filter)
	query := fmt.Sprintf(`
		SELECT %s FROM posts
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, postColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	posts, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, scanPost, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func whereClause(filter store.PostFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.AuthorID != 0 {
		args = append(args, filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if filter.GroupID != 0 {
		args = append(args, filter.GroupID)
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if filter.FollowedBy != 0 {
		args = append(args, filter.FollowedBy)
		conditions = append(conditions, fmt.Sprintf("author_id IN (SELECT followed_id FROM follows WHERE follower_id = $%d)", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
