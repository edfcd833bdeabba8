package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/utils/collectionutils"
	"github.com/siahsang/yatube/internal/utils/databaseutils"
	"github.com/siahsang/yatube/models"
)

type commentStore struct {
	sqlTemplate *databaseutils.SQLTemplate
}

func (s *commentStore) Create(ctx context.Context, comment *models.Comment) error {
	insertSQL := `
		INSERT INTO comments (post_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	_, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, insertSQL, func(rows *sql.Rows) (*models.Comment, error) {
		if err := rows.Scan(&comment.ID, &comment.CreatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return comment, nil
	}, comment.PostID, comment.AuthorID, comment.Text, nowIfZero(comment.CreatedAt))

	if err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (s *commentStore) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	query := `
		SELECT id, post_id, author_id, text, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
	`

	comments, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (*models.Comment, error) {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return &comment, nil
	}, postID)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

func (s *commentStore) CountByPostIDs(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	if len(postIDs) == 0 {
		return map[int64]int64{}, nil
	}

	type postCount struct {
		postID int64
		count  int64
	}

	query := `
		SELECT post_id, COUNT(*)
		FROM comments
		WHERE post_id = ANY($1)
		GROUP BY post_id
	`
	counts, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (postCount, error) {
		var c postCount
		err := rows.Scan(&c.postID, &c.count)
		return c, err
	}, pq.Array(postIDs))
	if err != nil {
		return nil, xerrors.New(err)
	}

	return collectionutils.Associate(counts, func(c postCount) (int64, int64) { return c.postID, c.count }), nil
}
