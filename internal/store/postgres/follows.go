package postgres

import (
	"context"
	"database/sql"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/utils/databaseutils"
)

type followStore struct {
	sqlTemplate *databaseutils.SQLTemplate
}

func (s *followStore) Create(ctx context.Context, followerID, followedID int64) (bool, error) {
	insertSQL := `
		INSERT INTO follows (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	affected, err := databaseutils.ExecuteUpdate(s.sqlTemplate, ctx, insertSQL, followerID, followedID)
	if err != nil {
		return false, xerrors.New(err)
	}
	return affected == 1, nil
}

func (s *followStore) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	deleteSQL := `
		DELETE FROM follows
		WHERE follower_id = $1 AND followed_id = $2
	`
	affected, err := databaseutils.ExecuteUpdate(s.sqlTemplate, ctx, deleteSQL, followerID, followedID)
	if err != nil {
		return false, xerrors.New(err)
	}
	return affected > 0, nil
}

func (s *followStore) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	const selectSQL = `
		SELECT EXISTS(
			SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2
		)
	`
	return s.scalarBool(ctx, selectSQL, followerID, followedID)
}

func (s *followStore) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	return s.scalarCount(ctx, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, userID)
}

func (s *followStore) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	return s.scalarCount(ctx, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID)
}

func (s *followStore) scalarBool(ctx context.Context, query string, args ...any) (bool, error) {
	v, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (bool, error) {
		var v bool
		err := rows.Scan(&v)
		return v, err
	}, args...)
	if err != nil {
		return false, xerrors.New(err)
	}
	return v, nil
}

func (s *followStore) scalarCount(ctx context.Context, query string, args ...any) (int64, error) {
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
