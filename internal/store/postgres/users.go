package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/databaseutils"
	"github.com/siahsang/yatube/internal/utils/stringutils"
)

const userColumns = `id, username, email, password, bio, created_at`

type userStore struct {
	sqlTemplate *databaseutils.SQLTemplate
	log         *slog.Logger
}

func scanUser(rows *sql.Rows) (*auth.User, error) {
	var user = &auth.User{}

	if err := rows.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.Bio,
		&user.CreatedAt,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return user, nil
}

func (s *userStore) Create(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (username, email, password, bio, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	args := []any{user.Username, user.Email, user.Password, user.Bio, nowIfZero(user.CreatedAt)}
	_, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (*auth.User, error) {
		if err := rows.Scan(&user.ID, &user.CreatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return user, nil
	}, args...)

	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == "users_email_key" {
				return xerrors.New(store.ErrDuplicateEmail)
			}
			return xerrors.New(store.ErrDuplicateUsername)
		}
		return xerrors.New(err)
	}

	s.log.Debug("user row created", slog.Int64("user_id", user.ID))
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanUser, id)
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanUser, username)
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (s *userStore) ListByIDs(ctx context.Context, ids []int64) ([]*auth.User, error) {
	if len(ids) == 0 {
		return []*auth.User{}, nil
	}

	placeholders, args := stringutils.INCluse(ids)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id IN (%s)`, userColumns, strings.Join(placeholders, ", "))

	users, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, scanUser, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return users, nil
}
