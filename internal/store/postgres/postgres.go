// Package postgres implements the repositories with hand-written SQL on
// lib/pq.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/databaseutils"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// New returns the repositories backed by db. timeout bounds every statement.
func New(db *sql.DB, log *slog.Logger, timeout time.Duration) *store.Store {
	sqlTemplate := databaseutils.NewSQLTemplate(db, timeout)
	session := databaseutils.NewSession(db, log)

	return &store.Store{
		Users:    &userStore{sqlTemplate: sqlTemplate, log: log},
		Groups:   &groupStore{sqlTemplate: sqlTemplate},
		Posts:    &postStore{sqlTemplate: sqlTemplate, session: session, log: log},
		Comments: &commentStore{sqlTemplate: sqlTemplate},
		Follows:  &followStore{sqlTemplate: sqlTemplate},
	}
}

// Migrate applies the embedded schema; every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func translateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return xerrors.New(store.ErrRecordNotFound)
	}
	return xerrors.New(err)
}

// uniqueConstraint returns the violated constraint name of a unique
// violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
