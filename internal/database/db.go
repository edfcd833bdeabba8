// Package database opens the connections the stores run on: a database/sql
// pool for the raw postgres store and a gorm handle for the ORM store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres     = "postgres"
	DriverSQLite       = "sqlite"
	DriverGormPostgres = "gorm-postgres"
)

type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	SlowQuery       time.Duration
}

// OpenSQL opens and pings a postgres pool through lib/pq.
func OpenSQL(ctx context.Context, opts Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, xerrors.New(err)
	}

	configurePool(db, opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, xerrors.New(err)
	}

	return db, nil
}

// OpenGorm opens a gorm handle on sqlite or postgres, depending on
// opts.Driver. An in-memory sqlite database is pinned to one connection so
// every query sees the same data.
func OpenGorm(opts Options, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	case DriverGormPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, xerrors.Newf("unsupported gorm driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(slogWriter{log: log}, gormlogger.Config{
			SlowThreshold:             opts.SlowQuery,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, xerrors.New(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, xerrors.New(err)
	}
	if opts.Driver == DriverSQLite && isMemoryDSN(opts.DSN) {
		sqlDB.SetMaxOpenConns(1)
	} else {
		configurePool(sqlDB, opts)
	}

	return db, nil
}

func configurePool(db *sql.DB, opts Options) {
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// slogWriter routes gorm's logger output into slog.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "gorm"))
}
