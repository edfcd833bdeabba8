package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/golang-cz/devslog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/cache"
	"github.com/siahsang/yatube/internal/config"
	"github.com/siahsang/yatube/internal/core"
	"github.com/siahsang/yatube/internal/database"
	"github.com/siahsang/yatube/internal/media"
	"github.com/siahsang/yatube/internal/metrics"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/store/gormstore"
	"github.com/siahsang/yatube/internal/store/postgres"
)

type application struct {
	config   *config.Config
	logger   *slog.Logger
	core     *core.Core
	auth     *auth.Auth
	media    *media.Store
	cache    cache.Cache
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	wg       sync.WaitGroup
}

func main() {
	configPath := flag.String("config", os.Getenv("BLOG_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Errors loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := configLogger(os.Stdout, cfg.Log)
	logger.Info("Starting application...", slog.String("driver", cfg.Database.Driver))

	st, closeStore, err := openStore(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Errors opening database connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Errors closing database connection", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Database connection established successfully")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := newApplication(cfg, logger, st, registry)

	if err := app.serve(); err != nil {
		logger.Error("ErrorStack starting server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newApplication(cfg *config.Config, logger *slog.Logger, st *store.Store, registry *prometheus.Registry) *application {
	var pageCache cache.Cache = cache.Noop{}
	if cfg.Cache.Enabled {
		pageCache = cache.NewMemory(cfg.Cache.TTL)
	}

	return &application{
		config: cfg,
		logger: logger,
		core: core.NewCore(st, logger, core.PageSizes{
			Index:     cfg.Feed.IndexPageSize,
			Group:     cfg.Feed.GroupPageSize,
			Profile:   cfg.Feed.ProfilePageSize,
			Following: cfg.Feed.FollowingPageSize,
		}),
		auth: auth.New(auth.Options{
			JWTSecret:     cfg.Auth.JWTSecret,
			TokenTTL:      cfg.Auth.TokenTTL,
			SessionSecret: cfg.Auth.SessionSecret,
			SessionMaxAge: cfg.Auth.SessionMaxAge,
			SecureCookies: cfg.Auth.SecureCookies,
		}),
		media:    media.NewStore(cfg.Media.Dir, cfg.Media.URLPrefix, cfg.Media.MaxUploadBytes, logger),
		cache:    pageCache,
		metrics:  metrics.New(registry),
		registry: registry,
	}
}

func configLogger(w io.Writer, cfg config.Log) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.SlogLevel(),
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}

	handler := devslog.NewHandler(
		w, &devslog.Options{
			HandlerOptions:  handlerOptions,
			NewLineAfterLog: false,
		})
	return slog.New(handler)
}

// openStore connects the configured driver and returns the repositories with
// a function releasing the connection.
func openStore(ctx context.Context, cfg config.Database, logger *slog.Logger) (*store.Store, func() error, error) {
	opts := database.Options{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		SlowQuery:       cfg.SlowQuery,
	}

	if cfg.Driver == database.DriverPostgres {
		db, err := database.OpenSQL(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return postgres.New(db, logger, cfg.QueryTimeout), db.Close, nil
	}

	db, err := database.OpenGorm(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := gormstore.Migrate(ctx, db); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
	}
	return gormstore.New(db, logger), sqlDB.Close, nil
}
