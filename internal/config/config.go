package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/validator"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Feed     Feed     `yaml:"feed"`
	Cache    Cache    `yaml:"cache"`
	Media    Media    `yaml:"media"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SlowRequest     time.Duration `yaml:"slow_request"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Database struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	SlowQuery       time.Duration `yaml:"slow_query"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type Auth struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	SessionSecret string        `yaml:"session_secret"`
	SessionMaxAge time.Duration `yaml:"session_max_age"`
	SecureCookies bool          `yaml:"secure_cookies"`
}

type Feed struct {
	IndexPageSize     int `yaml:"index_page_size"`
	GroupPageSize     int `yaml:"group_page_size"`
	ProfilePageSize   int `yaml:"profile_page_size"`
	FollowingPageSize int `yaml:"following_page_size"`
}

type Cache struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

type Media struct {
	Dir            string `yaml:"dir"`
	URLPrefix      string `yaml:"url_prefix"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     time.Minute,
			ShutdownTimeout: 20 * time.Second,
			SlowRequest:     500 * time.Millisecond,
		},
		Log: Log{
			Level:  "info",
			Format: "dev",
		},
		Database: Database{
			Driver:          "sqlite",
			DSN:             "yatube.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 10 * time.Second,
			QueryTimeout:    3 * time.Second,
			SlowQuery:       200 * time.Millisecond,
			AutoMigrate:     true,
		},
		Auth: Auth{
			TokenTTL:      72 * time.Hour,
			SessionMaxAge: 14 * 24 * time.Hour,
		},
		Feed: Feed{
			IndexPageSize:     10,
			GroupPageSize:     10,
			ProfilePageSize:   5,
			FollowingPageSize: 5,
		},
		Cache: Cache{
			Enabled: true,
			TTL:     20 * time.Second,
		},
		Media: Media{
			Dir:            "media",
			URLPrefix:      "/media",
			MaxUploadBytes: 5 << 20,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies BLOG_*
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.New(err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, xerrors.Newf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BLOG_SERVER_ADDR":         &cfg.Server.Addr,
		"BLOG_LOG_LEVEL":           &cfg.Log.Level,
		"BLOG_LOG_FORMAT":          &cfg.Log.Format,
		"BLOG_DATABASE_DRIVER":     &cfg.Database.Driver,
		"BLOG_DATABASE_DSN":        &cfg.Database.DSN,
		"BLOG_AUTH_JWT_SECRET":     &cfg.Auth.JWTSecret,
		"BLOG_AUTH_SESSION_SECRET": &cfg.Auth.SessionSecret,
		"BLOG_MEDIA_DIR":           &cfg.Media.Dir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"BLOG_CACHE_ENABLED":        &cfg.Cache.Enabled,
		"BLOG_AUTH_SECURE_COOKIES":  &cfg.Auth.SecureCookies,
		"BLOG_DATABASE_AUTOMIGRATE": &cfg.Database.AutoMigrate,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return xerrors.Newf("%s: %w", key, err)
		}
		*dst = b
	}

	return nil
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	v := validator.New()

	v.CheckNotBlank(cfg.Server.Addr, "server.addr", "must be set")
	var level slog.Level
	v.Check(level.UnmarshalText([]byte(cfg.Log.Level)) == nil, "log.level", "must be debug, info, warn or error")
	v.Check(cfg.Log.Format == "dev" || cfg.Log.Format == "json", "log.format", "must be dev or json")
	v.Check(slices.Contains([]string{"postgres", "sqlite", "gorm-postgres"}, cfg.Database.Driver), "database.driver", "must be postgres, sqlite or gorm-postgres")
	v.CheckNotBlank(cfg.Database.DSN, "database.dsn", "must be set")
	v.Check(cfg.Database.QueryTimeout > 0, "database.query_timeout", "must be positive")
	v.Check(len(cfg.Auth.JWTSecret) >= 32, "auth.jwt_secret", "must be at least 32 bytes")
	v.Check(len(cfg.Auth.SessionSecret) >= 32, "auth.session_secret", "must be at least 32 bytes")
	v.Check(cfg.Auth.TokenTTL > 0, "auth.token_ttl", "must be positive")
	v.Check(cfg.Feed.IndexPageSize > 0, "feed.index_page_size", "must be positive")
	v.Check(cfg.Feed.GroupPageSize > 0, "feed.group_page_size", "must be positive")
	v.Check(cfg.Feed.ProfilePageSize > 0, "feed.profile_page_size", "must be positive")
	v.Check(cfg.Feed.FollowingPageSize > 0, "feed.following_page_size", "must be positive")
	v.Check(!cfg.Cache.Enabled || cfg.Cache.TTL > 0, "cache.ttl", "must be positive when the cache is enabled")
	v.CheckNotBlank(cfg.Media.Dir, "media.dir", "must be set")
	v.Check(strings.HasPrefix(cfg.Media.URLPrefix, "/"), "media.url_prefix", "must start with /")
	v.Check(cfg.Media.MaxUploadBytes > 0, "media.max_upload_bytes", "must be positive")

	if v.IsValid() {
		return nil
	}

	keys := slices.Sorted(maps.Keys(v.Errors))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, v.Errors[k]))
	}
	return xerrors.Newf("invalid configuration: %s", strings.Join(parts, "; "))
}

// SlogLevel returns the configured level; Validate has already checked it.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(l.Level))
	return level
}
