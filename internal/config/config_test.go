package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9091"
  slow_request: 250ms
log:
  level: debug
database:
  driver: postgres
  dsn: postgres://localhost/yatube?sslmode=disable
auth:
  jwt_secret: `+secret+`
  session_secret: `+secret+`
feed:
  profile_page_size: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":9091" || cfg.Server.SlowRequest != 250*time.Millisecond {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Log.SlogLevel())
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.QueryTimeout != 3*time.Second {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Feed.ProfilePageSize != 3 || cfg.Feed.IndexPageSize != 10 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "auth:\n  jwt_secret: "+secret+"\n  session_secret: "+secret+"\n")
	t.Setenv("BLOG_DATABASE_DSN", "file::memory:")
	t.Setenv("BLOG_CACHE_ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.DSN != "file::memory:" || cfg.Cache.Enabled {
		t.Errorf("env not applied: dsn=%q cache=%v", cfg.Database.DSN, cfg.Cache.Enabled)
	}

	t.Setenv("BLOG_CACHE_ENABLED", "sometimes")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "BLOG_CACHE_ENABLED") {
		t.Errorf("bad bool: got %v", err)
	}
}

func TestValidateReportsFields(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	cfg.Feed.IndexPageSize = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, field := range []string{"database.driver", "feed.index_page_size", "auth.jwt_secret"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}
