package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowplan/pkg/errors"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
[solver]
allow_deficiency = true

[cache]
backend = "redis"
redis_addr = "cache:6379"
ttl = "90m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Solver.AllowDeficiency || cfg.Solver.MaxBalancePasses != 10 {
		t.Errorf("Solver = %+v", cfg.Solver)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "[solver\n", errors.ErrCodeInvalidConfig},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", errors.ErrCodeInvalidConfig},
		{"bad ttl", "[cache]\nttl = \"soon\"\n", errors.ErrCodeInvalidConfig},
		{"bad passes", "[solver]\nmax_balance_passes = 0\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file error = %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("default missing file error = %v", err)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Server.Addr = ":9090"
	if err := cfg.Write(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Server.Addr != ":9090" || back.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("loaded = %+v", back)
	}
}

func TestDefaultPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, appName, "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
