// Package config loads flowplan settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/flowplan/config.toml (falling back to
// ~/.config/flowplan/config.toml). Every key is optional; missing keys keep
// the values from [Default].
//
//	[solver]
//	allow_deficiency = false
//	deficiency_penalty = 1e6
//	max_balance_passes = 10
//
//	[cache]
//	backend = "file"          # file | redis | none
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
//	[trace]
//	mongo_uri = ""
//	database = "flowplan"
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowplan/pkg/errors"
)

const appName = "flowplan"

// Config is the full settings tree.
type Config struct {
	Solver Solver `toml:"solver"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
	Trace  Trace  `toml:"trace"`
}

// Solver holds solver defaults.
type Solver struct {
	AllowDeficiency   bool    `toml:"allow_deficiency"`
	DeficiencyPenalty float64 `toml:"deficiency_penalty"`
	MaxBalancePasses  int     `toml:"max_balance_passes"`
}

// Cache selects the result cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Trace configures the trace archive. An empty MongoURI disables it.
type Trace struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Duration is a time.Duration written as a string such as "24h".
type Duration struct{ time.Duration }

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.Duration.String()), nil }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Solver: Solver{
			DeficiencyPenalty: 1e6,
			MaxBalancePasses:  10,
		},
		Cache: Cache{
			Backend:   "file",
			RedisAddr: "localhost:6379",
			TTL:       Duration{24 * time.Hour},
		},
		Server: Server{Addr: ":8080"},
		Trace:  Trace{Database: appName},
	}
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path over the defaults. An empty path means DefaultPath; a
// missing file at the default path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && stderrors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		if stderrors.Is(err, os.ErrNotExist) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Solver.DeficiencyPenalty < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "solver.deficiency_penalty must not be negative")
	}
	if c.Solver.MaxBalancePasses < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "solver.max_balance_passes must be at least 1")
	}
	if c.Trace.MongoURI != "" && c.Trace.Database == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "trace.database is required with trace.mongo_uri")
	}
	return nil
}

// Write encodes c as TOML to path, creating parent directories.
func (c Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
