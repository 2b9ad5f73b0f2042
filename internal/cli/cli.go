package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/buildinfo"
	"github.com/matzehuels/flowplan/pkg/cache"
	"github.com/matzehuels/flowplan/pkg/config"
	"github.com/matzehuels/flowplan/pkg/pipeline"
	"github.com/matzehuels/flowplan/pkg/trace/mongo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowplan"

	// cliCachePrefix scopes CLI entries when the cache backend is shared.
	cliCachePrefix = "cli:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	verbose    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "flowplan balances factory production networks",
		Long:          `flowplan computes machine counts for factory production networks so that every connected input is supplied, pinned targets keep their throughput, and the total machine count stays minimal.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowplan/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the result cache")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	// Register all subcommands
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.flowsCommand())
	root.AddCommand(c.propagateCommand())
	root.AddCommand(c.balanceCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, cache.NewScopedKeyer(nil, cliCachePrefix), c.Logger)

	if uri := c.cfg.Trace.MongoURI; uri != "" {
		store, err := mongo.Open(ctx, uri, c.cfg.Trace.Database)
		if err != nil {
			c.Logger.Warn("trace archive unavailable", "err", err)
		} else {
			r.Traces = store
		}
	}
	return r, nil
}

func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	opts := cache.Options{
		Backend:   c.cacheBackend(),
		RedisAddr: c.cfg.Cache.RedisAddr,
	}
	if opts.Backend == cache.BackendFile {
		dir, err := c.fileCacheDir()
		if err != nil {
			c.Logger.Warn("caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		opts.Dir = dir
	}
	return cache.Open(ctx, opts)
}

// pipelineOptions returns solve options seeded from the config file.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		AllowDeficiency:   c.cfg.Solver.AllowDeficiency,
		DeficiencyPenalty: c.cfg.Solver.DeficiencyPenalty,
		MaxBalancePasses:  c.cfg.Solver.MaxBalancePasses,
		TTL:               c.cfg.Cache.TTL.Duration,
		Logger:            c.Logger,
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowplan/).
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
