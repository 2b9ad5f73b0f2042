package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
		Long: `Manage cached solve, flow and render results.

Entries are keyed by the snapshot content and the options that change the
answer, so editing a snapshot never returns a stale result.`,
	}
	cmd.AddCommand(
		c.cacheSweepCommand("clear", "Remove every cached result", func(ctx context.Context, cc cache.Cache) (int, bool, error) {
			cl, ok := cc.(cache.Clearer)
			if !ok {
				return 0, false, nil
			}
			n, err := cl.Clear(ctx)
			return n, true, err
		}),
		c.cacheSweepCommand("prune", "Remove expired cached results", func(ctx context.Context, cc cache.Cache) (int, bool, error) {
			p, ok := cc.(cache.Pruner)
			if !ok {
				return 0, false, nil
			}
			n, err := p.Prune(ctx)
			return n, true, err
		}),
		&cobra.Command{
			Use:   "path",
			Short: "Print the file cache directory",
			RunE: func(cmd *cobra.Command, args []string) error {
				dir, err := c.fileCacheDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, dir)
				return nil
			},
		},
	)
	return cmd
}

// sweepFunc removes entries from cc. ok is false when the backend does not
// support the operation.
type sweepFunc func(ctx context.Context, cc cache.Cache) (n int, ok bool, err error)

func (c *CLI) cacheSweepCommand(use, short string, sweep sweepFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := c.openCache(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()

			n, ok, err := sweep(ctx, cc)
			switch {
			case err != nil:
				return fmt.Errorf("%s cache: %w", use, err)
			case !ok:
				printInfo("Nothing to %s on the %s backend", use, c.cacheBackend())
				return nil
			}

			printSuccess("Removed %s", plural(n, "cached result"))
			if fc, ok := cc.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// fileCacheDir is the configured cache directory or the per-user default.
func (c *CLI) fileCacheDir() (string, error) {
	if dir := c.cfg.Cache.Dir; dir != "" {
		return dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return dir, nil
}
