package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/api"
	"github.com/matzehuels/flowplan/pkg/cache"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/observability/prom"
	"github.com/matzehuels/flowplan/pkg/worker"
)

// apiCachePrefix keeps server entries apart from CLI entries in a shared
// backend.
const apiCachePrefix = "api:"

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowplan HTTP API",
		Long: `Serve exposes solve, flows, propagate, balance, render and diagnose over
HTTP, with Prometheus metrics on /metrics.

Use the cache.backend = "redis" setting to share results between replicas
and trace.mongo_uri to archive balancing and propagation traces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Keyer = cache.NewScopedKeyer(nil, apiCachePrefix)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom.Register(reg)

	popts := c.pipelineOptions()
	popts.SetDefaults()
	w := worker.New(c.Logger.WithPrefix("worker"), popts.SolverOptions(factory.Snapshot{}))
	w.Start(ctx)

	srv := api.New(api.Config{
		Runner:   runner,
		Worker:   w,
		Gatherer: reg,
		TTL:      c.cfg.Cache.TTL.Duration,
		Logger:   c.Logger,
	})

	printInfo("Serving flowplan API")
	printKeyValue("address", addr)
	printKeyValue("cache", c.cacheBackend())
	if runner.Traces != nil {
		printKeyValue("traces", c.cfg.Trace.Database)
	}
	return srv.ListenAndServe(ctx, addr)
}

func (c *CLI) cacheBackend() string {
	if c.noCache {
		return cache.BackendNone
	}
	if c.cfg.Cache.Backend == "" {
		return cache.BackendFile
	}
	return c.cfg.Cache.Backend
}
