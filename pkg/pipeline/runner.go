package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowplan/pkg/cache"
	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/solver"
	"github.com/matzehuels/flowplan/pkg/solver/balance"
	"github.com/matzehuels/flowplan/pkg/solver/ratio"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the trace store and the
// logger. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// Traces archives balancer and propagation traces. May be nil.
	Traces trace.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// SnapshotHash returns the content hash used in every cache key for snap.
func SnapshotHash(snap factory.Snapshot) (string, error) {
	data, err := flowio.CanonicalJSON(snap)
	if err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	return cache.Hash(data), nil
}

// Solve runs the LP on snap, serving the report from the cache when an
// identical request was solved before.
//
// Solver outcomes, infeasible ones included, are part of the result. An
// error is returned only for invalid options or a solver failure with no
// fallback.
func (r *Runner) Solve(ctx context.Context, snap factory.Snapshot, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}

	hash, err := SnapshotHash(snap)
	if err != nil {
		return nil, err
	}
	result := &Result{SnapshotHash: hash}
	key := r.Keyer.SolveKey(hash, opts.SolveKeyOpts(snap))

	if !opts.Refresh {
		if report, ok := r.lookup(ctx, key, "solve"); ok {
			result.Report = report
			result.Stats = Stats{NodeCount: len(snap.Nodes), EdgeCount: len(snap.Connections), CacheHit: true}
			return result, nil
		}
	}

	start := time.Now()
	res := solver.SolveContext(ctx, snap.Nodes, snap.Connections, snap.TargetSet(), opts.SolverOptions(snap))
	result.Stats.SolveTime = time.Since(start)
	if res.Err != nil && !res.Fallback {
		return nil, res.Err
	}
	result.Solve = &res
	result.Report = flowio.NewReport(res)
	if res.FlowByNode != nil {
		result.Stats.NodeCount = len(res.MachineCountByNode)
		result.Stats.EdgeCount = len(res.FlowByConnection)
	}

	r.Logger.Info("solved snapshot",
		"status", res.Status,
		"feasible", res.Feasible,
		"updates", len(res.Updates),
		"duration", result.Stats.SolveTime)

	if res.Fallback {
		// Fallback results depend on the breakdown, not just the input.
		r.archive(ctx, res.Trace)
		return result, nil
	}
	r.store(ctx, key, "solve", result.Report, opts.TTL)
	return result, nil
}

// Flows reports the flow status of snap at its current counts.
func (r *Runner) Flows(ctx context.Context, snap factory.Snapshot) (flowio.Report, bool, error) {
	hash, err := SnapshotHash(snap)
	if err != nil {
		return flowio.Report{}, false, err
	}
	key := r.Keyer.FlowsKey(hash)
	if report, ok := r.lookup(ctx, key, "flows"); ok {
		return report, true, nil
	}

	g, fr := r.calculate(snap)
	report := flowio.NewFlowReport(g, fr)
	r.store(ctx, key, "flows", report, DefaultTTL)
	return report, false, nil
}

// Balance runs the iterative balancer on snap and archives its trace.
func (r *Runner) Balance(ctx context.Context, snap factory.Snapshot, opts Options) (*balance.Result, *trace.Trace, error) {
	if opts.MaxBalancePasses < 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "max_balance_passes must not be negative")
	}
	cat, _ := snap.Catalog()
	g := graph.Build(snap.Nodes, snap.Connections, cat)

	start := time.Now()
	rec := trace.NewRecorder(trace.KindBalance)
	res := balance.Run(g, nil, snap.TargetSet(), balance.Options{MaxPasses: opts.MaxBalancePasses}, rec)
	observability.Solver().OnBalance(ctx, res.Passes, res.Balanced, time.Since(start))

	t := rec.Trace()
	r.Logger.Info("balanced snapshot",
		"passes", res.Passes,
		"balanced", res.Balanced,
		"steps", len(t.Steps),
		"warnings", len(t.Warnings))
	r.archive(ctx, t)
	return res, t, nil
}

// Propagate applies one count edit to snap with ratio propagation and
// archives its trace. The returned map holds the new count of every
// reached node.
func (r *Runner) Propagate(ctx context.Context, snap factory.Snapshot, e ratio.Edit) (map[string]float64, *trace.Trace, error) {
	n, ok := snap.Node(e.NodeID)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", e.NodeID)
	}
	if h := e.Handle; h != nil {
		slots := n.Inputs
		if h.Side == graph.SideOutput {
			slots = n.Outputs
		}
		if h.Index < 0 || h.Index >= len(slots) {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "node %q has no %s handle %d", e.NodeID, h.Side, h.Index)
		}
	}

	rec := trace.NewRecorder(trace.KindPropagate)
	counts := solver.Propagate(ctx, snap.Nodes, snap.Connections, e, rec)
	t := rec.Trace()
	r.Logger.Debug("propagated edit", "node", e.NodeID, "from", e.OldCount, "to", e.NewCount, "reached", len(counts))
	r.archive(ctx, t)
	return counts, t, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.Traces != nil {
		if err := r.Traces.Close(context.Background()); err != nil {
			r.Logger.Warn("close trace store", "err", err)
		}
	}
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// calculate builds the graph of snap and its flow status at current counts.
func (r *Runner) calculate(snap factory.Snapshot) (*graph.Graph, *flow.Result) {
	cat, _ := snap.Catalog()
	g := graph.Build(snap.Nodes, snap.Connections, cat)
	return g, flow.Calculate(g, nil, nil)
}

func (r *Runner) lookup(ctx context.Context, key, keyType string) (flowio.Report, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
		return flowio.Report{}, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return flowio.Report{}, false
	}
	report, err := flowio.DecodeReport(data)
	if err != nil {
		// A corrupt entry is recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, keyType)
		return flowio.Report{}, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return report, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, report flowio.Report, ttl time.Duration) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) archive(ctx context.Context, t *trace.Trace) {
	if r.Traces == nil || t == nil {
		return
	}
	if err := r.Traces.Save(ctx, t); err != nil {
		r.Logger.Warn("archive trace failed", "trace", t.ID, "err", err)
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
