package solver

import (
	"context"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/solver/balance"
	"github.com/matzehuels/flowplan/pkg/solver/lp"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// Options configures Solve.
type Options struct {
	// AllowDeficiency solves the permissive model, which is always feasible
	// and reports shortfalls instead of failing.
	AllowDeficiency bool

	// Weights scales each node's count in the objective (default 1).
	Weights map[string]float64

	// DeficiencyPenalty is the cost of one unit of shortfall in the
	// permissive model. Zero means lp.DefaultDeficiencyPenalty.
	DeficiencyPenalty float64

	// Catalog resolves product categories. May be nil.
	Catalog *factory.Catalog

	// MaxBalancePasses bounds the fallback balancer. Zero means
	// balance.DefaultMaxPasses.
	MaxBalancePasses int

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Result is the outcome of Solve.
type Result struct {
	// Feasible is true when every connected input can be supplied.
	Feasible bool
	Status   lp.Status
	// Fallback is true when the counts come from the iterative balancer
	// because the LP broke down.
	Fallback bool

	// MachineCountByNode holds the solved count of every node, zeros
	// included. Nodes outside the dependency set of the targets and
	// infeasible results keep their current counts.
	MachineCountByNode map[string]float64
	FlowByNode         *flow.Result
	FlowByConnection   map[string]float64

	// Updates holds only the counts that changed.
	Updates map[string]float64

	// Unsatisfied names the inputs that cannot be (or, in the permissive
	// model, were not) fully supplied.
	Unsatisfied []lp.Unsatisfied

	// Dropped lists connections discarded by the graph builder.
	Dropped []string

	// Trace is the balancer's record when Fallback is true.
	Trace *trace.Trace

	Err error
}

// Solve computes minimal machine counts that supply every connected input
// while targets keep their count.
func Solve(nodes []factory.Node, conns []factory.Connection, targets factory.TargetSet, opts Options) Result {
	return SolveContext(context.Background(), nodes, conns, targets, opts)
}

// SolveContext is Solve with a context for observability hooks. The solve
// itself is not cancellable.
func SolveContext(ctx context.Context, nodes []factory.Node, conns []factory.Connection, targets factory.TargetSet, opts Options) (res Result) {
	logger := opts.logger()
	hooks := observability.Solver()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: errors.New(errors.ErrCodeInternal, "solver panic: %v", r)}
		}
		hooks.OnSolveComplete(ctx, res.Status.String(), time.Since(start), res.Err)
	}()

	g := graph.Build(nodes, conns, opts.Catalog)
	hooks.OnSolveStart(ctx, g.NodeCount(), g.EdgeCount())
	logger.Debug("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "dropped", len(g.Dropped()))

	current := g.Counts()
	res.Dropped = g.Dropped()

	sol, err := lp.Solve(g, targets, lp.Options{
		AllowDeficiency:   opts.AllowDeficiency,
		Weights:           opts.Weights,
		DeficiencyPenalty: opts.DeficiencyPenalty,
	})
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeSolver {
			res.Err = err
			return res
		}
		logger.Warn("lp failed, falling back to balancer", "err", err)
		return fallback(ctx, g, current, targets, opts, err)
	}
	logger.Debug("lp solved", "status", sol.Status, "rows", sol.Rows, "columns", sol.Columns, "objective", sol.Objective)

	res.Status = sol.Status
	res.Unsatisfied = append(sol.Unsatisfied, sol.Shortfall...)

	if sol.Status == lp.StatusInfeasible {
		res.MachineCountByNode = current
		res.FlowByNode = flow.Calculate(g, current, nil)
		res.FlowByConnection = res.FlowByNode.EdgeFlows()
		res.Updates = map[string]float64{}
		return res
	}

	res.Feasible = len(sol.Shortfall) == 0
	res.Updates = ExtractUpdates(current, sol.MachineCounts)
	res.MachineCountByNode = overlay(current, sol.MachineCounts)
	res.FlowByConnection = flow.Fill(g, res.MachineCountByNode, sol.EdgeFlows)
	res.FlowByNode = flow.Calculate(g, res.MachineCountByNode, res.FlowByConnection)
	return res
}

// fallback runs the iterative balancer after an LP breakdown.
func fallback(ctx context.Context, g *graph.Graph, current map[string]float64, targets factory.TargetSet, opts Options, cause error) Result {
	start := time.Now()
	rec := trace.NewRecorder(trace.KindBalance)
	bal := balance.Run(g, current, targets, balance.Options{MaxPasses: opts.MaxBalancePasses}, rec)
	observability.Solver().OnBalance(ctx, bal.Passes, bal.Balanced, time.Since(start))

	res := Result{
		Feasible: bal.Balanced,
		Status:   lp.StatusInfeasible,
		Fallback: true,
		Dropped:  g.Dropped(),
		Trace:    rec.Trace(),
		Err:      fmt.Errorf("lp breakdown, balanced iteratively: %w", cause),
	}
	if bal.Balanced {
		res.Status = lp.StatusOptimal
	}
	res.Updates = ExtractUpdates(current, bal.Counts)
	res.MachineCountByNode = overlay(current, bal.Counts)
	res.FlowByNode = flow.Calculate(g, res.MachineCountByNode, nil)
	res.FlowByConnection = res.FlowByNode.EdgeFlows()
	for _, d := range bal.Remaining {
		res.Unsatisfied = append(res.Unsatisfied, lp.Unsatisfied{
			NodeID:     d.NodeID,
			InputIndex: d.InputIndex,
			ProductID:  d.ProductID,
			Amount:     d.Shortfall,
			Reason:     lp.ReasonUnsupplied,
		})
	}
	return res
}

func overlay(current, solved map[string]float64) map[string]float64 {
	out := maps.Clone(current)
	maps.Copy(out, solved)
	return out
}
