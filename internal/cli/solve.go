package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/api"
	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/pipeline"
)

// solveOpts holds the command-line flags for the solve command.
type solveOpts struct {
	allowDeficiency bool
	penalty         float64
	refresh         bool
	output          string // report file; format from extension
	format          string // stdout format when no output is given
	apply           string // write the updated snapshot here
	server          string // solve remotely on a flowplan server
	check           bool   // fail with INFEASIBLE when no plan exists
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOpts{}

	cmd := &cobra.Command{
		Use:   "solve [snapshot]",
		Short: "Compute minimal machine counts for a factory snapshot",
		Long: `Solve reads a factory snapshot (JSON or YAML) and computes machine counts
that supply every connected input while keeping target nodes pinned.

When the exact model is infeasible, pass --allow-deficiency to see which
inputs would stay short and by how much.`,
		Example: `  flowplan solve factory.json
  flowplan solve factory.yaml --apply factory.solved.yaml
  flowplan solve factory.json --allow-deficiency --format yaml
  flowplan solve factory.json --server http://localhost:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.allowDeficiency, "allow-deficiency", false, "allow inputs to stay short at a penalty")
	cmd.Flags().Float64Var(&opts.penalty, "penalty", 0, "objective weight per unit of deficiency (default from config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file")
	cmd.Flags().StringVar(&opts.format, "format", "", "print the report to stdout as json or yaml")
	cmd.Flags().StringVar(&opts.apply, "apply", "", "write the snapshot with updated counts to a file")
	cmd.Flags().StringVar(&opts.server, "server", "", "solve on a remote flowplan server")
	cmd.Flags().BoolVar(&opts.check, "check", false, "exit with status 3 when no feasible plan exists")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(reportFormats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, path string, opts solveOpts) error {
	snap, err := flowio.ImportSnapshot(path)
	if err != nil {
		return err
	}

	popts := c.pipelineOptions()
	popts.Refresh = opts.refresh
	if opts.allowDeficiency {
		popts.AllowDeficiency = true
	}
	if opts.penalty > 0 {
		popts.DeficiencyPenalty = opts.penalty
	}

	var (
		report  flowio.Report
		cached  bool
		elapsed time.Duration
	)

	if opts.server != "" {
		start := time.Now()
		resp, err := api.NewClient(opts.server).Solve(ctx, api.SolveRequest{Snapshot: snap, Options: popts})
		if err != nil {
			return err
		}
		report, cached, elapsed = resp.Report, resp.CacheHit, time.Since(start)
	} else {
		runner, err := c.newRunner(ctx)
		if err != nil {
			return err
		}
		defer runner.Close()

		result, err := spin(ctx, "Solving...", func() (*pipeline.Result, error) {
			return runner.Solve(ctx, snap, popts)
		})
		if err != nil {
			return err
		}
		report, cached, elapsed = result.Report, result.Stats.CacheHit, result.Stats.SolveTime
	}

	c.Logger.Debug("solve finished", "status", report.Status, "cached", cached, "elapsed", elapsed)

	if err := c.emitReport(report, opts.output, opts.format); err != nil {
		return err
	}
	if opts.output == "" && opts.format == "" {
		printSolveSummary(report, len(snap.Nodes), len(snap.Connections), cached)
	}

	if opts.apply != "" {
		if err := applySnapshot(snap, report.Updates, opts.apply); err != nil {
			return err
		}
		printSuccess("Applied %d updates", len(report.Updates))
		printFile(opts.apply)
	}
	if opts.check && !report.Feasible {
		return errors.New(errors.ErrCodeInfeasible, "no feasible plan: %s", report.Status)
	}
	return nil
}

// emitReport writes report to output (format from extension) or, when
// format is set, to stdout.
func (c *CLI) emitReport(report flowio.Report, output, format string) error {
	if output != "" {
		f, err := flowio.FormatFromPath(output)
		if err != nil {
			return err
		}
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		if err := flowio.WriteReport(file, report, f); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		printSuccess("Report written")
		printFile(output)
		return nil
	}
	if format != "" {
		f, err := flowio.ParseFormat(format)
		if err != nil {
			return err
		}
		return flowio.WriteReport(os.Stdout, report, f)
	}
	return nil
}

// applySnapshot writes snap with updates merged into its machine counts.
func applySnapshot(snap factory.Snapshot, updates map[string]float64, path string) error {
	out := snap.Clone()
	out.Nodes = factory.ApplyUpdates(out.Nodes, updates)
	return flowio.ExportSnapshot(path, out)
}

func printSolveSummary(r flowio.Report, nodes, edges int, cached bool) {
	switch {
	case r.Fallback:
		printWarning("LP failed, balanced heuristically (%s)", r.Error)
	case r.Feasible:
		printSuccess("Solved: %s", StyleHighlight.Render(r.Status))
	default:
		printError("No solution: %s", r.Status)
	}
	printStats(nodes, edges, cached)

	if len(r.Updates) == 0 && r.Feasible {
		printDetail("Counts are already optimal")
	}
	if len(r.Updates) > 0 {
		printNewline()
		fmt.Fprintln(stdout, renderCountTable(r.MachineCounts, r.Updates))
	}
	for _, u := range r.Unsatisfied {
		printWarning("%s input %d (%s) short by %s/s", u.NodeID, u.InputIndex, u.ProductID, formatRate(u.Amount))
	}
	for _, id := range r.Dropped {
		printDetail("dropped connection %s", id)
	}
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
