package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/api"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// balanceOpts holds the command-line flags for the balance command.
type balanceOpts struct {
	passes int
	apply  string
	trace  string
	server string
}

// balanceCommand creates the balance command.
func (c *CLI) balanceCommand() *cobra.Command {
	opts := balanceOpts{}

	cmd := &cobra.Command{
		Use:   "balance [snapshot]",
		Short: "Raise supplier counts until every connected input is met",
		Long: `Balance repeatedly finds short inputs and scales up their suppliers, without
touching target nodes. It needs no LP and always terminates, but the result
is not guaranteed to be minimal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBalance(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.passes, "passes", 0, "maximum balancing passes (default from config)")
	cmd.Flags().StringVar(&opts.apply, "apply", "", "write the snapshot with updated counts to a file")
	cmd.Flags().StringVar(&opts.trace, "trace", "", "write the balancing trace as JSON")
	cmd.Flags().StringVar(&opts.server, "server", "", "balance on a remote flowplan server")

	return cmd
}

func (c *CLI) runBalance(ctx context.Context, path string, opts balanceOpts) error {
	snap, err := flowio.ImportSnapshot(path)
	if err != nil {
		return err
	}
	popts := c.pipelineOptions()
	if opts.passes > 0 {
		popts.MaxBalancePasses = opts.passes
	}

	var resp api.BalanceResponse
	if opts.server != "" {
		r, err := api.NewClient(opts.server).Balance(ctx, api.SolveRequest{Snapshot: snap, Options: popts})
		if err != nil {
			return err
		}
		resp = *r
	} else {
		runner, err := c.newRunner(ctx)
		if err != nil {
			return err
		}
		defer runner.Close()
		res, t, err := runner.Balance(ctx, snap, popts)
		if err != nil {
			return err
		}
		resp = api.BalanceResponse{
			Counts:    res.Counts,
			Passes:    res.Passes,
			Balanced:  res.Balanced,
			Remaining: flowio.DeficiencyStatus(res.Remaining),
			Trace:     t,
		}
	}

	updates := changedCounts(snap.Counts(), resp.Counts)
	if resp.Balanced {
		printSuccess("Balanced in %d passes", resp.Passes)
	} else {
		printWarning("Still short after %d passes", resp.Passes)
	}
	printDetail("%d nodes changed", len(updates))
	if len(updates) > 0 {
		fmt.Fprintln(stdout, renderCountTable(snap.Counts(), updates))
	}
	if len(resp.Remaining) > 0 {
		printNewline()
		printInfo("Remaining deficiencies")
		fmt.Fprintln(stdout, renderHandleTable(resp.Remaining, colorRed))
	}
	printTraceWarnings(resp.Trace)

	if opts.trace != "" && resp.Trace != nil {
		if err := writeTrace(opts.trace, resp.Trace); err != nil {
			return err
		}
		printFile(opts.trace)
	}
	if opts.apply != "" {
		if err := applySnapshot(snap, updates, opts.apply); err != nil {
			return err
		}
		printSuccess("Applied %d updates", len(updates))
		printFile(opts.apply)
	}
	return nil
}

// changedCounts returns the entries of after that differ from before.
func changedCounts(before, after map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for id, v := range after {
		if old, ok := before[id]; !ok || old != v {
			out[id] = v
		}
	}
	return out
}

func printTraceWarnings(t *trace.Trace) {
	if t == nil {
		return
	}
	for _, w := range t.Warnings {
		if w.NodeID != "" {
			printWarning("%s: %s", w.NodeID, w.Message)
		} else {
			printWarning("%s", w.Message)
		}
	}
}
