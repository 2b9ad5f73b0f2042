package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/api"
	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/graph"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/solver/ratio"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// propagateOpts holds the command-line flags for the propagate command.
type propagateOpts struct {
	node   string
	count  float64
	handle string // "input:0" or "output:1"
	apply  string
	trace  string
	server string
}

// propagateCommand creates the propagate command.
func (c *CLI) propagateCommand() *cobra.Command {
	opts := propagateOpts{}

	cmd := &cobra.Command{
		Use:   "propagate [snapshot]",
		Short: "Change one node's count and scale its neighbours to match",
		Long: `Propagate sets the machine count of one node and carries the ratio of the
change through connected nodes, so suppliers and consumers keep pace.

With --handle, only the side of the graph reached through that handle is
adjusted.`,
		Example: `  flowplan propagate factory.json --node smelter --count 4
  flowplan propagate factory.json --node smelter --count 4 --handle input:0
  flowplan propagate factory.json --node smelter --count 4 --apply factory.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPropagate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.node, "node", "", "node to edit (required)")
	cmd.Flags().Float64Var(&opts.count, "count", 0, "new machine count (required)")
	cmd.Flags().StringVar(&opts.handle, "handle", "", "limit propagation to one handle, e.g. input:0")
	cmd.Flags().StringVar(&opts.apply, "apply", "", "write the snapshot with updated counts to a file")
	cmd.Flags().StringVar(&opts.trace, "trace", "", "write the propagation trace as JSON")
	cmd.Flags().StringVar(&opts.server, "server", "", "propagate on a remote flowplan server")
	_ = cmd.RegisterFlagCompletionFunc("node", completeNodeIDs)
	_ = cmd.RegisterFlagCompletionFunc("handle", cobra.FixedCompletions([]string{"input:0", "output:0"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.MarkFlagRequired("node")
	_ = cmd.MarkFlagRequired("count")

	return cmd
}

func (c *CLI) runPropagate(ctx context.Context, path string, opts propagateOpts) error {
	snap, err := flowio.ImportSnapshot(path)
	if err != nil {
		return err
	}
	n, ok := snap.Node(opts.node)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", opts.node)
	}
	if opts.count < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "count must not be negative")
	}

	edit := ratio.Edit{NodeID: n.ID, OldCount: n.MachineCount, NewCount: opts.count}
	if opts.handle != "" {
		h, err := parseHandle(opts.handle)
		if err != nil {
			return err
		}
		edit.Handle = h
	}

	var (
		counts map[string]float64
		t      *trace.Trace
	)
	if opts.server != "" {
		req := api.PropagateRequest{Snapshot: snap, NodeID: edit.NodeID, OldCount: edit.OldCount, NewCount: edit.NewCount}
		if edit.Handle != nil {
			req.Handle = &api.HandleRef{Side: edit.Handle.Side.String(), Index: edit.Handle.Index}
		}
		resp, err := api.NewClient(opts.server).Propagate(ctx, req)
		if err != nil {
			return err
		}
		counts = resp.Counts
		printDetail("trace %s", resp.TraceID)
	} else {
		runner, err := c.newRunner(ctx)
		if err != nil {
			return err
		}
		defer runner.Close()
		counts, t, err = runner.Propagate(ctx, snap, edit)
		if err != nil {
			return err
		}
	}

	printSuccess("Propagated %s %s %s",
		StyleHighlight.Render(edit.NodeID),
		formatCount(edit.OldCount)+" "+markArrow,
		formatCount(edit.NewCount))
	printDetail("%d nodes reached", len(counts))
	if len(counts) > 0 {
		fmt.Fprintln(stdout, renderCountTable(snap.Counts(), counts))
	}
	printTraceWarnings(t)

	if opts.trace != "" && t != nil {
		if err := writeTrace(opts.trace, t); err != nil {
			return err
		}
		printFile(opts.trace)
	}
	if opts.apply != "" {
		if err := applySnapshot(snap, counts, opts.apply); err != nil {
			return err
		}
		printSuccess("Applied %d updates", len(counts))
		printFile(opts.apply)
	}
	return nil
}

// parseHandle parses "side:index".
func parseHandle(s string) (*ratio.Handle, error) {
	sideStr, idxStr, ok := strings.Cut(s, ":")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "handle must look like input:0, got %q", s)
	}
	side, err := graph.ParseSide(sideStr)
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "handle index must be a non-negative integer, got %q", idxStr)
	}
	return &ratio.Handle{Side: side, Index: idx}, nil
}

func writeTrace(path string, t *trace.Trace) error {
	data, err := t.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
