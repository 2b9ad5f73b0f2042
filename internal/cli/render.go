package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string // base path; one file per format
	formats     string // comma-separated: dot, svg, png, pdf
	detailed    bool   // per-handle rates in node labels
	leftToRight bool
}

// renderCommand creates the render command for drawing the production graph.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [snapshot]",
		Short: "Draw the production graph with its flow status",
		Long: `Render draws every node and connection of a snapshot. Connections into
short inputs are red, overproducing nodes are amber and targets are outlined.

SVG output needs no external tools; PNG and PDF need rsvg-convert on PATH.`,
		Example: `  flowplan render factory.json
  flowplan render factory.json -f svg,png -o out/factory
  flowplan render factory.json -f dot --lr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: snapshot path without extension)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show per-handle rates in node labels")
	cmd.Flags().BoolVar(&opts.leftToRight, "lr", false, "lay the graph out left to right")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(renderFormats(), cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	snap, err := flowio.ImportSnapshot(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.Formats = formats
	popts.Detailed = opts.detailed
	popts.LeftToRight = opts.leftToRight

	sw := startStopwatch(c.Logger)
	s := startSpinner(ctx, "Rendering "+strings.Join(formats, ", ")+"...")
	artifacts, cached, err := runner.Render(ctx, snap, popts)
	s.Stop()
	if err != nil {
		return err
	}

	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(path, filepath.Ext(path))
	}
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	sw.done("Rendered "+strings.Join(formats, ", "), "cached", cached)
	printStats(len(snap.Nodes), len(snap.Connections), cached)
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		out := base + "." + f
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printFile(out)
	}
	return nil
}
