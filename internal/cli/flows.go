package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/api"
	flowio "github.com/matzehuels/flowplan/pkg/io"
)

// flowsCommand creates the flows command.
func (c *CLI) flowsCommand() *cobra.Command {
	var format, server string

	cmd := &cobra.Command{
		Use:   "flows [snapshot]",
		Short: "Show per-handle flow status at the current counts",
		Long: `Flows estimates how much of each product travels over every connection at
the snapshot's current machine counts and lists inputs that are short and
outputs that overproduce.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFlows(cmd.Context(), args[0], format, server)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "print the report to stdout as json or yaml")
	cmd.Flags().StringVar(&server, "server", "", "query a remote flowplan server")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(reportFormats, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) runFlows(ctx context.Context, path, format, server string) error {
	snap, err := flowio.ImportSnapshot(path)
	if err != nil {
		return err
	}

	var (
		report flowio.Report
		cached bool
	)
	if server != "" {
		resp, err := api.NewClient(server).Flows(ctx, api.SolveRequest{Snapshot: snap})
		if err != nil {
			return err
		}
		report, cached = resp.Report, resp.CacheHit
	} else {
		runner, err := c.newRunner(ctx)
		if err != nil {
			return err
		}
		defer runner.Close()
		report, cached, err = runner.Flows(ctx, snap)
		if err != nil {
			return err
		}
	}

	if format != "" {
		return c.emitReport(report, "", format)
	}

	if report.Feasible {
		printSuccess("All connected inputs are supplied")
	} else {
		printWarning("%d inputs are short", len(report.Deficiencies))
	}
	printStats(len(snap.Nodes), len(snap.Connections), cached)

	if len(report.Deficiencies) > 0 {
		printNewline()
		printInfo("Deficient inputs")
		fmt.Fprintln(stdout, renderHandleTable(report.Deficiencies, colorRed))
	}
	if len(report.Excesses) > 0 {
		printNewline()
		printInfo("Excess outputs")
		fmt.Fprintln(stdout, renderHandleTable(report.Excesses, colorShort))
	}
	if !report.Feasible {
		printNewline()
		printNextStep("Fix counts", fmt.Sprintf("%s balance %s", appName, path))
	}
	return nil
}
