package cli

import (
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/pipeline"
)

var shells = []string{"bash", "zsh", "fish", "powershell"}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion " + strings.Join(shells, "|"),
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for the given shell.

Besides commands and flags, the scripts complete node ids for
"propagate --node" from the snapshot on the command line, and the
formats accepted by --format.`,
		Example: `  source <(flowplan completion bash)
  flowplan completion zsh > "${fpath[1]}/_flowplan"
  flowplan completion fish > ~/.config/fish/completions/flowplan.fish
  flowplan completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeNodeIDs offers the node ids of the snapshot given as the first
// positional argument.
func completeNodeIDs(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	snap, err := flowio.ImportSnapshot(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, n := range snap.Nodes {
		if strings.HasPrefix(n.ID, prefix) {
			ids = append(ids, n.ID)
		}
	}
	slices.Sort(ids)
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// renderFormats lists the values accepted by render --format.
func renderFormats() []string {
	return slices.Sorted(maps.Keys(pipeline.ValidFormats))
}

var reportFormats = []string{"json", "yaml"}
