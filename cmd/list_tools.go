package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/giantswarm/mcp-toolpool/internal/formatting"
)

var listOutputFormat string

func newListToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list-tools",
		Aliases: []string{"tools"},
		Short:   "List the tools offered by every configured server",
		Long: `Connects to every configured server and prints the aggregated tool
catalog. Tools keep the order in which servers are configured.`,
		Args: cobra.NoArgs,
		RunE: runListTools,
	}
	cmd.Flags().StringVarP(&listOutputFormat, "output", "o", string(formatting.FormatTable), "Output format (table, wide, json, yaml)")
	return cmd
}

func runListTools(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(listOutputFormat)
	if err != nil {
		return err
	}

	application, err := newApplication()
	if err != nil {
		return err
	}
	if err := application.Start(cmd.Context()); err != nil {
		return err
	}
	defer application.Close()

	return formatting.FormatTools(cmd.OutOrStdout(), application.Router().Tools(), formatting.Options{
		Format: format,
		Color:  isTerminal(cmd),
	})
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
