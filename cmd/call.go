package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
	"github.com/giantswarm/mcp-toolpool/internal/formatting"
)

var (
	callArgs         string
	callToolUseID    string
	callOutputFormat string
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool on whichever server offers it",
		Long: `Connects to every configured server, routes the call to the first
server offering the tool and prints the result envelope:

  {"toolResult": {"toolUseId": "...", "content": [{"text": "..."}], "status": "success"}}

A tool that fails remotely or is not offered by any server still produces an
envelope, with status "error"; the command itself succeeds.`,
		Example: `  toolpool call get_forecast --args '{"city": "Berlin"}'`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCall,
	}
	cmd.Flags().StringVar(&callArgs, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().StringVar(&callToolUseID, "id", "", "toolUseId for the envelope (default: random UUID)")
	cmd.Flags().StringVarP(&callOutputFormat, "output", "o", string(formatting.FormatJSON), "Output format (json, yaml, table)")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(callOutputFormat)
	if err != nil {
		return err
	}
	arguments, err := parseToolArgs(callArgs)
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

	result := application.Router().Dispatch(cmd.Context(), aggregator.ToolCall{
		ToolUseID: callToolUseID,
		Name:      args[0],
		Arguments: arguments,
	})
	return formatting.FormatToolResult(cmd.OutOrStdout(), result, formatting.Options{
		Format: format,
		Color:  isTerminal(cmd),
	})
}

// parseToolArgs decodes the --args flag. Empty input means no arguments.
func parseToolArgs(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	var arguments map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	return arguments, nil
}
