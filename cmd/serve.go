package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
	"github.com/giantswarm/mcp-toolpool/internal/app"
)

var (
	serveTransport       string
	serveAddr            string
	serveRefreshInterval time.Duration
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the aggregated catalog as one MCP server",
		Long: `Connects to every configured server and serves their tools as a single
MCP server. Each call is forwarded to the server that offers the tool.

With the stdio transport, logs go to stderr so stdout carries only protocol
messages.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveTransport, "transport", aggregator.TransportStdio, "Transport (stdio, streamable-http)")
	cmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address for streamable-http")
	cmd.Flags().DurationVar(&serveRefreshInterval, "refresh-interval", 0, "Re-list every server's tools at this interval (0 disables)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// The spinner would interleave with protocol output on a terminal.
	quiet = quiet || serveTransport == aggregator.TransportStdio

	application, err := newApplication()
	if err != nil {
		return err
	}
	if err := application.Start(cmd.Context()); err != nil {
		return err
	}
	defer application.Close()

	return application.Serve(cmd.Context(), app.ServeOptions{
		Transport:       serveTransport,
		Addr:            serveAddr,
		RefreshInterval: serveRefreshInterval,
		In:              os.Stdin,
		Out:             os.Stdout,
	})
}
