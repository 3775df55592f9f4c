package app

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

// ServeOptions selects how the aggregated catalog is exposed.
type ServeOptions struct {
	Transport string
	Addr      string
	// RefreshInterval re-lists the servers' tools while serving. Zero
	// serves the catalog captured by Start.
	RefreshInterval time.Duration
	In              io.Reader
	Out             io.Writer
}

// Serve exposes the router's catalog as one MCP server until ctx is
// cancelled or SIGINT/SIGTERM arrives.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
func (a *Application) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := aggregator.NewAggregatorServer(aggregator.AggregatorConfig{
		Name:      clientName,
		Version:   a.config.Version,
		Transport:       opts.Transport,
		Addr:            opts.Addr,
		RefreshInterval: opts.RefreshInterval,
	}, a.router)

	logging.Info("Serve", "Serving %d tools over %s", len(a.router.Tools()), opts.Transport)
	err := srv.Serve(ctx, opts.In, opts.Out)
	logging.Info("Serve", "Shutting down")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
