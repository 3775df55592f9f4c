package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

// Transport names accepted by AggregatorServer.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// AggregatorConfig configures the MCP server that re-exposes the catalog.
type AggregatorConfig struct {
	Name      string
	Version   string
	Transport string
	// Addr is the listen address for streamable-http.
	Addr string
	// RefreshInterval re-lists every server's tools periodically while
	// serving. Zero disables it.
	RefreshInterval time.Duration
}

// AggregatorServer exposes a ToolRouter's catalog as a single MCP server.
// Every tool is proxied to its owning session through the router.
type AggregatorServer struct {
	config AggregatorConfig
	router *ToolRouter
	server *server.MCPServer
}

// NewAggregatorServer creates the MCP server and registers the router's
// current tools.
func NewAggregatorServer(cfg AggregatorConfig, router *ToolRouter) *AggregatorServer {
	if cfg.Name == "" {
		cfg.Name = "toolpool"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	a := &AggregatorServer{
		config: cfg,
		router: router,
		server: server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(true)),
	}
	a.server.AddTools(a.desiredTools()...)
	return a
}

// MCPServer returns the underlying MCP server.
func (a *AggregatorServer) MCPServer() *server.MCPServer {
	return a.server
}

// desiredTools returns one proxy per tool name in the router's catalog.
// Names offered by more than one server appear once, routed to the first
// server.
func (a *AggregatorServer) desiredTools() []server.ServerTool {
	seen := make(map[string]string)
	var tools []server.ServerTool
	for _, td := range a.router.Tools() {
		if owner, dup := seen[td.Tool.Name]; dup {
			logging.Warn("Aggregator", "Tool %s from %s is shadowed by %s", td.Tool.Name, td.Server, owner)
			continue
		}
		seen[td.Tool.Name] = td.Server
		tools = append(tools, server.ServerTool{Tool: td.Tool, Handler: a.createToolHandler(td.Tool.Name)})
	}
	logging.Debug("Aggregator", "Catalog has %d distinct tools", len(tools))
	return tools
}

// Sync refreshes the router's catalog and, when the set of tools changed,
// replaces the registered tools so connected clients get a
// tools/list_changed notification. A server whose listing fails keeps its
// previous tools and its error is returned.
func (a *AggregatorServer) Sync(ctx context.Context) error {
	refreshErr := a.router.Refresh(ctx)
	if refreshErr != nil {
		logging.Warn("Aggregator", "Catalog refresh incomplete: %v", refreshErr)
	}

	desired := a.desiredTools()
	if !toolsChanged(a.server.ListTools(), desired) {
		return refreshErr
	}
	logging.Info("Aggregator", "Tool catalog changed, now serving %d tools", len(desired))
	a.server.SetTools(desired...)
	return refreshErr
}

func toolsChanged(registered map[string]*server.ServerTool, desired []server.ServerTool) bool {
	if len(registered) != len(desired) {
		return true
	}
	for _, d := range desired {
		current, ok := registered[d.Tool.Name]
		if !ok || !reflect.DeepEqual(current.Tool, d.Tool) {
			return true
		}
	}
	return false
}

// refreshLoop calls Sync every interval until ctx ends.
func (a *AggregatorServer) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = a.Sync(ctx)
		}
	}
}

func (a *AggregatorServer) createToolHandler(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := a.router.CallTool(ctx, toolName, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return &mcp.CallToolResult{Content: result.Content, IsError: result.IsError}, nil
	}
}

// Serve runs the configured transport until ctx is cancelled. in and out
// are only used by the stdio transport.
func (a *AggregatorServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if a.config.RefreshInterval > 0 {
		refreshCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		logging.Info("Aggregator", "Refreshing tool catalog every %s", a.config.RefreshInterval)
		go a.refreshLoop(refreshCtx, a.config.RefreshInterval)
	}

	switch a.config.Transport {
	case TransportStdio, "":
		logging.Info("Aggregator", "Starting MCP aggregator server with stdio transport")
		return server.NewStdioServer(a.server).Listen(ctx, in, out)

	case TransportStreamableHTTP:
		addr := a.config.Addr
		if addr == "" {
			addr = "127.0.0.1:8080"
		}
		logging.Info("Aggregator", "Starting MCP aggregator server with streamable-http transport on %s", addr)
		httpServer := server.NewStreamableHTTPServer(a.server)

		errCh := make(chan error, 1)
		go func() {
			errCh <- httpServer.Start(addr)
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logging.Error("Aggregator", err, "Error shutting down streamable HTTP server")
			}
			return nil
		}

	default:
		return fmt.Errorf("unsupported transport %q (supported: %s, %s)", a.config.Transport, TransportStdio, TransportStreamableHTTP)
	}
}
