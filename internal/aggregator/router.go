package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
	"github.com/giantswarm/mcp-toolpool/internal/telemetry"
	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

// catalogEntry is one session together with the tool names it offered when
// the catalog was built.
type catalogEntry struct {
	session mcpserver.Session
	tools   []mcp.Tool
	names   map[string]struct{}
}

// catalog is immutable once built. Refresh swaps in a new one.
type catalog struct {
	entries []catalogEntry
}

func buildCatalog(sessions []mcpserver.Session, tools func(mcpserver.Session) []mcp.Tool) *catalog {
	c := &catalog{entries: make([]catalogEntry, 0, len(sessions))}
	for _, sess := range sessions {
		sessTools := tools(sess)
		names := make(map[string]struct{}, len(sessTools))
		for _, tool := range sessTools {
			names[tool.Name] = struct{}{}
		}
		c.entries = append(c.entries, catalogEntry{session: sess, tools: sessTools, names: names})
	}
	return c
}

// ToolCall is a request to run one tool.
type ToolCall struct {
	// ToolUseID identifies the call in the result envelope. A random ID is
	// used when empty.
	ToolUseID string
	Name      string
	Arguments map[string]interface{}
}

// ToolRouter maps tool names to the session that offers them.
//
// Duplicate names across servers are allowed. The first session, in the
// order given to NewToolRouter, that lists a tool receives its calls.
type ToolRouter struct {
	sessions []mcpserver.Session
	catalog  atomic.Pointer[catalog]
}

// NewToolRouter builds a router over sessions using their cached catalogs.
func NewToolRouter(sessions []mcpserver.Session) *ToolRouter {
	r := &ToolRouter{sessions: sessions}
	r.catalog.Store(buildCatalog(sessions, func(s mcpserver.Session) []mcp.Tool { return s.ListTools() }))
	return r
}

// ListAllTools returns every session's tools concatenated. Duplicates are
// kept.
func (r *ToolRouter) ListAllTools() []mcp.Tool {
	var tools []mcp.Tool
	for _, entry := range r.catalog.Load().entries {
		tools = append(tools, entry.tools...)
	}
	return tools
}

// Tools returns the catalog with the owning server of each tool.
func (r *ToolRouter) Tools() []ToolDescriptor {
	var tools []ToolDescriptor
	for _, entry := range r.catalog.Load().entries {
		for _, tool := range entry.tools {
			tools = append(tools, ToolDescriptor{Tool: tool, Server: entry.session.Name()})
		}
	}
	return tools
}

// Lookup returns the session that receives calls for name.
func (r *ToolRouter) Lookup(name string) (mcpserver.Session, bool) {
	for _, entry := range r.catalog.Load().entries {
		if _, ok := entry.names[name]; ok {
			return entry.session, true
		}
	}
	return nil, false
}

// CallTool routes a call and returns the session's normalized result. A
// routing miss is returned as a ToolNotFoundError.
func (r *ToolRouter) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcpserver.CallResult, error) {
	sess, ok := r.Lookup(name)
	if !ok {
		telemetry.RecordToolCall(ctx, "", name, 0, true)
		return nil, &ToolNotFoundError{Tool: name}
	}

	ctx, span := telemetry.StartToolCallSpan(ctx, name, attribute.String("toolpool.server.name", sess.Name()))
	start := time.Now()
	result := sess.CallTool(ctx, name, args)
	telemetry.RecordToolCall(ctx, sess.Name(), name, time.Since(start), result.IsError)

	var spanErr error
	if result.IsError {
		spanErr = errors.New("tool returned an error result")
	}
	telemetry.EndSpan(span, spanErr)
	return result, nil
}

// Dispatch runs a tool call and always returns an envelope. Remote failures
// and routing misses both come back with status "error".
func (r *ToolRouter) Dispatch(ctx context.Context, call ToolCall) ToolResult {
	toolUseID := call.ToolUseID
	if toolUseID == "" {
		toolUseID = uuid.NewString()
	}

	result, err := r.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		logging.Warn("ToolRouter", "%v", err)
		return errorToolResult(toolUseID, err)
	}
	logging.Debug("ToolRouter", "Tool %s (%s) finished, error=%t", call.Name, toolUseID, result.IsError)
	return newToolResult(toolUseID, result)
}

// Refresh lists every session's tools again and swaps in a new catalog.
// A session whose listing fails keeps its previous tools; the errors are
// returned joined.
func (r *ToolRouter) Refresh(ctx context.Context) error {
	previous := r.catalog.Load()
	var errs []error

	next := buildCatalog(r.sessions, func(s mcpserver.Session) []mcp.Tool {
		tools, err := s.RefreshTools(ctx)
		if err == nil {
			return tools
		}
		errs = append(errs, fmt.Errorf("refresh %s: %w", s.Name(), err))
		for _, entry := range previous.entries {
			if entry.session == s {
				return entry.tools
			}
		}
		return nil
	})
	r.catalog.Store(next)

	total := 0
	for _, entry := range next.entries {
		total += len(entry.tools)
	}
	logging.Info("ToolRouter", "Catalog refreshed: %d tool(s) across %d server(s)", total, len(next.entries))
	return errors.Join(errs...)
}
