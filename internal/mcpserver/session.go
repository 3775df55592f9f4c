package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Session owns one authenticated channel to one remote tool server.
type Session interface {
	// Name is the server name from the descriptor.
	Name() string
	// Initialize resolves the server URL, authenticates, opens the transport,
	// performs the protocol handshake and fetches the tool catalog. On
	// failure every resource acquired by the attempt has been released.
	Initialize(ctx context.Context) error
	// ListTools returns the cached tool catalog.
	ListTools() []mcp.Tool
	// RefreshTools lists the tools again and replaces the cached catalog.
	RefreshTools(ctx context.Context) ([]mcp.Tool, error)
	// CallTool forwards a call. Transport failures are reported in the
	// result rather than returned.
	CallTool(ctx context.Context, name string, args map[string]interface{}) *CallResult
	// Close releases the channel and auth resources. It is idempotent.
	Close() error
}

// CallResult is the normalized outcome of a tool call.
type CallResult struct {
	Content []mcp.Content
	IsError bool
}

// Text returns the concatenated text content of the result.
func (r *CallResult) Text() []string {
	var texts []string
	for _, c := range r.Content {
		if text, ok := mcp.AsTextContent(c); ok {
			texts = append(texts, text.Text)
		}
	}
	return texts
}

// errorResult converts err into an error CallResult.
func errorResult(err error) *CallResult {
	return &CallResult{
		Content: []mcp.Content{mcp.NewTextContent(err.Error())},
		IsError: true,
	}
}

// newCallResult normalizes a protocol result.
func newCallResult(result *mcp.CallToolResult) *CallResult {
	if result == nil {
		return errorResult(fmt.Errorf("tool returned no result"))
	}
	return &CallResult{Content: result.Content, IsError: result.IsError}
}
