package aggregator

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInProcessClient(t *testing.T, a *AggregatorServer) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(a.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "test", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
	return c
}

func TestAggregatorServer_ProxiesTools(t *testing.T) {
	a := newFakeSession("A", nil, "x", "shared")
	b := newFakeSession("B", nil, "shared", "z")
	router := NewToolRouter(sessionsOf(a, b))

	agg := NewAggregatorServer(AggregatorConfig{Transport: TransportStdio}, router)
	c := newInProcessClient(t, agg)
	ctx := context.Background()

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "shared", "z"}, toolNames(listed.Tools))

	result, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      "shared",
		Arguments: map[string]interface{}{"k": "v"},
	}})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Equal(t, "A:shared", text.Text)

	_, _, bCalls := b.counts()
	assert.Empty(t, bCalls)
}

func TestAggregatorServer_UnsupportedTransport(t *testing.T) {
	agg := NewAggregatorServer(AggregatorConfig{Transport: "carrier-pigeon"}, NewToolRouter(nil))

	err := agg.Serve(context.Background(), nil, nil)
	assert.ErrorContains(t, err, `unsupported transport "carrier-pigeon"`)
}

func registeredNames(a *AggregatorServer) []string {
	var names []string
	for name := range a.MCPServer().ListTools() {
		names = append(names, name)
	}
	return names
}

func TestAggregatorServer_SyncPicksUpCatalogChanges(t *testing.T) {
	a := newFakeSession("A", nil, "x", "old")
	router := NewToolRouter(sessionsOf(a))
	agg := NewAggregatorServer(AggregatorConfig{Transport: TransportStdio}, router)
	c := newInProcessClient(t, agg)
	ctx := context.Background()

	// Unchanged catalog: nothing is re-registered.
	require.NoError(t, agg.Sync(ctx))
	assert.ElementsMatch(t, []string{"x", "old"}, registeredNames(agg))

	a.refresh = func() ([]mcp.Tool, error) {
		return []mcp.Tool{mcp.NewTool("x"), mcp.NewTool("new")}, nil
	}
	require.NoError(t, agg.Sync(ctx))
	assert.ElementsMatch(t, []string{"x", "new"}, registeredNames(agg))

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "new"}, toolNames(listed.Tools))

	result, err := c.CallTool(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "new"}})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestAggregatorServer_SyncKeepsToolsOfFailingServer(t *testing.T) {
	a := newFakeSession("A", nil, "x")
	b := newFakeSession("B", nil, "y")
	b.refresh = func() ([]mcp.Tool, error) { return nil, errors.New("unreachable") }
	agg := NewAggregatorServer(AggregatorConfig{}, NewToolRouter(sessionsOf(a, b)))

	err := agg.Sync(context.Background())
	assert.ErrorContains(t, err, "refresh B")
	assert.ElementsMatch(t, []string{"x", "y"}, registeredNames(agg))
}

func TestAggregatorServer_RefreshIntervalSyncsWhileServing(t *testing.T) {
	a := newFakeSession("A", nil, "x")
	var refreshed atomic.Bool
	a.refresh = func() ([]mcp.Tool, error) {
		refreshed.Store(true)
		return []mcp.Tool{mcp.NewTool("x"), mcp.NewTool("late")}, nil
	}
	agg := NewAggregatorServer(AggregatorConfig{
		Transport:       TransportStdio,
		RefreshInterval: 10 * time.Millisecond,
	}, NewToolRouter(sessionsOf(a)))

	ctx, cancel := context.WithCancel(context.Background())
	inR, inW := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- agg.Serve(ctx, inR, io.Discard) }()

	assert.Eventually(t, func() bool {
		return refreshed.Load() && len(agg.MCPServer().ListTools()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	_ = inW.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
