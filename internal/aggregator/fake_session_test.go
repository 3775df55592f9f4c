package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
)

// recorder collects the order of Close calls across sessions.
type recorder struct {
	mu     sync.Mutex
	closed []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, name)
}

func (r *recorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.closed...)
}

// fakeSession is an in-memory mcpserver.Session.
type fakeSession struct {
	name     string
	tools    []mcp.Tool
	recorder *recorder

	// initErr returns the error for a given attempt, nil means success.
	initErr  func(attempt int) error
	closeErr error
	refresh  func() ([]mcp.Tool, error)
	result   *mcpserver.CallResult

	mu         sync.Mutex
	initCalls  int
	closeCalls int
	calls      []string
	lastArgs   map[string]interface{}
}

var _ mcpserver.Session = (*fakeSession)(nil)

func newFakeSession(name string, rec *recorder, toolNames ...string) *fakeSession {
	tools := make([]mcp.Tool, 0, len(toolNames))
	for _, n := range toolNames {
		tools = append(tools, mcp.NewTool(n))
	}
	return &fakeSession{name: name, tools: tools, recorder: rec}
}

func alwaysFail(err error) func(int) error {
	return func(int) error { return err }
}

func (f *fakeSession) Name() string { return f.name }

func (f *fakeSession) Initialize(ctx context.Context) error {
	f.mu.Lock()
	f.initCalls++
	attempt := f.initCalls
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if f.initErr != nil {
		return f.initErr(attempt)
	}
	return nil
}

func (f *fakeSession) ListTools() []mcp.Tool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mcp.Tool(nil), f.tools...)
}

func (f *fakeSession) RefreshTools(context.Context) ([]mcp.Tool, error) {
	if f.refresh == nil {
		return f.ListTools(), nil
	}
	tools, err := f.refresh()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.tools = tools
	f.mu.Unlock()
	return tools, nil
}

func (f *fakeSession) CallTool(_ context.Context, name string, args map[string]interface{}) *mcpserver.CallResult {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.lastArgs = args
	f.mu.Unlock()

	if f.result != nil {
		return f.result
	}
	return &mcpserver.CallResult{Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("%s:%s", f.name, name))}}
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	f.closeCalls++
	f.mu.Unlock()
	if f.recorder != nil {
		f.recorder.record(f.name)
	}
	return f.closeErr
}

func (f *fakeSession) counts() (initCalls, closeCalls int, calls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls, f.closeCalls, append([]string(nil), f.calls...)
}
