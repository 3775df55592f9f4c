package aggregator

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
	"github.com/giantswarm/mcp-toolpool/internal/telemetry"
	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

// SessionFactory builds an uninitialised session for a descriptor.
type SessionFactory func(desc mcpserver.ServerDescriptor) (mcpserver.Session, error)

// ToolDescriptor is one entry of the aggregated catalog.
type ToolDescriptor struct {
	Tool mcp.Tool
	// Server is the name of the owning session.
	Server string
}

// ServerPool brings up a set of sessions and tears them down again.
//
// The pool is the only component that closes sessions. Teardown order is
// always the reverse of the order in which sessions finished initialising,
// while Sessions and Tools report configuration order.
type ServerPool struct {
	policy     RetryPolicy
	factory    SessionFactory
	concurrent bool

	mu sync.Mutex
	// sessions is kept in completion order.
	sessions []pooledSession
}

// pooledSession remembers where a session appeared in the configuration.
type pooledSession struct {
	index   int
	session mcpserver.Session
}

// PoolOption configures a ServerPool.
type PoolOption func(*ServerPool)

// WithRetryPolicy sets the per-server retry policy.
func WithRetryPolicy(p RetryPolicy) PoolOption {
	return func(sp *ServerPool) { sp.policy = p }
}

// WithSessionFactory sets how sessions are built from descriptors.
func WithSessionFactory(f SessionFactory) PoolOption {
	return func(sp *ServerPool) { sp.factory = f }
}

// WithConcurrentBringUp initialises all servers at the same time instead of
// one after another.
func WithConcurrentBringUp(concurrent bool) PoolOption {
	return func(sp *ServerPool) { sp.concurrent = concurrent }
}

// NewServerPool creates an empty pool. Without WithSessionFactory, sessions
// are built with mcpserver.New and no options.
func NewServerPool(opts ...PoolOption) *ServerPool {
	p := &ServerPool{
		policy: DefaultRetryPolicy(),
		factory: func(desc mcpserver.ServerDescriptor) (mcpserver.Session, error) {
			return mcpserver.New(desc)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BringUp initialises one session per descriptor, retrying each according to
// the pool's RetryPolicy.
//
// If any server exhausts its attempts, every session that did come up is torn
// down before the BringUpError is returned, so a failed bring-up leaves no
// open sessions behind.
func (p *ServerPool) BringUp(ctx context.Context, descriptors []mcpserver.ServerDescriptor) error {
	sessions := make([]mcpserver.Session, 0, len(descriptors))
	for _, desc := range descriptors {
		sess, err := p.factory(desc)
		if err != nil {
			return fmt.Errorf("failed to create session for %s: %w", desc.Name, err)
		}
		sessions = append(sessions, sess)
	}
	return p.BringUpSessions(ctx, sessions)
}

// BringUpSessions is BringUp for sessions that have already been built.
func (p *ServerPool) BringUpSessions(ctx context.Context, sessions []mcpserver.Session) error {
	logging.Info("ServerPool", "Starting %d server(s)", len(sessions))

	var err error
	if p.concurrent {
		err = p.bringUpConcurrently(ctx, sessions)
	} else {
		err = p.bringUpSequentially(ctx, sessions)
	}
	if err != nil {
		p.TearDown()
		return err
	}

	logging.Info("ServerPool", "All %d server(s) started", len(sessions))
	return nil
}

func (p *ServerPool) bringUpSequentially(ctx context.Context, sessions []mcpserver.Session) error {
	for i, sess := range sessions {
		logging.Info("ServerPool", "Starting server: %s", sess.Name())
		if err := p.initialize(ctx, i, sess); err != nil {
			return err
		}
	}
	return nil
}

func (p *ServerPool) bringUpConcurrently(ctx context.Context, sessions []mcpserver.Session) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, sess := range sessions {
		g.Go(func() error {
			logging.Info("ServerPool", "Starting server: %s", sess.Name())
			return p.initialize(gctx, i, sess)
		})
	}
	return g.Wait()
}

// initialize runs the retry loop for one session and records it on success.
// A failed attempt is closed before the next one so no partial resources
// carry over.
func (p *ServerPool) initialize(ctx context.Context, index int, sess mcpserver.Session) error {
	attempts, err := p.policy.Do(ctx, sess.Name(), func(ctx context.Context, attempt int) error {
		attemptCtx, span := telemetry.StartBringUpSpan(ctx, sess.Name(), attempt)
		err := sess.Initialize(attemptCtx)
		telemetry.EndSpan(span, err)
		telemetry.RecordBringUpAttempt(ctx, sess.Name(), err != nil)
		return err
	}, func() {
		if closeErr := sess.Close(); closeErr != nil {
			logging.Warn("ServerPool", "Error closing server %s during retry: %v", sess.Name(), closeErr)
		}
	})
	if err != nil {
		return &BringUpError{Server: sess.Name(), Attempts: attempts, Err: err}
	}

	p.mu.Lock()
	p.sessions = append(p.sessions, pooledSession{index: index, session: sess})
	p.mu.Unlock()
	return nil
}

// TearDown closes every session in reverse completion order. Close errors are
// logged and do not stop the remaining sessions from closing. The pool is
// empty afterwards, so calling TearDown again is a no-op.
func (p *ServerPool) TearDown() {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = nil
	p.mu.Unlock()

	if len(sessions) == 0 {
		return
	}
	logging.Info("ServerPool", "Stopping %d server(s)", len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		sess := sessions[i].session
		logging.Info("ServerPool", "Stopping server: %s", sess.Name())
		if err := sess.Close(); err != nil {
			logging.Error("ServerPool", err, "Error stopping server %s", sess.Name())
		}
	}
}

// Sessions returns the initialised sessions in configuration order,
// regardless of which finished first.
func (p *ServerPool) Sessions() []mcpserver.Session {
	p.mu.Lock()
	pooled := slices.Clone(p.sessions)
	p.mu.Unlock()

	slices.SortStableFunc(pooled, func(a, b pooledSession) int {
		return cmp.Compare(a.index, b.index)
	})
	sessions := make([]mcpserver.Session, len(pooled))
	for i, ps := range pooled {
		sessions[i] = ps.session
	}
	return sessions
}

// Tools returns every session's catalog, concatenated in configuration order.
func (p *ServerPool) Tools() []ToolDescriptor {
	var tools []ToolDescriptor
	for _, sess := range p.Sessions() {
		for _, tool := range sess.ListTools() {
			tools = append(tools, ToolDescriptor{Tool: tool, Server: sess.Name()})
		}
	}
	return tools
}
