package oauth

import (
	"context"
	"sync"
	"time"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"

	"golang.org/x/oauth2"
)

// FlowState is the position of a flow in its state machine.
type FlowState int

const (
	StateIdle FlowState = iota
	StateCheckingCachedToken
	StateDiscoveringMetadata
	StateExchangingToken
	StateAuthenticated
	StateFailed
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingCachedToken:
		return "checking cached token"
	case StateDiscoveringMetadata:
		return "discovering metadata"
	case StateExchangingToken:
		return "exchanging token"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Flow obtains a valid token set for one server.
type Flow interface {
	// Authenticate returns the cached token when it is still valid, tries a
	// refresh_token grant when the expired token carries one, and runs
	// discovery plus a token exchange otherwise. Failures are not retried.
	Authenticate(ctx context.Context) (*pkgoauth.TokenSet, error)
	// State reports where the last Authenticate call ended.
	State() FlowState
	// Store returns the token store owned by the flow.
	Store() *TokenStore
}

// flowBase holds what both flow variants share: the store, the protocol
// client and the state machine bookkeeping.
type flowBase struct {
	server string
	store  *TokenStore
	client *pkgoauth.Client
	now    func() time.Time

	// run serialises Authenticate so the store has a single writer.
	run sync.Mutex

	// tokenEndpoint and scope come from the last successful discovery and
	// are reused by the refresh_token grant.
	tokenEndpoint string
	scope         string

	stateMu sync.RWMutex
	state   FlowState
}

func newFlowBase(server string, client *pkgoauth.Client, store *TokenStore, now func() time.Time) flowBase {
	if client == nil {
		client = pkgoauth.NewClient()
	}
	if store == nil {
		store = NewTokenStore()
	}
	if now == nil {
		now = time.Now
	}
	return flowBase{server: server, client: client, store: store, now: now}
}

func (b *flowBase) setState(s FlowState) {
	b.stateMu.Lock()
	b.state = s
	b.stateMu.Unlock()
}

// State reports where the last Authenticate call ended.
func (b *flowBase) State() FlowState {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

// Store returns the token store owned by the flow.
func (b *flowBase) Store() *TokenStore {
	return b.store
}

// cached implements the Checking-Cached-Token step.
func (b *flowBase) cached() (*pkgoauth.TokenSet, bool) {
	b.setState(StateCheckingCachedToken)
	tokens, ok := b.store.ValidTokens(b.now())
	if ok {
		b.setState(StateAuthenticated)
		logging.Debug("FlowEngine", "Reusing cached token for %s (expires %s)",
			b.server, tokens.ExpiresAt.Format(time.RFC3339))
	}
	return tokens, ok
}

// discover resolves the token endpoint and scope. When issuer is set the
// protected-resource probe is skipped; an explicit scope overrides the
// discovered one.
func (b *flowBase) discover(ctx context.Context, serverURL, issuer, scope string) (*pkgoauth.Metadata, string, error) {
	b.setState(StateDiscoveringMetadata)

	if issuer == "" {
		pr, err := b.client.DiscoverProtectedResource(ctx, serverURL)
		if err != nil {
			return nil, "", err
		}
		issuer = pr.AuthorizationServer
		if scope == "" {
			scope = pr.Scope
		}
	}

	metadata, err := b.client.DiscoverAuthorizationServer(ctx, issuer)
	if err != nil {
		return nil, "", err
	}
	b.tokenEndpoint = metadata.TokenEndpoint
	b.scope = scope
	return metadata, scope, nil
}

// refresh exchanges the stored refresh token at the previously discovered
// token endpoint. It reports false when there is nothing to refresh or the
// server rejected the grant, and the caller falls back to the full flow.
func (b *flowBase) refresh(ctx context.Context, clientID, clientSecret string) (*pkgoauth.TokenSet, bool) {
	previous := b.store.Tokens()
	if previous == nil || previous.RefreshToken == "" || b.tokenEndpoint == "" {
		return nil, false
	}

	b.setState(StateExchangingToken)
	tokens, err := b.client.RefreshToken(ctx, b.tokenEndpoint, previous.RefreshToken, clientID, clientSecret, b.scope)
	if err != nil {
		logging.Warn("FlowEngine", "Refreshing token for %s failed, re-running authorization: %v", b.server, err)
		b.store.SetTokens(nil)
		return nil, false
	}
	return b.succeed(tokens, "refresh_token"), true
}

// fail records the failure and wraps err with the state it happened in.
func (b *flowBase) fail(err error) error {
	state := b.State()
	b.setState(StateFailed)
	logging.Audit(logging.AuditEvent{
		Action:  "token_exchange",
		Outcome: "failure",
		Target:  b.server,
		Error:   err.Error(),
	})
	return &FlowError{Server: b.server, State: state, Err: err}
}

// succeed stores tokens and moves to Authenticated.
func (b *flowBase) succeed(tokens *pkgoauth.TokenSet, grant string) *pkgoauth.TokenSet {
	b.store.SetTokens(tokens)
	b.setState(StateAuthenticated)
	logging.Audit(logging.AuditEvent{
		Action:  "token_exchange",
		Outcome: "success",
		Target:  b.server,
		Details: "grant=" + grant,
	})
	logging.Debug("FlowEngine", "Obtained %s token %s for %s (scopes %v)",
		tokens.TokenType, logging.TruncateSecret(tokens.AccessToken), b.server, tokens.Scopes())
	return tokens
}

// flowTokenSource adapts a Flow to oauth2.TokenSource.
type flowTokenSource struct {
	ctx  context.Context
	flow Flow
}

// NewTokenSource returns an oauth2.TokenSource backed by flow. Each Token call
// goes through Authenticate, so a valid cached token costs no network I/O and
// an expired one triggers a new exchange. ctx bounds those exchanges.
func NewTokenSource(ctx context.Context, flow Flow) oauth2.TokenSource {
	return &flowTokenSource{ctx: ctx, flow: flow}
}

func (s *flowTokenSource) Token() (*oauth2.Token, error) {
	tokens, err := s.flow.Authenticate(s.ctx)
	if err != nil {
		return nil, err
	}
	return tokens.ToOAuth2Token(), nil
}
