package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

// InteractiveConfig configures the authorization-code flow.
type InteractiveConfig struct {
	ServerName string
	ServerURL  string
	ClientID   string
	Issuer     string
	Scope      string

	// CallbackPort is the local port the redirect URI points at.
	CallbackPort int
	// CallbackTimeout bounds the wait for the redirect.
	CallbackTimeout time.Duration

	// OpenBrowser is called with the authorization URL. Defaults to OpenBrowser.
	OpenBrowser BrowserOpener
}

// InteractiveFlow runs the authorization-code grant, with PKCE when the
// authorization server supports S256, capturing the redirect on a local
// CallbackListener.
type InteractiveFlow struct {
	flowBase
	cfg InteractiveConfig
}

// NewInteractiveFlow creates an authorization-code flow. client and store may
// be nil, in which case defaults are used.
func NewInteractiveFlow(cfg InteractiveConfig, client *pkgoauth.Client, store *TokenStore) (*InteractiveFlow, error) {
	if cfg.ServerURL == "" && cfg.Issuer == "" {
		return nil, fmt.Errorf("interactive oauth for %s: server URL or issuer is required", cfg.ServerName)
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("interactive oauth for %s: client ID is required", cfg.ServerName)
	}
	if cfg.CallbackTimeout <= 0 {
		cfg.CallbackTimeout = DefaultCallbackTimeout
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = OpenBrowser
	}

	return &InteractiveFlow{
		flowBase: newFlowBase(cfg.ServerName, client, store, nil),
		cfg:      cfg,
	}, nil
}

// WithClock overrides the time source used for the cache check.
func (f *InteractiveFlow) WithClock(now func() time.Time) *InteractiveFlow {
	f.now = now
	return f
}

// Authenticate implements Flow. The callback listener only exists for the
// duration of this call.
func (f *InteractiveFlow) Authenticate(ctx context.Context) (*pkgoauth.TokenSet, error) {
	f.run.Lock()
	defer f.run.Unlock()

	if tokens, ok := f.cached(); ok {
		return tokens, nil
	}
	if tokens, ok := f.refresh(ctx, f.cfg.ClientID, ""); ok {
		return tokens, nil
	}

	metadata, scope, err := f.discover(ctx, f.cfg.ServerURL, f.cfg.Issuer, f.cfg.Scope)
	if err != nil {
		return nil, f.fail(err)
	}
	if metadata.AuthorizationEndpoint == "" {
		return nil, f.fail(&pkgoauth.DiscoveryError{Reason: "metadata has no authorization_endpoint"})
	}

	f.setState(StateExchangingToken)

	var pkce *pkgoauth.PKCEChallenge
	if metadata.SupportsPKCE() {
		if pkce, err = pkgoauth.GeneratePKCE(); err != nil {
			return nil, f.fail(err)
		}
	} else {
		logging.Warn("FlowEngine", "Authorization server for %s does not support S256 PKCE, continuing without it", f.server)
	}
	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, f.fail(err)
	}

	listener := NewCallbackListener(f.cfg.CallbackPort)
	redirectURI, err := listener.Start(ctx)
	if err != nil {
		return nil, f.fail(err)
	}
	defer listener.Stop()

	authURL, err := f.client.BuildAuthorizationURL(metadata.AuthorizationEndpoint, f.cfg.ClientID, redirectURI, state, scope, pkce)
	if err != nil {
		return nil, f.fail(err)
	}

	logging.Info("FlowEngine", "Authorization required for %s, open this URL if no browser appears: %s", f.server, authURL)
	if err := f.cfg.OpenBrowser(authURL); err != nil {
		logging.Warn("FlowEngine", "Could not open browser for %s: %v", f.server, err)
	}

	result, err := listener.WaitForResult(ctx, f.cfg.CallbackTimeout)
	if err != nil {
		return nil, f.fail(err)
	}
	if result.State != state {
		return nil, f.fail(&AuthorizationDeniedError{Reason: "state_mismatch", Description: "callback state does not match the authorization request"})
	}

	f.store.SetCredentials(pkgoauth.ClientCredentials{ClientID: f.cfg.ClientID, IssuedAt: f.now()})

	var verifier string
	if pkce != nil {
		verifier = pkce.CodeVerifier
	}
	tokens, err := f.client.ExchangeCode(ctx, metadata.TokenEndpoint, result.Code, redirectURI, f.cfg.ClientID, verifier)
	if err != nil {
		return nil, f.fail(err)
	}

	return f.succeed(tokens, "authorization_code"), nil
}
