package oauth

import (
	"context"
	"fmt"
	"time"

	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

// AutomatedConfig configures the client-credentials flow.
type AutomatedConfig struct {
	ServerName   string
	ServerURL    string
	ClientID     string
	ClientSecret string
	// Issuer skips protected-resource discovery when set.
	Issuer string
	// Scope overrides the scope advertised by the resource server.
	Scope string
}

// AutomatedFlow runs the OAuth client-credentials grant.
type AutomatedFlow struct {
	flowBase
	cfg AutomatedConfig
}

// NewAutomatedFlow creates a client-credentials flow. client and store may be
// nil, in which case defaults are used.
func NewAutomatedFlow(cfg AutomatedConfig, client *pkgoauth.Client, store *TokenStore) (*AutomatedFlow, error) {
	if cfg.ServerURL == "" && cfg.Issuer == "" {
		return nil, fmt.Errorf("automated oauth for %s: server URL or issuer is required", cfg.ServerName)
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("automated oauth for %s: client ID is required", cfg.ServerName)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("automated oauth for %s: client secret is required", cfg.ServerName)
	}

	return &AutomatedFlow{
		flowBase: newFlowBase(cfg.ServerName, client, store, nil),
		cfg:      cfg,
	}, nil
}

// WithClock overrides the time source used for the cache check.
func (f *AutomatedFlow) WithClock(now func() time.Time) *AutomatedFlow {
	f.now = now
	return f
}

// Authenticate implements Flow.
func (f *AutomatedFlow) Authenticate(ctx context.Context) (*pkgoauth.TokenSet, error) {
	f.run.Lock()
	defer f.run.Unlock()

	if tokens, ok := f.cached(); ok {
		return tokens, nil
	}
	if tokens, ok := f.refresh(ctx, f.cfg.ClientID, f.cfg.ClientSecret); ok {
		return tokens, nil
	}

	metadata, scope, err := f.discover(ctx, f.cfg.ServerURL, f.cfg.Issuer, f.cfg.Scope)
	if err != nil {
		return nil, f.fail(err)
	}

	f.setState(StateExchangingToken)
	f.store.SetCredentials(pkgoauth.ClientCredentials{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		IssuedAt:     f.now(),
	})

	tokens, err := f.client.ClientCredentials(ctx, metadata.TokenEndpoint, f.cfg.ClientID, f.cfg.ClientSecret, scope)
	if err != nil {
		return nil, f.fail(err)
	}

	return f.succeed(tokens, "client_credentials"), nil
}
