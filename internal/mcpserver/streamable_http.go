package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/oauth2"

	agentoauth "github.com/giantswarm/mcp-toolpool/internal/agent/oauth"
	"github.com/giantswarm/mcp-toolpool/internal/resolver"
	"github.com/giantswarm/mcp-toolpool/pkg/logging"
	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

// Compile-time interface compliance check
var _ Session = (*StreamableHTTPSession)(nil)

// StreamableHTTPSession is a Session over the MCP streamable HTTP transport.
// Authentication is applied by wrapping the HTTP client the transport uses.
type StreamableHTTPSession struct {
	id    string
	desc  ServerDescriptor
	opts  options
	store *agentoauth.TokenStore

	mu        sync.RWMutex
	client    *client.Client
	url       string
	tools     []mcp.Tool
	closers   []func() error
	connected bool
}

// New validates desc and returns an uninitialised session for it.
func New(desc ServerDescriptor, opts ...Option) (*StreamableHTTPSession, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	o := options{
		clientName:    "toolpool",
		clientVersion: "dev",
		awsConfig:     defaultAWSConfigLoader,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.resolver == nil {
		o.resolver = resolver.NewChain()
	}
	if o.oauthClient == nil {
		o.oauthClient = pkgoauth.NewClient(
			pkgoauth.WithHTTPClient(o.httpClient),
			pkgoauth.WithProbeHeaders(desc.Headers),
		)
	}
	if o.callbackPort == 0 {
		o.callbackPort = agentoauth.DefaultCallbackPort
	}
	if o.callbackTimeout == 0 {
		o.callbackTimeout = agentoauth.DefaultCallbackTimeout
	}

	return &StreamableHTTPSession{
		id:    uuid.NewString(),
		desc:  desc,
		opts:  o,
		store: agentoauth.NewTokenStore(),
	}, nil
}

// Name implements Session.
func (s *StreamableHTTPSession) Name() string {
	return s.desc.Name
}

// ID is a unique identifier for this session instance.
func (s *StreamableHTTPSession) ID() string {
	return s.id
}

// URL returns the resolved server URL, empty until Initialize succeeds.
func (s *StreamableHTTPSession) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Store returns the token store of the OAuth modes. It outlives failed
// Initialize attempts so a token obtained once is reused on retry.
func (s *StreamableHTTPSession) Store() *agentoauth.TokenStore {
	return s.store
}

// Initialize implements Session.
func (s *StreamableHTTPSession) Initialize(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}
	defer func() {
		if err != nil {
			if closeErr := s.releaseLocked(); closeErr != nil {
				logging.Warn("ServerSession", "Cleanup after failed initialization of %s: %v", s.desc.Name, closeErr)
			}
		}
	}()

	serverURL, err := s.resolveURL(ctx)
	if err != nil {
		return err
	}

	httpClient, err := s.authenticate(ctx, serverURL)
	if err != nil {
		return err
	}

	var transportOpts []transport.StreamableHTTPCOption
	if len(s.desc.Headers) > 0 {
		transportOpts = append(transportOpts, transport.WithHTTPHeaders(s.desc.Headers))
		logging.Debug("ServerSession", "Configured %d custom headers for %s", len(s.desc.Headers), s.desc.Name)
	}
	transportOpts = append(transportOpts, transport.WithHTTPBasicClient(httpClient))

	mcpClient, err := client.NewStreamableHttpClient(serverURL, transportOpts...)
	if err != nil {
		return &SessionInitError{Server: s.desc.Name, Step: "open transport", Err: err}
	}
	s.push(mcpClient.Close)

	if err := mcpClient.Start(ctx); err != nil {
		return &SessionInitError{Server: s.desc.Name, Step: "start transport", Err: err}
	}

	initResult, err := mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    s.opts.clientName,
				Version: s.opts.clientVersion,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		return &SessionInitError{Server: s.desc.Name, Step: "handshake", Err: err}
	}

	listed, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return &SessionInitError{Server: s.desc.Name, Step: "list tools", Err: err}
	}

	s.client = mcpClient
	s.url = serverURL
	s.tools = listed.Tools
	s.connected = true

	logging.Info("ServerSession", "Connected to %s (%s %s) with %d tools",
		s.desc.Name, initResult.ServerInfo.Name, initResult.ServerInfo.Version, len(listed.Tools))
	return nil
}

// resolveURL returns the descriptor URL or resolves its reference. Resolver
// errors are returned unchanged so callers see the ResolutionError.
func (s *StreamableHTTPSession) resolveURL(ctx context.Context) (string, error) {
	if s.desc.URLRef == "" {
		return s.desc.URL, nil
	}
	u, err := s.resolve(ctx, s.desc.URLRef)
	if err != nil {
		return "", err
	}
	logging.Debug("ServerSession", "Resolved %s for %s to %s", s.desc.URLRef, s.desc.Name, u)
	return u, nil
}

func (s *StreamableHTTPSession) resolve(ctx context.Context, reference string) (string, error) {
	value, err := s.opts.resolver.Resolve(ctx, reference)
	if err != nil {
		if resolver.IsResolutionError(err) {
			return "", err
		}
		return "", &resolver.ResolutionError{Reference: reference, Err: err}
	}
	return value, nil
}

// valueOrRef returns value, or resolves ref when value is empty.
func (s *StreamableHTTPSession) valueOrRef(ctx context.Context, value, ref string) (string, error) {
	if value != "" {
		return value, nil
	}
	return s.resolve(ctx, ref)
}

// authenticate runs the auth mode's setup and returns the HTTP client the
// transport should use.
func (s *StreamableHTTPSession) authenticate(ctx context.Context, serverURL string) (*http.Client, error) {
	base := s.opts.httpClient

	switch mode := s.desc.Auth.(type) {
	case NoAuth:
		return base, nil

	case SigV4Auth:
		cfg, err := s.opts.awsConfig(ctx, mode.Region)
		if err != nil {
			return nil, fmt.Errorf("sigv4 for %s: %w", s.desc.Name, err)
		}
		return withTransport(base, newSigV4Transport(base.Transport, cfg.Credentials, mode.Region, mode.Service)), nil

	case AutomatedOAuth:
		clientID, err := s.valueOrRef(ctx, mode.ClientID, mode.ClientIDRef)
		if err != nil {
			return nil, err
		}
		secret, err := s.valueOrRef(ctx, mode.ClientSecret, mode.ClientSecretRef)
		if err != nil {
			return nil, err
		}
		flow, err := agentoauth.NewAutomatedFlow(agentoauth.AutomatedConfig{
			ServerName:   s.desc.Name,
			ServerURL:    serverURL,
			ClientID:     clientID,
			ClientSecret: secret,
			Issuer:       mode.Issuer,
			Scope:        joinScopes(mode.Scopes),
		}, s.opts.oauthClient, s.store)
		if err != nil {
			return nil, err
		}
		return s.oauthHTTPClient(ctx, base, flow)

	case InteractiveOAuth:
		clientID, err := s.valueOrRef(ctx, mode.ClientID, mode.ClientIDRef)
		if err != nil {
			return nil, err
		}
		port := mode.CallbackPort
		if port == 0 {
			port = s.opts.callbackPort
		}
		timeout := mode.CallbackTimeout
		if timeout == 0 {
			timeout = s.opts.callbackTimeout
		}
		flow, err := agentoauth.NewInteractiveFlow(agentoauth.InteractiveConfig{
			ServerName:      s.desc.Name,
			ServerURL:       serverURL,
			ClientID:        clientID,
			Issuer:          mode.Issuer,
			Scope:           joinScopes(mode.Scopes),
			CallbackPort:    port,
			CallbackTimeout: timeout,
			OpenBrowser:     s.opts.openBrowser,
		}, s.opts.oauthClient, s.store)
		if err != nil {
			return nil, err
		}
		return s.oauthHTTPClient(ctx, base, flow)

	default:
		return nil, fmt.Errorf("server %s: unsupported auth mode %T", s.desc.Name, s.desc.Auth)
	}
}

// oauthHTTPClient authenticates once up front, then returns a client that
// attaches the token to every request. Later token refreshes run under a
// context that lives until the session is closed.
func (s *StreamableHTTPSession) oauthHTTPClient(ctx context.Context, base *http.Client, flow agentoauth.Flow) (*http.Client, error) {
	if _, err := flow.Authenticate(ctx); err != nil {
		return nil, err
	}

	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.push(func() error {
		cancel()
		return nil
	})

	return withTransport(base, &oauth2.Transport{
		Source: agentoauth.NewTokenSource(lifetime, flow),
		Base:   base.Transport,
	}), nil
}

func withTransport(base *http.Client, rt http.RoundTripper) *http.Client {
	c := *base
	c.Transport = rt
	return &c
}

// push records a resource to release on Close, in LIFO order.
func (s *StreamableHTTPSession) push(closer func() error) {
	s.closers = append(s.closers, closer)
}

// releaseLocked closes every acquired resource in reverse order of
// acquisition. Caller must hold mu.
func (s *StreamableHTTPSession) releaseLocked() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	s.client = nil
	s.tools = nil
	s.connected = false
	return errors.Join(errs...)
}

// ListTools implements Session.
func (s *StreamableHTTPSession) ListTools() []mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]mcp.Tool, len(s.tools))
	copy(tools, s.tools)
	return tools
}

// RefreshTools implements Session.
func (s *StreamableHTTPSession) RefreshTools(ctx context.Context) ([]mcp.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.client == nil {
		return nil, fmt.Errorf("session %s is not connected", s.desc.Name)
	}
	listed, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools for %s: %w", s.desc.Name, err)
	}
	s.tools = listed.Tools

	tools := make([]mcp.Tool, len(s.tools))
	copy(tools, s.tools)
	return tools, nil
}

// CallTool implements Session.
func (s *StreamableHTTPSession) CallTool(ctx context.Context, name string, args map[string]interface{}) *CallResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected || s.client == nil {
		return errorResult(fmt.Errorf("session %s is not connected", s.desc.Name))
	}

	result, err := s.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		logging.Warn("ServerSession", "Tool %s on %s failed: %v", name, s.desc.Name, err)
		return errorResult(fmt.Errorf("failed to call tool %s: %w", name, err))
	}
	return newCallResult(result)
}

// Close implements Session.
func (s *StreamableHTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.closers) == 0 && !s.connected {
		return nil
	}
	logging.Debug("ServerSession", "Closing session %s", s.desc.Name)
	return s.releaseLocked()
}
