package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of a metadata or token body is read.
	maxResponseBytes = 1 << 20
)

// Client handles the OAuth protocol operations needed by the flows:
// metadata discovery, the token endpoint and authorization URLs.
//
// Discovery results are not cached; concurrent lookups for the same URL
// share one request.
type Client struct {
	httpClient *http.Client
	now        func() time.Time

	probeHeaders map[string]string

	discoveryGroup singleflight.Group
}

// ClientOption configures the OAuth client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock overrides time.Now, used when stamping token expiry.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithProbeHeaders adds headers to the unauthenticated probe sent to a
// resource server, e.g. the MCP protocol version.
func WithProbeHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		c.probeHeaders = headers
	}
}

// NewClient creates a new OAuth client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ClientCredentials performs the client-credentials grant against tokenEndpoint.
// scope is omitted from the request when empty.
func (c *Client) ClientCredentials(ctx context.Context, tokenEndpoint, clientID, clientSecret, scope string) (*TokenSet, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if scope != "" {
		data.Set("scope", scope)
	}

	return c.doTokenRequest(ctx, tokenEndpoint, data)
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, tokenEndpoint, code, redirectURI, clientID, codeVerifier string) (*TokenSet, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
		"client_id":    {clientID},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.doTokenRequest(ctx, tokenEndpoint, data)
}

// RefreshToken exchanges a refresh token for a new token set. clientSecret
// and scope are omitted when empty. A response without a refresh_token keeps
// the one that was presented.
func (c *Client) RefreshToken(ctx context.Context, tokenEndpoint, refreshToken, clientID, clientSecret, scope string) (*TokenSet, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}
	if scope != "" {
		data.Set("scope", scope)
	}

	tokens, err := c.doTokenRequest(ctx, tokenEndpoint, data)
	if err != nil {
		return nil, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

// doTokenRequest performs a token endpoint request. Any status other than
// 200 is reported as a *TokenExchangeError.
func (c *Client) doTokenRequest(ctx context.Context, tokenEndpoint string, data url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response from %s has no access_token", tokenEndpoint)
	}

	logging.Debug("OAuthClient", "Token issued by %s (type=%q, expires_in=%d)",
		tokenEndpoint, tokenResp.TokenType, tokenResp.ExpiresIn)

	return NewTokenSet(tokenResp, c.now()), nil
}

// BuildAuthorizationURL constructs an OAuth authorization URL.
func (c *Client) BuildAuthorizationURL(authEndpoint, clientID, redirectURI, state, scope string, pkce *PKCEChallenge) (string, error) {
	authURL, err := url.Parse(authEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid authorization endpoint: %w", err)
	}

	query := authURL.Query()
	query.Set("response_type", "code")
	query.Set("client_id", clientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("state", state)

	if scope != "" {
		query.Set("scope", scope)
	}

	if pkce != nil {
		query.Set("code_challenge", pkce.CodeChallenge)
		query.Set("code_challenge_method", pkce.CodeChallengeMethod)
	}

	authURL.RawQuery = query.Encode()
	return authURL.String(), nil
}
