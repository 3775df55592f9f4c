package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"

	"golang.org/x/sync/singleflight"
)

const (
	wellKnownAuthorizationServer = "/.well-known/oauth-authorization-server"
	wellKnownOpenIDConfiguration = "/.well-known/openid-configuration"
	wellKnownProtectedResource   = "/.well-known/oauth-protected-resource"
)

// AuthorizationServerCandidates returns the discovery URLs for issuer in the
// order they are tried: the RFC 8414 document appended to the issuer, then
// the path-insertion variants for issuers with a path, then OpenID Connect.
func AuthorizationServerCandidates(issuer string) ([]string, error) {
	u, err := url.Parse(strings.TrimSuffix(issuer, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid issuer %q: %w", issuer, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid issuer %q: scheme and host are required", issuer)
	}

	origin := u.Scheme + "://" + u.Host
	path := strings.TrimSuffix(u.Path, "/")

	if path == "" {
		return []string{
			origin + wellKnownAuthorizationServer,
			origin + wellKnownOpenIDConfiguration,
		}, nil
	}

	return []string{
		origin + path + wellKnownAuthorizationServer,
		origin + wellKnownAuthorizationServer + path,
		origin + wellKnownOpenIDConfiguration + path,
		origin + path + wellKnownOpenIDConfiguration,
	}, nil
}

// ProtectedResourceFallbackURL returns {scheme}://{host}/.well-known/oauth-protected-resource
// for serverURL.
func ProtectedResourceFallbackURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: scheme and host are required", serverURL)
	}
	return u.Scheme + "://" + u.Host + wellKnownProtectedResource, nil
}

// DiscoverAuthorizationServer fetches authorization server metadata for issuer.
// The first candidate answering 200 with parseable metadata is accepted;
// metadata without a token endpoint is a *DiscoveryError.
func (c *Client) DiscoverAuthorizationServer(ctx context.Context, issuer string) (*Metadata, error) {
	candidates, err := AuthorizationServerCandidates(issuer)
	if err != nil {
		return nil, &DiscoveryError{URL: issuer, Reason: "invalid issuer", Err: err}
	}

	var lastErr error
	var lastURL string
	for _, candidate := range candidates {
		var metadata Metadata
		err := c.getJSON(ctx, candidate, &metadata)
		if err != nil {
			logging.Debug("Discovery", "Metadata candidate %s failed: %v", candidate, err)
			lastErr, lastURL = err, candidate
			continue
		}

		if metadata.TokenEndpoint == "" {
			return nil, &DiscoveryError{URL: candidate, Reason: "metadata has no token_endpoint"}
		}

		logging.Debug("Discovery", "Using authorization server metadata from %s (token_endpoint=%s)",
			candidate, metadata.TokenEndpoint)
		return &metadata, nil
	}

	return nil, &DiscoveryError{URL: lastURL, Reason: "no metadata candidate succeeded", Err: lastErr}
}

// DiscoverProtectedResource probes serverURL without credentials, expecting a
// 401, and follows the resource_metadata link from the WWW-Authenticate header
// (or the well-known fallback) to find the authorization server and scope.
func (c *Client) DiscoverProtectedResource(ctx context.Context, serverURL string) (*ProtectedResource, error) {
	metadataURL, challenge, err := c.probe(ctx, serverURL)
	if err != nil {
		return nil, err
	}

	var prm ProtectedResourceMetadata
	if err := c.getJSON(ctx, metadataURL, &prm); err != nil {
		return nil, &DiscoveryError{URL: metadataURL, Reason: "failed to fetch resource metadata", Err: err}
	}

	if len(prm.AuthorizationServers) == 0 {
		return nil, &DiscoveryError{URL: metadataURL, Reason: "no authorization server listed"}
	}

	result := &ProtectedResource{AuthorizationServer: prm.AuthorizationServers[0]}
	switch {
	case len(prm.ScopesSupported) > 0:
		result.Scope = strings.Join(prm.ScopesSupported, " ")
	case challenge != nil && challenge.Scope != "":
		result.Scope = challenge.Scope
	default:
		logging.Warn("Discovery", "No scopes advertised in %s, using empty scope", metadataURL)
	}

	logging.Debug("Discovery", "Resource %s is protected by %s (scope=%q)",
		serverURL, result.AuthorizationServer, result.Scope)
	return result, nil
}

// probe sends the unauthenticated request and returns the resource metadata
// URL together with the parsed challenge, which is nil when the server sent
// no WWW-Authenticate header.
func (c *Client) probe(ctx context.Context, serverURL string) (string, *AuthChallenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL, nil)
	if err != nil {
		return "", nil, &DiscoveryError{URL: serverURL, Reason: "invalid server URL", Err: err}
	}
	for k, v := range c.probeHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, &DiscoveryError{URL: serverURL, Reason: "probe request failed", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode != http.StatusUnauthorized {
		return "", nil, &DiscoveryError{
			URL:    serverURL,
			Reason: fmt.Sprintf("expected 401 response for OAuth discovery, got %d", resp.StatusCode),
		}
	}

	challenge := ParseWWWAuthenticateFromResponse(resp)
	if challenge != nil && challenge.ResourceMetadataURL != "" {
		return challenge.ResourceMetadataURL, challenge, nil
	}

	fallback, err := ProtectedResourceFallbackURL(serverURL)
	if err != nil {
		return "", nil, &DiscoveryError{URL: serverURL, Reason: "cannot build well-known URL", Err: err}
	}
	logging.Debug("Discovery", "No resource_metadata in challenge from %s, falling back to %s", serverURL, fallback)
	return fallback, challenge, nil
}

// getJSON fetches url and decodes a 200 JSON body into v. Concurrent calls
// for the same URL are collapsed into one request, and a caller whose ctx ends
// first stops waiting without cancelling that request.
func (c *Client) getJSON(ctx context.Context, target string, v interface{}) error {
	ch := c.discoveryGroup.DoChan(target, func() (interface{}, error) {
		// The request is shared, so one caller giving up must not fail the others.
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultHTTPTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}

	if err := json.Unmarshal(res.Val.([]byte), v); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}
	return nil
}
