package oauth

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenType is assumed when a token response omits token_type.
const DefaultTokenType = "Bearer"

// ClientCredentials holds the registration of this client with one
// authorization server. The secret is only set for the client-credentials flow.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	IssuedAt     time.Time
}

// TokenResponse is the JSON body returned by a token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenSet is an access token as held by a session.
//
// ExpiresAt is computed once, when the token is stored, from the response's
// expires_in and the issue time. A zero ExpiresAt means the server did not
// report a lifetime.
type TokenSet struct {
	AccessToken  string
	TokenType    string
	ExpiresAt    time.Time
	RefreshToken string
	Scope        string
}

// NewTokenSet builds a TokenSet from a token response received at issuedAt.
func NewTokenSet(resp TokenResponse, issuedAt time.Time) *TokenSet {
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}

	ts := &TokenSet{
		AccessToken:  resp.AccessToken,
		TokenType:    tokenType,
		RefreshToken: resp.RefreshToken,
		Scope:        resp.Scope,
	}
	if resp.ExpiresIn > 0 {
		ts.ExpiresAt = issuedAt.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return ts
}

// ValidAt reports whether the token can still be used at now.
// The boundary is exclusive: a token expiring exactly at now is expired.
// Tokens issued without an expiry stay valid until the server rejects them.
func (t *TokenSet) ValidAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return t.ExpiresAt.After(now)
}

// AuthorizationHeader returns the value for the Authorization request header.
func (t *TokenSet) AuthorizationHeader() string {
	return t.TokenType + " " + t.AccessToken
}

// Scopes returns the scope as a slice of individual scopes.
func (t *TokenSet) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	return strings.Fields(t.Scope)
}

// ToOAuth2Token converts the TokenSet to an oauth2.Token for use with
// golang.org/x/oauth2 transports.
func (t *TokenSet) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

// Metadata represents OAuth 2.0 Authorization Server Metadata as defined in RFC 8414.
type Metadata struct {
	Issuer                        string   `json:"issuer,omitempty"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	RegistrationEndpoint          string   `json:"registration_endpoint,omitempty"`
	ScopesSupported               []string `json:"scopes_supported,omitempty"`
	GrantTypesSupported           []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// SupportsPKCE returns true if the server supports S256 PKCE.
func (m *Metadata) SupportsPKCE() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == PKCEMethodS256 {
			return true
		}
	}
	// If not specified, assume S256 is supported (OAuth 2.1 requirement)
	return len(m.CodeChallengeMethodsSupported) == 0
}

// ProtectedResourceMetadata is the RFC 9728 document served by a resource server.
type ProtectedResourceMetadata struct {
	Resource             string   `json:"resource,omitempty"`
	AuthorizationServers []string `json:"authorization_servers"`
	ScopesSupported      []string `json:"scopes_supported,omitempty"`
}

// ProtectedResource is the outcome of protected-resource discovery.
type ProtectedResource struct {
	// AuthorizationServer is the first server listed in the metadata.
	AuthorizationServer string
	// Scope is the space-joined scopes_supported, or empty.
	Scope string
}

// AuthChallenge represents parsed information from a WWW-Authenticate header.
type AuthChallenge struct {
	// Scheme is the authentication scheme (typically "Bearer").
	Scheme string

	Realm string

	// ResourceMetadataURL points at the RFC 9728 protected resource metadata.
	ResourceMetadataURL string

	Scope            string
	Error            string
	ErrorDescription string
}

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) challenge.
type PKCEChallenge struct {
	// CodeVerifier is kept by the client and sent with the code exchange.
	CodeVerifier string

	// CodeChallenge is the base64url SHA256 of the verifier.
	CodeChallenge string

	CodeChallengeMethod string
}
