package oauth

import (
	"sync"
	"time"

	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

// TokenStore holds the client registration and current tokens for one
// server session. It is in-memory only and never shared between sessions.
//
// Token values are never logged.
type TokenStore struct {
	mu          sync.RWMutex
	credentials *pkgoauth.ClientCredentials
	tokens      *pkgoauth.TokenSet
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// SetCredentials records the client registration used by the flow.
func (s *TokenStore) SetCredentials(creds pkgoauth.ClientCredentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = &creds
}

// Credentials returns the stored client registration, or nil.
func (s *TokenStore) Credentials() *pkgoauth.ClientCredentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credentials == nil {
		return nil
	}
	c := *s.credentials
	return &c
}

// SetTokens replaces the current token set.
func (s *TokenStore) SetTokens(tokens *pkgoauth.TokenSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

// Tokens returns the current token set regardless of expiry, or nil.
func (s *TokenStore) Tokens() *pkgoauth.TokenSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// ValidTokens returns the current token set if it is still valid at now.
func (s *TokenStore) ValidTokens(now time.Time) (*pkgoauth.TokenSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.tokens.ValidAt(now) {
		return nil, false
	}
	return s.tokens, true
}

// Clear drops credentials and tokens.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = nil
	s.tokens = nil
}
