package oauth

import (
	"testing"
	"time"
)

func TestTokenSet_ValidAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token *TokenSet
		want  bool
	}{
		{"nil token", nil, false},
		{"future expiry", &TokenSet{AccessToken: "a", ExpiresAt: now.Add(time.Second)}, true},
		{"expiry equal to now", &TokenSet{AccessToken: "a", ExpiresAt: now}, false},
		{"past expiry", &TokenSet{AccessToken: "a", ExpiresAt: now.Add(-time.Second)}, false},
		{"no expiry", &TokenSet{AccessToken: "a"}, true},
		{"empty access token", &TokenSet{ExpiresAt: now.Add(time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.ValidAt(now); got != tt.want {
				t.Errorf("ValidAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTokenSet(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := NewTokenSet(TokenResponse{AccessToken: "a", ExpiresIn: 90, Scope: "x y"}, issued)

	if ts.TokenType != DefaultTokenType {
		t.Errorf("expected default token type, got %q", ts.TokenType)
	}
	if !ts.ExpiresAt.Equal(issued.Add(90 * time.Second)) {
		t.Errorf("unexpected expiry %v", ts.ExpiresAt)
	}
	if got := ts.Scopes(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("unexpected scopes %v", got)
	}

	o := ts.ToOAuth2Token()
	if o.AccessToken != "a" || o.Type() != "Bearer" || !o.Expiry.Equal(ts.ExpiresAt) {
		t.Errorf("unexpected oauth2 token %+v", o)
	}
}

func TestMetadata_SupportsPKCE(t *testing.T) {
	if !(&Metadata{}).SupportsPKCE() {
		t.Error("expected PKCE to be assumed when unspecified")
	}
	if (&Metadata{CodeChallengeMethodsSupported: []string{"plain"}}).SupportsPKCE() {
		t.Error("expected plain-only server to not support S256")
	}
	if !(&Metadata{CodeChallengeMethodsSupported: []string{"plain", "S256"}}).SupportsPKCE() {
		t.Error("expected S256 support")
	}
}
