package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigV4Auth(t *testing.T) {
	mode, err := NewSigV4Auth("us-west-2", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSigV4Service, mode.Service)
	assert.Equal(t, AuthModeSigV4, mode.Mode())

	mode, err = NewSigV4Auth("eu-central-1", "execute-api")
	require.NoError(t, err)
	assert.Equal(t, "execute-api", mode.Service)

	_, err = NewSigV4Auth(" ", "")
	assert.ErrorContains(t, err, "region is required")
}

func TestNewAutomatedOAuth(t *testing.T) {
	tests := []struct {
		name        string
		clientID    string
		clientIDRef string
		secret      string
		secretRef   string
		errContains string
	}{
		{name: "inline secret", clientID: "abc", secret: "s"},
		{name: "secret reference", clientID: "abc", secretRef: "secretsmanager:weather"},
		{name: "client id reference", clientIDRef: "cfn:LambdaMcpServer-Auth/AutomatedOAuthClientId", secretRef: "secretsmanager:weather"},
		{name: "missing client id", secret: "s", errContains: "clientId or clientIdRef is required"},
		{name: "both client ids", clientID: "abc", clientIDRef: "env:ID", secret: "s", errContains: "only one of clientId and clientIdRef"},
		{name: "missing secret", clientID: "abc", errContains: "clientSecret or clientSecretRef is required"},
		{name: "both secrets", clientID: "abc", secret: "s", secretRef: "env:X", errContains: "only one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := NewAutomatedOAuth(tt.clientID, tt.clientIDRef, tt.secret, tt.secretRef, "", []string{"a", "b"})
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, AuthModeAutomatedOAuth, mode.Mode())
			assert.Equal(t, tt.clientIDRef, mode.ClientIDRef)
			assert.Equal(t, "a b", joinScopes(mode.Scopes))
		})
	}
}

func TestNewInteractiveOAuth(t *testing.T) {
	mode, err := NewInteractiveOAuth("abc", "", "", nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, AuthModeInteractiveOAuth, mode.Mode())

	mode, err = NewInteractiveOAuth("", "cfn:LambdaMcpServer-Auth/InteractiveOAuthClientId", "", nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "cfn:LambdaMcpServer-Auth/InteractiveOAuthClientId", mode.ClientIDRef)

	_, err = NewInteractiveOAuth("", "", "", nil, 0, 0)
	assert.ErrorContains(t, err, "clientId or clientIdRef is required")

	_, err = NewInteractiveOAuth("abc", "env:ID", "", nil, 0, 0)
	assert.ErrorContains(t, err, "only one of clientId and clientIdRef")

	_, err = NewInteractiveOAuth("abc", "", "", nil, 70000, 0)
	assert.ErrorContains(t, err, "invalid callback port")

	_, err = NewInteractiveOAuth("abc", "", "", nil, 8090, -time.Second)
	assert.ErrorContains(t, err, "must not be negative")
}

func TestAuthModeIsClosed(t *testing.T) {
	modes := []AuthMode{NewNoAuth(), SigV4Auth{}, AutomatedOAuth{}, InteractiveOAuth{}}
	names := make([]AuthModeName, 0, len(modes))
	for _, m := range modes {
		names = append(names, m.Mode())
	}
	assert.Equal(t, []AuthModeName{AuthModeNone, AuthModeSigV4, AuthModeAutomatedOAuth, AuthModeInteractiveOAuth}, names)
}

func TestServerDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name        string
		desc        ServerDescriptor
		errContains string
	}{
		{name: "url", desc: ServerDescriptor{Name: "a", URL: "https://a", Auth: NoAuth{}}},
		{name: "url ref", desc: ServerDescriptor{Name: "a", URLRef: "ssm:/a", Auth: NoAuth{}}},
		{name: "no name", desc: ServerDescriptor{URL: "https://a", Auth: NoAuth{}}, errContains: "name is required"},
		{name: "no url", desc: ServerDescriptor{Name: "a", Auth: NoAuth{}}, errContains: "one of url or urlRef"},
		{name: "both urls", desc: ServerDescriptor{Name: "a", URL: "https://a", URLRef: "env:A", Auth: NoAuth{}}, errContains: "only one of"},
		{name: "no auth", desc: ServerDescriptor{Name: "a", URL: "https://a"}, errContains: "auth mode is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}
