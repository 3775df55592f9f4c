package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
)

func validConfig(servers ...ServerConfig) Config {
	cfg := GetDefaultConfig()
	cfg.Servers = servers
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig(
		ServerConfig{Name: "a", URL: "http://a"},
		ServerConfig{Name: "b", URLRef: "cfn:Stack/Url", Auth: AuthConfig{Mode: "sigv4", Region: "us-east-1"}},
	)
	assert.NoError(t, Validate(cfg))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(
		ServerConfig{Name: "", URL: "http://a"},
		ServerConfig{Name: "dup", URL: "http://b"},
		ServerConfig{Name: "dup", URL: "http://c"},
		ServerConfig{Name: "both", URL: "http://d", URLRef: "env:D"},
		ServerConfig{Name: "neither"},
		ServerConfig{Name: "badref", URLRef: "ftp://x"},
		ServerConfig{Name: "badmode", URL: "http://e", Auth: AuthConfig{Mode: "kerberos"}},
	)
	cfg.Retry.MaxAttempts = 0
	cfg.Callback.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{
		"retry.maxAttempts",
		"callback.port",
		"servers[0].name",
		"servers[2].name",
		"servers[3]",
		"servers[4]",
		"servers[5].urlRef",
		"servers[6].auth",
	}, fields)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_NoServers(t *testing.T) {
	err := Validate(GetDefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one server")
}

func TestValidate_AuthModeFields(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		region  string
		wantErr string
	}{
		{name: "sigv4 without region", auth: AuthConfig{Mode: "sigv4"}, wantErr: "region is required"},
		{name: "sigv4 with global region", auth: AuthConfig{Mode: "sigv4"}, region: "eu-central-1"},
		{name: "automated without client id", auth: AuthConfig{Mode: "automated-oauth", ClientSecret: "s"}, wantErr: "clientId or clientIdRef is required"},
		{name: "automated with client id reference", auth: AuthConfig{Mode: "automated-oauth", ClientIDRef: "cfn:LambdaMcpServer-Auth/AutomatedOAuthClientId", ClientSecretRef: "secretsmanager:auth"}},
		{name: "automated with both client ids", auth: AuthConfig{Mode: "automated-oauth", ClientID: "id", ClientIDRef: "env:ID", ClientSecret: "s"}, wantErr: "only one of clientId and clientIdRef"},
		{name: "automated bad client id ref", auth: AuthConfig{Mode: "automated-oauth", ClientIDRef: "vault:id", ClientSecret: "s"}, wantErr: "unknown reference scheme"},
		{name: "automated without secret", auth: AuthConfig{Mode: "automated-oauth", ClientID: "id"}, wantErr: "clientSecret or clientSecretRef"},
		{name: "automated with both secrets", auth: AuthConfig{Mode: "automated-oauth", ClientID: "id", ClientSecret: "s", ClientSecretRef: "env:S"}, wantErr: "only one of"},
		{name: "automated bad secret ref", auth: AuthConfig{Mode: "automated-oauth", ClientID: "id", ClientSecretRef: "vault:x"}, wantErr: "unknown reference scheme"},
		{name: "interactive without client id", auth: AuthConfig{Mode: "interactive-oauth"}, wantErr: "clientId or clientIdRef is required"},
		{name: "interactive", auth: AuthConfig{Mode: "interactive-oauth", ClientID: "id"}},
		{name: "interactive with client id reference", auth: AuthConfig{Mode: "interactive-oauth", ClientIDRef: "cfn:LambdaMcpServer-Auth/InteractiveOAuthClientId"}},
		{name: "interactive bad callback port", auth: AuthConfig{Mode: "interactive-oauth", ClientID: "id", CallbackPort: 70000}, wantErr: "invalid callback port"},
		{name: "interactive negative callback timeout", auth: AuthConfig{Mode: "interactive-oauth", ClientID: "id", CallbackTimeout: -time.Second}, wantErr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(ServerConfig{Name: "s", URL: "http://s", Auth: tt.auth})
			cfg.AWS.Region = tt.region

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToDescriptors(t *testing.T) {
	cfg := validConfig(
		ServerConfig{Name: "plain", URL: "http://plain", Headers: map[string]string{"X-A": "1"}},
		ServerConfig{Name: "lambda", URLRef: "ssm:/lambda/url", Auth: AuthConfig{Mode: "sigv4"}},
		ServerConfig{Name: "m2m", URL: "http://m2m", Auth: AuthConfig{
			Mode: "automated-oauth", ClientID: "id", ClientSecret: "secret", Scopes: []string{"a"},
		}},
		ServerConfig{Name: "human", URL: "http://human", Auth: AuthConfig{Mode: "interactive-oauth", ClientID: "cli"}},
		ServerConfig{Name: "desk", URL: "http://desk", Auth: AuthConfig{
			Mode: "interactive-oauth", ClientIDRef: "cfn:Desk/InteractiveOAuthClientId", CallbackPort: 8123, CallbackTimeout: 2 * time.Minute,
		}},
	)
	cfg.AWS.Region = "us-west-2"
	cfg.Callback.Port = 9999
	cfg.Callback.Timeout = time.Minute

	descs, err := ToDescriptors(cfg)
	require.NoError(t, err)
	require.Len(t, descs, 5)

	assert.Equal(t, "plain", descs[0].Name)
	assert.Equal(t, mcpserver.NoAuth{}, descs[0].Auth)
	assert.Equal(t, map[string]string{"X-A": "1"}, descs[0].Headers)

	assert.Equal(t, "ssm:/lambda/url", descs[1].URLRef)
	assert.Equal(t, mcpserver.SigV4Auth{Region: "us-west-2", Service: mcpserver.DefaultSigV4Service}, descs[1].Auth)

	m2m, ok := descs[2].Auth.(mcpserver.AutomatedOAuth)
	require.True(t, ok)
	assert.Equal(t, "id", m2m.ClientID)
	assert.Equal(t, "secret", m2m.ClientSecret)
	assert.Equal(t, []string{"a"}, m2m.Scopes)

	human, ok := descs[3].Auth.(mcpserver.InteractiveOAuth)
	require.True(t, ok)
	assert.Equal(t, 9999, human.CallbackPort)
	assert.Equal(t, time.Minute, human.CallbackTimeout)

	desk, ok := descs[4].Auth.(mcpserver.InteractiveOAuth)
	require.True(t, ok)
	assert.Equal(t, "cfn:Desk/InteractiveOAuthClientId", desk.ClientIDRef)
	assert.Equal(t, 8123, desk.CallbackPort, "per-server port wins over the callback section")
	assert.Equal(t, 2*time.Minute, desk.CallbackTimeout)

	for _, d := range descs {
		assert.NoError(t, d.Validate())
	}
}

func TestToDescriptors_Invalid(t *testing.T) {
	_, err := ToDescriptors(validConfig(ServerConfig{Name: "x"}))
	require.Error(t, err)

	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
