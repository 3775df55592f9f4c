package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	agentoauth "github.com/giantswarm/mcp-toolpool/internal/agent/oauth"
	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
	"github.com/giantswarm/mcp-toolpool/internal/config"
	"github.com/giantswarm/mcp-toolpool/internal/resolver"
	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "toolpool" {
		t.Errorf("Expected Use to be 'toolpool', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}

	for _, flag := range []string{"config", "debug", "log-level", "log-format", "quiet"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "toolpool version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	if got := buf.String(); got != "toolpool version 1.0.0\n" {
		t.Errorf("Expected version output %q, got %q", "toolpool version 1.0.0\n", got)
	}
}

func TestSubcommands(t *testing.T) {
	foundCommands := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range []string{"list-tools", "call", "serve", "version", "self-update"} {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitCodeSuccess},
		{name: "plain", err: errors.New("boom"), want: ExitCodeError},
		{
			name: "flow error",
			err:  &agentoauth.FlowError{Server: "a", Err: errors.New("token endpoint said no")},
			want: ExitCodeAuthFailed,
		},
		{
			name: "denied inside bring-up",
			err: &aggregator.BringUpError{Server: "a", Attempts: 3, Err: &agentoauth.FlowError{
				Server: "a", Err: &agentoauth.AuthorizationDeniedError{Reason: "access_denied"},
			}},
			want: ExitCodeAuthFailed,
		},
		{name: "callback timeout", err: &agentoauth.CallbackTimeoutError{}, want: ExitCodeAuthFailed},
		{name: "discovery", err: &pkgoauth.DiscoveryError{URL: "https://x"}, want: ExitCodeAuthFailed},
		{
			name: "resolution inside bring-up",
			err: &aggregator.BringUpError{Server: "a", Attempts: 3, Err: &resolver.ResolutionError{
				Reference: "ssm:/x", Reason: "parameter not found",
			}},
			want: ExitCodeConfig,
		},
		{
			name: "configuration",
			err:  fmt.Errorf("failed to load configuration: %w", &config.ConfigurationError{FilePath: "c.yaml", ErrorType: config.ErrorTypeParse, Err: errors.New("bad")}),
			want: ExitCodeConfig,
		},
		{
			name: "validation",
			err:  fmt.Errorf("invalid configuration: %w", config.ValidationErrors{{Field: "servers", Message: "required"}}),
			want: ExitCodeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestRootRejectsUnknownLogFormat(t *testing.T) {
	original := logFormat
	defer func() { logFormat = original }()
	logFormat = "xml"

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	assert.Error(t, err)
}

func TestRootValidatesLogLevel(t *testing.T) {
	original := logLevel
	defer func() { logLevel = original }()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		logLevel = level
		assert.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil), level)
	}

	logLevel = "verbose"
	assert.ErrorContains(t, rootCmd.PersistentPreRunE(rootCmd, nil), "unsupported log level")
}
