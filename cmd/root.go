package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	agentoauth "github.com/giantswarm/mcp-toolpool/internal/agent/oauth"
	"github.com/giantswarm/mcp-toolpool/internal/app"
	"github.com/giantswarm/mcp-toolpool/internal/config"
	"github.com/giantswarm/mcp-toolpool/internal/resolver"
	"github.com/giantswarm/mcp-toolpool/pkg/logging"
	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates an unreadable or invalid configuration, or a
	// reference that could not be resolved.
	ExitCodeConfig = 2
	// ExitCodeAuthFailed indicates an OAuth flow failed.
	ExitCodeAuthFailed = 3
)

// Global flags shared by every command.
var (
	configPath string
	debug      bool
	logLevel   string
	logFormat  string
	quiet      bool
)

// rootCmd represents the base command for the toolpool application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toolpool",
	Short: "Aggregate remote MCP tool servers behind one catalog",
	Long: `toolpool connects to a set of remote MCP tool servers, authenticating
each one with OAuth (client credentials or browser login), AWS SigV4 or
no auth at all, and exposes their tools as one catalog.

Servers are configured in ~/.config/toolpool/config.yaml.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch logFormat {
		case logging.FormatText, logging.FormatJSON:
		default:
			return fmt.Errorf("unsupported log format %q (want text or json)", logFormat)
		}
		switch logLevel {
		case "debug", "info", "warn", "error":
			return nil
		default:
			return fmt.Errorf("unsupported log level %q (want debug, info, warn or error)", logLevel)
		}
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "toolpool version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var flowErr *agentoauth.FlowError
	var deniedErr *agentoauth.AuthorizationDeniedError
	var timeoutErr *agentoauth.CallbackTimeoutError
	var discoveryErr *pkgoauth.DiscoveryError
	var tokenErr *pkgoauth.TokenExchangeError
	if errors.As(err, &flowErr) || errors.As(err, &deniedErr) || errors.As(err, &timeoutErr) ||
		errors.As(err, &discoveryErr) || errors.As(err, &tokenErr) {
		return ExitCodeAuthFailed
	}

	var cfgErr *config.ConfigurationError
	var validationErrs config.ValidationErrors
	if errors.As(err, &cfgErr) || errors.As(err, &validationErrs) || resolver.IsResolutionError(err) {
		return ExitCodeConfig
	}

	return ExitCodeError
}

// newApplication builds the application from the global flags.
func newApplication() (*app.Application, error) {
	cfg := app.NewConfig(configPath, debug, logFormat, rootCmd.Version)
	cfg.LogLevel = logLevel
	cfg.Quiet = quiet
	return app.NewApplication(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/toolpool/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(newListToolsCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
