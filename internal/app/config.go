package app

import (
	"io"
	"os"
)

// Config holds the application configuration
type Config struct {
	// Custom configuration file (optional). Empty selects
	// ~/.config/toolpool/config.yaml.
	ConfigPath string

	// Debug enables debug logging regardless of LogLevel.
	Debug bool

	// LogLevel is debug, info, warn or error. Empty means info.
	LogLevel string

	// LogFormat is "text" or "json".
	LogFormat string

	// Quiet suppresses the bring-up spinner.
	Quiet bool

	// Version is reported to remote servers as the client version.
	Version string

	// LogOutput receives log lines. Defaults to stderr so stdout stays
	// clean for command output and the stdio transport.
	LogOutput io.Writer
}

// NewConfig creates a new application configuration
func NewConfig(configPath string, debug bool, logFormat, version string) *Config {
	return &Config{
		ConfigPath: configPath,
		Debug:      debug,
		LogFormat:  logFormat,
		Version:    version,
		LogOutput:  os.Stderr,
	}
}
