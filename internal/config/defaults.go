package config

import "time"

const (
	// DefaultMaxAttempts is the number of initialisation attempts per server.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the pause between two initialisation attempts.
	DefaultRetryDelay = time.Second

	// DefaultCallbackPort is the loopback port of the interactive OAuth listener.
	DefaultCallbackPort = 8090

	// DefaultCallbackTimeout bounds how long the interactive flow waits for
	// the browser redirect.
	DefaultCallbackTimeout = 300 * time.Second
)

// GetDefaultConfig returns the configuration used when no file exists.
func GetDefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			Delay:       DefaultRetryDelay,
		},
		Callback: CallbackConfig{
			Port:    DefaultCallbackPort,
			Timeout: DefaultCallbackTimeout,
		},
	}
}

// applyDefaults fills zero values left after parsing.
func applyDefaults(cfg *Config) {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = DefaultRetryDelay
	}
	if cfg.Callback.Port == 0 {
		cfg.Callback.Port = DefaultCallbackPort
	}
	if cfg.Callback.Timeout == 0 {
		cfg.Callback.Timeout = DefaultCallbackTimeout
	}
	for i := range cfg.Servers {
		if cfg.Servers[i].Auth.Mode == "" {
			cfg.Servers[i].Auth.Mode = "none"
		}
	}
}
