package config

import "time"

// Config is the top-level configuration structure for toolpool.
type Config struct {
	Retry             RetryConfig    `yaml:"retry,omitempty"`
	ConcurrentBringUp bool           `yaml:"concurrentBringUp,omitempty"`
	Callback          CallbackConfig `yaml:"callback,omitempty"`
	AWS               AWSConfig      `yaml:"aws,omitempty"`
	Servers           []ServerConfig `yaml:"servers"`
}

// RetryConfig controls how often a server session is initialised before
// bring-up gives up.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts,omitempty"`
	Delay       time.Duration `yaml:"delay,omitempty"`
}

// CallbackConfig holds the loopback listener defaults for interactive OAuth.
type CallbackConfig struct {
	Port    int           `yaml:"port,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// AWSConfig selects the region and shared profile used by the SigV4 mode and
// the AWS-backed reference resolvers.
type AWSConfig struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// ServerConfig describes one remote tool server.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url,omitempty"`
	URLRef  string            `yaml:"urlRef,omitempty"`
	Auth    AuthConfig        `yaml:"auth,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// AuthConfig is the flat YAML form of an auth mode. Which fields apply
// depends on Mode.
type AuthConfig struct {
	Mode     string `yaml:"mode,omitempty"`
	ClientID string `yaml:"clientId,omitempty"`
	// ClientIDRef is a reference such as
	// "cfn:LambdaMcpServer-Auth/AutomatedOAuthClientId".
	ClientIDRef     string   `yaml:"clientIdRef,omitempty"`
	ClientSecret    string   `yaml:"clientSecret,omitempty"`
	ClientSecretRef string   `yaml:"clientSecretRef,omitempty"`
	Issuer          string   `yaml:"issuer,omitempty"`
	Scopes          []string `yaml:"scopes,omitempty"`

	// Interactive OAuth. Zero values fall back to the callback section.
	CallbackPort    int           `yaml:"callbackPort,omitempty"`
	CallbackTimeout time.Duration `yaml:"callbackTimeout,omitempty"`

	// SigV4
	Region  string `yaml:"region,omitempty"`
	Service string `yaml:"service,omitempty"`
}
