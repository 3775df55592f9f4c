package config

import (
	"fmt"
	"strings"

	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
	"github.com/giantswarm/mcp-toolpool/internal/resolver"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks cfg and returns every problem found as ValidationErrors,
// or nil.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if cfg.Retry.MaxAttempts < 1 {
		errs.Add("retry.maxAttempts", "must be at least 1", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Delay < 0 {
		errs.Add("retry.delay", "must not be negative", cfg.Retry.Delay)
	}
	if cfg.Callback.Port < 1 || cfg.Callback.Port > 65535 {
		errs.Add("callback.port", "must be between 1 and 65535", cfg.Callback.Port)
	}
	if cfg.Callback.Timeout < 0 {
		errs.Add("callback.timeout", "must not be negative", cfg.Callback.Timeout)
	}
	if len(cfg.Servers) == 0 {
		errs.Add("servers", "at least one server must be configured")
	}

	seen := make(map[string]int, len(cfg.Servers))
	for i, s := range cfg.Servers {
		field := fmt.Sprintf("servers[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			errs.Add(field+".name", "is required")
		} else if strings.ContainsAny(s.Name, " \t") {
			errs.Add(field+".name", "cannot contain spaces", s.Name)
		} else if prev, ok := seen[s.Name]; ok {
			errs.Add(field+".name", fmt.Sprintf("duplicates servers[%d]", prev), s.Name)
		} else {
			seen[s.Name] = i
		}

		switch {
		case s.URL == "" && s.URLRef == "":
			errs.Add(field, "one of url or urlRef is required")
		case s.URL != "" && s.URLRef != "":
			errs.Add(field, "only one of url or urlRef may be set")
		case s.URLRef != "":
			if _, err := resolver.FromReference(s.URLRef); err != nil {
				errs.Add(field+".urlRef", err.Error(), s.URLRef)
			}
		}

		if s.Auth.ClientIDRef != "" {
			if _, err := resolver.FromReference(s.Auth.ClientIDRef); err != nil {
				errs.Add(field+".auth.clientIdRef", err.Error(), s.Auth.ClientIDRef)
			}
		}
		if s.Auth.ClientSecretRef != "" {
			if _, err := resolver.FromReference(s.Auth.ClientSecretRef); err != nil {
				errs.Add(field+".auth.clientSecretRef", err.Error(), s.Auth.ClientSecretRef)
			}
		}
		if _, err := s.authMode(cfg); err != nil {
			errs.Add(field+".auth", err.Error(), s.Auth.Mode)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ToDescriptors validates cfg and converts every server into a
// ServerDescriptor, preserving order.
func ToDescriptors(cfg Config) ([]mcpserver.ServerDescriptor, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	descs := make([]mcpserver.ServerDescriptor, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		mode, err := s.authMode(cfg)
		if err != nil {
			return nil, err
		}
		descs = append(descs, mcpserver.ServerDescriptor{
			Name:    s.Name,
			URL:     s.URL,
			URLRef:  s.URLRef,
			Auth:    mode,
			Headers: s.Headers,
		})
	}
	return descs, nil
}

// authMode builds the closed auth variant for s. SigV4 falls back to the
// top-level AWS region; interactive OAuth takes its callback port and timeout
// from the server's auth block first and the callback section otherwise.
func (s ServerConfig) authMode(cfg Config) (mcpserver.AuthMode, error) {
	a := s.Auth
	switch mcpserver.AuthModeName(a.Mode) {
	case "", mcpserver.AuthModeNone:
		return mcpserver.NewNoAuth(), nil
	case mcpserver.AuthModeSigV4:
		region := a.Region
		if region == "" {
			region = cfg.AWS.Region
		}
		return mcpserver.NewSigV4Auth(region, a.Service)
	case mcpserver.AuthModeAutomatedOAuth:
		return mcpserver.NewAutomatedOAuth(a.ClientID, a.ClientIDRef, a.ClientSecret, a.ClientSecretRef, a.Issuer, a.Scopes)
	case mcpserver.AuthModeInteractiveOAuth:
		port := a.CallbackPort
		if port == 0 {
			port = cfg.Callback.Port
		}
		timeout := a.CallbackTimeout
		if timeout == 0 {
			timeout = cfg.Callback.Timeout
		}
		return mcpserver.NewInteractiveOAuth(a.ClientID, a.ClientIDRef, a.Issuer, a.Scopes, port, timeout)
	default:
		return nil, fmt.Errorf("unknown auth mode %q (want none, sigv4, automated-oauth or interactive-oauth)", a.Mode)
	}
}
