package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

// Resolver turns an indirect reference into a concrete value, typically a
// server URL or a client secret.
type Resolver interface {
	Resolve(ctx context.Context, reference string) (string, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, reference string) (string, error)

// Resolve implements Resolver.
func (f Func) Resolve(ctx context.Context, reference string) (string, error) {
	return f(ctx, reference)
}

// Scheme identifies the backend a reference points at.
type Scheme string

const (
	SchemeEnv            Scheme = "env:"
	SchemeSSM            Scheme = "ssm:"
	SchemeCloudFormation Scheme = "cfn:"
	SchemeSecretsManager Scheme = "secretsmanager:"
	SchemeS3             Scheme = "s3://"
)

var knownSchemes = []Scheme{SchemeEnv, SchemeSSM, SchemeCloudFormation, SchemeSecretsManager, SchemeS3}

// Reference is a parsed indirect reference.
type Reference struct {
	Scheme Scheme
	// Key is everything after the scheme prefix.
	Key string
}

func (r Reference) String() string {
	return string(r.Scheme) + r.Key
}

// FromReference parses a reference such as "ssm:/mcp/weather/url" or
// "cfn:WeatherStack/ServerUrl".
func FromReference(reference string) (Reference, error) {
	reference = strings.TrimSpace(reference)
	for _, scheme := range knownSchemes {
		if key, ok := strings.CutPrefix(reference, string(scheme)); ok {
			if key == "" {
				return Reference{}, &ResolutionError{Reference: reference, Reason: "empty key"}
			}
			return Reference{Scheme: scheme, Key: key}, nil
		}
	}
	return Reference{}, &ResolutionError{Reference: reference, Reason: "unknown reference scheme"}
}

// ResolutionError is returned when a reference cannot be resolved.
type ResolutionError struct {
	Reference string
	Reason    string
	Err       error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("failed to resolve %q", e.Reference)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsResolutionError reports whether err is or wraps a ResolutionError.
func IsResolutionError(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr)
}

// Static resolves references from a fixed map.
type Static map[string]string

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, reference string) (string, error) {
	value, ok := s[reference]
	if !ok || value == "" {
		return "", &ResolutionError{Reference: reference, Reason: "not found"}
	}
	return value, nil
}

// Env resolves references by environment variable name.
type Env struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Resolve implements Resolver.
func (e Env) Resolve(_ context.Context, name string) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", &ResolutionError{Reference: string(SchemeEnv) + name, Reason: "environment variable is not set"}
	}
	return strings.TrimSpace(value), nil
}

// Chain dispatches a reference to the resolver registered for its scheme.
type Chain struct {
	mu     sync.RWMutex
	routes map[Scheme]Resolver
}

// NewChain creates an empty chain. Env references are always supported.
func NewChain() *Chain {
	return &Chain{routes: map[Scheme]Resolver{SchemeEnv: Env{}}}
}

// Register sets the resolver for a scheme, replacing any previous one.
func (c *Chain) Register(scheme Scheme, r Resolver) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[scheme] = r
	return c
}

// Resolve implements Resolver. The scheme prefix is stripped before the
// reference is handed to the backend resolver.
func (c *Chain) Resolve(ctx context.Context, reference string) (string, error) {
	ref, err := FromReference(reference)
	if err != nil {
		return "", err
	}

	c.mu.RLock()
	r, ok := c.routes[ref.Scheme]
	c.mu.RUnlock()
	if !ok {
		return "", &ResolutionError{Reference: reference, Reason: fmt.Sprintf("no resolver registered for %q", ref.Scheme)}
	}

	logging.Debug("Resolver", "Resolving %s", ref)
	value, err := r.Resolve(ctx, ref.Key)
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			// Report the full reference the caller passed in.
			resErr.Reference = ref.String()
			return "", resErr
		}
		return "", &ResolutionError{Reference: ref.String(), Err: err}
	}
	return value, nil
}
