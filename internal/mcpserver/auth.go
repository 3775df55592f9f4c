package mcpserver

import (
	"fmt"
	"strings"
	"time"
)

// AuthModeName is the configuration value selecting an auth mode.
type AuthModeName string

const (
	AuthModeNone             AuthModeName = "none"
	AuthModeSigV4            AuthModeName = "sigv4"
	AuthModeAutomatedOAuth   AuthModeName = "automated-oauth"
	AuthModeInteractiveOAuth AuthModeName = "interactive-oauth"
)

// DefaultSigV4Service is the service name used when signing requests for
// Lambda function URLs.
const DefaultSigV4Service = "lambda"

// AuthMode is a closed set of authentication modes. The only implementations
// are NoAuth, SigV4Auth, AutomatedOAuth and InteractiveOAuth; each is built
// with its own constructor that validates the fields it needs.
type AuthMode interface {
	Mode() AuthModeName
	isAuthMode()
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

// SigV4Auth signs every request with AWS Signature Version 4.
type SigV4Auth struct {
	Region  string
	Service string
}

// AutomatedOAuth obtains tokens with the client-credentials grant.
type AutomatedOAuth struct {
	ClientID string
	// ClientIDRef is resolved at session initialisation when ClientID is
	// empty, e.g. from a CloudFormation stack output.
	ClientIDRef  string
	ClientSecret string
	// ClientSecretRef is resolved at session initialisation when
	// ClientSecret is empty.
	ClientSecretRef string
	Issuer          string
	Scopes          []string
}

// InteractiveOAuth obtains tokens with the authorization-code grant and a
// browser redirect to a local callback listener.
type InteractiveOAuth struct {
	ClientID string
	// ClientIDRef is resolved at session initialisation when ClientID is
	// empty.
	ClientIDRef     string
	Issuer          string
	Scopes          []string
	CallbackPort    int
	CallbackTimeout time.Duration
}

func (NoAuth) Mode() AuthModeName           { return AuthModeNone }
func (SigV4Auth) Mode() AuthModeName        { return AuthModeSigV4 }
func (AutomatedOAuth) Mode() AuthModeName   { return AuthModeAutomatedOAuth }
func (InteractiveOAuth) Mode() AuthModeName { return AuthModeInteractiveOAuth }

func (NoAuth) isAuthMode()           {}
func (SigV4Auth) isAuthMode()        {}
func (AutomatedOAuth) isAuthMode()   {}
func (InteractiveOAuth) isAuthMode() {}

// NewNoAuth returns the unauthenticated mode.
func NewNoAuth() NoAuth {
	return NoAuth{}
}

// NewSigV4Auth validates and returns a SigV4 mode. An empty service defaults
// to DefaultSigV4Service.
func NewSigV4Auth(region, service string) (SigV4Auth, error) {
	if strings.TrimSpace(region) == "" {
		return SigV4Auth{}, fmt.Errorf("sigv4: region is required")
	}
	if service == "" {
		service = DefaultSigV4Service
	}
	return SigV4Auth{Region: region, Service: service}, nil
}

// NewAutomatedOAuth validates and returns a client-credentials mode. Exactly
// one of clientID and clientIDRef, and exactly one of clientSecret and
// clientSecretRef, must be set.
func NewAutomatedOAuth(clientID, clientIDRef, clientSecret, clientSecretRef, issuer string, scopes []string) (AutomatedOAuth, error) {
	if err := checkClientID("automated-oauth", clientID, clientIDRef); err != nil {
		return AutomatedOAuth{}, err
	}
	switch {
	case clientSecret == "" && clientSecretRef == "":
		return AutomatedOAuth{}, fmt.Errorf("automated-oauth: clientSecret or clientSecretRef is required")
	case clientSecret != "" && clientSecretRef != "":
		return AutomatedOAuth{}, fmt.Errorf("automated-oauth: only one of clientSecret and clientSecretRef may be set")
	}
	return AutomatedOAuth{
		ClientID:        clientID,
		ClientIDRef:     clientIDRef,
		ClientSecret:    clientSecret,
		ClientSecretRef: clientSecretRef,
		Issuer:          issuer,
		Scopes:          scopes,
	}, nil
}

// NewInteractiveOAuth validates and returns an authorization-code mode.
// Exactly one of clientID and clientIDRef must be set. Zero port and timeout
// are filled in with the callback listener defaults when the session is
// built.
func NewInteractiveOAuth(clientID, clientIDRef, issuer string, scopes []string, callbackPort int, callbackTimeout time.Duration) (InteractiveOAuth, error) {
	if err := checkClientID("interactive-oauth", clientID, clientIDRef); err != nil {
		return InteractiveOAuth{}, err
	}
	if callbackPort < 0 || callbackPort > 65535 {
		return InteractiveOAuth{}, fmt.Errorf("interactive-oauth: invalid callback port %d", callbackPort)
	}
	if callbackTimeout < 0 {
		return InteractiveOAuth{}, fmt.Errorf("interactive-oauth: callback timeout must not be negative")
	}
	return InteractiveOAuth{
		ClientID:        clientID,
		ClientIDRef:     clientIDRef,
		Issuer:          issuer,
		Scopes:          scopes,
		CallbackPort:    callbackPort,
		CallbackTimeout: callbackTimeout,
	}, nil
}

func checkClientID(mode, clientID, clientIDRef string) error {
	switch {
	case clientID == "" && clientIDRef == "":
		return fmt.Errorf("%s: clientId or clientIdRef is required", mode)
	case clientID != "" && clientIDRef != "":
		return fmt.Errorf("%s: only one of clientId and clientIdRef may be set", mode)
	}
	return nil
}

func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
