package oauth

import (
	"fmt"
	"time"
)

// AuthorizationDeniedError is returned when the authorization server
// redirects back with an error instead of a code.
type AuthorizationDeniedError struct {
	// Reason is the error query parameter, e.g. "access_denied".
	Reason      string
	Description string
}

func (e *AuthorizationDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization denied: %s (%s)", e.Reason, e.Description)
	}
	return "authorization denied: " + e.Reason
}

// CallbackTimeoutError is returned when no redirect reached the callback
// listener within the wait timeout.
type CallbackTimeoutError struct {
	Timeout time.Duration
}

func (e *CallbackTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for OAuth callback", e.Timeout)
}

// FlowError reports the state a flow was in when it failed. The cause is
// kept so callers can use errors.As to find the specific error type.
type FlowError struct {
	Server string
	State  FlowState
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("oauth flow for %s failed while %s: %v", e.Server, e.State, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
