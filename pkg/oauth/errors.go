package oauth

import "fmt"

// DiscoveryError is returned when authorization server or protected resource
// metadata cannot be obtained or is missing required fields.
type DiscoveryError struct {
	// URL is the last endpoint that was tried, if any.
	URL    string
	Reason string
	Err    error
}

func (e *DiscoveryError) Error() string {
	msg := "oauth discovery failed"
	if e.URL != "" {
		msg += " at " + e.URL
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// TokenExchangeError is returned when the token endpoint answers with a
// status other than 200.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token request failed: HTTP %d - %s", e.StatusCode, e.Body)
}
