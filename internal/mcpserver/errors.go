package mcpserver

import "fmt"

// SessionInitError is returned when the transport could not be opened, the
// protocol handshake failed or the initial tool listing failed.
type SessionInitError struct {
	Server string
	Step   string
	Err    error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("failed to initialize session %s: %s: %v", e.Server, e.Step, e.Err)
}

func (e *SessionInitError) Unwrap() error {
	return e.Err
}
