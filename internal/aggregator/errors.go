package aggregator

import "fmt"

// BringUpError reports the server that made pool bring-up fail. The cause is
// the error of its last attempt, unchanged.
type BringUpError struct {
	Server   string
	Attempts int
	Err      error
}

func (e *BringUpError) Error() string {
	return fmt.Sprintf("error initializing server %s after %d attempt(s): %v", e.Server, e.Attempts, e.Err)
}

func (e *BringUpError) Unwrap() error {
	return e.Err
}

// ToolNotFoundError is a routing miss. Dispatch turns it into an error
// envelope instead of returning it.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return "No server found with tool: " + e.Tool
}
