package mcpserver

import (
	"fmt"
	"strings"
)

// ServerDescriptor is the static description of one remote tool server.
type ServerDescriptor struct {
	Name string
	// URL is the server endpoint. Exactly one of URL and URLRef is set.
	URL string
	// URLRef is an indirect reference such as "ssm:/mcp/weather" resolved
	// when the session initialises.
	URLRef  string
	Auth    AuthMode
	Headers map[string]string
}

// Validate checks the fields every descriptor needs. Mode-specific fields are
// validated by the AuthMode constructors.
func (d ServerDescriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("server name is required")
	}
	switch {
	case d.URL == "" && d.URLRef == "":
		return fmt.Errorf("server %s: one of url or urlRef is required", d.Name)
	case d.URL != "" && d.URLRef != "":
		return fmt.Errorf("server %s: only one of url or urlRef may be set", d.Name)
	}
	if d.Auth == nil {
		return fmt.Errorf("server %s: auth mode is required", d.Name)
	}
	return nil
}
