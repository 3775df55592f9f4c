package config

import "fmt"

// Error types reported by ConfigurationError.
const (
	ErrorTypeIO       = "io"
	ErrorTypeTemplate = "template"
	ErrorTypeParse    = "parse"
)

// ConfigurationError is returned when the configuration file cannot be read,
// rendered or parsed.
type ConfigurationError struct {
	FilePath  string
	ErrorType string
	Err       error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s error: %v", ce.FilePath, ce.ErrorType, ce.Err)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}
