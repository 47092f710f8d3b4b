// Package connection turns monitoring configuration into live, reusable
// SQL Server connections: it parses and validates connection options,
// builds driver-family connection strings, owns the cache of native
// connections, and classifies connect failures for operator diagnosis.
package connection

import (
	"errors"
	"fmt"
)

// Standard connection-layer errors
var (
	// ErrInvalidConfiguration is returned for malformed or conflicting
	// connection options
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrConnectionFailed is returned when a native connect fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNoOpenConnection is returned when no cached connection exists
	// for the requested target
	ErrNoOpenConnection = errors.New("no open connection")
)

// ConfigurationError reports malformed connection-string syntax or
// conflicting options. It is fatal to the current operation and never
// retried. The message must not carry credential material.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.Reason
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidConfiguration)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ConnectionError reports a failed connection attempt with the already
// classified, password-redacted diagnostic message.
type ConnectionError struct {
	Host     string
	Database string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// LookupError reports a cursor request against a target with no cached
// connection. It deliberately names only the host: the cache key embeds
// credentials and must never appear in an error message.
type LookupError struct {
	Host string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("cannot find an opened connection for host: %s", e.Host)
}

// Is checks if the error is ErrNoOpenConnection.
func (e *LookupError) Is(target error) bool {
	return errors.Is(target, ErrNoOpenConnection)
}
