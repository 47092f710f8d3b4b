// Package driver defines the capability contract a native SQL Server
// driver must provide to the connection layer, and the go-mssqldb backed
// implementations of it. The connection layer never touches database/sql
// directly; it only sees these interfaces, so tests can substitute stubs.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Standard driver errors
var (
	// ErrConnectionClosed is returned when using a closed connection
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")
)

// ConnectOptions carries the per-connection settings the monitoring layer
// controls. Autocommit disables implicit transactions so the session
// setup statement takes effect immediately.
type ConnectOptions struct {
	Timeout    time.Duration
	Autocommit bool
}

// Connector opens native connections for one driver family.
type Connector interface {
	// Name returns the family identifier ("ado" or "odbc")
	Name() string

	// Connect establishes a raw connection from a family-specific
	// connection string
	Connect(ctx context.Context, connString string, opts ConnectOptions) (Conn, error)
}

// Conn represents a live native connection. The connection cache owns
// every Conn; other components only borrow cursors.
type Conn interface {
	// Cursor returns a new cursor bound to this connection's session
	Cursor() (Cursor, error)

	// Close tears down the native connection
	Close() error
}

// Cursor executes statements on a connection's session. Cursors must be
// closed explicitly; re-closing a closed cursor is not an error.
type Cursor interface {
	Exec(ctx context.Context, stmt string) error
	Query(ctx context.Context, query string) (Rows, error)
	Close() error
}

// Rows is the minimal row iterator the connection layer consumes.
// *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// ProviderError is a native connect error that exposes platform error
// codes. Providers emit a generic "Invalid connection string attribute"
// message for several unrelated failures; the code pair lets the failure
// classifier substitute a meaningful description.
type ProviderError struct {
	HResult int32
	SubCode int32
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error (hresult=%d): %s: %v", e.HResult, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error (hresult=%d): %s", e.HResult, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ProviderError) Is(target error) bool {
	return errors.Is(target, ErrConnectionFailed)
}
