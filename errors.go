package dbctx

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrConnectionFailed is returned when a driver cannot open a connection.
	ErrConnectionFailed = errors.New("dbctx: connection failed")

	// ErrIntrospectionFailed is returned when a provider fails to contribute.
	ErrIntrospectionFailed = errors.New("dbctx: introspection failed")

	// ErrConflictingMember is returned when two registrations share a name.
	ErrConflictingMember = errors.New("dbctx: conflicting member")

	// ErrAlreadyFinalized is returned when a finalized type builder is mutated or finalized again.
	ErrAlreadyFinalized = errors.New("dbctx: type already finalized")

	// ErrInvalidMember is returned when a member or model has no name.
	ErrInvalidMember = errors.New("dbctx: invalid member")

	// ErrInvalidBase is returned when a base type does not expose the (dataProvider, connectionString) constructor.
	ErrInvalidBase = errors.New("dbctx: base type constructor must be (dataProvider, connectionString)")

	// ErrNoExplorerItem is returned when a provider contributes without an explorer item.
	ErrNoExplorerItem = errors.New("dbctx: provider returned no explorer item")

	// ErrUnknownMember is returned when an explorer item references a member that was never registered.
	ErrUnknownMember = errors.New("dbctx: explorer item references unknown member")

	// ErrUnknownDriver is returned when an unknown driver is requested.
	ErrUnknownDriver = errors.New("dbctx: unknown driver")

	// ErrConfigNotFound is returned when no .dbctx.yaml is found.
	ErrConfigNotFound = errors.New("dbctx: no .dbctx.yaml found")

	// ErrNoDatabaseName is returned when neither a URI nor a database name is configured.
	ErrNoDatabaseName = errors.New("dbctx: no uri or database configured")

	// ErrInvalidFilter is returned when an include expression does not compile.
	ErrInvalidFilter = errors.New("dbctx: invalid filter expression")
)

// ConnectionError reports a connection that could not be opened.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dbctx: %s: connection failed: %v", e.Driver, e.Err)
}

// Is matches ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IntrospectionError reports the provider whose contribution failed.
type IntrospectionError struct {
	Provider string
	Priority int
	Err      error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("dbctx: provider %q (priority %d): %v", e.Provider, e.Priority, e.Err)
}

// Is matches ErrIntrospectionFailed.
func (e *IntrospectionError) Is(target error) bool {
	return target == ErrIntrospectionFailed
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

// ConflictError reports two providers registering the same name.
type ConflictError struct {
	// Kind is "member", "model" or "constant".
	Kind     string
	Name     string
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dbctx: %s %q registered by %q conflicts with %q",
		e.Kind, e.Name, e.Incoming, e.Existing)
}

// Is matches ErrConflictingMember.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictingMember
}
