// Package errs provides the unified error type used across the table backend.
//
// Every subsystem (config, database drivers, the table itself) wraps its
// native errors into *errs.Error before returning them. Callers use the Is*
// predicates to decide what to do without importing driver packages.
//
// Usage:
//
//	// In a driver, classify native errors:
//	return errs.Wrap(errs.ErrKindConnectionFailed, "execute failed", err)
//
//	// In the table, decide whether a reconnect is worth it:
//	if errs.IsConnectionFailed(err) {
//	    ...
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing driver-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows matched the key
	ErrKindConnectionFailed         // session lost or cannot be established
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // statement execution or row fetch error
	ErrKindInvalidInput             // bad arguments from the caller (e.g. key too long)
	ErrKindConfiguration            // unreadable or invalid configuration
	ErrKindStatement                // prepare failed or param/column count mismatch
	ErrKindEncoding                 // result does not fit the destination
	ErrKindUnsupported              // service not configured or not valid for the operation
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindConfiguration:
		return "configuration"
	case ErrKindStatement:
		return "statement"
	case ErrKindEncoding:
		return "encoding"
	case ErrKindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all table subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "no rows" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a session-level failure that a
// reconnect may cure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a statement execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsConfiguration reports whether err is a configuration parse or validation failure.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsStatement reports whether err is a prepare-time or shape mismatch failure.
func IsStatement(err error) bool {
	return KindOf(err) == ErrKindStatement
}

// IsEncoding reports whether a result was too large for its destination.
func IsEncoding(err error) bool {
	return KindOf(err) == ErrKindEncoding
}

// IsUnsupported reports whether the requested service cannot be served.
func IsUnsupported(err error) bool {
	return KindOf(err) == ErrKindUnsupported
}

// KindOf extracts the ErrKind from the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
