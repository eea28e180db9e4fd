// Package errs provides the unified error type used across all of schemacol.
//
// Every subsystem (schema, coltype, migrate, dialect drivers) wraps its
// failures into *errs.Error before returning them to callers. Callers use the
// Is* predicates to handle errors without importing codec- or driver-specific
// packages.
//
// Usage:
//
//	// In the deserializer, wrap decode failures:
//	return errs.Validation("meta", "stored value does not match schema", issues, err)
//
//	// In the caller, check the error kind:
//	if errs.IsValidation(err) {
//	    // stored row is corrupt, surface it
//	}
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorises an error without exposing codec- or driver-specific codes.
type Kind int

const (
	KindUnknown       Kind = iota
	KindConfiguration      // missing schema, conflicting options at construction
	KindValidation         // stored raw value does not conform to the schema
	KindSerialization      // value cannot be converted to the storage kind
	KindRender             // configuration cannot be re-expressed as source text
	KindConnection         // cannot reach or authenticate to the database
	KindQuery              // SQL or introspection operation error
	KindNotFound           // no rows, unknown table
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindSerialization:
		return "serialization"
	case KindRender:
		return "render"
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Issue is one structured validation failure: where it happened, what shape
// was expected, and what was actually there.
type Issue struct {
	Path     string // JSON path into the raw value, e.g. "flags[0].enabled"
	Expected string // expected kind, e.g. "bool"
	Value    any    // offending raw value, when known
}

func (i Issue) String() string {
	if i.Value == nil {
		return fmt.Sprintf("%s: expected %s", i.Path, i.Expected)
	}
	return fmt.Sprintf("%s: expected %s, got %v", i.Path, i.Expected, i.Value)
}

// Error is the single error type returned by all schemacol subsystems.
// Column carries the owning column's name when the conversion layer knows it,
// so validation failures can be traced to a row/column without re-running
// with extra instrumentation.
type Error struct {
	Kind    Kind
	Message string
	Column  string  // column context, "" when not bound to a column
	Issues  []Issue // structured validation detail, nil for other kinds
	Cause   error   // original codec/driver-level error
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]", e.Kind)
	if e.Column != "" {
		fmt.Fprintf(&sb, " column %q:", e.Column)
	}
	sb.WriteByte(' ')
	sb.WriteString(e.Message)
	for _, is := range e.Issues {
		sb.WriteString("; ")
		sb.WriteString(is.String())
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Configuration reports a construction-time misconfiguration. Fatal, never
// retried.
func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

// Validation reports that a stored raw value failed schema validation.
// The cause is preserved unmodified; issues carry the structured detail.
func Validation(column, msg string, issues []Issue, cause error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Column: column, Issues: issues, Cause: cause}
}

// Serialization reports that a value could not be converted to the declared
// storage kind.
func Serialization(column, msg string, cause error) *Error {
	return &Error{Kind: KindSerialization, Message: msg, Column: column, Cause: cause}
}

// Render reports that a column-type configuration cannot be safely
// re-expressed as source text.
func Render(msg string) *Error {
	return &Error{Kind: KindRender, Message: msg}
}

// --- Predicates ---

// IsConfiguration reports whether err is a construction-time misconfiguration.
func IsConfiguration(err error) bool { return kindOf(err) == KindConfiguration }

// IsValidation reports whether err means a stored value failed validation.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsSerialization reports whether err means a value could not be bound.
func IsSerialization(err error) bool { return kindOf(err) == KindSerialization }

// IsRender reports whether err came from migration-source rendering.
func IsRender(err error) bool { return kindOf(err) == KindRender }

// IsConnection reports whether err is a connectivity or auth failure.
func IsConnection(err error) bool { return kindOf(err) == KindConnection }

// IsQuery reports whether err is a backend operation failure.
func IsQuery(err error) bool { return kindOf(err) == KindQuery }

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IssuesOf extracts the structured validation detail from any error in the
// chain. Returns nil when err carries none.
func IssuesOf(err error) []Issue {
	var e *Error
	if errors.As(err, &e) {
		return e.Issues
	}
	return nil
}

// kindOf extracts the Kind from any error in the chain.
func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
