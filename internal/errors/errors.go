// Package errors provides the structured error taxonomy used across DraftSpec.
// Every failure that crosses a component boundary (script compilation, hooks,
// spec bodies, the cache, reporters, cancellation) is represented as a *Error
// carrying a Kind so callers can branch on category without string matching.
package errors

import "fmt"

// Kind identifies which of the taxonomy categories in spec.md §7 an error
// belongs to.
type Kind int

const (
	// ScriptCompilation covers preprocessing or compiler failures. Not cached;
	// no spec tree is produced.
	ScriptCompilation Kind = iota
	// HookFailure covers a beforeAll/beforeEach/afterAll/afterEach closure
	// raising. Attached to the enclosing spec result(s); afterEach still runs.
	HookFailure
	// SpecFailure covers a spec body raising.
	SpecFailure
	// AssertionFailure covers a DSL assertion rejecting. Handled identically to
	// SpecFailure but carries expectation/actual detail.
	AssertionFailure
	// Timeout covers a deadline expiring inside the Timeout middleware.
	Timeout
	// CacheIntegrity covers malformed metadata, a missing artefact, or a load
	// failure. Always treated as a cache miss; the stale entry is deleted.
	CacheIntegrity
	// ReporterFailure covers a reporter callback raising. Logged and
	// suppressed; never propagates into the run.
	ReporterFailure
	// UserCancelled covers the external cancellation signal firing.
	UserCancelled
)

// String returns the taxonomy name for the kind.
func (k Kind) String() string {
	switch k {
	case ScriptCompilation:
		return "ScriptCompilation"
	case HookFailure:
		return "HookFailure"
	case SpecFailure:
		return "SpecFailure"
	case AssertionFailure:
		return "AssertionFailure"
	case Timeout:
		return "Timeout"
	case CacheIntegrity:
		return "CacheIntegrity"
	case ReporterFailure:
		return "ReporterFailure"
	case UserCancelled:
		return "UserCancelled"
	default:
		return "Unknown"
	}
}

// Error is the structured error type threaded through the core. It wraps an
// underlying cause and attaches the taxonomy Kind plus, where applicable, the
// originating source location.
type Error struct {
	Kind       Kind
	Message    string
	SourceFile string
	SourceLine int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.SourceFile != "" {
		return fmt.Sprintf("[%s] %s:%d: %s", e.Kind, e.SourceFile, e.SourceLine, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind to an existing error, preserving its message as the
// cause's Error() text.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: err.Error(), Cause: err}
}

// WithSource attaches a source file and line to an Error and returns it.
func (e *Error) WithSource(file string, line int) *Error {
	e.SourceFile = file
	e.SourceLine = line
	return e
}

// WithCause attaches an underlying cause to an Error and returns it.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	fe, ok := err.(*Error)
	return ok && fe.Kind == kind
}

// As attempts to convert err to an *Error, returning nil if it is not one.
func As(err error) *Error {
	fe, ok := err.(*Error)
	if ok {
		return fe
	}
	return nil
}
