package sweep

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrValidation indicates an invalid declaration or an out-of-domain index.
	ErrValidation = errors.New("sweep: validation failed")

	// ErrMissingKey indicates the special parameter is absent from a declaration or row.
	ErrMissingKey = errors.New("sweep: missing key")

	// ErrSchema indicates a grid artifact or run descriptor with missing or inconsistent fields.
	ErrSchema = errors.New("sweep: schema violation")

	// ErrPath indicates an expected input artifact was not found.
	ErrPath = errors.New("sweep: path not found")

	// ErrMismatch indicates producer and consumer disagree on the sweep shape (for example R).
	ErrMismatch = errors.New("sweep: configuration mismatch")
)

// Error wraps an error kind with the operation that raised it.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func Validationf(op, format string, args ...any) error {
	return newError(ErrValidation, op, nil, format, args...)
}

func MissingKeyf(op, format string, args ...any) error {
	return newError(ErrMissingKey, op, nil, format, args...)
}

func Schemaf(op, format string, args ...any) error {
	return newError(ErrSchema, op, nil, format, args...)
}

func Mismatchf(op, format string, args ...any) error {
	return newError(ErrMismatch, op, nil, format, args...)
}

// SchemaErr attaches a cause to a schema violation.
func SchemaErr(op string, cause error, format string, args ...any) error {
	return newError(ErrSchema, op, cause, format, args...)
}

// PathErr reports a missing input artifact at path.
func PathErr(op, path string, cause error) error {
	return newError(ErrPath, op, cause, "%s", path)
}
