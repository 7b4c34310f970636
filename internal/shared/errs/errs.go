package errs

import (
	"errors"
	"strings"
)

// Kinds. Every error crossing a package boundary in the order flow wraps one of these.
var (
	ErrValidation       = errors.New("validation error")
	ErrRemoteProcessing = errors.New("remote processing failed")
	ErrTransport        = errors.New("transport error")
	ErrPersistence      = errors.New("persistence error")
	ErrTimeout          = errors.New("correlation timeout")
	ErrNotFound         = errors.New("not found")
	ErrRejected         = errors.New("rejected")
	ErrNotification     = errors.New("notification failed")
)

// Error ties a kind to the operation that failed and its cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func E(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ValidationError is a malformed or incomplete input.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// Code maps an error to the marker published in failed responses.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrNotification):
		return "notification_error"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "processing_error"
	}
}
