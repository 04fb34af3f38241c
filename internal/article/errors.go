package article

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaValidation matches any *SchemaValidationError.
	ErrSchemaValidation = errors.New("article does not match schema")
	// ErrUpstream matches any *UpstreamError.
	ErrUpstream = errors.New("generation service failed")
)

// SchemaValidationError reports model output that could not be read as a Document.
type SchemaValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	msg := "schema validation"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaValidationError) Is(target error) bool { return target == ErrSchemaValidation }

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure talking to a generation provider.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(provider string, err error) error {
	return &UpstreamError{Provider: provider, Err: err}
}

func upstreamf(provider, format string, args ...any) error {
	return &UpstreamError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
