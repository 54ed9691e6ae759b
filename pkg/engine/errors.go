package engine

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/edaconf/edaconf/pkg/controller"
)

// ErrorKind classifies a reconciliation failure. Every kind aborts the
// current reconciliation; none are retried internally.
type ErrorKind string

const (
	// KindNotFound indicates a resolver lookup yielded zero matches.
	KindNotFound ErrorKind = "not_found"

	// KindAmbiguous indicates a resolver lookup yielded multiple matches
	// where exactly one was required.
	KindAmbiguous ErrorKind = "ambiguous"

	// KindValidation indicates the controller rejected a payload (4xx on
	// create or update).
	KindValidation ErrorKind = "validation"

	// KindConflict indicates a uniqueness or state conflict (409).
	KindConflict ErrorKind = "conflict"

	// KindTransport indicates a network failure or 5xx response.
	KindTransport ErrorKind = "transport"
)

// ReconcileError is a classified reconciliation failure with the lookup
// context (collection, key, field) needed to diagnose it.
type ReconcileError struct {
	Kind       ErrorKind
	Message    string
	Collection string
	Key        string
	Field      string
	Err        error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Collection != "" {
		msg += fmt.Sprintf(" (collection=%s", e.Collection)
		if e.Key != "" {
			msg += fmt.Sprintf(", key=%s", e.Key)
		}
		if e.Field != "" {
			msg += fmt.Sprintf(", field=%s", e.Field)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is.
func (e *ReconcileError) Is(target error) bool {
	t, ok := target.(*ReconcileError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithField adds the foreign-key field name that triggered the error.
func (e *ReconcileError) WithField(field string) *ReconcileError {
	e.Field = field
	return e
}

// NewNotFound creates a not-found resolution error.
func NewNotFound(collection, key string) *ReconcileError {
	return &ReconcileError{
		Kind:       KindNotFound,
		Message:    "no match found",
		Collection: collection,
		Key:        key,
	}
}

// NewAmbiguous creates an ambiguous-match resolution error.
func NewAmbiguous(collection, key string, matches int) *ReconcileError {
	return &ReconcileError{
		Kind:       KindAmbiguous,
		Message:    fmt.Sprintf("%d matches where exactly one was required", matches),
		Collection: collection,
		Key:        key,
	}
}

// ClassifyAPIError wraps a transport-layer failure with its reconciliation
// kind. The original error (endpoint, payload context) is preserved
// verbatim in the chain.
func ClassifyAPIError(err error, collection, key string) *ReconcileError {
	kind := KindTransport
	var apiErr *controller.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			kind = KindNotFound
		case apiErr.StatusCode == http.StatusConflict:
			kind = KindConflict
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			kind = KindValidation
		}
	}
	return &ReconcileError{
		Kind:       kind,
		Message:    "controller request failed",
		Collection: collection,
		Key:        key,
		Err:        err,
	}
}

// IsNotFound reports whether err is classified as not-found.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

// IsAmbiguous reports whether err is classified as ambiguous.
func IsAmbiguous(err error) bool {
	return kindOf(err) == KindAmbiguous
}

// IsValidation reports whether err is classified as a validation failure.
func IsValidation(err error) bool {
	return kindOf(err) == KindValidation
}

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool {
	return kindOf(err) == KindConflict
}

// IsTransport reports whether err is classified as a transport failure.
func IsTransport(err error) bool {
	return kindOf(err) == KindTransport
}

func kindOf(err error) ErrorKind {
	var e *ReconcileError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
