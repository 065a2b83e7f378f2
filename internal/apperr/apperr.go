// Package apperr defines the error kinds surfaced by the booking core and
// the HTTP status each maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindInvalidInput   Kind = "InvalidInput"
	KindNotFound       Kind = "NotFound"
	KindNotBookable    Kind = "NotBookable"
	KindConflict       Kind = "Conflict"
	KindStorageFailure Kind = "StorageFailure"
)

// Sentinels for errors.Is checks. Every *Error matches the sentinel of its
// kind.
var (
	ErrInvalidInput   = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrNotBookable    = &Error{Kind: KindNotBookable, Message: "space not bookable"}
	ErrConflict       = &Error{Kind: KindConflict, Message: "booking conflict"}
	ErrStorageFailure = &Error{Kind: KindStorageFailure, Message: "storage failure"}
)

// Error is a classified error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// HTTPStatus maps err onto a response status. Unclassified errors are 500.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotBookable:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
