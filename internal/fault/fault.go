// Package fault classifies failures of externally facing operations into a
// small taxonomy so callers can degrade instead of crashing the session.
package fault

import (
	"errors"
	"net/http"
)

// Kind is one category of the failure taxonomy.
type Kind string

const (
	Configuration Kind = "configuration"
	Authorization Kind = "authorization"
	Quota         Kind = "quota"
	Network       Kind = "network"
	Unsupported   Kind = "unsupported"
	NoSignal      Kind = "no_signal"
	Rendering     Kind = "rendering"
	Unknown       Kind = "unknown"
)

// Error carries a Kind and a user-facing message next to the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind and message to err. A nil err yields nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err, Unknown when err is not classified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Message returns the user-facing message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}

// HTTPStatus maps a Kind onto the status the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Configuration:
		return http.StatusServiceUnavailable
	case Authorization, Network:
		return http.StatusBadGateway
	case Quota:
		return http.StatusTooManyRequests
	case Unsupported:
		return http.StatusNotImplemented
	case NoSignal:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
