package domain

import "fmt"

// ErrorKind classifies job failures for retry decisions.
type ErrorKind string

const (
	ErrorKindNotAuthorized      ErrorKind = "not_authorized"
	ErrorKindEngineUnavailable  ErrorKind = "engine_unavailable"
	ErrorKindCancelled          ErrorKind = "cancelled"
	ErrorKindAudioNotFound      ErrorKind = "audio_not_found"
	ErrorKindInvalidAudioFormat ErrorKind = "invalid_audio_format"
	ErrorKindRecognitionFailed  ErrorKind = "recognition_failed"
)

// Error is a kind-aware job failure with optional engine context.
type Error struct {
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
	Err    error     `json:"-"`
}

// Error formats the failure for logs.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fatal reports whether the failure must not be retried.
func (e *Error) Fatal() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ErrorKindNotAuthorized, ErrorKindEngineUnavailable, ErrorKindCancelled:
		return true
	default:
		return false
	}
}

// NewError builds a kind-aware failure wrapping an optional cause.
func NewError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}
