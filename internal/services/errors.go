// Package services holds what the per-resource services share: the error taxonomy the HTTP
// layer maps to status codes, and the best-effort notification step that follows reviews.
package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
)

// Error is a failure with a message meant for the caller. Kind is one of the sentinels above.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation reports a missing or malformed input, checked before any store call.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// Unauthorized reports an identity-requiring action made without a user id.
func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// NotFound reports a missing subject, or one that is no longer pending.
func NotFound(msg string, cause error) error {
	return &Error{Kind: ErrNotFound, Message: msg, Err: cause}
}

// Upstream wraps a store failure. The store's text is passed through to the caller.
func Upstream(err error) error {
	return &Error{Kind: ErrUpstream, Message: err.Error(), Err: err}
}

// Upstreamf wraps a store failure behind a fixed prefix, e.g. "图片上传失败: <msg>".
func Upstreamf(err error, format string, args ...interface{}) error {
	return &Error{Kind: ErrUpstream, Message: fmt.Sprintf(format, args...) + err.Error(), Err: err}
}

// HTTPStatus maps an error returned by a service to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
