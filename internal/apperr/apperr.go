// Package apperr carries HTTP-facing application errors. Every error created
// here has a status code and a client-safe message; anything else reaching the
// error boundary is treated as unexpected and masked.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, msg string) *Error {
	return &Error{Status: status, Msg: msg}
}

// Wrap keeps cause for logs while exposing only msg to clients.
func Wrap(status int, msg string, cause error) *Error {
	return &Error{Status: status, Msg: msg, Err: cause}
}

func Validation(msg string) *Error   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return New(http.StatusConflict, msg) }
func Internal(msg string) *Error     { return New(http.StatusInternalServerError, msg) }

// As reports whether err is (or wraps) an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
