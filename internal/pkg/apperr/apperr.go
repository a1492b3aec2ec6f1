// Package apperr maps the domain's failure modes onto a fixed set of
// sentinel kinds, each bound to one HTTP status code. Everything that
// crosses the HTTP boundary is coerced into one of these before the
// response package renders it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindProviderError   Kind = "provider_error"
	KindProviderTimeout Kind = "provider_timeout"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:      http.StatusBadRequest,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindProviderError:   http.StatusBadGateway,
	KindProviderTimeout: http.StatusGatewayTimeout,
	KindUnavailable:     http.StatusServiceUnavailable,
	KindInternal:        http.StatusInternalServerError,
}

// Error wraps an underlying cause with the Kind that determines how it is
// reported over HTTP.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code this error's kind maps to.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func Validation(err error) *Error      { return New(KindValidation, err) }
func NotFound(err error) *Error        { return New(KindNotFound, err) }
func Conflict(err error) *Error        { return New(KindConflict, err) }
func ProviderError(err error) *Error   { return New(KindProviderError, err) }
func ProviderTimeout(err error) *Error { return New(KindProviderTimeout, err) }
func Unavailable(err error) *Error     { return New(KindUnavailable, err) }
func Internal(err error) *Error        { return New(KindInternal, err) }

// Validationf and friends build an Error from a formatted message without
// requiring the caller to construct an intermediate error value.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Errorf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return NotFound(fmt.Errorf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return Conflict(fmt.Errorf(format, args...))
}

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the HTTP status code appropriate for err, defaulting to
// 500 when err does not carry an apperr.Error.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}
