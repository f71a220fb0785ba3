// Package apperr defines the error taxonomy shared by all storefront
// services. Every failure that crosses a service boundary carries a Kind,
// which the transport layer maps to a status code, and a short message safe
// to show to callers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindForbidden         Kind = "forbidden"
	KindGateway           Kind = "gateway_error"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnavailable       Kind = "unavailable"
)

type Error struct {
	Kind    Kind
	Message string
	// Transient marks gateway/availability failures the caller may retry.
	Transient bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InsufficientStock(product string, requested, available int) *Error {
	return New(KindInsufficientStock, "insufficient stock for %s: requested %d, available %d", product, requested, available)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InvalidTransition(from, to string) *Error {
	return New(KindInvalidTransition, "illegal status transition %s -> %s", from, to)
}

// Gateway wraps a payment-gateway failure. Transient failures (timeouts,
// 5xx) are safe to retry; permanent ones are not.
func Gateway(cause error, transient bool, format string, args ...any) *Error {
	e := Wrap(KindGateway, cause, format, args...)
	e.Transient = transient
	return e
}

func Unavailable(cause error, format string, args ...any) *Error {
	e := Wrap(KindUnavailable, cause, format, args...)
	e.Transient = true
	return e
}

// KindOf extracts the Kind from err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
