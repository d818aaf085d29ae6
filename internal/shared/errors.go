package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error for client branching. The HTTP boundary is the
// only place a Kind becomes a status code.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindNotFound         Kind = "NOT_FOUND"
	KindDuplicate        Kind = "DUPLICATE"
	KindCapacityFull     Kind = "CAPACITY_FULL"
	KindInvalidID        Kind = "INVALID_ID"
	KindInternal         Kind = "INTERNAL_ERROR"
)

// Error is the single error shape used across all services.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// E builds a typed error.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return E(KindValidation, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return E(KindUnauthorized, format, args...)
}

func PermissionDenied() *Error {
	return E(KindPermissionDenied, "permission denied")
}

func NotFound(format string, args ...any) *Error {
	return E(KindNotFound, format, args...)
}

func Duplicate(format string, args ...any) *Error {
	return E(KindDuplicate, format, args...)
}

func CapacityFull(format string, args ...any) *Error {
	return E(KindCapacityFull, format, args...)
}

func InvalidID(format string, args ...any) *Error {
	return E(KindInvalidID, format, args...)
}

func Internal(err error) *Error {
	// Internal diagnostics never leak to the caller.
	return &Error{Kind: KindInternal, Message: "internal error"}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unexpected failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
