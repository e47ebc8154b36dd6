package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// Metadata is how a Code surfaces over HTTP. PublicMessage is the fallback
// body text; internal and dependency errors never expose anything else.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        meta(http.StatusBadRequest, "validation failed", true),
	CodeUnauthorized:      meta(http.StatusUnauthorized, "authentication required", false),
	CodeForbidden:         meta(http.StatusForbidden, "access denied", false),
	CodeNotFound:          meta(http.StatusNotFound, "resource not found", false),
	CodeConflict:          meta(http.StatusConflict, "conflict detected", false),
	CodeInsufficientStock: meta(http.StatusBadRequest, "insufficient stock", true),
	CodeIdempotency:       meta(http.StatusConflict, "idempotency key reused", true),
	CodeRateLimit:         meta(http.StatusTooManyRequests, "rate limit exceeded", false),
	CodeInternal:          meta(http.StatusInternalServerError, "internal server error", false),
	CodeDependency:        meta(http.StatusServiceUnavailable, "dependency unavailable", false),
}

// MetadataFor treats unknown codes as internal.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// NotFound is the common "<resource> not found" error.
func NotFound(resource string) *Error {
	return New(CodeNotFound, resource+" not found")
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	default:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
