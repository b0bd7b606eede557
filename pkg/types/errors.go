package types

import (
	"errors"
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
	CodeTransientConflict Code = "TRANSIENT_CONFLICT"
	CodeInternal          Code = "INTERNAL_ERROR"
)

type ErrorMetadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
	ShowMessage   bool
}

var metadataByCode = map[Code]ErrorMetadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "validation failed",
		ShowMessage:   true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
		ShowMessage:   true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ShowMessage:   true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		ShowMessage:   true,
	},
	CodeTransientConflict: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "the request collided with a concurrent update, please try again",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
}

func MetadataFor(code Code) ErrorMetadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed failure returned by the ledgers and workflows. Callers
// branch on Code, never on the message text.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func NewError(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func WrapError(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func NewValidation(format string, args ...any) *Error {
	return NewError(CodeValidation, fmt.Sprintf(format, args...))
}

func NewNotFound(format string, args ...any) *Error {
	return NewError(CodeNotFound, fmt.Sprintf(format, args...))
}

func NewConflict(format string, args ...any) *Error {
	return NewError(CodeConflict, fmt.Sprintf(format, args...))
}

func NewForbidden(format string, args ...any) *Error {
	return NewError(CodeForbidden, fmt.Sprintf(format, args...))
}

func NewTransient(err error) *Error {
	return WrapError(CodeTransientConflict, err, "concurrent update collision")
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
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsError extracts the first *Error in err's chain, or nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	typed := AsError(err)
	return typed != nil && typed.Code() == code
}

var (
	ErrCategoryNotFound    = NewError(CodeNotFound, "donation category not found")
	ErrItemNotFound        = NewError(CodeNotFound, "donation item not found")
	ErrInventoryNotFound   = NewError(CodeNotFound, "inventory record not found")
	ErrDonationNotFound    = NewError(CodeNotFound, "donation not found")
	ErrScheduleNotFound    = NewError(CodeNotFound, "schedule slot not found")
	ErrAppointmentNotFound = NewError(CodeNotFound, "appointment not found")
)
