package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	NotFound         ErrorKind = "not_found"
	Forbidden        ErrorKind = "forbidden"
	InvalidState     ErrorKind = "invalid_state"
	ValidationFailed ErrorKind = "validation_failed"
	GatewayError     ErrorKind = "gateway_error"
	Internal         ErrorKind = "internal"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NotFoundErr(msg string) *AppError {
	return &AppError{Kind: NotFound, Message: msg}
}

func ForbiddenErr(msg string) *AppError {
	return &AppError{Kind: Forbidden, Message: msg}
}

func InvalidStateErr(msg string) *AppError {
	return &AppError{Kind: InvalidState, Message: msg}
}

func ValidationErr(msg string) *AppError {
	return &AppError{Kind: ValidationFailed, Message: msg}
}

func GatewayErr(msg string, err error) *AppError {
	return &AppError{Kind: GatewayError, Message: msg, Err: err}
}

// InternalErr wraps an unexpected error. Its cause is never shown to callers.
func InternalErr(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, Message: "Internal server error", Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors outside the taxonomy are Internal.
func KindOf(err error) ErrorKind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == NotFound
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case InvalidState, ValidationFailed:
		return http.StatusBadRequest
	case GatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.Kind != Internal && ae.Message != "" {
		return ae.Message
	}
	return "Internal server error"
}
