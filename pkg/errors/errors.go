package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the indexing pipeline. A product with no eligible
// channel is not an error condition; builders signal it with a nil document.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrMisconfigured = errors.New("misconfigured")
	ErrRemoteStore   = errors.New("remote store error")
	ErrInternal      = errors.New("internal error")
)

// AppError is a structured application error with an HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing catalog entity. Fatal for the single operation
// in progress; callers log it and move on, no automatic retry.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput reports a malformed request or argument.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Misconfigured reports missing or inconsistent configuration, such as
// absent search-store credentials. Components must refuse to construct
// remote handles rather than attempt calls with empty credentials.
func Misconfigured(fields ...string) *AppError {
	return &AppError{
		Code:    "MISCONFIGURED",
		Message: fmt.Sprintf("missing required configuration: %s", strings.Join(fields, ", ")),
		Status:  http.StatusInternalServerError,
		Err:     ErrMisconfigured,
	}
}

// RemoteStore wraps a rejected write or read from the search index store.
// Surfaced to the caller of the synchronization hook; retry policy, if any,
// belongs to the bulk-job driver.
func RemoteStore(op string, err error) *AppError {
	return &AppError{
		Code:    "REMOTE_STORE_ERROR",
		Message: fmt.Sprintf("search store %s failed", op),
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrRemoteStore, err),
	}
}

// Internal wraps an unexpected error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap adds context to an error, preserving its chain.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRemoteStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
