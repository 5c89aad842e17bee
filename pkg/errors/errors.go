package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every AppError wraps exactly one of these so callers can
// branch with errors.Is without inspecting status codes.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUpstream        = errors.New("upstream service error")
	ErrInternal        = errors.New("internal error")
)

// Envelope outcomes written in the "status" field of every response.
const (
	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
	OutcomeError   = "error"
)

// AppError is an operational error: its message is safe to show to clients.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"-"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
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

// Outcome returns "fail" for client errors and "error" for server errors.
func (e *AppError) Outcome() string {
	return Outcome(e.Status)
}

// Outcome maps an HTTP status onto the envelope status word.
func Outcome(status int) string {
	switch {
	case status >= 500:
		return OutcomeError
	case status >= 400:
		return OutcomeFail
	default:
		return OutcomeSuccess
	}
}

// NotFound creates a 404 error with the given message.
func NotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound, Err: ErrNotFound}
}

// NoDocument is the 404 returned by id lookups.
func NoDocument(resource string) *AppError {
	return NotFound(fmt.Sprintf("No %s found with that ID", resource))
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict, Err: ErrConflict}
}

// Duplicate creates the 409 returned when a unique field value is taken.
func Duplicate(value string) *AppError {
	return Conflict(fmt.Sprintf("Duplicate field value: %s. Please use another value!", value))
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{Code: "INVALID_INPUT", Message: message, Status: http.StatusBadRequest, Err: ErrInvalidInput}
}

// Validation creates a 400 error carrying per-field violations.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
		Fields:  fields,
		Err:     ErrValidation,
	}
}

// Unauthenticated creates a 401 error.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: "UNAUTHENTICATED", Message: message, Status: http.StatusUnauthorized, Err: ErrUnauthenticated}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden, Err: ErrForbidden}
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: message, Status: http.StatusTooManyRequests, Err: ErrTooManyRequests}
}

// Upstream creates a 502 error for a failed call to an external collaborator.
// The cause is kept for logging but never rendered.
func Upstream(service string, cause error) *AppError {
	return &AppError{
		Code:    "UPSTREAM_ERROR",
		Message: fmt.Sprintf("%s is currently unavailable. Please try again later!", service),
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrUpstream, cause),
	}
}

// EmailDelivery is the 500 surfaced when an outgoing email cannot be sent.
func EmailDelivery(cause error) *AppError {
	return &AppError{
		Code:    "EMAIL_DELIVERY_FAILED",
		Message: "There was an error sending the email. Try again later!",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrUpstream, cause),
	}
}

// Internal creates a 500 error for an unexpected failure.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Something went very wrong!",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrInternal, err),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
