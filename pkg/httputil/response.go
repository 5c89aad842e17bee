package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// Envelope is the top-level JSON shape of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`

	// Development-only detail.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is attached to failure envelopes in development.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	Cause     string            `json:"cause,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes {status:"success", data}.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Status: apperrors.OutcomeSuccess, Data: data})
}

// WriteList writes {status:"success", results, data}.
func WriteList(w http.ResponseWriter, results int, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Status: apperrors.OutcomeSuccess, Results: &results, Data: data})
}

// WriteNoContent writes a bare 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ErrorWriter is the single place where errors become HTTP responses.
// Operational errors (*AppError) keep their message; anything else is
// logged in full and rendered generically unless Development is set.
type ErrorWriter struct {
	Logger      *slog.Logger
	Development bool
}

// NewErrorWriter creates an ErrorWriter.
func NewErrorWriter(l *slog.Logger, development bool) *ErrorWriter {
	return &ErrorWriter{Logger: l, Development: development}
}

// Write renders err.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := ew.classify(err)
	l := logger.FromContextOr(r.Context(), ew.Logger)

	if appErr.Status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	env := Envelope{Status: appErr.Outcome(), Message: appErr.Message}
	if ew.Development {
		env.Error = &ErrorDetail{
			Code:      appErr.Code,
			Fields:    appErr.Fields,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		}
		if appErr.Err != nil {
			env.Error.Cause = appErr.Err.Error()
		}
	}
	WriteJSON(w, appErr.Status, env)
}

// classify converts any error into an AppError.
func (ew *ErrorWriter) classify(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return apperrors.Validation(valErr.Error(), valErr.Fields())
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &apperrors.AppError{
			Code:    "PAYLOAD_TOO_LARGE",
			Message: "Request body is too large",
			Status:  http.StatusRequestEntityTooLarge,
			Err:     apperrors.ErrInvalidInput,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}

	status := apperrors.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		return &apperrors.AppError{Code: "ERROR", Message: err.Error(), Status: status, Err: err}
	}

	internal := apperrors.Internal(err)
	if ew.Development {
		internal.Message = err.Error()
	}
	return internal
}

// ParseUUID returns the canonical string form of param, or a 400 AppError.
func ParseUUID(param, resource string) (string, error) {
	id, err := uuid.Parse(param)
	if err != nil {
		return "", apperrors.InvalidInput("Invalid " + resource + " id: " + param)
	}
	return id.String(), nil
}
