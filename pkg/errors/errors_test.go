package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrInvalidInput, ErrValidation, ErrUnauthenticated,
		ErrForbidden, ErrTooManyRequests, ErrUpstream, ErrInternal,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("db lost")}
	assert.Equal(t, "INTERNAL_ERROR: boom: db lost", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "nope"}
	assert.Equal(t, "NOT_FOUND: nope", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(http.StatusOK))
	assert.Equal(t, OutcomeFail, Outcome(http.StatusBadRequest))
	assert.Equal(t, OutcomeFail, Outcome(http.StatusNotFound))
	assert.Equal(t, OutcomeError, Outcome(http.StatusInternalServerError))
	assert.Equal(t, OutcomeError, Outcome(http.StatusBadGateway))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		status   int
		sentinel error
	}{
		{"not found", NotFound("missing"), http.StatusNotFound, ErrNotFound},
		{"no document", NoDocument("tour"), http.StatusNotFound, ErrNotFound},
		{"conflict", Conflict("taken"), http.StatusConflict, ErrConflict},
		{"duplicate", Duplicate(`"The Forest Hiker"`), http.StatusConflict, ErrConflict},
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest, ErrInvalidInput},
		{"validation", Validation("bad", map[string]string{"name": "is required"}), http.StatusBadRequest, ErrValidation},
		{"unauthenticated", Unauthenticated("log in"), http.StatusUnauthorized, ErrUnauthenticated},
		{"forbidden", Forbidden("no"), http.StatusForbidden, ErrForbidden},
		{"rate limited", TooManyRequests("slow down"), http.StatusTooManyRequests, ErrTooManyRequests},
		{"upstream", Upstream("Stripe", fmt.Errorf("timeout")), http.StatusBadGateway, ErrUpstream},
		{"email", EmailDelivery(fmt.Errorf("smtp down")), http.StatusInternalServerError, ErrUpstream},
		{"internal", Internal(fmt.Errorf("nil map")), http.StatusInternalServerError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestNoDocument_Message(t *testing.T) {
	assert.Equal(t, "No tour found with that ID", NoDocument("tour").Message)
}

func TestUpstream_HidesCause(t *testing.T) {
	err := Upstream("Stripe", fmt.Errorf("secret key sk_live_123 rejected"))
	assert.NotContains(t, err.Message, "sk_live_123")
	assert.Contains(t, err.Error(), "sk_live_123")
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(Wrap(ErrNotFound, "get tour")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Wrap(ErrConflict, "insert")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Wrap(ErrValidation, "tour")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("anything else")))
}

func TestAppError_AsThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", Forbidden("You cannot access this booking"))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "You cannot access this booking", appErr.Message)
	assert.Equal(t, OutcomeFail, appErr.Outcome())
}
