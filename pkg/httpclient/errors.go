package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// apiErrorBody matches the {"error":{"type","code","message"}} body used by
// Stripe and most JSON APIs.
type apiErrorBody struct {
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// maps it to an AppError. Request problems (400, 402, 404) keep the upstream
// message as a 400. Everything else, including credential errors, is reported
// as the service being unavailable.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Upstream(service, fmt.Errorf("status %d, read body: %w", resp.StatusCode, err))
	}

	message := string(raw)
	var body apiErrorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != nil && body.Error.Message != "" {
		message = body.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusPaymentRequired, http.StatusNotFound:
		return apperrors.InvalidInput(fmt.Sprintf("%s: %s", service, message))
	default:
		return apperrors.Upstream(service, fmt.Errorf("status %d: %s", resp.StatusCode, message))
	}
}
