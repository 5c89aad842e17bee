// Package http exposes the Natours services over a chi router.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/AkshatJain-webdev/Natours/internal/auth"
	"github.com/AkshatJain-webdev/Natours/internal/domain"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
)

// errEmptyBody is returned when a handler needs a JSON body and got none.
var errEmptyBody = apperrors.InvalidInput("Please provide a request body.")

// decodeJSON reads the request body into dst. Unknown fields are allowed.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperrors.InvalidInput("Invalid JSON body: " + err.Error())
	}
	return nil
}

// isMultipart reports whether r carries a multipart form.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// currentUser returns the user the guard attached. Routes mounting this
// handler must sit behind RequireAuthenticated.
func currentUser(r *http.Request) (*domain.User, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, auth.ErrNotLoggedIn
	}
	return u, nil
}

// requestOrigin is scheme://host as seen by the client.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// writeSession sets the session cookie and renders the token with the
// user.
func writeSession(w http.ResponseWriter, cookie auth.Cookie, status int, u *domain.User, token string) {
	cookie.Set(w, token)
	httputil.WriteJSON(w, status, httputil.Envelope{
		Status: apperrors.OutcomeSuccess,
		Token:  token,
		Data:   map[string]any{"user": u},
	})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	httputil.WriteJSON(w, status, httputil.Envelope{Status: apperrors.OutcomeSuccess, Message: msg})
}

// parseFloatParam parses a numeric path or query parameter.
func parseFloatParam(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperrors.InvalidInput("Invalid " + name + ": " + raw + ".")
	}
	return v, nil
}
