package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AkshatJain-webdev/Natours/internal/auth"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	service  *service.AuthService
	cookie   auth.Cookie
	writeErr middleware.ErrorFunc
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookie auth.Cookie, writeErr middleware.ErrorFunc) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie, writeErr: writeErr}
}

// --- Request DTOs ---

// SignupRequest is the JSON body of POST /users/signup. Anything else in
// the body, such as a role, is ignored.
type SignupRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// LoginRequest is the JSON body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the JSON body of POST /users/forgotPassword.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetPasswordRequest is the JSON body of PATCH /users/resetPassword/{token}.
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdatePasswordRequest is the JSON body of PATCH /users/updateMyPassword.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// --- Handlers ---

// Signup handles POST /api/v1/users/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	session, err := h.service.Signup(r.Context(), service.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}, requestOrigin(r)+"/me")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeSession(w, h.cookie, http.StatusCreated, session.User, session.Token)
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeSession(w, h.cookie, http.StatusOK, session.User, session.Token)
}

// Logout handles GET /api/v1/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.cookie.Clear(w)
	writeMessage(w, http.StatusOK, "")
}

// ForgotPassword handles POST /api/v1/users/forgotPassword
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	resetBase := requestOrigin(r) + "/api/v1/users/resetPassword"
	if err := h.service.ForgotPassword(r.Context(), req.Email, resetBase); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Token sent to email!")
}

// ResetPassword handles PATCH /api/v1/users/resetPassword/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	session, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password, req.PasswordConfirm)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeSession(w, h.cookie, http.StatusOK, session.User, session.Token)
}

// UpdatePassword handles PATCH /api/v1/users/updateMyPassword
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	var req UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	session, err := h.service.UpdatePassword(r.Context(), user.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeSession(w, h.cookie, http.StatusOK, session.User, session.Token)
}
