package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

// Messages rendered by RequireAuthenticated.
var (
	ErrNotLoggedIn      = apperrors.Unauthenticated("You are not logged in! Please log in to get access.")
	ErrBadToken         = apperrors.Unauthenticated("Invalid token. Please log in again!")
	ErrExpiredToken     = apperrors.Unauthenticated("Your token has expired! Please log in again.")
	ErrUserGone         = apperrors.Unauthenticated("The user belonging to this token does no longer exist.")
	ErrPasswordReplaced = apperrors.Unauthenticated("User recently changed password! Please log in again.")
)

// UserLookup loads active users by id. Missing or inactive users yield an
// error matching apperrors.ErrNotFound.
type UserLookup interface {
	GetActive(ctx context.Context, id string) (*domain.User, error)
}

type userKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by the guard.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

// Guard resolves session tokens into users.
type Guard struct {
	tokens   *TokenService
	users    UserLookup
	writeErr middleware.ErrorFunc
	logger   *slog.Logger
}

// NewGuard creates a guard.
func NewGuard(tokens *TokenService, users UserLookup, writeErr middleware.ErrorFunc, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, users: users, writeErr: writeErr, logger: logger}
}

// RequireAuthenticated rejects requests without a valid session.
func (g *Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			g.writeErr(w, r, ErrNotLoggedIn)
			return
		}

		user, err := g.resolve(r.Context(), token)
		if err != nil {
			g.writeErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(g.attach(r.Context(), user)))
	})
}

// OptionalAuthenticated attaches the user when a valid session is present
// and never fails.
func (g *Guard) OptionalAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" || token == loggedOutValue {
			next.ServeHTTP(w, r)
			return
		}

		user, err := g.resolve(r.Context(), token)
		if err != nil {
			g.logger.DebugContext(r.Context(), "ignoring session", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(g.attach(r.Context(), user)))
	})
}

func (g *Guard) resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrBadToken
	}

	user, err := g.users.GetActive(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrUserGone
		}
		return nil, err
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, ErrPasswordReplaced
	}
	return user, nil
}

func (g *Guard) attach(ctx context.Context, u *domain.User) context.Context {
	ctx = WithUser(ctx, u)
	return middleware.WithPrincipal(ctx, middleware.Principal{UserID: u.ID, Role: u.Role})
}

// TokenFromRequest reads a bearer token, falling back to the session
// cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
