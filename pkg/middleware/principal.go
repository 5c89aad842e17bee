package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
)

type principalKey struct{}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

// WithPrincipal stores p in ctx. The request-scoped logger, if any, is
// re-derived so later log lines carry user_id.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	ctx = logger.WithUserID(ctx, p.UserID)
	return logger.With(ctx, slog.String("user_id", p.UserID))
}

// PrincipalFromContext returns the caller stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ErrRoleNotAllowed is rendered when RequireRole rejects a request.
var ErrRoleNotAllowed = apperrors.Forbidden("You do not have permission to perform this action")

// RequireRole rejects callers whose role is not in roles. It must run after
// whatever middleware stores the Principal; an absent principal is rejected
// the same way.
func RequireRole(writeErr ErrorFunc, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok || !slices.Contains(roles, p.Role) {
				writeErr(w, r, ErrRoleNotAllowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
