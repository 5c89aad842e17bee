package middleware

import (
	"log/slog"
	"net/http"

	"github.com/AkshatJain-webdev/Natours/pkg/logger"
)

// RequestLogger stores a logger carrying correlation_id, user_id and the
// trace ids in the request context. Mount it after RequestLogging and
// Tracing. Handlers read it back with logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if p, ok := PrincipalFromContext(ctx); ok {
				ctx = logger.WithUserID(ctx, p.UserID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
