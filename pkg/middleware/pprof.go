package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// RegisterPprof mounts /debug/pprof behind IPAllowlist. Nothing is mounted
// when cidrs is empty.
func RegisterPprof(r chi.Router, cidrs []string, logger *slog.Logger, writeErr ErrorFunc) {
	if len(cidrs) == 0 {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(IPAllowlist(cidrs, logger, writeErr))
		r.HandleFunc("/debug/pprof/*", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	})
}

// IPAllowlist only lets through requests whose RemoteAddr falls in one of
// cidrs. Unparseable CIDRs are logged and ignored.
func IPAllowlist(cidrs []string, logger *slog.Logger, writeErr ErrorFunc) func(http.Handler) http.Handler {
	nets := parseCIDRs(cidrs, logger, "invalid allowlist CIDR, skipping")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := remoteHost(r)
			if ip := net.ParseIP(host); ip == nil || !containsIP(nets, ip) {
				logger.Warn("access denied by IP allowlist", slog.String("ip", host), slog.String("path", r.URL.Path))
				writeErr(w, r, apperrors.Forbidden("Access restricted"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
