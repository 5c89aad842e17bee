package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AkshatJain-webdev/Natours/internal/auth"
	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/imaging"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/health"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

const (
	jsonBodyLimit  = 10 << 10
	requestTimeout = 60 * time.Second
	imageMaxAge    = 7 * 24 * 60 * 60
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Tours    *service.TourService
	Reviews  *service.ReviewService
	Bookings *service.BookingService

	Guard   *auth.Guard
	Cookie  auth.Cookie
	Images  *imaging.Processor
	Limiter middleware.Limiter
	Health  *health.Handler
	Errors  *httputil.ErrorWriter
	Logger  *slog.Logger

	CORSOrigins []string
	PprofCIDRs  []string
	ProxyCIDRs  []string
	PublicDir   string
	Production  bool
}

// NewRouter creates a chi router with all Natours routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	writeErr := cfg.Errors.Write

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP(cfg.ProxyCIDRs, cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger, writeErr))
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chimw.Compress(5))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, r, apperrors.NotFound("Can't find "+r.URL.RequestURI()+" on this server!"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, r, &apperrors.AppError{
			Code:    "METHOD_NOT_ALLOWED",
			Message: r.Method + " is not allowed on " + r.URL.Path,
			Status:  http.StatusMethodNotAllowed,
			Err:     apperrors.ErrInvalidInput,
		})
	})

	// Operational endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger, writeErr)

	if cfg.PublicDir != "" {
		static := http.FileServer(http.Dir(cfg.PublicDir))
		r.With(middleware.StaticCache(imageMaxAge)).Handle("/img/*", static)
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Cookie, writeErr)
	userHandler := NewUserHandler(cfg.Users, cfg.Images, writeErr)
	tourHandler := NewTourHandler(cfg.Tours, cfg.Images, writeErr)
	reviewHandler := NewReviewHandler(cfg.Reviews, writeErr)
	bookingHandler := NewBookingHandler(cfg.Bookings, writeErr)

	guard := cfg.Guard
	restrictTo := func(roles ...string) func(http.Handler) http.Handler {
		return middleware.RequireRole(writeErr, roles...)
	}

	reviewRoutes := func(r chi.Router) {
		r.Use(guard.RequireAuthenticated)

		r.Get("/", reviewHandler.List())
		r.With(restrictTo(domain.RoleUser)).Post("/", reviewHandler.Create())
		r.Get("/{id}", reviewHandler.Get())
		r.With(restrictTo(domain.RoleUser, domain.RoleAdmin)).Patch("/{id}", reviewHandler.Update())
		r.With(restrictTo(domain.RoleUser, domain.RoleAdmin)).Delete("/{id}", reviewHandler.Delete())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.Limiter, cfg.Logger, writeErr))
		r.Use(middleware.JSONBodyLimit(jsonBodyLimit))
		r.Use(chimw.Timeout(requestTimeout))

		r.Route("/tours", func(r chi.Router) {
			r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", tourHandler.Within)
			r.Get("/distances/{latlng}/unit/{unit}", tourHandler.Distances)

			r.Group(func(r chi.Router) {
				r.Use(guard.OptionalAuthenticated)

				r.With(AliasTopCheap).Get("/top-5-cheap", tourHandler.List())
				r.Get("/", tourHandler.List())
				r.Get("/slug/{slug}", tourHandler.GetBySlug)
				r.Get("/{id}", tourHandler.Get())
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuthenticated)

				r.With(restrictTo(domain.RoleAdmin)).Get("/tour-stats", tourHandler.Stats)
				r.With(restrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)).
					Get("/monthly-plan/{year}", tourHandler.MonthlyPlan)

				r.Group(func(r chi.Router) {
					r.Use(restrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
					r.Post("/", tourHandler.Create())
					r.Patch("/{id}", tourHandler.Update())
					r.Delete("/{id}", tourHandler.Delete())
				})
			})

			r.Route("/{tourId}/reviews", reviewRoutes)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
			r.Post("/forgotPassword", authHandler.ForgotPassword)
			r.Patch("/resetPassword/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuthenticated)

				r.Patch("/updateMyPassword", authHandler.UpdatePassword)
				r.Get("/me", userHandler.Me)
				r.Get("/me/tours", userHandler.MyTours)
				r.Patch("/updateMe", userHandler.UpdateMe)
				r.Delete("/deleteMe", userHandler.DeleteMe)

				r.Group(func(r chi.Router) {
					r.Use(restrictTo(domain.RoleAdmin))
					r.Get("/", userHandler.List())
					r.Post("/", userHandler.Create)
					r.Get("/{id}", userHandler.Get())
					r.Patch("/{id}", userHandler.Update())
					r.Delete("/{id}", userHandler.Delete())
				})
			})
		})

		r.Route("/reviews", reviewRoutes)

		r.Route("/bookings", func(r chi.Router) {
			r.Use(guard.RequireAuthenticated)

			r.Get("/checkout-session/{tourId}", bookingHandler.CheckoutSession)
			if !cfg.Production {
				r.Get("/checkout-complete", bookingHandler.CheckoutComplete)
			}

			r.Get("/{id}", bookingHandler.Get())
			r.Patch("/{id}", bookingHandler.Update())

			r.Group(func(r chi.Router) {
				r.Use(restrictTo(domain.RoleAdmin))
				r.Delete("/{id}", bookingHandler.Delete())
				r.Get("/", bookingHandler.List())
				r.Post("/", bookingHandler.Create())
			})
		})
	})

	return r
}
