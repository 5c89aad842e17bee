package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/AkshatJain-webdev/Natours/internal/auth"
	"github.com/AkshatJain-webdev/Natours/internal/config"
	"github.com/AkshatJain-webdev/Natours/internal/email"
	"github.com/AkshatJain-webdev/Natours/internal/event"
	handler "github.com/AkshatJain-webdev/Natours/internal/handler/http"
	"github.com/AkshatJain-webdev/Natours/internal/imaging"
	"github.com/AkshatJain-webdev/Natours/internal/payment"
	"github.com/AkshatJain-webdev/Natours/internal/repository/postgres"
	"github.com/AkshatJain-webdev/Natours/internal/repository/redis"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	"github.com/AkshatJain-webdev/Natours/migrations"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
	"github.com/AkshatJain-webdev/Natours/pkg/health"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	pkgkafka "github.com/AkshatJain-webdev/Natours/pkg/kafka"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
	"github.com/AkshatJain-webdev/Natours/pkg/tracing"
)

// ServiceName labels logs, traces and metrics.
const ServiceName = "natours"

// App wires together all dependencies and runs the Natours API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	events         *event.Producer
	sweeper        *middleware.MemoryLimiter
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}
	if err := a.init(ctx); err != nil {
		_ = a.closeInfra()
		_ = tracerShutdown(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		URL:             cfg.DatabaseURL,
		Password:        cfg.DatabasePassword,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime(),
		MaxConnIdleTime: cfg.DBMaxConnIdleTime(),
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("DB connection successful!")

	if err := prometheus.Register(database.NewPoolCollector(pool, ServiceName)); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Rate limiting: a shared Redis window when configured, otherwise a
	// per-process token bucket.
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		limiter = redis.NewWindowLimiter(redis.NewWindowStore(client), cfg.RateLimitMax, cfg.RateLimitWindow)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Info("rate limiting backed by redis")
	} else {
		mem := middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		a.sweeper = mem
		limiter = mem
		logger.Info("rate limiting in memory")
	}

	// Domain events go to Kafka only when brokers are configured.
	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.producer = producer
		publisher = producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	a.events = event.NewProducer(publisher, logger)

	var payments payment.Provider
	if cfg.StripeSecretKey != "" {
		payments = payment.NewStripeProvider(cfg.StripeAPIURL, cfg.StripeSecretKey, payment.NewStripeClient(logger), logger)
	} else {
		payments = payment.NewMockProvider()
		logger.Warn("STRIPE_SECRET_KEY not set, using mock checkout sessions")
	}

	var sender email.Sender
	if cfg.EmailHost != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUsername,
			Password: cfg.EmailPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		})
	} else {
		sender = email.NewLogSender(logger)
	}

	// Build the dependency graph.
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	userRepo := postgres.NewUserRepository(pool)
	tourRepo := postgres.NewTourRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)

	authService := service.NewAuthService(userRepo, tokens, email.NewMailer(sender), a.events, logger)
	userService := service.NewUserService(userRepo, tourRepo, logger)
	tourService := service.NewTourService(tourRepo, reviewRepo, a.events, logger)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, a.events, logger)
	bookingService := service.NewBookingService(bookingRepo, tourRepo, payments, cfg.PublicURL, a.events, logger)

	errs := httputil.NewErrorWriter(logger, cfg.IsDevelopment())

	router := handler.NewRouter(handler.RouterConfig{
		Auth:        authService,
		Users:       userService,
		Tours:       tourService,
		Reviews:     reviewService,
		Bookings:    bookingService,
		Guard:       auth.NewGuard(tokens, userService, errs.Write, logger),
		Cookie:      auth.Cookie{TTL: cfg.CookieTTL(), Secure: cfg.IsProduction()},
		Images:      imaging.NewProcessor(cfg.PublicDir),
		Limiter:     limiter,
		Health:      healthHandler,
		Errors:      errs,
		Logger:      logger,
		CORSOrigins: cfg.CORSAllowedOrigins,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		ProxyCIDRs:  cfg.TrustedProxyCIDRs,
		PublicDir:   cfg.PublicDir,
		Production:  cfg.IsProduction(),
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if a.sweeper != nil {
		go a.sweeper.RunSweeper(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("App running", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("UNHANDLED REJECTION! Shutting down...", slog.String("error", err.Error()))
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Pending domain events
// 3. Tracer (flush pending spans from drained requests)
// 4. Kafka producer, Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.events.Wait()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.closeInfra(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeInfra releases whatever init managed to open.
func (a *App) closeInfra() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
