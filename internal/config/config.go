package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkgconfig "github.com/AkshatJain-webdev/Natours/pkg/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultJWTSecret = "my-ultra-secure-and-ultra-long-secret"
	minSecretLength  = 32
)

// Config holds all configuration for the API server.
type Config struct {
	Environment string `env:"ENVIRONMENT"`
	NodeEnv     string `env:"NODE_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Port        int    `env:"PORT" envDefault:"3000"`

	// PostgreSQL. DatabaseURL may contain the literal <PASSWORD>.
	DatabaseURL      string `env:"DATABASE" envDefault:"postgres://natours:<PASSWORD>@localhost:5432/natours?sslmode=disable"`
	DatabasePassword string `env:"DATABASE_PASSWORD" envDefault:"natours"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Sessions
	JWTSecret          string `env:"JWT_SECRET" envDefault:"my-ultra-secure-and-ultra-long-secret"`
	JWTExpiresIn       string `env:"JWT_EXPIRES_IN" envDefault:"90d"`
	JWTCookieExpiresIn int    `env:"JWT_COOKIE_EXPIRES_IN" envDefault:"90"`

	// Email. An empty EmailHost logs messages instead of sending them.
	EmailHost     string `env:"EMAIL_HOST"`
	EmailPort     int    `env:"EMAIL_PORT" envDefault:"587"`
	EmailUsername string `env:"EMAIL_USERNAME"`
	EmailPassword string `env:"EMAIL_PASSWORD"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"hello@natours.io"`
	EmailFromName string `env:"EMAIL_FROM_NAME" envDefault:"Natours"`

	// Payments. An empty key uses the in-process mock provider.
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripeAPIURL    string `env:"STRIPE_API_URL" envDefault:"https://api.stripe.com"`

	// PublicURL is the externally visible origin used in emails and
	// checkout redirects.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`
	PublicDir string `env:"PUBLIC_DIR" envDefault:"public"`

	// Optional infrastructure. Empty values disable the integration.
	RedisURL     string   `env:"REDIS_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
	// TrustedProxyCIDRs lists the load balancers whose X-Forwarded-For is
	// believed. Empty means requests are keyed on their socket address.
	TrustedProxyCIDRs  []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	SlowQueryThresholdMs int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"500"`

	// JWTTTL is JWTExpiresIn parsed by Load.
	JWTTTL time.Duration
}

// Load reads the dotenv file named by CONFIG_FILE (default config.env) if it
// exists, then the process environment, and validates the result.
func Load() (*Config, error) {
	file := os.Getenv("CONFIG_FILE")
	if file == "" {
		file = "config.env"
	}

	cfg := &Config{}
	if err := pkgconfig.Load(cfg, file); err != nil {
		return nil, fmt.Errorf("load natours config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if c.Environment == "" {
		c.Environment = c.NodeEnv
	}
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE is required")
	}

	ttl, err := ParseLifetime(c.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	c.JWTTTL = ttl
	if c.JWTCookieExpiresIn < 1 {
		return fmt.Errorf("JWT_COOKIE_EXPIRES_IN must be positive, got %d", c.JWTCookieExpiresIn)
	}
	if !c.IsDevelopment() {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be changed outside development")
		}
		if len(c.JWTSecret) < minSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
		}
	}

	if c.RateLimitMax < 1 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// CookieTTL is the lifetime of the jwt cookie.
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.JWTCookieExpiresIn) * 24 * time.Hour
}

// DBMaxConnLifetime returns the pool connection lifetime.
func (c *Config) DBMaxConnLifetime() time.Duration {
	return time.Duration(c.DBMaxConnLifetimeMins) * time.Minute
}

// DBMaxConnIdleTime returns the pool idle timeout.
func (c *Config) DBMaxConnIdleTime() time.Duration {
	return time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute
}

// SlowQueryThreshold returns the slow query logging threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}

// ParseLifetime accepts Go durations ("12h", "90m") plus a day suffix
// ("90d"). A bare number is read as seconds.
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty lifetime")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid lifetime %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("invalid lifetime %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid lifetime %q", s)
	}
	return d, nil
}
