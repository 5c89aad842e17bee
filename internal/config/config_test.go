package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, k := range []string{"ENVIRONMENT", "NODE_ENV", "PORT", "JWT_SECRET", "JWT_EXPIRES_IN", "JWT_COOKIE_EXPIRES_IN", "RATE_LIMIT_MAX"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 90*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.CookieTTL())
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_NodeEnvFallback(t *testing.T) {
	isolate(t)
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "a-production-secret-that-is-long-enough-1234")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ProductionRejectsWeakSecrets(t *testing.T) {
	for _, secret := range []string{defaultJWTSecret, "short"} {
		isolate(t)
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", secret)

		_, err := Load()
		assert.Error(t, err, secret)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"PORT":                  "70000",
		"ENVIRONMENT":           "staging",
		"JWT_EXPIRES_IN":        "forever",
		"JWT_COOKIE_EXPIRES_IN": "0",
		"RATE_LIMIT_MAX":        "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=8123\nJWT_EXPIRES_IN=12h\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Cleanup(func() {
		_ = os.Unsetenv("PORT")
		_ = os.Unsetenv("JWT_EXPIRES_IN")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"90d", 90 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"3600", time.Hour, false},
		{"", 0, true},
		{"0d", 0, true},
		{"-5m", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLifetime(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
