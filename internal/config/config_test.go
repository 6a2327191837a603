package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every known key so the host environment cannot leak in.
// Viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 168, cfg.JWTExpirationHours)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, "none", cfg.ProductMatcher)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("EXTRACTION_TIMEOUT", "90s")
	t.Setenv("PRODUCT_MATCHER", "barcode")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, "barcode", cfg.ProductMatcher)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"production without secret", map[string]string{"APP_ENV": "production"}, "JWT_SECRET is required in production"},
		{"negative ttl", map[string]string{"JWT_EXPIRATION_HOURS": "-1"}, "JWT_EXPIRATION_HOURS must be positive, got -1"},
		{"zero upload limit", map[string]string{"MAX_UPLOAD_BYTES": "0"}, "MAX_UPLOAD_BYTES must be positive, got 0"},
		{"unknown matcher", map[string]string{"PRODUCT_MATCHER": "fuzzy"}, `PRODUCT_MATCHER must be none or barcode, got "fuzzy"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.EqualError(t, err, tc.msg)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}
