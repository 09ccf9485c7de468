package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, OriginPatterns{"http://localhost:*", "https://library-frontend.vercel.app"}, cfg.CORS.AllowedOriginPatterns)
	assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, []string{"X-Request-ID"}, cfg.CORS.ExposedHeaders)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, 30*time.Minute, cfg.CORS.MaxAge)
	assert.Equal(t, "/**", cfg.CORS.PathPattern)
	assert.Equal(t, 204, cfg.CORS.PreflightStatus)
	assert.False(t, cfg.CORS.EchoRequestHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_CORS_ALLOWED_ORIGIN_PATTERNS", "https://*.library.example,http://localhost:[3000,5173]")
	t.Setenv("APP_CORS_ALLOW_CREDENTIALS", "false")
	t.Setenv("APP_CORS_MAX_AGE", "10m")
	t.Setenv("APP_CORS_PATH_PATTERN", "/api/**")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, OriginPatterns{"https://*.library.example", "http://localhost:[3000,5173]"}, cfg.CORS.AllowedOriginPatterns)
	assert.False(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, 10*time.Minute, cfg.CORS.MaxAge)
	assert.Equal(t, "/api/**", cfg.CORS.PathPattern)
}

func TestOriginPatterns_Decode(t *testing.T) {
	tests := []struct {
		in   string
		want OriginPatterns
		ok   bool
	}{
		{"http://localhost:*", OriginPatterns{"http://localhost:*"}, true},
		{" http://a.example , https://b.example ,", OriginPatterns{"http://a.example", "https://b.example"}, true},
		{"http://localhost:[3000, 5173],https://x.example", OriginPatterns{"http://localhost:[3000, 5173]", "https://x.example"}, true},
		{"http://localhost:[3000", nil, false},
		{"http://localhost:3000]", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p OriginPatterns
			err := p.Decode(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_CORS_MAX_AGE", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cors config")
}
