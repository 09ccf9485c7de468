// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_CORS_ALLOW_CREDENTIALS=false
type Config struct {
	// Server configuration (flattened env vars)
	Server ServerConfig

	// Logging configuration (flattened env vars)
	Log LogConfig

	// CORS policy configuration (flattened env vars)
	CORS CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: json)
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// CORSConfig holds the cross-origin policy. Lists are comma-separated.
// The defaults reproduce the policy the library frontend was built against.
type CORSConfig struct {
	// AllowedOriginPatterns lists exact origins and wildcard patterns
	// such as http://localhost:* or https://*.example.com.
	AllowedOriginPatterns OriginPatterns `envconfig:"CORS_ALLOWED_ORIGIN_PATTERNS" default:"http://localhost:*,https://library-frontend.vercel.app"`

	// AllowedMethods lists the methods a preflight may ask for.
	AllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`

	// AllowedHeaders lists request headers a preflight may ask for; "*" allows any.
	AllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"*"`

	// ExposedHeaders lists response headers scripts may read.
	ExposedHeaders []string `envconfig:"CORS_EXPOSED_HEADERS" default:"X-Request-ID"`

	// AllowCredentials emits Access-Control-Allow-Credentials (default: true)
	AllowCredentials bool `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`

	// MaxAge is how long browsers may cache a preflight result; 0 omits the header (default: 30m)
	MaxAge time.Duration `envconfig:"CORS_MAX_AGE" default:"30m"`

	// PathPattern selects which request paths are CORS-processed (default: /**)
	PathPattern string `envconfig:"CORS_PATH_PATTERN" default:"/**"`

	// PreflightStatus is the status of a successful preflight, 200 or 204 (default: 204)
	PreflightStatus int `envconfig:"CORS_PREFLIGHT_STATUS" default:"204"`

	// EchoRequestHeaders answers a wildcard-header preflight with the
	// requested header list instead of a literal "*".
	EchoRequestHeaders bool `envconfig:"CORS_ECHO_REQUEST_HEADERS" default:"false"`
}

// OriginPatterns is a comma-separated list of origin patterns. Commas
// inside a bracketed port list such as http://localhost:[3000,5173] do not
// split the list.
type OriginPatterns []string

// Decode implements envconfig.Decoder.
func (p *OriginPatterns) Decode(value string) error {
	var (
		out   []string
		depth int
		start int
	)
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return fmt.Errorf("unbalanced ] at offset %d", i)
			}
			depth--
		case ',':
			if depth == 0 {
				out = appendPattern(out, value[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("unterminated [ in %q", value)
	}
	*p = appendPattern(out, value[start:])
	return nil
}

func appendPattern(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from environment variables.
// It returns an error if variables are present but cannot be parsed.
func Load() (*Config, error) {
	var cfg Config

	// Load each config section separately to flatten env var names
	// This allows env vars like APP_PORT instead of APP_SERVER_PORT
	if err := envconfig.Process("APP", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.CORS); err != nil {
		return nil, fmt.Errorf("failed to load cors config: %w", err)
	}

	return &cfg, nil
}
