package domain

import (
	"net/http"
	"time"
)

// DefaultPathPattern maps the policy onto every request path.
const DefaultPathPattern = "/**"

// DefaultMaxAge is how long browsers may cache a successful preflight.
const DefaultMaxAge = 30 * time.Minute

// DefaultPreflightStatus is the status of a successful preflight response.
const DefaultPreflightStatus = http.StatusNoContent

// DefaultCORSPolicy returns the policy the library frontend was built against:
// any local development port plus the deployed frontend, credentials allowed.
func DefaultCORSPolicy() CORSPolicy {
	return CORSPolicy{
		AllowedOriginPatterns: []string{"http://localhost:*", "https://library-frontend.vercel.app"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{Wildcard},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           DefaultMaxAge,
		PathPattern:      DefaultPathPattern,
		PreflightStatus:  DefaultPreflightStatus,
	}
}
