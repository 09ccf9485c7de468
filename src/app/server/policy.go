package server

import (
	"libgate/src/core/domain"
	"libgate/src/infra/config"
)

// PolicyFromConfig maps the CORS section of the configuration onto a
// domain policy. Validation happens when the policy is compiled.
func PolicyFromConfig(c config.CORSConfig) domain.CORSPolicy {
	return domain.CORSPolicy{
		AllowedOriginPatterns: c.AllowedOriginPatterns,
		AllowedMethods:        c.AllowedMethods,
		AllowedHeaders:        c.AllowedHeaders,
		ExposedHeaders:        c.ExposedHeaders,
		AllowCredentials:      c.AllowCredentials,
		MaxAge:                c.MaxAge,
		PathPattern:           c.PathPattern,
		PreflightStatus:       c.PreflightStatus,
		EchoRequestHeaders:    c.EchoRequestHeaders,
	}.Clone()
}
