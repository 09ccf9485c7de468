// Package ports declares the interfaces the HTTP layer depends on.
package ports

import "libgate/src/core/domain"

// CORSEvaluator decides how cross-origin requests are handled.
// Implementations must be safe for concurrent use.
type CORSEvaluator interface {
	// Evaluate returns the decision for a single request.
	Evaluate(req domain.CORSRequest) domain.CORSDecision

	// Policy returns a copy of the active policy.
	Policy() domain.CORSPolicy

	// Warnings lists accepted but questionable policy settings.
	Warnings() []string
}
