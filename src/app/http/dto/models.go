package dto

import (
	"net/http"
	"strings"

	"libgate/src/core/domain"
)

// EvaluateRequest is the payload for POST /v1/cors/evaluate.
// It describes a request as the browser would send it.
type EvaluateRequest struct {
	Origin         string   `json:"origin"`
	Method         string   `json:"method" binding:"required"`
	Path           string   `json:"path" binding:"omitempty,startswith=/"`
	RequestMethod  *string  `json:"request_method"`
	RequestHeaders []string `json:"request_headers"`
}

// ToDomain converts the payload into the evaluator's input.
// The server's own origin is left unset, so no origin counts as same-origin.
func (r *EvaluateRequest) ToDomain() domain.CORSRequest {
	req := domain.CORSRequest{
		Method:         r.Method,
		Path:           r.Path,
		RequestHeaders: r.RequestHeaders,
	}
	if req.Path == "" {
		req.Path = "/"
	}
	if r.Origin != "" {
		req.Origin = []string{r.Origin}
	}
	if r.RequestMethod != nil {
		req.HasRequestMethod = true
		req.RequestMethod = *r.RequestMethod
	}
	return req
}

// DecisionResponse describes a CORS decision.
type DecisionResponse struct {
	Outcome domain.Outcome     `json:"outcome"`
	Kind    domain.RequestKind `json:"kind"`
	Reason  string             `json:"reason,omitempty"`
	Headers map[string]string  `json:"headers"`
}

// FromDomain builds a DecisionResponse from a decision.
func (DecisionResponse) FromDomain(d domain.CORSDecision) DecisionResponse {
	return DecisionResponse{
		Outcome: d.Outcome,
		Kind:    d.Kind,
		Reason:  d.Reason.String(),
		Headers: flatten(d.Headers),
	}
}

// PolicyResponse describes the active CORS policy.
type PolicyResponse struct {
	domain.CORSPolicy
	MaxAgeSeconds int64    `json:"max_age_seconds"`
	Warnings      []string `json:"warnings,omitempty"`
}

// NewPolicyResponse builds a PolicyResponse.
func NewPolicyResponse(p domain.CORSPolicy, warnings []string) PolicyResponse {
	return PolicyResponse{
		CORSPolicy:    p,
		MaxAgeSeconds: int64(p.MaxAge.Seconds()),
		Warnings:      warnings,
	}
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
