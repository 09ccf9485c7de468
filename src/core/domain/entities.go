package domain

import (
	"net/http"
	"slices"
	"time"
)

// Wildcard allows any origin or any request header, depending on where it appears.
const Wildcard = "*"

// CORS request and response header names.
const (
	HeaderOrigin           = "Origin"
	HeaderVary             = "Vary"
	HeaderRequestMethod    = "Access-Control-Request-Method"
	HeaderRequestHeaders   = "Access-Control-Request-Headers"
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderExposeHeaders    = "Access-Control-Expose-Headers"
	HeaderMaxAge           = "Access-Control-Max-Age"
)

// CORSPolicy describes which cross-origin requests the API accepts.
// It is built once at startup and handed to the evaluator, which keeps
// its own copy; mutating a CORSPolicy afterwards has no effect.
type CORSPolicy struct {
	AllowedOriginPatterns []string      `json:"allowed_origin_patterns"`
	AllowedMethods        []string      `json:"allowed_methods"`
	AllowedHeaders        []string      `json:"allowed_headers"`
	ExposedHeaders        []string      `json:"exposed_headers,omitempty"`
	AllowCredentials      bool          `json:"allow_credentials"`
	MaxAge                time.Duration `json:"-"`
	PathPattern           string        `json:"path_pattern"`
	PreflightStatus       int           `json:"preflight_status"`
	EchoRequestHeaders    bool          `json:"echo_request_headers"`
}

// AnyHeader reports whether the policy allows any request header.
func (p CORSPolicy) AnyHeader() bool {
	return slices.Contains(p.AllowedHeaders, Wildcard)
}

// Clone returns a deep copy of the policy.
func (p CORSPolicy) Clone() CORSPolicy {
	p.AllowedOriginPatterns = slices.Clone(p.AllowedOriginPatterns)
	p.AllowedMethods = slices.Clone(p.AllowedMethods)
	p.AllowedHeaders = slices.Clone(p.AllowedHeaders)
	p.ExposedHeaders = slices.Clone(p.ExposedHeaders)
	return p
}

// Warnings lists combinations that are accepted but that browsers may not
// honor. It never fails; see Validate for hard errors.
func (p CORSPolicy) Warnings() []string {
	var warnings []string
	if p.AllowCredentials && p.AnyHeader() && !p.EchoRequestHeaders {
		warnings = append(warnings,
			"wildcard allowed headers with credentials: browsers treat Access-Control-Allow-Headers: * literally on credentialed requests")
	}
	return warnings
}

// Validate checks the parts of the policy that need no parsing.
// Origin patterns and header tokens are checked when the policy is compiled.
func (p CORSPolicy) Validate() error {
	if len(p.AllowedOriginPatterns) == 0 {
		return NewPolicyError("allowed_origin_patterns", "at least one origin pattern is required")
	}
	if len(p.AllowedMethods) == 0 {
		return NewPolicyError("allowed_methods", "at least one method is required")
	}
	if p.MaxAge < 0 {
		return NewPolicyError("max_age", "must not be negative")
	}
	if p.PreflightStatus != http.StatusOK && p.PreflightStatus != http.StatusNoContent {
		return NewPolicyError("preflight_status", "must be 200 or 204")
	}
	if p.PathPattern == "" || p.PathPattern[0] != '/' {
		return NewPolicyError("path_pattern", "must start with /")
	}
	return nil
}

// CORSRequest is the part of an inbound HTTP request the evaluator looks at.
type CORSRequest struct {
	// Origin holds every Origin header value; browsers send at most one.
	Origin []string
	Method string
	Path   string

	// RequestMethod and RequestHeaders carry the preflight's
	// Access-Control-Request-* values. HasRequestMethod distinguishes an
	// absent ACRM from an empty one.
	RequestMethod    string
	HasRequestMethod bool
	RequestHeaders   []string

	// Host and TLS identify the server's own origin, so that a request
	// whose Origin names this server is treated as same-origin.
	Host string
	TLS  bool
}

// NewCORSRequest extracts a CORSRequest from an HTTP request.
func NewCORSRequest(r *http.Request) CORSRequest {
	acrm, hasACRM := r.Header[HeaderRequestMethod]
	req := CORSRequest{
		Origin:           r.Header.Values(HeaderOrigin),
		Method:           r.Method,
		Path:             r.URL.Path,
		HasRequestMethod: hasACRM,
		RequestHeaders:   r.Header.Values(HeaderRequestHeaders),
		Host:             r.Host,
		TLS:              r.TLS != nil,
	}
	if len(acrm) > 0 {
		req.RequestMethod = acrm[0]
	}
	return req
}

// Outcome is the two-valued result of evaluating a request.
type Outcome int

const (
	Allow Outcome = iota
	Reject
)

func (o Outcome) String() string {
	if o == Reject {
		return "reject"
	}
	return "allow"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// RequestKind classifies a request for CORS purposes.
type RequestKind int

const (
	// KindNotCORS is a request without an Origin header, or whose Origin
	// is the server's own.
	KindNotCORS RequestKind = iota
	// KindUnmapped is a request whose path falls outside the policy mapping.
	KindUnmapped
	// KindPreflight is an OPTIONS request carrying Origin and
	// Access-Control-Request-Method.
	KindPreflight
	// KindActual is any other request carrying an Origin header.
	KindActual
)

func (k RequestKind) String() string {
	switch k {
	case KindUnmapped:
		return "unmapped"
	case KindPreflight:
		return "preflight"
	case KindActual:
		return "actual"
	default:
		return "not_cors"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k RequestKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RejectReason explains a policy rejection. A rejection is a normal
// outcome, reported to the browser only by the absence of CORS headers.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonMalformedOrigin
	ReasonOriginNotAllowed
	ReasonMethodNotAllowed
	ReasonHeadersNotAllowed
)

func (r RejectReason) String() string {
	switch r {
	case ReasonMalformedOrigin:
		return "malformed_origin"
	case ReasonOriginNotAllowed:
		return "origin_not_allowed"
	case ReasonMethodNotAllowed:
		return "method_not_allowed"
	case ReasonHeadersNotAllowed:
		return "headers_not_allowed"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r RejectReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// CORSDecision is the result of evaluating one request.
// Headers is freshly allocated for every decision and may be mutated by the caller.
type CORSDecision struct {
	Outcome Outcome
	Kind    RequestKind
	Reason  RejectReason
	Headers http.Header
}

// Allowed reports whether the request may proceed with the given headers.
func (d CORSDecision) Allowed() bool {
	return d.Outcome == Allow
}

// Terminal reports whether the response must be written without calling
// application handlers. Every preflight, allowed or not, is terminal.
func (d CORSDecision) Terminal() bool {
	return d.Kind == KindPreflight
}
