package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/http/httpguts"

	"libgate/src/core/domain"
	"libgate/src/infra/logger"
)

// varyValue lists every request header a CORS decision depends on.
var varyValue = strings.Join([]string{
	domain.HeaderOrigin, domain.HeaderRequestMethod, domain.HeaderRequestHeaders,
}, ", ")

// CORSService evaluates requests against a compiled CORS policy.
// It holds no mutable state after construction and is safe for
// concurrent use without locking.
type CORSService struct {
	policy   domain.CORSPolicy
	warnings []string

	origins   []originPattern
	path      glob.Glob
	pathRoot  string
	methods   map[string]struct{}
	anyMethod bool
	headers   map[string]struct{}
	anyHeader bool

	allowMethods  string
	exposeHeaders string
	maxAge        string
}

// NewCORSService compiles policy. All configuration problems are reported
// together; the returned error satisfies domain.IsPolicyError.
func NewCORSService(policy domain.CORSPolicy, log *slog.Logger) (*CORSService, error) {
	policy = policy.Clone()
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &CORSService{
		policy:    policy,
		warnings:  policy.Warnings(),
		methods:   make(map[string]struct{}, len(policy.AllowedMethods)),
		headers:   make(map[string]struct{}, len(policy.AllowedHeaders)),
		anyHeader: policy.AnyHeader(),
	}

	var errs []error
	for _, raw := range policy.AllowedOriginPatterns {
		p, err := compileOriginPattern(raw)
		if err != nil {
			errs = append(errs, domain.NewPolicyError("allowed_origin_patterns", err.Error()))
			continue
		}
		s.origins = append(s.origins, p)
	}

	pathGlob, err := compilePathPattern(policy.PathPattern)
	if err != nil {
		errs = append(errs, domain.NewPolicyError("path_pattern", err.Error()))
	}
	s.path = pathGlob
	if root, ok := strings.CutSuffix(policy.PathPattern, "/**"); ok {
		s.pathRoot = root
	}

	methods := make([]string, 0, len(policy.AllowedMethods))
	for _, m := range policy.AllowedMethods {
		m = strings.TrimSpace(m)
		if m == domain.Wildcard {
			s.anyMethod = true
			continue
		}
		if !httpguts.ValidHeaderFieldName(m) {
			errs = append(errs, domain.NewPolicyError("allowed_methods", strconv.Quote(m)+" is not a valid method"))
			continue
		}
		m = normalizeMethod(m)
		if _, dup := s.methods[m]; !dup {
			s.methods[m] = struct{}{}
			methods = append(methods, m)
		}
	}
	s.allowMethods = strings.Join(methods, ", ")

	for _, h := range policy.AllowedHeaders {
		h = strings.TrimSpace(h)
		if h == domain.Wildcard {
			continue
		}
		if !httpguts.ValidHeaderFieldName(h) {
			errs = append(errs, domain.NewPolicyError("allowed_headers", strconv.Quote(h)+" is not a valid header name"))
			continue
		}
		s.headers[strings.ToLower(h)] = struct{}{}
	}

	exposed := make([]string, 0, len(policy.ExposedHeaders))
	for _, h := range policy.ExposedHeaders {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !httpguts.ValidHeaderFieldName(h) {
			errs = append(errs, domain.NewPolicyError("exposed_headers", strconv.Quote(h)+" is not a valid header name"))
			continue
		}
		exposed = append(exposed, http.CanonicalHeaderKey(h))
	}
	s.exposeHeaders = strings.Join(exposed, ", ")

	if secs := int64(policy.MaxAge.Seconds()); secs > 0 {
		s.maxAge = strconv.FormatInt(secs, 10)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, w := range s.warnings {
		logger.Warn(log, "cors policy warning", "warning", w)
	}
	logger.Debug(log, "cors policy compiled",
		"origin_patterns", policy.AllowedOriginPatterns,
		"methods", s.allowMethods,
		"credentials", policy.AllowCredentials,
	)

	return s, nil
}

// Policy returns a copy of the policy the service was built from.
func (s *CORSService) Policy() domain.CORSPolicy {
	return s.policy.Clone()
}

// Warnings returns the non-fatal problems found in the policy.
func (s *CORSService) Warnings() []string {
	return slices.Clone(s.warnings)
}

// Evaluate decides how to handle req. It never mutates s, so the same
// request always produces the same decision.
func (s *CORSService) Evaluate(req domain.CORSRequest) domain.CORSDecision {
	if !s.mapped(req.Path) {
		return domain.CORSDecision{Outcome: domain.Allow, Kind: domain.KindUnmapped, Headers: http.Header{}}
	}

	hdrs := http.Header{}
	hdrs.Set(domain.HeaderVary, varyValue)

	if len(req.Origin) == 0 {
		return domain.CORSDecision{Outcome: domain.Allow, Kind: domain.KindNotCORS, Headers: hdrs}
	}

	kind := domain.KindActual
	if req.Method == http.MethodOptions && req.HasRequestMethod {
		kind = domain.KindPreflight
	}
	reject := func(reason domain.RejectReason) domain.CORSDecision {
		return domain.CORSDecision{Outcome: domain.Reject, Kind: kind, Reason: reason, Headers: hdrs}
	}

	if len(req.Origin) > 1 {
		return reject(domain.ReasonMalformedOrigin)
	}
	rawOrigin := req.Origin[0]
	if rawOrigin == "null" {
		return reject(domain.ReasonOriginNotAllowed)
	}
	origin, ok := parseOrigin(rawOrigin)
	if !ok {
		return reject(domain.ReasonMalformedOrigin)
	}
	if s.sameOrigin(origin, req) {
		return domain.CORSDecision{Outcome: domain.Allow, Kind: domain.KindNotCORS, Headers: hdrs}
	}

	allowOrigin, ok := s.matchOrigin(rawOrigin, origin)
	if !ok {
		return reject(domain.ReasonOriginNotAllowed)
	}

	if kind == domain.KindPreflight {
		method := normalizeMethod(req.RequestMethod)
		if !s.methodAllowed(method) {
			return reject(domain.ReasonMethodNotAllowed)
		}
		requested, ok := parseRequestHeaders(req.RequestHeaders)
		if !ok || !s.headersAllowed(requested) {
			return reject(domain.ReasonHeadersNotAllowed)
		}

		hdrs.Set(domain.HeaderAllowOrigin, allowOrigin)
		if s.policy.AllowCredentials {
			hdrs.Set(domain.HeaderAllowCredentials, "true")
		}
		if s.anyMethod {
			hdrs.Set(domain.HeaderAllowMethods, method)
		} else {
			hdrs.Set(domain.HeaderAllowMethods, s.allowMethods)
		}
		if v := s.allowHeadersValue(requested); v != "" {
			hdrs.Set(domain.HeaderAllowHeaders, v)
		}
		if s.maxAge != "" {
			hdrs.Set(domain.HeaderMaxAge, s.maxAge)
		}
		return domain.CORSDecision{Outcome: domain.Allow, Kind: kind, Headers: hdrs}
	}

	if !s.methodAllowed(normalizeMethod(req.Method)) {
		return reject(domain.ReasonMethodNotAllowed)
	}
	hdrs.Set(domain.HeaderAllowOrigin, allowOrigin)
	if s.policy.AllowCredentials {
		hdrs.Set(domain.HeaderAllowCredentials, "true")
	}
	if s.exposeHeaders != "" {
		hdrs.Set(domain.HeaderExposeHeaders, s.exposeHeaders)
	}
	return domain.CORSDecision{Outcome: domain.Allow, Kind: kind, Headers: hdrs}
}

// compilePathPattern compiles a '/'-separated glob, rejecting unbalanced
// [ ] and { } that glob.Compile would otherwise accept.
func compilePathPattern(pattern string) (glob.Glob, error) {
	depth := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated [ at offset %d", i)
			}
			i += end + 1
		case ']':
			return nil, fmt.Errorf("unexpected ] at offset %d", i)
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return nil, fmt.Errorf("unexpected } at offset %d", i)
			}
			depth--
		}
	}
	if depth > 0 {
		return nil, fmt.Errorf("unterminated { in %q", pattern)
	}
	return glob.Compile(pattern, '/')
}

func (s *CORSService) mapped(path string) bool {
	if path == "" {
		path = "/"
	}
	if s.path.Match(path) {
		return true
	}
	return s.pathRoot != "" && path == s.pathRoot
}

func (s *CORSService) sameOrigin(o webOrigin, req domain.CORSRequest) bool {
	if req.Host == "" {
		return false
	}
	scheme := "http"
	if req.TLS {
		scheme = "https"
	}
	self, ok := parseOrigin(scheme + "://" + req.Host)
	if !ok {
		return false
	}
	return self.withoutDefaultPort() == o.withoutDefaultPort()
}

// matchOrigin returns the Access-Control-Allow-Origin value for o: the
// request's origin as sent, minus the trailing slash parseOrigin accepts.
// The literal wildcard is only ever returned when credentials are off.
func (s *CORSService) matchOrigin(raw string, o webOrigin) (string, bool) {
	for _, p := range s.origins {
		if !p.matches(o) {
			continue
		}
		if p.any && !s.policy.AllowCredentials {
			return domain.Wildcard, true
		}
		return strings.TrimSuffix(raw, "/"), true
	}
	return "", false
}

func (s *CORSService) methodAllowed(method string) bool {
	if method == "" {
		return false
	}
	if s.anyMethod {
		return httpguts.ValidHeaderFieldName(method)
	}
	_, ok := s.methods[method]
	return ok
}

func (s *CORSService) headersAllowed(requested []string) bool {
	if s.anyHeader {
		return true
	}
	for _, h := range requested {
		if _, ok := s.headers[h]; !ok {
			return false
		}
	}
	return true
}

func (s *CORSService) allowHeadersValue(requested []string) string {
	if s.anyHeader && !s.policy.EchoRequestHeaders {
		return domain.Wildcard
	}
	return strings.Join(requested, ", ")
}

// parseRequestHeaders splits Access-Control-Request-Headers values into
// lower-cased names. Empty list elements are skipped; an invalid name
// fails the whole list.
func parseRequestHeaders(values []string) ([]string, bool) {
	var names []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !httpguts.ValidHeaderFieldName(name) {
				return nil, false
			}
			name = strings.ToLower(name)
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names, true
}

// normalizeMethod upper-cases the methods Fetch normalizes and leaves
// every other method untouched, since method names are case-sensitive.
func normalizeMethod(m string) string {
	upper := strings.ToUpper(m)
	switch upper {
	case http.MethodDelete, http.MethodGet, http.MethodHead,
		http.MethodOptions, http.MethodPost, http.MethodPut:
		return upper
	}
	return m
}
