package usecase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"libgate/src/core/domain"
)

// webOrigin is a parsed scheme://host[:port] tuple.
// host is lower-cased and unbracketed; port is 0 when absent.
type webOrigin struct {
	scheme string
	host   string
	port   int
}

func (o webOrigin) String() string {
	host := o.host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if o.port == 0 {
		return o.scheme + "://" + host
	}
	return o.scheme + "://" + host + ":" + strconv.Itoa(o.port)
}

// withoutDefaultPort drops :80 on http and :443 on https.
func (o webOrigin) withoutDefaultPort() webOrigin {
	if (o.scheme == "http" && o.port == 80) || (o.scheme == "https" && o.port == 443) {
		o.port = 0
	}
	return o
}

// parseOrigin parses the value of an Origin header.
// A single trailing slash is tolerated; anything else past the authority is not.
func parseOrigin(raw string) (webOrigin, bool) {
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || raw == "null" {
		return webOrigin{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return webOrigin{}, false
	}
	if u.Scheme == "" || u.Opaque != "" || u.User != nil || u.Host == "" ||
		u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return webOrigin{}, false
	}
	if strings.HasSuffix(u.Host, ":") {
		return webOrigin{}, false
	}
	host := strings.ToLower(u.Hostname())
	if !validHostname(host) {
		return webOrigin{}, false
	}
	o := webOrigin{scheme: strings.ToLower(u.Scheme), host: host}
	if p := u.Port(); p != "" {
		port, ok := parsePort(p)
		if !ok {
			return webOrigin{}, false
		}
		o.port = port
	}
	return o, true
}

// validHostname rejects empty labels, which a one-label wildcard would
// otherwise match.
func validHostname(host string) bool {
	if host == "" {
		return false
	}
	if strings.Contains(host, ":") {
		// IPv6 literal; url.Parse already validated the brackets.
		return true
	}
	if host[0] == '.' || host[len(host)-1] == '.' || strings.Contains(host, "..") {
		return false
	}
	for i := 0; i < len(host); i++ {
		c := host[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '.' || c == '_') {
			return false
		}
	}
	return true
}

func parsePort(s string) (int, bool) {
	if s == "" || len(s) > 5 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

type portMode int

const (
	portNone        portMode = iota // no explicit port allowed
	portAnyExplicit                 // ":*", an explicit port is required
	portAnyOptional                 // ":[*]", any port or none
	portList                        // ":8080" or ":[3000,5173]"
)

// originPattern is one compiled entry of allowedOriginPatterns.
type originPattern struct {
	raw      string
	any      bool
	scheme   string
	host     string
	hostGlob glob.Glob
	mode     portMode
	ports    []int
}

// compileOriginPattern accepts "*", scheme://host, scheme://host:port,
// scheme://host:*, scheme://host:[*] and scheme://host:[p1,p2].
// In the host, "*" matches exactly one DNS label and "**" one or more.
func compileOriginPattern(raw string) (originPattern, error) {
	p := originPattern{raw: raw}
	pattern := strings.ToLower(strings.TrimSpace(raw))
	if pattern == domain.Wildcard {
		p.any = true
		return p, nil
	}

	scheme, rest, ok := strings.Cut(pattern, "://")
	if !ok || !validScheme(scheme) {
		return p, fmt.Errorf("origin pattern %q: missing or invalid scheme", raw)
	}
	p.scheme = scheme
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.ContainsAny(rest, "/?#@") {
		return p, fmt.Errorf("origin pattern %q: only scheme, host and port are allowed", raw)
	}

	host, portSpec, err := splitHostPort(rest)
	if err != nil {
		return p, fmt.Errorf("origin pattern %q: %w", raw, err)
	}
	if err := p.setPorts(portSpec); err != nil {
		return p, fmt.Errorf("origin pattern %q: %w", raw, err)
	}

	if strings.Contains(host, domain.Wildcard) {
		if strings.Contains(host, ":") || !validHostname(strings.ReplaceAll(host, domain.Wildcard, "x")) {
			return p, fmt.Errorf("origin pattern %q: invalid wildcard host", raw)
		}
		g, err := glob.Compile(host, '.')
		if err != nil {
			return p, fmt.Errorf("origin pattern %q: %w", raw, err)
		}
		p.hostGlob = g
		return p, nil
	}
	if !validHostname(host) {
		return p, fmt.Errorf("origin pattern %q: invalid host", raw)
	}
	p.host = host
	return p, nil
}

func validScheme(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}

// splitHostPort separates the host from an optional port spec.
// An IPv6 host keeps its brackets stripped.
func splitHostPort(s string) (host, port string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IPv6 host")
		}
		host, rest := s[1:end], s[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if rest[0] != ':' {
			return "", "", fmt.Errorf("unexpected %q after host", rest)
		}
		return host, rest[1:], nil
	}
	if i := strings.Index(s, ":["); i >= 0 {
		return s[:i], s[i+1:], nil
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[:i], s[i+1:], nil
	}
	return s, "", nil
}

func (p *originPattern) setPorts(spec string) error {
	switch {
	case spec == "":
		p.mode = portNone
	case spec == "*":
		p.mode = portAnyExplicit
	case spec == "[*]":
		p.mode = portAnyOptional
	case strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]"):
		p.mode = portList
		for _, s := range strings.Split(spec[1:len(spec)-1], ",") {
			port, ok := parsePort(strings.TrimSpace(s))
			if !ok {
				return fmt.Errorf("invalid port %q", s)
			}
			p.ports = append(p.ports, port)
		}
	default:
		port, ok := parsePort(spec)
		if !ok {
			return fmt.Errorf("invalid port %q", spec)
		}
		p.mode = portList
		p.ports = []int{port}
	}
	return nil
}

// matches reports whether o is allowed by the pattern. Matching is on
// parsed components, never on substrings of the raw origin.
func (p originPattern) matches(o webOrigin) bool {
	if p.any {
		return true
	}
	if o.scheme != p.scheme {
		return false
	}
	if p.hostGlob != nil {
		if !p.hostGlob.Match(o.host) {
			return false
		}
	} else if o.host != p.host {
		return false
	}

	switch p.mode {
	case portNone:
		return o.port == 0
	case portAnyExplicit:
		return o.port != 0
	case portAnyOptional:
		return true
	default:
		for _, port := range p.ports {
			if o.port == port {
				return true
			}
		}
		return false
	}
}
