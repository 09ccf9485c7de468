package domain

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCORSPolicy(t *testing.T) {
	p := DefaultCORSPolicy()
	require.NoError(t, p.Validate())
	assert.True(t, p.AnyHeader())
	assert.True(t, p.AllowCredentials)
	assert.Len(t, p.Warnings(), 1)

	p.EchoRequestHeaders = true
	assert.Empty(t, p.Warnings())

	p.EchoRequestHeaders = false
	p.AllowCredentials = false
	assert.Empty(t, p.Warnings())
}

func TestCORSPolicy_Clone(t *testing.T) {
	p := DefaultCORSPolicy()
	c := p.Clone()
	c.AllowedOriginPatterns[0] = "https://other.example"
	c.AllowedMethods = append(c.AllowedMethods[:0], "TRACE")

	assert.Equal(t, "http://localhost:*", p.AllowedOriginPatterns[0])
	assert.Equal(t, http.MethodGet, p.AllowedMethods[0])
}

func TestCORSPolicy_Validate(t *testing.T) {
	p := DefaultCORSPolicy()
	p.PathPattern = ""
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, IsPolicyError(err))
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "invalid input: cors policy: must start with / (field: path_pattern)", err.Error())
}

func TestNewCORSRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodOptions, "https://api.library.local/api/v1/books?page=2", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", "PUT")
	r.Header.Add("Access-Control-Request-Headers", "content-type")
	r.Header.Add("Access-Control-Request-Headers", "authorization")

	req := NewCORSRequest(r)
	assert.Equal(t, []string{"http://localhost:3000"}, req.Origin)
	assert.Equal(t, http.MethodOptions, req.Method)
	assert.Equal(t, "/api/v1/books", req.Path)
	assert.True(t, req.HasRequestMethod)
	assert.Equal(t, "PUT", req.RequestMethod)
	assert.Equal(t, []string{"content-type", "authorization"}, req.RequestHeaders)
	assert.Equal(t, "api.library.local", req.Host)
	assert.True(t, req.TLS)

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	req = NewCORSRequest(plain)
	assert.Empty(t, req.Origin)
	assert.False(t, req.HasRequestMethod)
	assert.False(t, req.TLS)
}

func TestDecisionJSON(t *testing.T) {
	d := CORSDecision{Outcome: Reject, Kind: KindPreflight, Reason: ReasonMethodNotAllowed}
	b, err := json.Marshal(struct {
		Outcome Outcome      `json:"outcome"`
		Kind    RequestKind  `json:"kind"`
		Reason  RejectReason `json:"reason"`
	}{d.Outcome, d.Kind, d.Reason})
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"reject","kind":"preflight","reason":"method_not_allowed"}`, string(b))

	assert.False(t, d.Allowed())
	assert.True(t, d.Terminal())
	assert.Equal(t, "", ReasonNone.String())
	assert.Equal(t, "not_cors", KindNotCORS.String())
	assert.Equal(t, "unmapped", KindUnmapped.String())
}
