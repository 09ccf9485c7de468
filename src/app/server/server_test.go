package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libgate/src/core/domain"
	"libgate/src/core/usecase"
	"libgate/src/infra/config"
	"libgate/src/infra/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Log: config.LogConfig{Level: "error", Format: "json"},
		CORS: config.CORSConfig{
			AllowedOriginPatterns: []string{"http://localhost:*", "https://library-frontend.vercel.app"},
			AllowedMethods:        []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:        []string{"*"},
			ExposedHeaders:        []string{"X-Request-ID"},
			AllowCredentials:      true,
			MaxAge:                30 * time.Minute,
			PathPattern:           "/**",
			PreflightStatus:       http.StatusNoContent,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc, err := usecase.NewCORSService(PolicyFromConfig(cfg.CORS), logger.Discard())
	require.NoError(t, err)
	return New(cfg, logger.Discard(), svc)
}

func do(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := testConfig()
	policy := PolicyFromConfig(cfg.CORS)

	assert.Equal(t, domain.DefaultCORSPolicy(), policy)

	cfg.CORS.AllowedOriginPatterns[0] = "https://changed.example.com"
	assert.Equal(t, "http://localhost:*", policy.AllowedOriginPatterns[0])
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := do(s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestServer_DetailedHealthReportsPolicyWarning(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := do(s, http.MethodGet, "/health/detailed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	component := body["components"].(map[string]any)["cors_policy"].(map[string]any)
	assert.Equal(t, "degraded", component["status"])
	assert.Contains(t, component["message"], "wildcard allowed headers")

	cfg := testConfig()
	cfg.CORS.EchoRequestHeaders = true
	s = newTestServer(t, cfg)
	body = decode(t, do(s, http.MethodGet, "/health/detailed", "", nil))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_Policy(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := do(s, http.MethodGet, "/v1/cors/policy", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, []any{"http://localhost:*", "https://library-frontend.vercel.app"}, data["allowed_origin_patterns"])
	assert.Equal(t, []any{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, data["allowed_methods"])
	assert.Equal(t, true, data["allow_credentials"])
	assert.Equal(t, float64(1800), data["max_age_seconds"])
	assert.Equal(t, "/**", data["path_pattern"])
	assert.Len(t, data["warnings"], 1)
}

func TestServer_Evaluate(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name    string
		body    string
		outcome string
		kind    string
		reason  string
		acao    string
	}{
		{
			name:    "local dev port",
			body:    `{"origin":"http://localhost:5173","method":"GET","path":"/api/v1/books"}`,
			outcome: "allow", kind: "actual", acao: "http://localhost:5173",
		},
		{
			name:    "suffix attack",
			body:    `{"origin":"https://library-frontend.vercel.app.evil.com","method":"GET"}`,
			outcome: "reject", kind: "actual", reason: "origin_not_allowed",
		},
		{
			name:    "preflight for PATCH",
			body:    `{"origin":"http://localhost:5173","method":"OPTIONS","request_method":"PATCH"}`,
			outcome: "reject", kind: "preflight", reason: "method_not_allowed",
		},
		{
			name:    "preflight for PUT",
			body:    `{"origin":"https://library-frontend.vercel.app","method":"OPTIONS","request_method":"PUT","request_headers":["content-type"]}`,
			outcome: "allow", kind: "preflight", acao: "https://library-frontend.vercel.app",
		},
		{
			name:    "no origin",
			body:    `{"method":"DELETE","path":"/api/v1/books/1"}`,
			outcome: "allow", kind: "not_cors",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/v1/cors/evaluate", tt.body, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			data := decode(t, w)["data"].(map[string]any)
			assert.Equal(t, tt.outcome, data["outcome"])
			assert.Equal(t, tt.kind, data["kind"])
			if tt.reason == "" {
				assert.NotContains(t, data, "reason")
			} else {
				assert.Equal(t, tt.reason, data["reason"])
			}
			headers := data["headers"].(map[string]any)
			if tt.acao == "" {
				assert.NotContains(t, headers, "Access-Control-Allow-Origin")
			} else {
				assert.Equal(t, tt.acao, headers["Access-Control-Allow-Origin"])
			}
		})
	}
}

func TestServer_EvaluateValidation(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing method", `{"origin":"http://localhost:3000"}`, "method"},
		{"relative path", `{"method":"GET","path":"books"}`, "path"},
		{"not json", `{`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/v1/cors/evaluate", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			errBody := decode(t, w)["error"].(map[string]any)
			assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
			assert.Equal(t, tt.field, errBody["field"])
			assert.NotEmpty(t, errBody["request_id"])
		})
	}
}

func TestServer_PreflightOnAnyPath(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := do(s, http.MethodOptions, "/api/v1/borrows/7", "", map[string]string{
		"Origin":                         "http://localhost:5173",
		"Access-Control-Request-Method":  "PUT",
		"Access-Control-Request-Headers": "content-type",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = do(s, http.MethodOptions, "/api/v1/borrows/7", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "PATCH",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_NotFound(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := do(s, http.MethodGet, "/api/v1/books", "", map[string]string{
		"Origin":       "http://localhost:3000",
		"X-Request-ID": "edge-404",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	detail := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", detail["code"])
	assert.Equal(t, "The requested resource was not found", detail["message"])
	assert.Equal(t, "edge-404", detail["request_id"])
	assert.NotContains(t, detail, "field")
}
