package headers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurity(t *testing.T) {
	tests := []struct {
		name         string
		policy       Policy
		checkHeaders func(t *testing.T, h http.Header)
	}{
		{
			name:   "production mode sets HSTS",
			policy: Policy{},
			checkHeaders: func(t *testing.T, h http.Header) {
				hsts := h.Get("Strict-Transport-Security")
				assert.Contains(t, hsts, "max-age=31536000")
				assert.Contains(t, hsts, "includeSubDomains")
			},
		},
		{
			name:   "development mode skips HSTS",
			policy: Policy{IsDevelopment: true},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Empty(t, h.Get("Strict-Transport-Security"))
				assert.Contains(t, h.Get("Content-Security-Policy"), "unsafe-eval")
			},
		},
		{
			name:   "sets X-Frame-Options",
			policy: Policy{},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
			},
		},
		{
			name:   "sets X-Content-Type-Options",
			policy: Policy{},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
			},
		},
		{
			name:   "sets X-XSS-Protection and Referrer-Policy",
			policy: Policy{},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
				assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
			},
		},
		{
			name:   "restrictive CSP",
			policy: Policy{},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
			},
		},
		{
			name:   "disabled policy sets nothing",
			policy: Policy{DisableSecurityHeaders: true},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Empty(t, h)
			},
		},
		{
			name:   "overrides replace and remove",
			policy: Policy{Overrides: map[string]string{"X-Frame-Options": "SAMEORIGIN", "X-XSS-Protection": ""}},
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Equal(t, "SAMEORIGIN", h.Get("X-Frame-Options"))
				assert.Empty(t, h.Get("X-XSS-Protection"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkHeaders(t, Security(tt.policy))
		})
	}
}

func TestSecurityCustomCSP(t *testing.T) {
	h := Security(Policy{CustomCSPDirectives: map[string]string{"img-src": "'self' https://cdn.example.com"}})
	assert.Contains(t, h.Get("Content-Security-Policy"), "img-src 'self' https://cdn.example.com")
}

func TestBuildCSP_Deterministic(t *testing.T) {
	first := buildCSP(Policy{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, buildCSP(Policy{}))
	}
}

func TestBuildPermissionsPolicy(t *testing.T) {
	pp := buildPermissionsPolicy()

	disabledFeatures := []string{"camera", "microphone", "geolocation", "payment"}
	for _, feature := range disabledFeatures {
		assert.True(t, strings.Contains(pp, feature+"=()"),
			"Expected %s to be disabled in permissions policy", feature)
	}
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		h := CORS(DefaultCORSConfig(), "https://app.example.com")
		assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, h.Get("Access-Control-Allow-Headers"), "authorization")
		assert.Equal(t, "86400", h.Get("Access-Control-Max-Age"))
	})

	t.Run("allow list echoes known origin", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"https://app.example.com"}
		h := CORS(cfg, "https://app.example.com")
		assert.Equal(t, "https://app.example.com", h.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", h.Get("Vary"))
	})

	t.Run("both csrf header spellings are allowed", func(t *testing.T) {
		allowed := strings.Split(CORS(DefaultCORSConfig(), "https://app.example.com").Get("Access-Control-Allow-Headers"), ", ")
		assert.Contains(t, allowed, "x-csrf-token")
		assert.Contains(t, allowed, "x-xsrf-token")
	})

	t.Run("allow list rejects unknown origin", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"https://app.example.com"}
		h := CORS(cfg, "https://evil.example.net")
		assert.Empty(t, h.Get("Access-Control-Allow-Origin"))
	})
}

func TestMerge_CORSFirst(t *testing.T) {
	cors := http.Header{}
	cors.Set("Access-Control-Allow-Origin", "*")
	cors.Set("Vary", "Origin")
	sec := http.Header{}
	sec.Set("Vary", "Accept")
	sec.Set("X-Frame-Options", "DENY")

	out := Merge(cors, sec)
	assert.Equal(t, "*", out.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", out.Get("Vary"))
	assert.Equal(t, "DENY", out.Get("X-Frame-Options"))
}
