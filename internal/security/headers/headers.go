// Package headers builds the CORS and security header sets attached to every
// response produced by, or passed through, the security pipeline.
package headers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// Policy selects which headers a profile applies.
type Policy struct {
	// DisableSecurityHeaders skips CSP/HSTS/etc. CORS headers are always applied.
	DisableSecurityHeaders bool
	// IsDevelopment relaxes CSP and omits HSTS for local development.
	IsDevelopment bool
	// CustomCSPDirectives adds or replaces CSP directives.
	CustomCSPDirectives map[string]string
	// Overrides replaces individual security header values. An empty value removes the header.
	Overrides map[string]string
}

// CORSConfig describes the cross-origin policy shared by all profiles.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig allows any origin with the headers the mobile client sends.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type", "x-csrf-token", "x-xsrf-token", "x-request-id"},
		MaxAge:         86400,
	}
}

// CORS returns the CORS headers for a request carrying the given Origin.
func CORS(cfg CORSConfig, origin string) http.Header {
	h := http.Header{}
	allowOrigin := ""
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowOrigin = "*"
			break
		}
		if origin != "" && strings.EqualFold(o, origin) {
			allowOrigin = origin
		}
	}
	if allowOrigin == "" {
		// Unknown origins get no allow-origin; browsers then refuse the response.
		h.Set("Vary", "Origin")
	} else {
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			h.Set("Vary", "Origin")
		}
	}
	if len(cfg.AllowedMethods) > 0 {
		h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
	}
	if len(cfg.AllowedHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
	}
	if cfg.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	return h
}

// Security returns the security headers for the policy.
func Security(p Policy) http.Header {
	h := http.Header{}
	if p.DisableSecurityHeaders {
		return h
	}
	h.Set("Content-Security-Policy", buildCSP(p))
	if !p.IsDevelopment {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", buildPermissionsPolicy())

	for k, v := range p.Overrides {
		if v == "" {
			h.Del(k)
			continue
		}
		h.Set(k, v)
	}
	return h
}

// Merge returns CORS headers followed by the policy's security headers.
// Security headers never override a CORS header.
func Merge(cors http.Header, security http.Header) http.Header {
	out := cors.Clone()
	if out == nil {
		out = http.Header{}
	}
	for k, vals := range security {
		if _, exists := out[k]; exists {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// buildCSP constructs the Content-Security-Policy header value.
func buildCSP(p Policy) string {
	// API responses never render documents, so everything beyond 'self' is closed.
	directives := map[string]string{
		"default-src":     "'self'",
		"script-src":      "'self'",
		"style-src":       "'self'",
		"img-src":         "'self' data:",
		"connect-src":     "'self'",
		"frame-ancestors": "'none'",
		"object-src":      "'none'",
		"base-uri":        "'self'",
		"form-action":     "'self'",
	}

	if p.IsDevelopment {
		directives["script-src"] = "'self' 'unsafe-inline' 'unsafe-eval'"
		directives["connect-src"] = "'self' ws: wss:"
	}

	for key, value := range p.CustomCSPDirectives {
		directives[key] = value
	}

	keys := make([]string, 0, len(directives))
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, directive := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", directive, directives[directive]))
	}
	return strings.Join(parts, "; ")
}

// buildPermissionsPolicy constructs the Permissions-Policy header value.
func buildPermissionsPolicy() string {
	policies := []string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}

	return strings.Join(policies, ", ")
}
