package request

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTP_BodyReadableTwice(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/shows?city=austin", strings.NewReader(`{"name":"expo"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	req, err := FromHTTP(r, 0)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"expo"}`, string(req.Body))
	assert.Equal(t, "application/json", req.ContentType())
	assert.Equal(t, "austin", req.Query.Get("city"))

	again, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"expo"}`, string(again))
}

func TestFromHTTP_BodyTooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	_, err := FromHTTP(r, 16)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		header   map[string]string
		remote   string
		resolved string
		want     string
	}{
		{"forwarded header ignored", map[string]string{"X-Forwarded-For": "10.0.0.5, 10.0.0.1"}, "203.0.113.9:443", "", "203.0.113.9"},
		{"real ip header ignored", map[string]string{"X-Real-IP": "10.0.0.5"}, "203.0.113.9:443", "", "203.0.113.9"},
		{"resolved address wins", map[string]string{"X-Forwarded-For": "10.0.0.5"}, "192.0.2.1:443", "198.51.100.4", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:5555", "", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.1", "", "192.0.2.1"},
		{"nothing", nil, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Header: http.Header{}, RemoteAddr: tt.remote, ClientAddr: tt.resolved}
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, req.ClientIP())
		})
	}
}

func TestIsSafeMethod(t *testing.T) {
	assert.True(t, (&Request{Method: http.MethodGet}).IsSafeMethod())
	assert.True(t, (&Request{Method: http.MethodOptions}).IsSafeMethod())
	assert.False(t, (&Request{Method: http.MethodPost}).IsSafeMethod())
}
