// Package request models an inbound HTTP request as a value whose body can be
// inspected any number of times.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaxBodyBytes bounds how much of a body is buffered for inspection.
const DefaultMaxBodyBytes int64 = 1 << 20

// ErrBodyTooLarge is returned when the body exceeds the buffering limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Request is a fully buffered view over an *http.Request.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	RemoteAddr string
	// ClientAddr is the caller address as resolved by a proxy-aware layer
	// (gin's ClientIP with configured trusted proxies). Empty means unresolved.
	ClientAddr string
	Body       []byte
	// ID is the request id assigned by the HTTP layer, if any.
	ID string
}

// FromHTTP buffers r's body (up to maxBody bytes) and restores r.Body so the
// downstream handler can read it again.
func FromHTTP(r *http.Request, maxBody int64) (*Request, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		_ = r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if int64(len(b)) > maxBody {
			return nil, ErrBodyTooLarge
		}
		body = b
		r.Body = io.NopCloser(bytes.NewReader(body))
	}
	return &Request{
		Method:     strings.ToUpper(r.Method),
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     r.Header.Clone(),
		RemoteAddr: r.RemoteAddr,
		Body:       body,
	}, nil
}

// ClientIP returns ClientAddr when set and the transport remote address
// otherwise. Forwarded-for headers are client-controlled and never read here.
func (r *Request) ClientIP() string {
	if r.ClientAddr != "" {
		return r.ClientAddr
	}
	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserAgent returns the User-Agent header.
func (r *Request) UserAgent() string {
	return r.Header.Get("User-Agent")
}

// ContentType returns the media type of the body without parameters, lower-cased.
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i != -1 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsSafeMethod reports GET, HEAD and OPTIONS.
func (r *Request) IsSafeMethod() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
