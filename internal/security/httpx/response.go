// Package httpx holds the response value returned by the security pipeline.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is a fully materialized HTTP response. A nil *Response means the
// caller should continue with its own handler.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON builds a response with a JSON body.
func JSON(status int, body any) *Response {
	resp := &Response{Status: status, Header: http.Header{}}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			b = []byte(`{"error":"internal server error"}`)
			resp.Status = http.StatusInternalServerError
		}
		resp.Body = b
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp
}

// Empty builds a response without a body.
func Empty(status int) *Response {
	return &Response{Status: status, Header: http.Header{}}
}

// SetHeaders copies every header in h onto the response, replacing existing values.
func (r *Response) SetHeaders(h http.Header) {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	for k, vals := range h {
		r.Header[k] = append([]string(nil), vals...)
	}
}

// WriteTo writes the response to w.
func (r *Response) WriteTo(w http.ResponseWriter) {
	for k, vals := range r.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.Status)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}

// Abort writes the response through gin and stops the handler chain.
func (r *Response) Abort(c *gin.Context) {
	for k, vals := range r.Header {
		for _, v := range vals {
			c.Writer.Header().Add(k, v)
		}
	}
	if len(r.Body) == 0 {
		c.AbortWithStatus(r.Status)
		return
	}
	c.Abort()
	c.Data(r.Status, r.Header.Get("Content-Type"), r.Body)
}
