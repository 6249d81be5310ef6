package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
)

func TestRequestLoggerIncludesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := &bytes.Buffer{}
	logger.Init(true, buf)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.GET("/ok", func(c *gin.Context) {
		c.Set("userID", "dealer-1")
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?token=abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	out := buf.String()
	assert.Contains(t, out, "request_id")
	assert.Contains(t, out, "handled request")
	assert.Contains(t, out, "dealer-1")
	assert.NotContains(t, out, "token=abc")
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/a/b", SanitizePath("/a/b?x=1"))
	assert.Equal(t, "/a b", SanitizePath("/a\nb"))
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'p'
	}
	assert.Len(t, SanitizePath(string(long)), 200)
}
