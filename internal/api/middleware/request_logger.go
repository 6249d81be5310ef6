package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/util"
)

// RequestLogger logs basic request information along with the request_id and,
// when the security pipeline resolved one, the caller.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		fields := map[string]interface{}{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": latency.String(),
			"client":  util.TruncateForLog(c.ClientIP()),
		}
		if uid := c.GetString("userID"); uid != "" {
			fields["user_id"] = uid
		}
		GetRequestLogger(c).WithFields(fields).Info("handled request")
	}
}

// SanitizePath prepares a request path for logging. Query strings are dropped.
func SanitizePath(p string) string {
	for i := 0; i < len(p); i++ {
		if p[i] == '?' {
			p = p[:i]
			break
		}
	}
	return util.TruncateForLog(p)
}
