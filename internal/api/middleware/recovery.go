package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kaczcards/card-show-finder-sub014/internal/metrics"
	"github.com/kaczcards/card-show-finder-sub014/internal/util"
)

// Recovery turns a handler panic into a 500 that carries the request id, so
// a client report can be matched to the log line. verbose adds the stack and
// redacted request headers to the log entry.
func Recovery(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			metrics.IncPanic()
			rid := c.GetString(RequestIDKey)
			fields := logrus.Fields{
				"source": "recovery",
				"method": c.Request.Method,
				"path":   SanitizePath(c.Request.URL.Path),
				"panic":  util.TruncateForLog(fmt.Sprint(r)),
			}
			if verbose {
				fields["headers"] = util.SanitizeHeaders(c.Request.Header)
				fields["stack"] = string(debug.Stack())
			}
			GetRequestLogger(c).WithFields(fields).Error("handler panic recovered")

			body := gin.H{"error": "internal server error"}
			if rid != "" {
				body["request_id"] = rid
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
