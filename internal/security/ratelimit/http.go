package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kaczcards/card-show-finder-sub014/internal/security/auth"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/httpx"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
)

// LimitRequest resolves the caller through the identity resolver and applies
// cfg. It returns nil when the request may continue.
func (l *Limiter) LimitRequest(ctx context.Context, req *request.Request, endpoint string, cfg Config) *httpx.Response {
	var identity auth.Result
	if l.identity != nil && (cfg.UserBased || cfg.AdminBypass) {
		identity = l.identity.VerifyAuth(ctx, req)
	}
	return l.LimitIdentified(ctx, req, endpoint, cfg, identity)
}

// LimitIdentified is LimitRequest for callers that already verified the caller.
func (l *Limiter) LimitIdentified(ctx context.Context, req *request.Request, endpoint string, cfg Config, identity auth.Result) *httpx.Response {
	res := l.CheckRateLimit(ctx, endpoint, cfg, req.ClientIP(), identity.UserID(), identity.IsAdmin())
	if res.Allowed {
		return nil
	}
	return TooManyRequests(res, cfg, l.clock)
}

// TooManyRequests builds the 429 response for a denied result.
func TooManyRequests(res Result, cfg Config, now func() time.Time) *httpx.Response {
	resp := httpx.JSON(http.StatusTooManyRequests, map[string]interface{}{
		"error":      cfg.Message(),
		"retryAfter": res.RetryAfter,
	})
	resetIn := int(math.Ceil(res.Reset.Sub(now()).Seconds()))
	if resetIn < 0 {
		resetIn = 0
	}
	resp.Header.Set("RateLimit-Limit", strconv.Itoa(res.Limit))
	resp.Header.Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
	resp.Header.Set("RateLimit-Reset", strconv.Itoa(resetIn))
	resp.Header.Set("Retry-After", strconv.Itoa(res.RetryAfter))
	return resp
}
