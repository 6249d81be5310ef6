// Package cerberus composes the rate limiter, WAF and auth gate into one
// per-endpoint security pipeline.
package cerberus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/metrics"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/auth"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/headers"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/httpx"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/ratelimit"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/waf"
)

// Gin context keys set for downstream handlers.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	EmailKey  = "email"
	// RequestIDKey matches the key set by the request id middleware.
	RequestIDKey = "requestID"
)

// Authenticator verifies the caller. *auth.Gate satisfies it.
type Authenticator interface {
	VerifyAuth(ctx context.Context, req *request.Request) auth.Result
}

// Options are process-wide settings shared by every profile.
type Options struct {
	CORS headers.CORSConfig
	// IsDevelopment relaxes CSP and omits HSTS.
	IsDevelopment bool
	// TrustedIPs are added to every profile's bypass list.
	TrustedIPs   []string
	MaxBodyBytes int64
}

// Cerberus runs the security pipeline. Construct once at startup.
type Cerberus struct {
	limiter  *ratelimit.Limiter
	engine   *waf.Engine
	gate     Authenticator
	opts     Options
	profiles map[string]SecurityConfig
}

// New creates a Cerberus. limiter and engine may be nil to disable those stages.
func New(limiter *ratelimit.Limiter, engine *waf.Engine, gate Authenticator, opts Options) *Cerberus {
	if len(opts.CORS.AllowedOrigins) == 0 {
		opts.CORS = headers.DefaultCORSConfig()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = request.DefaultMaxBodyBytes
	}
	return &Cerberus{
		limiter:  limiter,
		engine:   engine,
		gate:     gate,
		opts:     opts,
		profiles: Profiles(),
	}
}

// Profile returns the named profile.
func (c *Cerberus) Profile(name string) (SecurityConfig, bool) {
	cfg, ok := c.profiles[name]
	return cfg, ok
}

// ApplyProfile runs the named profile. An unknown name is a configuration
// error and yields a 500.
func (c *Cerberus) ApplyProfile(ctx context.Context, req *request.Request, name string) (*httpx.Response, auth.Result) {
	cfg, ok := c.profiles[name]
	if !ok {
		logger.Source("cerberus").WithField("profile", name).Error("unknown security profile")
		return httpx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"}), auth.Result{}
	}
	return c.ApplySecurity(ctx, req, cfg)
}

// ApplySecurity runs rate limiting, the WAF, authentication and the role check
// in that order and returns the first denial. A nil response means continue;
// the returned auth.Result then describes the caller.
func (c *Cerberus) ApplySecurity(ctx context.Context, req *request.Request, cfg SecurityConfig) (*httpx.Response, auth.Result) {
	origin := req.Header.Get("Origin")
	if req.Method == http.MethodOptions {
		resp := httpx.Empty(http.StatusNoContent)
		resp.SetHeaders(headers.CORS(c.opts.CORS, origin))
		return resp, auth.Result{}
	}

	ip := req.ClientIP()
	if c.trusted(ip, cfg) {
		logger.Source("cerberus").WithFields(map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"decision": "trusted_bypass",
		}).Debug("trusted ip bypassed security checks")
		return nil, auth.Result{}
	}

	var (
		identity auth.Result
		resolved bool
	)
	resolve := func() auth.Result {
		if !resolved && c.gate != nil {
			identity = c.gate.VerifyAuth(ctx, req)
		}
		resolved = true
		return identity
	}

	if cfg.RateLimit != nil && c.limiter != nil {
		var who auth.Result
		if cfg.RateLimit.UserBased || cfg.RateLimit.AdminBypass {
			who = resolve()
		}
		if resp := c.limiter.LimitIdentified(ctx, req, endpointName(cfg), *cfg.RateLimit, who); resp != nil {
			return c.WrapResponseWithSecurity(resp, cfg, origin), auth.Result{}
		}
	}

	if cfg.WAF != nil && c.engine != nil {
		if resp := c.engine.Protect(ctx, req, *cfg.WAF, identity.UserID()); resp != nil {
			return c.WrapResponseWithSecurity(resp, cfg, origin), auth.Result{}
		}
	}

	if cfg.Auth == "" || cfg.Auth == AuthNone {
		return nil, auth.Result{}
	}
	who := resolve()
	if !who.Authenticated {
		if cfg.Auth == AuthRequired {
			metrics.IncAuthFailure("unauthenticated")
			msg := who.Error
			if msg == "" {
				msg = "authentication required"
			}
			resp := httpx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": msg})
			return c.WrapResponseWithSecurity(resp, cfg, origin), auth.Result{}
		}
		return nil, who
	}

	if len(cfg.Roles) > 0 && !auth.HasRequiredRoles(who.User, cfg.Roles) {
		metrics.IncAuthFailure("forbidden_role")
		logger.Source("cerberus").WithFields(map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"decision": "forbidden_role",
			"user_id":  who.User.ID,
			"role":     who.User.Role,
		}).Info("role check failed")
		resp := httpx.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Required role: " + strings.Join(cfg.Roles, ", "),
		})
		return c.WrapResponseWithSecurity(resp, cfg, origin), auth.Result{}
	}
	return nil, who
}

func (c *Cerberus) trusted(ip string, cfg SecurityConfig) bool {
	if ip == "" {
		return false
	}
	if len(cfg.TrustedIPs) > 0 && waf.IPInList(ip, cfg.TrustedIPs) {
		return true
	}
	return len(c.opts.TrustedIPs) > 0 && waf.IPInList(ip, c.opts.TrustedIPs)
}

func endpointName(cfg SecurityConfig) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	return "custom"
}

// SecurityHeaders returns the CORS headers merged with the profile's security headers.
func (c *Cerberus) SecurityHeaders(cfg SecurityConfig, origin string) http.Header {
	policy := cfg.Headers
	policy.IsDevelopment = policy.IsDevelopment || c.opts.IsDevelopment
	return headers.Merge(headers.CORS(c.opts.CORS, origin), headers.Security(policy))
}

// WrapResponseWithSecurity decorates resp with the profile's headers.
func (c *Cerberus) WrapResponseWithSecurity(resp *httpx.Response, cfg SecurityConfig, origin string) *httpx.Response {
	if resp == nil {
		return nil
	}
	resp.SetHeaders(c.SecurityHeaders(cfg, origin))
	return resp
}

// CreateSecureResponse builds a JSON response decorated with the profile's headers.
func (c *Cerberus) CreateSecureResponse(status int, body any, cfg SecurityConfig, origin string) *httpx.Response {
	return c.WrapResponseWithSecurity(httpx.JSON(status, body), cfg, origin)
}

// Middleware returns a gin handler enforcing the named profile. It panics on
// an unknown name so misconfigured routes fail at startup.
func (c *Cerberus) Middleware(name string) gin.HandlerFunc {
	cfg, ok := c.profiles[name]
	if !ok {
		panic(fmt.Sprintf("cerberus: unknown security profile %q", name))
	}
	return c.MiddlewareWith(cfg)
}

// MiddlewareWith returns a gin handler enforcing cfg.
func (c *Cerberus) MiddlewareWith(cfg SecurityConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		req, err := request.FromHTTP(ctx.Request, c.opts.MaxBodyBytes)
		if err != nil {
			status := http.StatusBadRequest
			msg := "invalid request body"
			if errors.Is(err, request.ErrBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
				msg = "request body too large"
			}
			c.CreateSecureResponse(status, gin.H{"error": msg}, cfg, origin).Abort(ctx)
			return
		}
		req.ID = ctx.GetString(RequestIDKey)
		// Forwarded headers count only from the engine's trusted proxies.
		req.ClientAddr = ctx.ClientIP()

		resp, who := c.ApplySecurity(ctx.Request.Context(), req, cfg)
		if resp != nil {
			resp.Abort(ctx)
			return
		}

		for k, vals := range c.SecurityHeaders(cfg, origin) {
			ctx.Writer.Header()[k] = vals
		}
		if who.Authenticated && who.User != nil {
			ctx.Set(UserIDKey, who.User.ID)
			ctx.Set(RoleKey, who.User.Role)
			ctx.Set(EmailKey, who.User.Email)
		}
		ctx.Next()
	}
}
