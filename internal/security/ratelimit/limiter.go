// Package ratelimit implements fixed-window request limiting keyed by client
// IP and user id.
package ratelimit

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/metrics"
	"github.com/kaczcards/card-show-finder-sub014/internal/models"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/auth"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
)

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	// RetryAfter is set in seconds on denial only.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// IdentityResolver resolves the caller for LimitRequest. *auth.Gate satisfies it.
type IdentityResolver interface {
	VerifyAuth(ctx context.Context, req *request.Request) auth.Result
}

// Limiter evaluates Config policies against a Store.
type Limiter struct {
	store    Store
	identity IdentityResolver
	now      func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter. identity may be nil when only CheckRateLimit and
// LimitIdentified are used.
func New(store Store, identity IdentityResolver, opts ...Option) *Limiter {
	l := &Limiter{store: store, identity: identity, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) clock() time.Time {
	return l.now().UTC()
}

// Keys returns the counter keys that apply to a request under cfg.
func Keys(endpoint string, cfg Config, ip, userID string) []string {
	var keys []string
	if cfg.IPBased && ip != "" {
		keys = append(keys, "ip:"+ip+":"+endpoint)
	}
	if cfg.UserBased && userID != "" {
		keys = append(keys, "user:"+userID+":"+endpoint)
	}
	return keys
}

// CheckRateLimit applies cfg to every applicable key and returns the most
// restrictive result. Storage errors allow the request.
func (l *Limiter) CheckRateLimit(ctx context.Context, endpoint string, cfg Config, ip, userID string, isAdmin bool) Result {
	now := l.clock()
	full := Result{Allowed: true, Limit: cfg.Limit, Remaining: cfg.Limit, Reset: now.Add(cfg.Window)}

	if cfg.Limit <= 0 {
		return full
	}
	if isAdmin && cfg.AdminBypass {
		return full
	}
	keys := Keys(endpoint, cfg, ip, userID)
	if len(keys) == 0 {
		return full
	}

	var overall *Result
	for _, key := range keys {
		res, err := l.checkKey(ctx, key, endpoint, cfg, now)
		if err != nil {
			return l.failOpen(err, endpoint, key, full)
		}
		if overall == nil || moreRestrictive(res, *overall) {
			r := res
			overall = &r
		}
	}
	metrics.IncRateLimit(endpoint, overall.Allowed)
	if !overall.Allowed {
		logger.Source("ratelimit").WithFields(map[string]interface{}{
			"endpoint":    endpoint,
			"decision":    "deny",
			"retry_after": overall.RetryAfter,
		}).Info("rate limit exceeded")
	}
	return *overall
}

func (l *Limiter) checkKey(ctx context.Context, key, endpoint string, cfg Config, now time.Time) (Result, error) {
	rec, err := l.store.Live(ctx, key, endpoint, now)
	if err != nil {
		return Result{}, err
	}

	if rec == nil {
		rec = &models.RateLimitRecord{
			Key:            key,
			Endpoint:       endpoint,
			Count:          1,
			FirstRequestAt: now,
			LastRequestAt:  now,
			ExpiresAt:      now.Add(cfg.Window),
		}
		if err := l.store.Create(ctx, rec); err != nil {
			return Result{}, err
		}
		return Result{Allowed: true, Limit: cfg.Limit, Remaining: cfg.Limit - 1, Reset: rec.ExpiresAt}, nil
	}

	if rec.Count >= cfg.Limit {
		return Result{
			Allowed:    false,
			Limit:      cfg.Limit,
			Remaining:  0,
			Reset:      rec.ExpiresAt,
			RetryAfter: retryAfter(rec.ExpiresAt, now),
		}, nil
	}

	count, err := l.store.Increment(ctx, rec, now)
	if err != nil {
		return Result{}, err
	}
	remaining := cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Limit: cfg.Limit, Remaining: remaining, Reset: rec.ExpiresAt}, nil
}

// failOpen admits a request whose counters could not be read or written.
func (l *Limiter) failOpen(err error, endpoint, key string, full Result) Result {
	metrics.IncRateLimitStoreError()
	logger.Source("ratelimit").WithError(err).WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"key_type": keyType(key),
		"decision": "fail_open",
	}).Warn("rate limit storage error, allowing request")
	return full
}

// CleanupExpiredRecords deletes every record whose window has ended.
func (l *Limiter) CleanupExpiredRecords(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteExpired(ctx, l.clock())
	if err != nil {
		return 0, err
	}
	metrics.AddCleanupDeleted("rate_limits", n)
	return n, nil
}

// moreRestrictive orders results by remaining quota, denials first on ties.
func moreRestrictive(a, b Result) bool {
	if a.Remaining != b.Remaining {
		return a.Remaining < b.Remaining
	}
	return !a.Allowed && b.Allowed
}

func retryAfter(expires, now time.Time) int {
	secs := int(math.Ceil(expires.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func keyType(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}
