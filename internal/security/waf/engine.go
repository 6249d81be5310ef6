// Package waf inspects requests against an ordered signature catalog and
// records every detection.
package waf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/metrics"
	"github.com/kaczcards/card-show-finder-sub014/internal/models"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/httpx"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
	"github.com/kaczcards/card-show-finder-sub014/internal/util"
)

// LogWriter persists detections.
type LogWriter interface {
	Insert(ctx context.Context, entry *models.WafLogEntry) error
}

// Alerter is notified of critical detections.
type Alerter interface {
	AlertDetection(ctx context.Context, entry *models.WafLogEntry)
}

// Engine evaluates requests. It is safe for concurrent use.
type Engine struct {
	rules   []Rule
	logs    LogWriter
	alerter Alerter
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the default catalog.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithLogWriter sets where detections are persisted.
func WithLogWriter(w LogWriter) Option {
	return func(e *Engine) { e.logs = w }
}

// WithAlerter sets the receiver of critical detections.
func WithAlerter(a Alerter) Option {
	return func(e *Engine) { e.alerter = a }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over DefaultRules.
func New(opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine catalog.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// CheckRequest returns the first rule the request matches under cfg.
func (e *Engine) CheckRequest(ctx context.Context, req *request.Request, cfg Config, userID string) Detection {
	metrics.IncWAFRequest()
	if trusted(req, cfg) {
		return Detection{}
	}

	d := e.matchCatalog(req, cfg)
	if !d.Detected {
		d = structural(req, cfg)
	}
	if d.Detected {
		e.record(ctx, req, cfg, userID, d)
	}
	return d
}

// Protect returns a 403 when the request matches a blocking rule and cfg
// enforces. It returns nil when the request may continue.
func (e *Engine) Protect(ctx context.Context, req *request.Request, cfg Config, userID string) *httpx.Response {
	d := e.CheckRequest(ctx, req, cfg, userID)
	if !d.Detected || !blocks(d, cfg) {
		return nil
	}
	return Forbidden(d.Rule.ID)
}

// Forbidden builds the WAF denial response.
func Forbidden(ruleID string) *httpx.Response {
	return httpx.JSON(http.StatusForbidden, map[string]string{
		"error":   "Forbidden",
		"message": "Request blocked by security rules",
		"code":    ruleID,
	})
}

func blocks(d Detection, cfg Config) bool {
	return d.Rule != nil && d.Rule.Block && cfg.BlockMode
}

func (e *Engine) matchCatalog(req *request.Request, cfg Config) Detection {
	fs := extract(req, cfg)
	try := func(rules []Rule) Detection {
		for i := range rules {
			r := &rules[i]
			if r.Pattern == nil || r.MinLevel > cfg.ProtectionLevel {
				continue
			}
			for _, loc := range r.Locations {
				for _, f := range fs[loc] {
					if r.Pattern.MatchString(f.value) {
						return Detection{
							Detected: true,
							Rule:     r,
							Location: loc,
							Key:      f.key,
							Value:    util.SanitizeField(f.key, f.value),
						}
					}
				}
			}
		}
		return Detection{}
	}
	if d := try(e.rules); d.Detected {
		return d
	}
	return try(cfg.CustomRules)
}

func structural(req *request.Request, cfg Config) Detection {
	if cfg.ProtectionLevel < LevelHigh {
		return Detection{}
	}
	if !req.IsSafeMethod() {
		if req.Header.Get("X-CSRF-Token") == "" && req.Header.Get("X-XSRF-Token") == "" {
			return synthetic(&ruleMissingCSRF, LocationHeaders, "x-csrf-token", "")
		}
		switch ct := req.ContentType(); ct {
		case "application/json", "application/x-www-form-urlencoded", "multipart/form-data":
		default:
			return synthetic(&ruleContentType, LocationHeaders, "content-type", ct)
		}
	}
	if cfg.ProtectionLevel >= LevelMaximum && strings.TrimSpace(req.Header.Get("Accept")) == "" {
		return synthetic(&ruleMissingAccept, LocationHeaders, "accept", "")
	}
	return Detection{}
}

func synthetic(r *Rule, loc Location, key, value string) Detection {
	rule := *r
	return Detection{Detected: true, Rule: &rule, Location: loc, Key: key, Value: util.TruncateForLog(value)}
}

func trusted(req *request.Request, cfg Config) bool {
	if len(cfg.TrustedUserAgents) > 0 {
		ua := strings.ToLower(req.UserAgent())
		for _, t := range cfg.TrustedUserAgents {
			if t != "" && ua != "" && strings.Contains(ua, strings.ToLower(t)) {
				return true
			}
		}
	}
	return len(cfg.TrustedIPs) > 0 && IPInList(req.ClientIP(), cfg.TrustedIPs)
}

// IPInList reports whether ip equals an address in list or falls inside a CIDR entry.
func IPInList(ip string, list []string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if prefix, err := netip.ParsePrefix(entry); err == nil && prefix.Contains(addr) {
				return true
			}
			continue
		}
		if other, err := netip.ParseAddr(entry); err == nil && other.Unmap() == addr {
			return true
		}
	}
	return false
}

func (e *Engine) record(ctx context.Context, req *request.Request, cfg Config, userID string, d Detection) {
	action := "log"
	if blocks(d, cfg) {
		action = "block"
		metrics.IncWAFBlocked(string(d.Rule.Category))
	} else {
		metrics.IncWAFMonitored(string(d.Rule.Category))
	}

	logger.Source("waf").WithFields(map[string]interface{}{
		"rule_id":  d.Rule.ID,
		"category": d.Rule.Category,
		"location": d.Location,
		"key":      util.TruncateForLog(d.Key),
		"decision": action,
		"path":     util.TruncateForLog(req.Path),
	}).Warn("waf detection")

	if !cfg.EnableLogging {
		return
	}
	entry := e.logEntry(req, cfg, userID, d, action)
	if e.logs != nil {
		if err := e.logs.Insert(ctx, entry); err != nil {
			logger.Source("waf").WithError(err).WithField("rule_id", d.Rule.ID).Warn("failed to persist waf log entry")
		}
	}
	if e.alerter != nil && d.Rule.Severity == SeverityCritical {
		e.alerter.AlertDetection(ctx, entry)
	}
}

func (e *Engine) logEntry(req *request.Request, cfg Config, userID string, d Detection, action string) *models.WafLogEntry {
	entry := &models.WafLogEntry{
		UUID:            uuid.New().String(),
		RequestID:       req.ID,
		Timestamp:       e.now().UTC(),
		IPAddress:       util.TruncateForLog(req.ClientIP()),
		Method:          req.Method,
		Path:            util.TruncateForLog(req.Path),
		UserAgent:       util.TruncateForLog(req.UserAgent()),
		AttackCategory:  string(d.Rule.Category),
		RuleID:          d.Rule.ID,
		RuleName:        d.Rule.Name,
		Location:        string(d.Location),
		SanitizedValue:  d.Value,
		ActionTaken:     action,
		ProtectionLevel: cfg.ProtectionLevel.String(),
		Severity:        string(d.Rule.Severity),
		Headers:         marshalMap(util.SanitizeHeaders(req.Header)),
		QueryParams:     marshalMap(util.SanitizeQuery(req.Query)),
	}
	if userID != "" {
		entry.UserID = &userID
	}
	return entry
}

func marshalMap(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
