package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	wafRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csf_waf_requests_total",
		Help: "Total number of requests evaluated by WAF",
	})
	wafBlockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csf_waf_blocked_total",
		Help: "Total number of requests blocked by WAF",
	}, []string{"category"})
	wafMonitoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csf_waf_monitored_total",
		Help: "Total number of detections logged but not blocked by WAF",
	}, []string{"category"})
	rateLimitDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csf_ratelimit_decisions_total",
		Help: "Rate limit decisions by endpoint and outcome",
	}, []string{"endpoint", "decision"})
	rateLimitStoreErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csf_ratelimit_store_errors_total",
		Help: "Rate limit storage failures that were resolved by failing open",
	})
	authFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csf_auth_failures_total",
		Help: "Authentication and authorization denials",
	}, []string{"reason"})
	cleanupDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csf_cleanup_deleted_total",
		Help: "Rows deleted by maintenance sweeps",
	}, []string{"table"})
	panicsRecoveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csf_http_panics_recovered_total",
		Help: "Handler panics turned into 500 responses",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		wafRequestsTotal,
		wafBlockedTotal,
		wafMonitoredTotal,
		rateLimitDecisionsTotal,
		rateLimitStoreErrorsTotal,
		authFailuresTotal,
		cleanupDeletedTotal,
		panicsRecoveredTotal,
	)
}

// IncWAFRequest increments the evaluated requests counter.
func IncWAFRequest() { wafRequestsTotal.Inc() }

// IncWAFBlocked increments the blocked requests counter.
func IncWAFBlocked(category string) { wafBlockedTotal.WithLabelValues(category).Inc() }

// IncWAFMonitored increments the detect-only counter.
func IncWAFMonitored(category string) { wafMonitoredTotal.WithLabelValues(category).Inc() }

// IncRateLimit records an allow or deny decision for an endpoint.
func IncRateLimit(endpoint string, allowed bool) {
	decision := "allow"
	if !allowed {
		decision = "deny"
	}
	rateLimitDecisionsTotal.WithLabelValues(endpoint, decision).Inc()
}

// IncRateLimitStoreError increments the fail-open counter.
func IncRateLimitStoreError() { rateLimitStoreErrorsTotal.Inc() }

// IncAuthFailure records an auth denial ("unauthenticated", "forbidden_role").
func IncAuthFailure(reason string) { authFailuresTotal.WithLabelValues(reason).Inc() }

// AddCleanupDeleted records rows removed by a maintenance sweep.
func AddCleanupDeleted(table string, n int64) {
	if n > 0 {
		cleanupDeletedTotal.WithLabelValues(table).Add(float64(n))
	}
}

// IncPanic records a recovered handler panic.
func IncPanic() { panicsRecoveredTotal.Inc() }
