package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (r *recordingSender) Send(url, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string][]string{}
	}
	r.sent[url] = append(r.sent[url], msg)
	return r.err
}

func criticalEntry(ip string) *models.WafLogEntry {
	return &models.WafLogEntry{
		RuleID:         "sqli-001",
		RuleName:       "SQL injection: tautology or comment",
		AttackCategory: "sql_injection",
		Severity:       "critical",
		ActionTaken:    "block",
		IPAddress:      ip,
		Method:         "GET",
		Path:           "/api/v1/shows",
		SanitizedValue: "' OR 1=1 --",
		RequestID:      "req-1",
	}
}

func TestAlertService_SendsToEveryDestination(t *testing.T) {
	rec := &recordingSender{}
	svc := NewAlertService([]string{"discord://token@id", " ", "slack://a/b/c"}, time.Minute)
	svc.send = rec.Send
	require.True(t, svc.Enabled())

	svc.AlertDetection(context.Background(), criticalEntry("203.0.113.1"))
	svc.Wait()

	require.Len(t, rec.sent, 2)
	msg := rec.sent["slack://a/b/c"][0]
	assert.Contains(t, msg, "sqli-001")
	assert.Contains(t, msg, "203.0.113.1")
	assert.Contains(t, msg, "req-1")
}

func TestAlertService_Cooldown(t *testing.T) {
	rec := &recordingSender{}
	now := time.Now()
	svc := NewAlertService([]string{"generic://example.com"}, time.Minute)
	svc.send = rec.Send
	svc.now = func() time.Time { return now }

	svc.AlertDetection(context.Background(), criticalEntry("203.0.113.1"))
	svc.AlertDetection(context.Background(), criticalEntry("203.0.113.1"))
	svc.AlertDetection(context.Background(), criticalEntry("203.0.113.2"))
	now = now.Add(2 * time.Minute)
	svc.AlertDetection(context.Background(), criticalEntry("203.0.113.1"))
	svc.Wait()

	assert.Len(t, rec.sent["generic://example.com"], 3)
}

func TestAlertService_FailuresAreSwallowed(t *testing.T) {
	rec := &recordingSender{err: errors.New("unreachable")}
	svc := NewAlertService([]string{"generic://example.com"}, 0)
	svc.send = rec.Send

	assert.NotPanics(t, func() {
		svc.AlertDetection(context.Background(), criticalEntry("203.0.113.1"))
		svc.Wait()
	})
	assert.Len(t, rec.sent["generic://example.com"], 1)
}

func TestAlertService_Disabled(t *testing.T) {
	svc := NewAlertService(nil, 0)
	assert.False(t, svc.Enabled())
	svc.AlertDetection(context.Background(), criticalEntry("203.0.113.1"))
	svc.Wait()
}
