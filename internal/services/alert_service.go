package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/models"
	"github.com/kaczcards/card-show-finder-sub014/internal/version"
)

// DefaultAlertCooldown suppresses repeated alerts for the same rule and source IP.
const DefaultAlertCooldown = 5 * time.Minute

// AlertService forwards critical WAF detections to shoutrrr destinations
// (Slack, Discord, Telegram, generic webhooks...).
type AlertService struct {
	urls     []string
	cooldown time.Duration
	send     func(url, message string) error
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
	wg       sync.WaitGroup
}

// NewAlertService creates an AlertService. Empty URLs are ignored.
func NewAlertService(urls []string, cooldown time.Duration) *AlertService {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &AlertService{
		urls:     clean,
		cooldown: cooldown,
		send:     shoutrrr.Send,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

// Enabled reports whether any destination is configured.
func (s *AlertService) Enabled() bool {
	return len(s.urls) > 0
}

// AlertDetection sends entry to every destination. Delivery is asynchronous and
// failures are only logged.
func (s *AlertService) AlertDetection(_ context.Context, entry *models.WafLogEntry) {
	if !s.Enabled() || entry == nil {
		return
	}
	if !s.admit(entry.RuleID + "|" + entry.IPAddress) {
		return
	}

	msg := formatAlert(entry)
	for _, u := range s.urls {
		s.wg.Add(1)
		go func(url string) {
			defer s.wg.Done()
			if err := s.send(url, msg); err != nil {
				logger.Source("alerts").WithError(err).WithField("rule_id", entry.RuleID).Warn("failed to send waf alert")
			}
		}(u)
	}
}

// Wait blocks until in-flight deliveries finish.
func (s *AlertService) Wait() {
	s.wg.Wait()
}

func (s *AlertService) admit(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if last, ok := s.lastSent[key]; ok && now.Sub(last) < s.cooldown {
		return false
	}
	s.lastSent[key] = now
	for k, t := range s.lastSent {
		if now.Sub(t) >= s.cooldown {
			delete(s.lastSent, k)
		}
	}
	return true
}

func formatAlert(e *models.WafLogEntry) string {
	return fmt.Sprintf("[%s] WAF %s: %s (%s)\n\nRule: %s\nCategory: %s\nSeverity: %s\nIP: %s\nRequest: %s %s\nLocation: %s\nValue: %s\nRequest ID: %s",
		version.Name, e.ActionTaken, e.RuleName, e.RuleID,
		e.RuleID, e.AttackCategory, e.Severity,
		e.IPAddress, e.Method, e.Path, e.Location, e.SanitizedValue, e.RequestID)
}
