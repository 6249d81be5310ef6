package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
)

// DefaultCleanupSchedule runs the sweeps every fifteen minutes.
const DefaultCleanupSchedule = "*/15 * * * *"

// RateLimitCleaner removes expired rate-limit windows.
type RateLimitCleaner interface {
	CleanupExpiredRecords(ctx context.Context) (int64, error)
}

// WafLogPurger removes WAF log entries past retention.
type WafLogPurger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// MaintenanceReport summarizes one sweep.
type MaintenanceReport struct {
	RateLimitsDeleted int64         `json:"rate_limits_deleted"`
	WafLogsDeleted    int64         `json:"waf_logs_deleted"`
	Duration          time.Duration `json:"duration_ns"`
}

// MaintenanceService runs the out-of-band cleanup sweeps.
type MaintenanceService struct {
	limits        RateLimitCleaner
	wafLogs       WafLogPurger
	retentionDays int
	timeout       time.Duration
	cron          *cron.Cron
}

// NewMaintenanceService creates a MaintenanceService. Either dependency may be nil.
func NewMaintenanceService(limits RateLimitCleaner, wafLogs WafLogPurger, retentionDays int) *MaintenanceService {
	return &MaintenanceService{
		limits:        limits,
		wafLogs:       wafLogs,
		retentionDays: retentionDays,
		timeout:       2 * time.Minute,
	}
}

// RunOnce runs every sweep. Both sweeps are attempted even if the first fails.
func (s *MaintenanceService) RunOnce(ctx context.Context) (MaintenanceReport, error) {
	start := time.Now()
	var report MaintenanceReport
	var errs []error

	if s.limits != nil {
		n, err := s.limits.CleanupExpiredRecords(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("cleanup rate limits: %w", err))
		}
		report.RateLimitsDeleted = n
	}
	if s.wafLogs != nil {
		n, err := s.wafLogs.PurgeOlderThan(ctx, s.retentionDays)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge waf logs: %w", err))
		}
		report.WafLogsDeleted = n
	}
	report.Duration = time.Since(start)
	return report, errors.Join(errs...)
}

// Start schedules RunOnce with a standard five-field cron spec.
func (s *MaintenanceService) Start(spec string) error {
	if spec == "" {
		spec = DefaultCleanupSchedule
	}
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("schedule maintenance %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	logger.Source("maintenance").WithField("schedule", spec).Info("maintenance scheduled")
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (s *MaintenanceService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

func (s *MaintenanceService) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	report, err := s.RunOnce(ctx)
	entry := logger.Source("maintenance").WithFields(map[string]interface{}{
		"rate_limits_deleted": report.RateLimitsDeleted,
		"waf_logs_deleted":    report.WafLogsDeleted,
		"duration":            report.Duration.String(),
	})
	if err != nil {
		entry.WithError(err).Warn("maintenance sweep failed")
		return
	}
	entry.Info("maintenance sweep finished")
}
