package waf

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kaczcards/card-show-finder-sub014/internal/metrics"
	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

// DefaultRetentionDays is how long WAF log entries are kept.
const DefaultRetentionDays = 30

// LogStore persists WafLogEntry rows with gorm.
type LogStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLogStore returns a LogStore over db. The caller migrates models.WafLogEntry.
func NewLogStore(db *gorm.DB) *LogStore {
	return &LogStore{db: db, now: time.Now}
}

// Insert implements LogWriter.
func (s *LogStore) Insert(ctx context.Context, entry *models.WafLogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// LogFilter narrows Recent.
type LogFilter struct {
	IPAddress string
	RuleID    string
	Category  string
	Limit     int
}

// Recent returns the newest entries first.
func (s *LogStore) Recent(ctx context.Context, f LogFilter) ([]models.WafLogEntry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&models.WafLogEntry{})
	if f.IPAddress != "" {
		q = q.Where("ip_address = ?", f.IPAddress)
	}
	if f.RuleID != "" {
		q = q.Where("rule_id = ?", f.RuleID)
	}
	if f.Category != "" {
		q = q.Where("attack_category = ?", f.Category)
	}
	var entries []models.WafLogEntry
	if err := q.Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// PurgeOlderThan deletes entries older than days. days <= 0 uses DefaultRetentionDays.
func (s *LogStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	res := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.WafLogEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	metrics.AddCleanupDeleted("waf_logs", res.RowsAffected)
	return res.RowsAffected, nil
}
