package ratelimit

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

// GormStore keeps counters in the rate_limits table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by db. The caller migrates models.RateLimitRecord.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Live implements Store.
func (s *GormStore) Live(ctx context.Context, key, endpoint string, now time.Time) (*models.RateLimitRecord, error) {
	var rec models.RateLimitRecord
	err := s.db.WithContext(ctx).
		Where(&models.RateLimitRecord{Key: key, Endpoint: endpoint}).
		Where("expires_at > ?", now).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Create implements Store. The expired predecessor, if any, is removed in the
// same transaction so the unique (key, endpoint) index holds.
func (s *GormStore) Create(ctx context.Context, rec *models.RateLimitRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.RateLimitRecord{Key: rec.Key, Endpoint: rec.Endpoint}).
			Where("expires_at <= ?", rec.FirstRequestAt).
			Delete(&models.RateLimitRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

// Increment implements Store.
func (s *GormStore) Increment(ctx context.Context, rec *models.RateLimitRecord, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).
		Model(&models.RateLimitRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"count":           gorm.Expr("count + ?", 1),
			"last_request_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	rec.Count++
	rec.LastRequestAt = now
	return rec.Count, nil
}

// DeleteExpired implements Store.
func (s *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.RateLimitRecord{})
	return res.RowsAffected, res.Error
}
