package models

import (
	"time"
)

// RateLimitRecord is the fixed-window counter for one (key, endpoint) pair.
// A record whose ExpiresAt has passed is treated as absent.
type RateLimitRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Key            string    `json:"key" gorm:"uniqueIndex:idx_rate_limit_key_endpoint;size:255"`
	Endpoint       string    `json:"endpoint" gorm:"uniqueIndex:idx_rate_limit_key_endpoint;size:128"`
	Count          int       `json:"count"`
	FirstRequestAt time.Time `json:"first_request_at"`
	LastRequestAt  time.Time `json:"last_request_at"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"index"`
}

// TableName pins the table name used by the rate limiter.
func (RateLimitRecord) TableName() string {
	return "rate_limits"
}

// Expired reports whether the window of the record has ended at now.
func (r *RateLimitRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
