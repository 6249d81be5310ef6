package models

import (
	"time"
)

// WafLogEntry is the audit row persisted for every detected attack.
// Values are sanitized before they reach this struct; entries are never updated.
type WafLogEntry struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UUID            string    `json:"uuid" gorm:"uniqueIndex"`
	RequestID       string    `json:"request_id" gorm:"index"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`
	IPAddress       string    `json:"ip_address" gorm:"index"`
	UserID          *string   `json:"user_id,omitempty"`
	Method          string    `json:"method"`
	Path            string    `json:"path"`
	UserAgent       string    `json:"user_agent"`
	AttackCategory  string    `json:"attack_category" gorm:"index"`
	RuleID          string    `json:"rule_id" gorm:"index"`
	RuleName        string    `json:"rule_name"`
	Location        string    `json:"location"`
	SanitizedValue  string    `json:"sanitized_value" gorm:"type:text"`
	ActionTaken     string    `json:"action_taken"` // "block", "log"
	ProtectionLevel string    `json:"protection_level"`
	Severity        string    `json:"severity"`
	Headers         string    `json:"headers" gorm:"type:text"`      // JSON object
	QueryParams     string    `json:"query_params" gorm:"type:text"` // JSON object
}

// TableName pins the table name used by the WAF logger.
func (WafLogEntry) TableName() string {
	return "waf_logs"
}
