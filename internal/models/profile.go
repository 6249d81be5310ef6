package models

import (
	"time"
)

// Profile carries the application role of an identity-provider subject.
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"` // identity provider subject id
	Email     string    `json:"email" gorm:"index"`
	Role      string    `json:"role" gorm:"default:'user'"` // "admin", "dealer", "organizer", "user"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
