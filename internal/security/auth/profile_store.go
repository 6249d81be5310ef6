package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

// GormProfileStore reads profiles from the profiles table.
type GormProfileStore struct {
	db *gorm.DB
}

// NewGormProfileStore returns a ProfileStore backed by db.
func NewGormProfileStore(db *gorm.DB) *GormProfileStore {
	return &GormProfileStore{db: db}
}

// Lookup returns the profile for id or ErrProfileNotFound.
func (s *GormProfileStore) Lookup(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates or updates a profile row.
func (s *GormProfileStore) Upsert(ctx context.Context, p *models.Profile) error {
	return s.db.WithContext(ctx).Save(p).Error
}
