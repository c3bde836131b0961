package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

// UserStore reads the accounts the identity provider manages. The core only
// needs display fields for snapshots and enrichment.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Get(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "user %d not found", userID)
		}
		return nil, err
	}
	return &u, nil
}
