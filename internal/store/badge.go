package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foty/internal/models"
)

// BadgeStore reads the badge catalog and records grants.
type BadgeStore struct {
	db *gorm.DB
}

// NewBadgeStore wraps the shared database handle.
func NewBadgeStore(db *gorm.DB) *BadgeStore {
	return &BadgeStore{db: db}
}

// FindByName returns a catalog badge, or (nil, nil) when the catalog has no
// badge with that name.
func (s *BadgeStore) FindByName(ctx context.Context, name string) (*models.Badge, error) {
	var badge models.Badge
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&badge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &badge, nil
}

// Grant awards a badge to a user. The (user, badge) unique constraint absorbs
// concurrent grant attempts; Grant reports false when the user already held
// the badge.
func (s *BadgeStore) Grant(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	grant := models.UserBadge{UserID: userID, BadgeID: badgeID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
