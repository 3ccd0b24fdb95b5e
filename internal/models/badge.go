package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge is an achievement in the immutable badge catalog.
type Badge struct {
	BaseModel
	Name        string `gorm:"uniqueIndex" json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

// UserBadge links a user to a badge they have been awarded. The composite
// unique index guarantees a badge is granted to a user at most once.
type UserBadge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_badge" json:"badge_id"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	Badge *Badge `json:"badge,omitempty"`
}

// BeforeCreate generates the primary key for new grants.
func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if ub.ID == uuid.Nil {
		ub.ID = uuid.New()
	}
	return nil
}
