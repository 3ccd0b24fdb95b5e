package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a community event members can RSVP for.
type Event struct {
	BaseModel
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	// Capacity is nil when attendance is unlimited.
	Capacity *int   `json:"capacity"`
	ImageURL string `json:"image_url"`

	RSVPs []EventRSVP `json:"rsvps,omitempty"`
}

// EventRSVP records a member's attendance intent. The composite unique index
// allows one RSVP per user per event.
type EventRSVP struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_event" json:"user_id"`
	EventID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_event" json:"event_id"`
	CreatedAt time.Time `json:"created_at"`

	Event *Event `json:"event,omitempty"`
}

// BeforeCreate generates the primary key for new RSVPs.
func (r *EventRSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
