package models

import "github.com/google/uuid"

// BulletinPost is an entry on the community bulletin board.
type BulletinPost struct {
	BaseModel
	Title    string    `gorm:"uniqueIndex" json:"title"`
	Content  string    `json:"content"`
	AuthorID uuid.UUID `gorm:"type:uuid;index" json:"author_id"`

	Author *User `json:"author,omitempty"`
}
