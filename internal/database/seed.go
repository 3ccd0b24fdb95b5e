package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foty/internal/models"
)

// badgeCatalog is the fixed achievement catalog. New badges are appended here
// and seeded on the next start; existing rows are never modified.
var badgeCatalog = []models.Badge{
	{
		Name:        "New Member",
		Description: "Awarded for successfully registering.",
		IconURL:     "https://placehold.co/100x100/FFF/333?text=New",
	},
	{
		Name:        "First Donation",
		Description: "Awarded for making your first donation.",
		IconURL:     "https://placehold.co/100x100/FFF/333?text=First",
	},
	{
		Name:        "Big Spender",
		Description: "Awarded for donating a total of 5,000 KES or more.",
		IconURL:     "https://placehold.co/100x100/FFF/333?text=5K",
	},
	{
		Name:        "Event Goer",
		Description: "Awarded for attending your first event.",
		IconURL:     "https://placehold.co/100x100/FFF/333?text=Event",
	},
	{
		Name:        "Community Pillar",
		Description: "Awarded for being a member for over one year.",
		IconURL:     "https://placehold.co/100x100/FFF/333?text=1Y",
	},
}

// SeedBadges inserts the badge catalog, skipping badges that already exist.
func SeedBadges(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&badgeCatalog).Error
}

// EnsureAdmin creates the default admin account unless a user with the given
// email already exists.
func EnsureAdmin(db *gorm.DB, email, name, passwordHash string) error {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: &passwordHash,
		Role:         models.RoleAdmin,
		Phone:        "0000000000",
		Bio:          "Default administrator account for Friends of the Youth.",
	}
	return db.Create(&admin).Error
}
