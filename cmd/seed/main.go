// Command seed provisions the default admin account, the badge catalog and a
// sample event and bulletin post.
package main

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm/clause"

	"github.com/example/foty/internal/config"
	"github.com/example/foty/internal/database"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/utils"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer database.Close(db)

	log.Printf("Start seeding...")

	adminEmail := getenv("SEED_ADMIN_EMAIL", "admin@foty.org")
	adminPassword := getenv("SEED_ADMIN_PASSWORD", "adminpassword")

	passwordHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	if err := database.EnsureAdmin(db, adminEmail, "Admin User", passwordHash); err != nil {
		log.Fatalf("seed admin user: %v", err)
	}
	log.Printf("Ensured admin user: %s", adminEmail)

	if err := database.SeedBadges(db); err != nil {
		log.Fatalf("seed badges: %v", err)
	}
	log.Printf("Default badges created.")

	capacity := 50
	event := models.Event{
		Name:        "Community Meet & Greet",
		Description: "Join us for our first community meet and greet! A great chance to network, share ideas, and plan for the future. Snacks and refreshments will be provided.",
		Date:        time.Now().Add(24 * time.Hour),
		Location:    "FOTY Main Hall, Nairobi",
		Capacity:    &capacity,
		ImageURL:    "https://placehold.co/600x400/5A9/FFF?text=FOTY+Event",
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&event).Error; err != nil {
		log.Fatalf("seed sample event: %v", err)
	}
	log.Printf("Created sample event: %s", event.Name)

	var admin models.User
	if err := db.Where("email = ?", adminEmail).First(&admin).Error; err != nil {
		log.Fatalf("load admin for sample post: %v", err)
	}

	post := models.BulletinPost{
		Title:    "Welcome to the FOTY Bulletin!",
		Content:  "This is the official community bulletin board. Share your ideas, ask questions, and connect with other members. We are excited to have you here!",
		AuthorID: admin.ID,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(&post).Error; err != nil {
		log.Fatalf("seed sample post: %v", err)
	}
	log.Printf("Created sample bulletin post.")

	log.Printf("Seeding complete.")
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
