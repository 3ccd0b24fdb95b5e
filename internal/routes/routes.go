package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foty/internal/config"
	"github.com/example/foty/internal/handlers"
	"github.com/example/foty/internal/middleware"
	"github.com/example/foty/internal/services"
	"github.com/example/foty/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	donationStore := store.NewDonationStore(db)
	badgeStore := store.NewBadgeStore(db)

	mailService := services.NewMailService(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass, cfg.EmailFrom, cfg.AdminEmail)
	badgeService := services.NewBadgeService(badgeStore, donationStore)
	mpesaClient := services.NewMpesaClient(services.MpesaConfig{
		AuthURL:        cfg.MpesaAuthURL,
		STKPushURL:     cfg.MpesaSTKPushURL,
		ConsumerKey:    cfg.MpesaConsumerKey,
		ConsumerSecret: cfg.MpesaConsumerSecret,
		Shortcode:      cfg.MpesaShortcode,
		Passkey:        cfg.MpesaPasskey,
		CallbackURL:    cfg.MpesaCallbackURL,
	})
	donationService := services.NewDonationService(donationStore, mpesaClient, badgeService, mailService)
	sheetsService := services.NewSheetsService(cfg.SheetID, cfg.ServiceAccountEmail, cfg.ServicePrivateKey)

	authHandler := handlers.NewAuthHandler(db, cfg, badgeService)
	profileHandler := handlers.NewProfileHandler(db)
	donationHandler := handlers.NewDonationHandler(donationService)
	postHandler := handlers.NewPostHandler(db)
	eventHandler := handlers.NewEventHandler(db, badgeService)
	badgeHandler := handlers.NewBadgeHandler(db)
	adminHandler := handlers.NewAdminHandler(db, sheetsService)

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "UP", "message": "FOTY API is healthy"})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/google", authHandler.GoogleLogin)
	auth.Get("/google/callback", authHandler.GoogleCallback)

	// User routes
	users := api.Group("/users", middleware.Protect(cfg))
	users.Get("/profile", profileHandler.GetProfile)
	users.Put("/profile", profileHandler.UpdateProfile)
	users.Get("/certificate", profileHandler.GetCertificate)
	users.Post("/subscribe", profileHandler.Subscribe)
	users.Post("/unsubscribe", profileHandler.Unsubscribe)

	// Donation routes. The callback is called by M-Pesa, not the frontend.
	donations := api.Group("/donations")
	donations.Get("/", middleware.Protect(cfg), donationHandler.ListUserDonations)
	donations.Post("/stk-push", middleware.OptionalAuth(cfg), donationHandler.InitiateSTKPush)
	donations.Post("/callback", donationHandler.Callback)

	// Bulletin post routes
	posts := api.Group("/posts")
	posts.Get("/", postHandler.ListPosts)
	posts.Post("/", middleware.Protect(cfg), postHandler.CreatePost)
	posts.Get("/:id", postHandler.GetPost)
	posts.Put("/:id", middleware.Protect(cfg), postHandler.UpdatePost)
	posts.Delete("/:id", middleware.Protect(cfg), postHandler.DeletePost)

	// Event routes
	events := api.Group("/events")
	events.Get("/", middleware.OptionalAuth(cfg), eventHandler.ListEvents)
	events.Get("/:id", middleware.OptionalAuth(cfg), eventHandler.GetEvent)
	events.Post("/:id/rsvp", middleware.Protect(cfg), eventHandler.RSVP)
	events.Delete("/:id/rsvp", middleware.Protect(cfg), eventHandler.CancelRSVP)

	// Badge catalog
	api.Get("/badges", badgeHandler.ListBadges)

	// Admin routes
	admin := api.Group("/admin", middleware.Protect(cfg), middleware.AdminOnly())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/donations", adminHandler.ListDonations)
	admin.Post("/events", adminHandler.CreateEvent)
	admin.Put("/events/:id", adminHandler.UpdateEvent)
	admin.Delete("/events/:id", adminHandler.DeleteEvent)
	admin.Post("/badges", adminHandler.CreateBadge)
	admin.Post("/users/:userId/badge", adminHandler.AwardBadge)
	admin.Get("/sync/users", adminHandler.SyncUsers)
	admin.Get("/sync/donations", adminHandler.SyncDonations)
	admin.Get("/sync/events", adminHandler.SyncEvents)
}
