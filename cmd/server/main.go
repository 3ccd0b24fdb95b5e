package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/foty/internal/config"
	"github.com/example/foty/internal/database"
	"github.com/example/foty/internal/jobs"
	"github.com/example/foty/internal/routes"
	"github.com/example/foty/internal/services"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}

	if err := database.SeedBadges(db); err != nil {
		log.Fatalf("badge catalog seed failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "FOTY Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientURL,
		AllowCredentials: true,
	}))

	routes.Register(app, db, cfg)

	mailService := services.NewMailService(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass, cfg.EmailFrom, cfg.AdminEmail)
	newsletter := jobs.NewNewsletterJob(db, mailService)
	scheduler, err := newsletter.Start(cfg.CronTimezone)
	if err != nil {
		log.Fatalf("newsletter job start failed: %v", err)
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("fiber.Listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down")
	scheduler.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := database.Close(db); err != nil {
		log.Printf("database close error: %v", err)
	}
}
