package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foty/internal/middleware"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/services"
)

// ProfileHandler serves the authenticated member's own resources.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the member's profile with badges, recent donations and
// RSVPs preloaded.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	var user models.User
	err := h.db.
		Preload("Badges.Badge").
		Preload("Donations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc").Limit(5)
		}).
		Preload("RSVPs.Event").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{
		"message": "Profile fetched successfully",
		"data":    user,
	})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// UpdateProfile updates the mutable profile fields; empty values are ignored.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}

	if len(updates) > 0 {
		if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return err
		}
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"data":    user,
	})
}

// GetCertificate renders and downloads the member's PDF certificate.
func (h *ProfileHandler) GetCertificate(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	pdf, err := services.GenerateMembershipCertificate(&user)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=FOTY_Certificate_%s.pdf", user.ID))
	return c.Send(pdf)
}

type subscribeRequest struct {
	NewsletterType string `json:"newsletterType"`
}

// Subscribe opts the member into the daily or weekly newsletter.
func (h *ProfileHandler) Subscribe(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.NewsletterType != models.NewsletterDaily && req.NewsletterType != models.NewsletterWeekly {
		return fiber.NewError(fiber.StatusBadRequest, "invalid newsletter type, must be DAILY or WEEKLY")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("newsletter", req.NewsletterType).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Successfully subscribed to %s newsletter.", req.NewsletterType),
	})
}

// Unsubscribe opts the member out of all newsletters.
func (h *ProfileHandler) Unsubscribe(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("newsletter", "").Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Successfully unsubscribed from the newsletter."})
}
