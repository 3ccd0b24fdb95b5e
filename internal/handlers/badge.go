package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foty/internal/models"
)

// BadgeHandler serves the public badge catalog.
type BadgeHandler struct {
	db *gorm.DB
}

// NewBadgeHandler constructs a BadgeHandler.
func NewBadgeHandler(db *gorm.DB) *BadgeHandler {
	return &BadgeHandler{db: db}
}

// ListBadges returns the full badge catalog, sorted by name.
func (h *BadgeHandler) ListBadges(c *fiber.Ctx) error {
	var badges []models.Badge
	if err := h.db.Order("name asc").Find(&badges).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Badges fetched successfully",
		"count":   len(badges),
		"data":    badges,
	})
}
