package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/services"
)

// AdminHandler serves the admin panel endpoints.
type AdminHandler struct {
	db     *gorm.DB
	sheets *services.SheetsService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB, sheets *services.SheetsService) *AdminHandler {
	return &AdminHandler{db: db, sheets: sheets}
}

// ListUsers returns all members, newest first, without sensitive fields.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.db.
		Select("id", "name", "email", "phone", "role", "created_at", "newsletter").
		Order("created_at desc").
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Users fetched successfully",
		"count":   len(users),
		"data":    users,
	})
}

// ListDonations returns the full donation ledger with donor details.
func (h *AdminHandler) ListDonations(c *fiber.Ctx) error {
	var donations []models.Donation
	if err := h.db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Order("created_at desc").
		Find(&donations).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Donations fetched successfully",
		"count":   len(donations),
		"data":    donations,
	})
}

type eventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Capacity    *int   `json:"capacity"`
	ImageURL    string `json:"imageUrl"`
}

// CreateEvent creates a new community event.
func (h *AdminHandler) CreateEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Description == "" || req.Date == "" || req.Location == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, description, date and location are required")
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be RFC3339")
	}

	event := models.Event{
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
	}
	if err := h.db.Create(&event).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Event created successfully",
		"data":    event,
	})
}

// UpdateEvent edits an existing event; empty fields are left untouched.
func (h *AdminHandler) UpdateEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}

	var event models.Event
	if err := h.db.First(&event, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "event not found")
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be RFC3339")
		}
		updates["date"] = date
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}

	if len(updates) > 0 {
		if err := h.db.Model(&event).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"message": "Event updated successfully",
		"data":    event,
	})
}

// DeleteEvent removes an event together with its RSVPs.
func (h *AdminHandler) DeleteEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventRSVP{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "event not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"message": "Event and all associated RSVPs deleted successfully"})
}

type createBadgeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
}

// CreateBadge adds a badge to the catalog.
func (h *AdminHandler) CreateBadge(c *fiber.Ctx) error {
	var req createBadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Description == "" || req.IconURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, description and iconUrl are required")
	}

	badge := models.Badge{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
	}
	if err := h.db.Create(&badge).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Badge created successfully",
		"data":    badge,
	})
}

type awardBadgeRequest struct {
	BadgeID string `json:"badgeId"`
}

// AwardBadge manually grants a badge to a user.
func (h *AdminHandler) AwardBadge(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var req awardBadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	badgeID, err := uuid.Parse(req.BadgeID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid badge id")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user or badge not found")
	}
	var badge models.Badge
	if err := h.db.First(&badge, "id = ?", badgeID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user or badge not found")
	}

	var existing models.UserBadge
	err = h.db.Where("user_id = ? AND badge_id = ?", userID, badgeID).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "user already has this badge")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	grant := models.UserBadge{UserID: userID, BadgeID: badgeID}
	if err := h.db.Create(&grant).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("Badge %q awarded to user %q", badge.Name, user.Name),
		"data":    grant,
	})
}

// SyncUsers mirrors the member list into the Users sheet.
func (h *AdminHandler) SyncUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.db.
		Select("id", "name", "email", "phone", "role", "created_at", "newsletter").
		Order("created_at asc").
		Find(&users).Error; err != nil {
		return err
	}

	headers := []string{"User ID", "Name", "Email", "Phone", "Role", "Joined At", "Newsletter"}
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		newsletter := u.Newsletter
		if newsletter == "" {
			newsletter = "None"
		}
		rows = append(rows, []any{
			u.ID.String(), u.Name, u.Email, u.Phone, u.Role,
			u.CreatedAt.Format("2006-01-02"), newsletter,
		})
	}

	if err := h.sheets.Sync(c.Context(), "Users", headers, rows); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User data sync to Google Sheets initiated."})
}

// SyncDonations mirrors completed donations into the Donations sheet.
func (h *AdminHandler) SyncDonations(c *fiber.Ctx) error {
	var donations []models.Donation
	if err := h.db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Where("status = ?", models.DonationCompleted).
		Order("created_at asc").
		Find(&donations).Error; err != nil {
		return err
	}

	headers := []string{"Donation ID", "Date", "Amount", "Phone", "User Email", "User Name", "M-Pesa Receipt"}
	rows := make([][]any, 0, len(donations))
	for _, d := range donations {
		email, name := "Anonymous", "Anonymous"
		if d.User != nil {
			email, name = d.User.Email, d.User.Name
		}
		receipt := ""
		if d.MpesaReceipt != nil {
			receipt = *d.MpesaReceipt
		}
		rows = append(rows, []any{
			d.ID.String(), d.CreatedAt.Format(time.RFC3339), d.Amount, d.Phone,
			email, name, receipt,
		})
	}

	if err := h.sheets.Sync(c.Context(), "Donations", headers, rows); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Donation data sync to Google Sheets initiated."})
}

// SyncEvents mirrors events and their attendance into the Events sheet.
func (h *AdminHandler) SyncEvents(c *fiber.Ctx) error {
	var events []models.Event
	if err := h.db.
		Preload("RSVPs").
		Order("date asc").
		Find(&events).Error; err != nil {
		return err
	}

	headers := []string{"Event ID", "Name", "Date", "Location", "Capacity", "RSVP Count"}
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		capacity := "N/A"
		if e.Capacity != nil {
			capacity = fmt.Sprintf("%d", *e.Capacity)
		}
		rows = append(rows, []any{
			e.ID.String(), e.Name, e.Date.Format(time.RFC3339), e.Location,
			capacity, len(e.RSVPs),
		})
	}

	if err := h.sheets.Sync(c.Context(), "Events", headers, rows); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Event data sync to Google Sheets initiated."})
}
