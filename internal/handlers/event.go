package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foty/internal/middleware"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/services"
)

// EventHandler serves community events and RSVPs.
type EventHandler struct {
	db     *gorm.DB
	badges *services.BadgeService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(db *gorm.DB, badges *services.BadgeService) *EventHandler {
	return &EventHandler{db: db, badges: badges}
}

type eventResponse struct {
	models.Event
	RSVPCount    int  `json:"rsvp_count"`
	UserHasRSVPd bool `json:"user_has_rsvpd"`
}

func buildEventResponse(event models.Event, callerID *uuid.UUID) eventResponse {
	resp := eventResponse{Event: event, RSVPCount: len(event.RSVPs)}
	if callerID != nil {
		for _, rsvp := range event.RSVPs {
			if rsvp.UserID == *callerID {
				resp.UserHasRSVPd = true
				break
			}
		}
	}
	resp.RSVPs = nil
	return resp
}

// ListEvents returns upcoming events with attendance counts. When the caller
// is authenticated, each event also reports whether they have RSVPd.
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	var callerID *uuid.UUID
	if id, ok := middleware.GetCurrentUserID(c); ok {
		callerID = &id
	}

	var events []models.Event
	if err := h.db.
		Preload("RSVPs").
		Where("date >= ?", time.Now()).
		Order("date asc").
		Find(&events).Error; err != nil {
		return err
	}

	data := make([]eventResponse, 0, len(events))
	for _, event := range events {
		data = append(data, buildEventResponse(event, callerID))
	}

	return c.JSON(fiber.Map{
		"message": "Events fetched successfully",
		"count":   len(data),
		"data":    data,
	})
}

// GetEvent returns a single event with attendance details.
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}

	var callerID *uuid.UUID
	if uid, ok := middleware.GetCurrentUserID(c); ok {
		callerID = &uid
	}

	var event models.Event
	if err := h.db.Preload("RSVPs").First(&event, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "event not found")
	}

	return c.JSON(fiber.Map{
		"message": "Event fetched successfully",
		"data":    buildEventResponse(event, callerID),
	})
}

// RSVP reserves the caller a place at an event. The first RSVP earns the
// Event Goer badge.
func (h *EventHandler) RSVP(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}
	userID, _ := middleware.GetCurrentUserID(c)

	var event models.Event
	if err := h.db.First(&event, "id = ?", eventID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "event not found")
	}

	if event.Capacity != nil {
		var count int64
		if err := h.db.Model(&models.EventRSVP{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(*event.Capacity) {
			return fiber.NewError(fiber.StatusBadRequest, "event is already full")
		}
	}

	var existing models.EventRSVP
	err = h.db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "already RSVPd for this event")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	rsvp := models.EventRSVP{UserID: userID, EventID: eventID}
	if err := h.db.Create(&rsvp).Error; err != nil {
		return err
	}

	if err := h.badges.GrantByName(c.Context(), userID, services.BadgeEventGoer); err != nil {
		log.Printf("[Badges] event goer grant failed for %s: %v", userID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "RSVP successful"})
}

// CancelRSVP withdraws the caller's RSVP.
func (h *EventHandler) CancelRSVP(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}
	userID, _ := middleware.GetCurrentUserID(c)

	res := h.db.Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&models.EventRSVP{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "RSVP not found")
	}

	return c.JSON(fiber.Map{"message": "RSVP cancelled successfully"})
}
