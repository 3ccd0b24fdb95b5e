package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/foty/internal/middleware"
	"github.com/example/foty/internal/services"
)

// DonationHandler exposes the donation endpoints: STK push initiation, the
// M-Pesa callback and the donor's history.
type DonationHandler struct {
	donations *services.DonationService
}

// NewDonationHandler constructs a DonationHandler.
func NewDonationHandler(donations *services.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

type initiateDonationRequest struct {
	Amount int    `json:"amount"`
	Phone  string `json:"phone"`
}

// InitiateSTKPush starts a push payment on the donor's phone. Donations may be
// anonymous, so auth is optional.
func (h *DonationHandler) InitiateSTKPush(c *fiber.Ctx) error {
	var req initiateDonationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var userID *uuid.UUID
	if id, ok := middleware.GetCurrentUserID(c); ok {
		userID = &id
	}

	result, err := h.donations.Initiate(c.Context(), req.Amount, req.Phone, userID)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return fiber.NewError(fiber.StatusBadRequest, validationErr.Message)
		}
		// Gateway detail is logged server-side only; the donor gets a generic
		// failure.
		log.Printf("[M-Pesa] initiation failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "donation could not be initiated, please try again later")
	}

	return c.JSON(fiber.Map{
		"message": "STK Push initiated. Please check your phone to complete the payment.",
		"data":    result,
	})
}

// Callback receives the provider's asynchronous payment result. The response
// is always a success acknowledgment: signalling failure would make M-Pesa
// redeliver against an outcome this service has already decided it cannot act
// on further.
func (h *DonationHandler) Callback(c *fiber.Ctx) error {
	ack := fiber.Map{"ResultCode": 0, "ResultDesc": "Callback received successfully"}

	var payload services.MpesaCallbackPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("[M-Pesa] unparseable callback body: %v", err)
		return c.JSON(ack)
	}

	if err := h.donations.HandleCallback(c.Context(), payload); err != nil {
		log.Printf("[M-Pesa] callback processing failed: %v", err)
	}

	return c.JSON(ack)
}

// ListUserDonations returns the authenticated donor's COMPLETED donations,
// newest first.
func (h *DonationHandler) ListUserDonations(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authorized")
	}

	donations, err := h.donations.ListUserDonations(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Donations fetched successfully",
		"count":   len(donations),
		"data":    donations,
	})
}
