package models

import "github.com/google/uuid"

// Donation statuses. PENDING is the only initial state; COMPLETED and FAILED
// are terminal and are never left once entered.
const (
	DonationPending   = "PENDING"
	DonationCompleted = "COMPLETED"
	DonationFailed    = "FAILED"
)

// Donation is one STK push attempt. Rows are append-only: a donation is
// created PENDING at initiation and mutated exactly once by the M-Pesa
// callback, never deleted.
type Donation struct {
	BaseModel
	Amount int    `json:"amount"`
	Phone  string `json:"phone"`
	// UserID is nil for anonymous/guest donations.
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Status string     `gorm:"default:PENDING" json:"status"`
	// CheckoutRequestID is issued by M-Pesa at initiation and correlates the
	// asynchronous callback with this row.
	CheckoutRequestID string `gorm:"uniqueIndex" json:"checkout_request_id"`
	// MpesaReceipt holds the receipt number when COMPLETED or the provider's
	// failure description when FAILED. Nil while PENDING.
	MpesaReceipt *string `json:"mpesa_receipt"`

	User *User `json:"user,omitempty"`
}
