package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/example/foty/internal/models"
)

const (
	donationAccountReference = "FOTY_Donation"
	donationDescription      = "Donation to Friends of the Youth"
)

// ValidationError reports bad donor input. Surfaced to the caller as a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PaymentInitiationError wraps a gateway failure during initiation. Not
// retryable from the handler's perspective: resubmitting risks a double
// charge.
type PaymentInitiationError struct {
	Err error
}

func (e *PaymentInitiationError) Error() string {
	return fmt.Sprintf("payment initiation failed: %v", e.Err)
}

func (e *PaymentInitiationError) Unwrap() error { return e.Err }

// DonationStore is the ledger the service reads and transitions.
type DonationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Donation, error)
	CompleteIfPending(ctx context.Context, checkoutRequestID string, amount int, receipt string) (bool, error)
	FailIfPending(ctx context.Context, checkoutRequestID, reason string) (bool, error)
	ListCompletedByUser(ctx context.Context, userID uuid.UUID) ([]models.Donation, error)
}

// PaymentGateway submits push payments to the provider.
type PaymentGateway interface {
	STKPush(ctx context.Context, amount int, phone, accountRef, description string) (*STKPushResult, error)
}

// BadgeAwarder runs badge evaluation after a completed donation.
type BadgeAwarder interface {
	EvaluateDonationBadges(ctx context.Context, userID uuid.UUID) error
}

// DonationNotifier is told about completed donations. Delivery failures are
// logged only; they never affect the donation itself.
type DonationNotifier interface {
	NotifyDonationCompleted(donation *models.Donation) error
}

// DonationService drives the donation reconciliation flow: initiation against
// the gateway and callback-driven settlement of the ledger.
type DonationService struct {
	store    DonationStore
	gateway  PaymentGateway
	badges   BadgeAwarder
	notifier DonationNotifier
}

// NewDonationService wires the service. notifier may be nil when no admin
// notification channel is configured.
func NewDonationService(store DonationStore, gateway PaymentGateway, badges BadgeAwarder, notifier DonationNotifier) *DonationService {
	return &DonationService{
		store:    store,
		gateway:  gateway,
		badges:   badges,
		notifier: notifier,
	}
}

// NormalizePhone validates a Safaricom number and converts it to the
// international 2547XXXXXXXX form. Accepted inputs are local 07XXXXXXXX and
// already-international 2547XXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)

	switch {
	case len(phone) == 10 && strings.HasPrefix(phone, "07") && allDigits(phone):
		return "254" + phone[1:], nil
	case len(phone) == 12 && strings.HasPrefix(phone, "2547") && allDigits(phone):
		return phone, nil
	default:
		return "", &ValidationError{Message: "invalid phone format, use 07XXXXXXXX or 2547XXXXXXXX"}
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Initiate validates the donor input, submits the STK push and records a
// PENDING ledger entry. Nothing is persisted when the gateway rejects the
// request, so failed initiations leave no orphan rows.
func (s *DonationService) Initiate(ctx context.Context, amount int, rawPhone string, userID *uuid.UUID) (*STKPushResult, error) {
	if amount <= 0 {
		return nil, &ValidationError{Message: "amount must be a positive number"}
	}
	if strings.TrimSpace(rawPhone) == "" {
		return nil, &ValidationError{Message: "phone number is required"}
	}

	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.STKPush(ctx, amount, phone, donationAccountReference, donationDescription)
	if err != nil {
		return nil, &PaymentInitiationError{Err: err}
	}

	donation := models.Donation{
		Amount:            amount,
		Phone:             phone,
		UserID:            userID,
		Status:            models.DonationPending,
		CheckoutRequestID: result.CheckoutRequestID,
	}

	if err := s.store.Create(ctx, &donation); err != nil {
		// The push already reached the provider and cannot be un-sent: money
		// may be requested from the donor with no local record. Flag for
		// manual reconciliation.
		log.Printf("[M-Pesa] ERROR: pending donation not persisted for CheckoutRequestID %s (amount %d, phone %s): %v",
			result.CheckoutRequestID, amount, phone, err)
		return nil, fmt.Errorf("persist pending donation: %w", err)
	}

	return result, nil
}

// MpesaCallbackPayload is the provider-defined callback envelope.
type MpesaCallbackPayload struct {
	Body struct {
		STKCallback *STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the inner callback record. ResultCode 0 is the provider's
// success sentinel.
type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// CallbackItem is one Name/Value pair from CallbackMetadata.
type CallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// HandleCallback settles a donation from the provider's asynchronous result.
// It is safe to invoke more than once for the same CheckoutRequestID: the
// ledger transition is conditional on the row still being PENDING, so a
// redelivered callback is a logged no-op. Malformed payloads and unknown
// correlation keys are dropped after logging; the HTTP layer acknowledges the
// provider regardless.
func (s *DonationService) HandleCallback(ctx context.Context, payload MpesaCallbackPayload) error {
	cb := payload.Body.STKCallback
	if cb == nil || cb.CheckoutRequestID == "" {
		log.Printf("[M-Pesa] invalid callback format, dropping")
		return nil
	}

	donation, err := s.store.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		return fmt.Errorf("look up donation %s: %w", cb.CheckoutRequestID, err)
	}
	if donation == nil {
		log.Printf("[M-Pesa] donation not found for CheckoutRequestID %s, dropping", cb.CheckoutRequestID)
		return nil
	}

	if cb.ResultCode != 0 {
		transitioned, err := s.store.FailIfPending(ctx, cb.CheckoutRequestID, cb.ResultDesc)
		if err != nil {
			return fmt.Errorf("mark donation %s failed: %w", cb.CheckoutRequestID, err)
		}
		if !transitioned {
			log.Printf("[M-Pesa] duplicate callback for %s ignored, donation already settled", cb.CheckoutRequestID)
			return nil
		}
		log.Printf("[M-Pesa] payment failed for %s: %s", cb.CheckoutRequestID, cb.ResultDesc)
		return nil
	}

	receipt, ok := metadataString(cb.CallbackMetadata.Item, "MpesaReceiptNumber")
	if !ok {
		log.Printf("[M-Pesa] success callback for %s missing receipt number, dropping", cb.CheckoutRequestID)
		return nil
	}

	// The provider is authoritative for the final charged amount; fall back to
	// the amount recorded at initiation only when the metadata omits it.
	amount := donation.Amount
	if confirmed, ok := metadataInt(cb.CallbackMetadata.Item, "Amount"); ok {
		amount = confirmed
	}

	transitioned, err := s.store.CompleteIfPending(ctx, cb.CheckoutRequestID, amount, receipt)
	if err != nil {
		return fmt.Errorf("mark donation %s completed: %w", cb.CheckoutRequestID, err)
	}
	if !transitioned {
		log.Printf("[M-Pesa] duplicate callback for %s ignored, donation already settled", cb.CheckoutRequestID)
		return nil
	}

	log.Printf("[M-Pesa] payment completed for %s, receipt %s", cb.CheckoutRequestID, receipt)

	if donation.UserID != nil {
		// Badge failures must never fail the settled donation.
		if err := s.badges.EvaluateDonationBadges(ctx, *donation.UserID); err != nil {
			log.Printf("[Badges] evaluation failed for user %s: %v", donation.UserID, err)
		}
	}

	if s.notifier != nil {
		settled := *donation
		settled.Status = models.DonationCompleted
		settled.Amount = amount
		settled.MpesaReceipt = &receipt
		go func() {
			if err := s.notifier.NotifyDonationCompleted(&settled); err != nil {
				log.Printf("[Mail] donation notification failed for %s: %v", settled.CheckoutRequestID, err)
			}
		}()
	}

	return nil
}

// ListUserDonations returns the donor's COMPLETED donations, newest first.
func (s *DonationService) ListUserDonations(ctx context.Context, userID uuid.UUID) ([]models.Donation, error) {
	return s.store.ListCompletedByUser(ctx, userID)
}

func metadataString(items []CallbackItem, name string) (string, bool) {
	for _, item := range items {
		if item.Name != name {
			continue
		}
		if v, ok := item.Value.(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func metadataInt(items []CallbackItem, name string) (int, bool) {
	for _, item := range items {
		if item.Name != name {
			continue
		}
		switch v := item.Value.(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}
