package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foty/internal/models"
)

// DonationStore persists the donation ledger.
type DonationStore struct {
	db *gorm.DB
}

// NewDonationStore wraps the shared database handle.
func NewDonationStore(db *gorm.DB) *DonationStore {
	return &DonationStore{db: db}
}

// Create inserts a new ledger row.
func (s *DonationStore) Create(ctx context.Context, d *models.Donation) error {
	return s.db.WithContext(ctx).Create(d).Error
}

// FindByCheckoutRequestID looks up a donation by its correlation key. Returns
// (nil, nil) when no row matches.
func (s *DonationStore) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Donation, error) {
	var d models.Donation
	err := s.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// CompleteIfPending transitions a donation to COMPLETED, overwriting the
// amount with the provider-confirmed value and recording the receipt. The
// status check is part of the UPDATE itself so that redelivered callbacks
// racing each other cannot both apply a transition; the return value reports
// whether this call performed it.
func (s *DonationStore) CompleteIfPending(ctx context.Context, checkoutRequestID string, amount int, receipt string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, models.DonationPending).
		Updates(map[string]any{
			"status":        models.DonationCompleted,
			"amount":        amount,
			"mpesa_receipt": receipt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FailIfPending transitions a donation to FAILED, storing the provider's
// failure description. Same conditional-update contract as CompleteIfPending.
func (s *DonationStore) FailIfPending(ctx context.Context, checkoutRequestID, reason string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, models.DonationPending).
		Updates(map[string]any{
			"status":        models.DonationFailed,
			"mpesa_receipt": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListCompletedByUser returns a donor's successful donations, newest first.
func (s *DonationStore) ListCompletedByUser(ctx context.Context, userID uuid.UUID) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.DonationCompleted).
		Order("created_at desc").
		Find(&donations).Error
	return donations, err
}
