package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/example/foty/internal/models"
)

// Badge names referenced outside the donation rule set.
const (
	BadgeNewMember     = "New Member"
	BadgeFirstDonation = "First Donation"
	BadgeBigSpender    = "Big Spender"
	BadgeEventGoer     = "Event Goer"
)

// BigSpenderThreshold is the cumulative completed-donation total, in KES,
// that earns the Big Spender badge.
const BigSpenderThreshold = 5000

// BadgeCatalog looks up catalog badges and records grants.
type BadgeCatalog interface {
	FindByName(ctx context.Context, name string) (*models.Badge, error)
	Grant(ctx context.Context, userID, badgeID uuid.UUID) (bool, error)
}

// CompletedDonationLister provides a donor's settled donation history.
type CompletedDonationLister interface {
	ListCompletedByUser(ctx context.Context, userID uuid.UUID) ([]models.Donation, error)
}

// DonorStats aggregates a donor's COMPLETED donations.
type DonorStats struct {
	Count int
	Total int
}

// donationBadgeRule maps a badge to the donation history that earns it. The
// rule set is data: adding a badge means appending a row here, not new
// branching in the evaluator.
type donationBadgeRule struct {
	BadgeName string
	Qualifies func(stats DonorStats) bool
}

var donationBadgeRules = []donationBadgeRule{
	{
		BadgeName: BadgeFirstDonation,
		Qualifies: func(stats DonorStats) bool { return stats.Count >= 1 },
	},
	{
		BadgeName: BadgeBigSpender,
		Qualifies: func(stats DonorStats) bool { return stats.Total >= BigSpenderThreshold },
	},
}

// BadgeService evaluates and grants achievement badges.
type BadgeService struct {
	catalog   BadgeCatalog
	donations CompletedDonationLister
}

// NewBadgeService wires the evaluator.
func NewBadgeService(catalog BadgeCatalog, donations CompletedDonationLister) *BadgeService {
	return &BadgeService{catalog: catalog, donations: donations}
}

// EvaluateDonationBadges runs every donation rule against the donor's
// COMPLETED history. Each rule is independently idempotent: grants are
// absorbed by the (user, badge) unique constraint, so re-running the
// evaluation is a no-op for badges already held.
func (s *BadgeService) EvaluateDonationBadges(ctx context.Context, userID uuid.UUID) error {
	donations, err := s.donations.ListCompletedByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load donation history: %w", err)
	}

	stats := DonorStats{Count: len(donations)}
	for _, d := range donations {
		stats.Total += d.Amount
	}

	for _, rule := range donationBadgeRules {
		if !rule.Qualifies(stats) {
			continue
		}
		if err := s.GrantByName(ctx, userID, rule.BadgeName); err != nil {
			// A failed grant must not block the remaining rules.
			log.Printf("[Badges] grant %q failed for user %s: %v", rule.BadgeName, userID, err)
		}
	}

	return nil
}

// GrantByName awards a named catalog badge to a user. Granting a badge the
// user already holds is a silent no-op.
func (s *BadgeService) GrantByName(ctx context.Context, userID uuid.UUID, name string) error {
	badge, err := s.catalog.FindByName(ctx, name)
	if err != nil {
		return fmt.Errorf("look up badge %q: %w", name, err)
	}
	if badge == nil {
		log.Printf("[Badges] badge %q not in catalog, skipping", name)
		return nil
	}

	granted, err := s.catalog.Grant(ctx, userID, badge.ID)
	if err != nil {
		return fmt.Errorf("grant badge %q: %w", name, err)
	}
	if granted {
		log.Printf("[Badges] awarded %q to user %s", name, userID)
	}
	return nil
}
