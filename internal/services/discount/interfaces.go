package discount

import (
	"context"
	"time"

	"qrpay/internal/models"

	"github.com/shopspring/decimal"
)

// Service computes bank-offer discounts and records redemptions against
// the per-offer claim cap.
type Service interface {
	// ComputeForSession validates that the offer is eligible now and
	// approved for the brand, then returns the discount for the amount.
	ComputeForSession(ctx context.Context, offerID, brandID uint, amount decimal.Decimal, now time.Time) (*models.BankOffer, decimal.Decimal, error)

	// RecordRedemption writes the immutable redemption row and claims one
	// slot of the offer's cap. Idempotent per session code: a replay for
	// the same session is a no-op.
	RecordRedemption(ctx context.Context, in RedemptionInput) error

	// ListEligible returns offers usable at the brand right now,
	// optionally filtered to those matching the card BIN.
	ListEligible(ctx context.Context, brandID uint, bin string, now time.Time) ([]models.BankOffer, error)

	// LookupCard resolves a BIN to its card type, bank, and network.
	LookupCard(ctx context.Context, bin string) (*CardLookup, error)
}

// RedemptionInput identifies one use of an offer.
type RedemptionInput struct {
	OfferID         uint
	UserID          uint
	BranchID        uint
	SessionCode     string
	OriginalAmount  decimal.Decimal
	DiscountApplied decimal.Decimal
}

// CardLookup is the result of resolving a BIN.
type CardLookup struct {
	Found           bool             `json:"found"`
	CardType        *models.CardType `json:"card_type,omitempty"`
	Bank            *models.Bank     `json:"bank,omitempty"`
	DetectedNetwork string           `json:"detected_network"`
}
