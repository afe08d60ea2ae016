package repositories

import (
	"context"

	"qrpay/internal/models"
)

// OfferRepository persists bank offers, their brand approvals, card types
// and redemptions. RecordRedemption is the only writer of total_claims and
// performs the cap check atomically with the increment.
type OfferRepository interface {
	GetByID(ctx context.Context, offerID uint) (*models.BankOffer, error)

	// IsApprovedForBrand reports whether the offer has an approved
	// BankOfferBrand row for the given brand.
	IsApprovedForBrand(ctx context.Context, offerID, brandID uint) (bool, error)

	// ListApprovedForBrand returns active offers approved for the brand.
	ListApprovedForBrand(ctx context.Context, brandID uint) ([]models.BankOffer, error)

	// RecordRedemption inserts the redemption row and increments the
	// offer's total_claims in one transaction. The increment is guarded
	// by the claim cap; when the cap is already reached nothing is
	// written and ErrOfferExhausted is returned.
	RecordRedemption(ctx context.Context, redemption *models.OfferRedemption) error

	// HasRedemptionForSession reports whether a redemption was already
	// recorded for the session code (webhook replay guard).
	HasRedemptionForSession(ctx context.Context, offerID uint, sessionCode string) (bool, error)

	ListActiveCardTypes(ctx context.Context) ([]models.CardType, error)
}
