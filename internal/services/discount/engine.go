package discount

import (
	"time"

	"qrpay/internal/models"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount the offer grants on amount, rounded
// to the currency's two minor units. Amounts below the offer's minimum
// purchase earn nothing; the result is clamped to the offer's cap and can
// never exceed the amount itself.
func ComputeDiscount(offer *models.BankOffer, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(offer.MinPurchase) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch offer.Type {
	case models.OfferTypePercentage, models.OfferTypeCashback:
		discount = amount.Mul(offer.Value).Div(oneHundred)
	case models.OfferTypeFixed:
		discount = offer.Value
	default:
		return decimal.Zero
	}

	if offer.MaxDiscount != nil && discount.GreaterThan(*offer.MaxDiscount) {
		discount = *offer.MaxDiscount
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}

// IsEligible reports whether the offer can be redeemed at instant now:
// active, inside its validity window, and under its claim cap. The cap
// check here is advisory; the authoritative check happens atomically in
// the repository increment.
func IsEligible(offer *models.BankOffer, now time.Time) bool {
	if offer.Status != models.OfferStatusActive {
		return false
	}
	if now.Before(offer.StartDate) || now.After(offer.EndDate) {
		return false
	}
	if offer.MaxClaims != nil && offer.TotalClaims >= *offer.MaxClaims {
		return false
	}
	return true
}
