package discount

import (
	"testing"
	"time"

	"qrpay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name   string
		offer  models.BankOffer
		amount string
		want   string
	}{
		{
			name: "percentage capped by max discount",
			offer: models.BankOffer{
				Type:        models.OfferTypePercentage,
				Value:       dec("20"),
				MinPurchase: dec("10"),
				MaxDiscount: decPtr("8"),
			},
			amount: "50.00",
			want:   "8",
		},
		{
			name: "percentage under the cap",
			offer: models.BankOffer{
				Type:        models.OfferTypePercentage,
				Value:       dec("10"),
				MaxDiscount: decPtr("5"),
			},
			amount: "30.00",
			want:   "3",
		},
		{
			name: "below minimum purchase earns nothing",
			offer: models.BankOffer{
				Type:        models.OfferTypePercentage,
				Value:       dec("20"),
				MinPurchase: dec("10"),
			},
			amount: "9.99",
			want:   "0",
		},
		{
			name: "fixed discount",
			offer: models.BankOffer{
				Type:  models.OfferTypeFixed,
				Value: dec("2"),
			},
			amount: "15.00",
			want:   "2",
		},
		{
			name: "fixed discount never exceeds the amount",
			offer: models.BankOffer{
				Type:  models.OfferTypeFixed,
				Value: dec("5"),
			},
			amount: "3.00",
			want:   "3",
		},
		{
			name: "cashback behaves like percentage",
			offer: models.BankOffer{
				Type:  models.OfferTypeCashback,
				Value: dec("5"),
			},
			amount: "40.00",
			want:   "2",
		},
		{
			name: "percentage rounds to two minor units",
			offer: models.BankOffer{
				Type:  models.OfferTypePercentage,
				Value: dec("15"),
			},
			amount: "33.33",
			want:   "5",
		},
		{
			name: "unknown offer type earns nothing",
			offer: models.BankOffer{
				Type:  "mystery",
				Value: dec("20"),
			},
			amount: "100.00",
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(&tt.offer, dec(tt.amount))
			assert.True(t, got.Equal(dec(tt.want)), "want %s, got %s", tt.want, got)
		})
	}
}

func TestComputeDiscountRounding(t *testing.T) {
	offer := models.BankOffer{
		Type:  models.OfferTypePercentage,
		Value: dec("12.5"),
	}
	got := ComputeDiscount(&offer, dec("9.99"))
	// 9.99 * 12.5% = 1.24875, rounded half-up to 1.25
	assert.True(t, got.Equal(dec("1.25")), "got %s", got)
}

func TestIsEligible(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	cap := 100

	base := models.BankOffer{
		Status:    models.OfferStatusActive,
		StartDate: now.AddDate(0, 0, -7),
		EndDate:   now.AddDate(0, 0, 7),
	}

	t.Run("active inside window", func(t *testing.T) {
		offer := base
		assert.True(t, IsEligible(&offer, now))
	})

	t.Run("inactive", func(t *testing.T) {
		offer := base
		offer.Status = models.OfferStatusInactive
		assert.False(t, IsEligible(&offer, now))
	})

	t.Run("not started yet", func(t *testing.T) {
		offer := base
		offer.StartDate = now.Add(time.Hour)
		assert.False(t, IsEligible(&offer, now))
	})

	t.Run("already ended", func(t *testing.T) {
		offer := base
		offer.EndDate = now.Add(-time.Hour)
		assert.False(t, IsEligible(&offer, now))
	})

	t.Run("claim cap reached", func(t *testing.T) {
		offer := base
		offer.MaxClaims = &cap
		offer.TotalClaims = 100
		assert.False(t, IsEligible(&offer, now))
	})

	t.Run("claim cap not reached", func(t *testing.T) {
		offer := base
		offer.MaxClaims = &cap
		offer.TotalClaims = 99
		assert.True(t, IsEligible(&offer, now))
	})
}
