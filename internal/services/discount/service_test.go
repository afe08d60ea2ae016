package discount

import (
	"context"
	"testing"
	"time"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOfferRepo keeps offers, approvals and redemptions in memory with
// the same cap semantics as the SQL implementation.
type fakeOfferRepo struct {
	offers      map[uint]*models.BankOffer
	approvals   map[[2]uint]bool
	redemptions []*models.OfferRedemption
	cardTypes   []models.CardType
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{
		offers:    make(map[uint]*models.BankOffer),
		approvals: make(map[[2]uint]bool),
	}
}

func (r *fakeOfferRepo) GetByID(_ context.Context, offerID uint) (*models.BankOffer, error) {
	offer, ok := r.offers[offerID]
	if !ok {
		return nil, apperrors.ErrOfferNotFound
	}
	cp := *offer
	return &cp, nil
}

func (r *fakeOfferRepo) IsApprovedForBrand(_ context.Context, offerID, brandID uint) (bool, error) {
	return r.approvals[[2]uint{offerID, brandID}], nil
}

func (r *fakeOfferRepo) ListApprovedForBrand(_ context.Context, brandID uint) ([]models.BankOffer, error) {
	var out []models.BankOffer
	for id, offer := range r.offers {
		if r.approvals[[2]uint{id, brandID}] {
			out = append(out, *offer)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) RecordRedemption(_ context.Context, redemption *models.OfferRedemption) error {
	offer, ok := r.offers[redemption.BankOfferID]
	if !ok {
		return apperrors.ErrOfferNotFound
	}
	if offer.MaxClaims != nil && offer.TotalClaims >= *offer.MaxClaims {
		return apperrors.ErrOfferExhausted
	}
	offer.TotalClaims++
	r.redemptions = append(r.redemptions, redemption)
	return nil
}

func (r *fakeOfferRepo) HasRedemptionForSession(_ context.Context, offerID uint, sessionCode string) (bool, error) {
	for _, red := range r.redemptions {
		if red.BankOfferID == offerID && red.SessionCode == sessionCode {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOfferRepo) ListActiveCardTypes(_ context.Context) ([]models.CardType, error) {
	return r.cardTypes, nil
}

func (r *fakeOfferRepo) addOffer(id uint, offer models.BankOffer) {
	offer.ID = id
	r.offers[id] = &offer
}

func TestComputeForSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	maxDiscount := dec("8")

	newRepo := func() *fakeOfferRepo {
		repo := newFakeOfferRepo()
		repo.addOffer(7, models.BankOffer{
			Type:        models.OfferTypePercentage,
			Value:       dec("20"),
			MinPurchase: dec("10"),
			MaxDiscount: &maxDiscount,
			StartDate:   now.AddDate(0, 0, -1),
			EndDate:     now.AddDate(0, 1, 0),
			Status:      models.OfferStatusActive,
		})
		repo.approvals[[2]uint{7, 10}] = true
		return repo
	}

	t.Run("eligible approved offer computes the discount", func(t *testing.T) {
		svc := NewService(newRepo(), zap.NewNop())
		offer, discountAmount, err := svc.ComputeForSession(ctx, 7, 10, dec("50.00"), now)
		require.NoError(t, err)
		assert.Equal(t, uint(7), offer.ID)
		assert.True(t, discountAmount.Equal(dec("8")), "got %s", discountAmount)
	})

	t.Run("unknown offer", func(t *testing.T) {
		svc := NewService(newRepo(), zap.NewNop())
		_, _, err := svc.ComputeForSession(ctx, 99, 10, dec("50.00"), now)
		assert.ErrorIs(t, err, apperrors.ErrOfferNotFound)
	})

	t.Run("expired offer is not eligible", func(t *testing.T) {
		repo := newRepo()
		repo.offers[7].EndDate = now.Add(-time.Hour)
		svc := NewService(repo, zap.NewNop())
		_, _, err := svc.ComputeForSession(ctx, 7, 10, dec("50.00"), now)
		assert.ErrorIs(t, err, apperrors.ErrOfferNotEligible)
	})

	t.Run("unapproved brand is rejected", func(t *testing.T) {
		svc := NewService(newRepo(), zap.NewNop())
		_, _, err := svc.ComputeForSession(ctx, 7, 55, dec("50.00"), now)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Kind(err))
	})
}

func TestRecordRedemption(t *testing.T) {
	ctx := context.Background()

	input := RedemptionInput{
		OfferID:         7,
		UserID:          2,
		BranchID:        100,
		SessionCode:     "QRP-TEST00001",
		OriginalAmount:  dec("50.00"),
		DiscountApplied: dec("8.00"),
	}

	t.Run("replay for the same session burns one claim", func(t *testing.T) {
		repo := newFakeOfferRepo()
		repo.addOffer(7, models.BankOffer{Status: models.OfferStatusActive})
		svc := NewService(repo, zap.NewNop())

		for i := 0; i < 3; i++ {
			require.NoError(t, svc.RecordRedemption(ctx, input))
		}
		assert.Len(t, repo.redemptions, 1)
		assert.Equal(t, 1, repo.offers[7].TotalClaims)
	})

	t.Run("different sessions burn separate claims", func(t *testing.T) {
		repo := newFakeOfferRepo()
		repo.addOffer(7, models.BankOffer{Status: models.OfferStatusActive})
		svc := NewService(repo, zap.NewNop())

		require.NoError(t, svc.RecordRedemption(ctx, input))
		second := input
		second.SessionCode = "QRP-TEST00002"
		require.NoError(t, svc.RecordRedemption(ctx, second))
		assert.Equal(t, 2, repo.offers[7].TotalClaims)
	})

	t.Run("cap exhaustion surfaces", func(t *testing.T) {
		repo := newFakeOfferRepo()
		maxClaims := 1
		repo.addOffer(7, models.BankOffer{Status: models.OfferStatusActive, MaxClaims: &maxClaims, TotalClaims: 1})
		svc := NewService(repo, zap.NewNop())

		err := svc.RecordRedemption(ctx, input)
		assert.ErrorIs(t, err, apperrors.ErrOfferExhausted)
	})
}

func TestListEligible(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	setup := func() *fakeOfferRepo {
		repo := newFakeOfferRepo()

		platinumID := uint(31)
		repo.cardTypes = []models.CardType{
			{Bank: models.Bank{Name: "Ahli"}, BankID: 1, Name: "Ahli Platinum", Network: models.NetworkVisa,
				Prefixes: prefixes("411111")},
			{Bank: models.Bank{Name: "Arab"}, BankID: 2, Name: "Arab World", Network: models.NetworkMastercard,
				Prefixes: prefixes("510510")},
		}
		repo.cardTypes[0].ID = platinumID
		repo.cardTypes[1].ID = 32

		window := models.BankOffer{
			Status:    models.OfferStatusActive,
			StartDate: now.AddDate(0, 0, -1),
			EndDate:   now.AddDate(0, 1, 0),
		}

		cardPinned := window
		cardPinned.BankID = 1
		cardPinned.CardTypeID = &platinumID
		repo.addOffer(1, cardPinned)

		bankWide := window
		bankWide.BankID = 1
		repo.addOffer(2, bankWide)

		otherBank := window
		otherBank.BankID = 2
		repo.addOffer(3, otherBank)

		expired := window
		expired.BankID = 1
		expired.EndDate = now.Add(-time.Hour)
		repo.addOffer(4, expired)

		for id := uint(1); id <= 4; id++ {
			repo.approvals[[2]uint{id, 10}] = true
		}
		return repo
	}

	t.Run("without a BIN all live approved offers list", func(t *testing.T) {
		svc := NewService(setup(), zap.NewNop())
		offers, err := svc.ListEligible(ctx, 10, "", now)
		require.NoError(t, err)
		assert.Len(t, offers, 3)
	})

	t.Run("a BIN filters to the card's bank and product", func(t *testing.T) {
		svc := NewService(setup(), zap.NewNop())
		offers, err := svc.ListEligible(ctx, 10, "4111111111111111", now)
		require.NoError(t, err)
		require.Len(t, offers, 2)
		for _, offer := range offers {
			assert.Equal(t, uint(1), offer.BankID)
		}
	})

	t.Run("unknown BIN matches nothing", func(t *testing.T) {
		svc := NewService(setup(), zap.NewNop())
		offers, err := svc.ListEligible(ctx, 10, "999999", now)
		require.NoError(t, err)
		assert.Empty(t, offers)
	})

	t.Run("malformed BIN is a validation error", func(t *testing.T) {
		svc := NewService(setup(), zap.NewNop())
		_, err := svc.ListEligible(ctx, 10, "12", now)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Kind(err))
	})

	t.Run("unapproved brand sees nothing", func(t *testing.T) {
		svc := NewService(setup(), zap.NewNop())
		offers, err := svc.ListEligible(ctx, 999, "", now)
		require.NoError(t, err)
		assert.Empty(t, offers)
	})
}

func TestLookupCard(t *testing.T) {
	ctx := context.Background()

	repo := newFakeOfferRepo()
	repo.cardTypes = []models.CardType{
		{Bank: models.Bank{Name: "Ahli"}, BankID: 1, Name: "Ahli Platinum", Network: models.NetworkVisa,
			Prefixes: prefixes("411111")},
	}
	svc := NewService(repo, zap.NewNop())

	t.Run("known BIN resolves the card and bank", func(t *testing.T) {
		lookup, err := svc.LookupCard(ctx, "4111 1111 1111 1111")
		require.NoError(t, err)
		assert.True(t, lookup.Found)
		assert.Equal(t, "Ahli Platinum", lookup.CardType.Name)
		assert.Equal(t, "Ahli", lookup.Bank.Name)
		assert.Equal(t, models.NetworkVisa, lookup.DetectedNetwork)
	})

	t.Run("unknown BIN still detects the network", func(t *testing.T) {
		lookup, err := svc.LookupCard(ctx, "510510")
		require.NoError(t, err)
		assert.False(t, lookup.Found)
		assert.Nil(t, lookup.CardType)
		assert.Equal(t, models.NetworkMastercard, lookup.DetectedNetwork)
	})

	t.Run("short input", func(t *testing.T) {
		_, err := svc.LookupCard(ctx, "41")
		assert.Error(t, err)
	})
}
