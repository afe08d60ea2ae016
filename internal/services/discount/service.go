package discount

import (
	"context"
	"errors"
	"time"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/models"
	"qrpay/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	offers repositories.OfferRepository
	logger *zap.Logger
}

func NewService(offers repositories.OfferRepository, logger *zap.Logger) Service {
	return &service{offers: offers, logger: logger}
}

func (s *service) ComputeForSession(ctx context.Context, offerID, brandID uint, amount decimal.Decimal, now time.Time) (*models.BankOffer, decimal.Decimal, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !IsEligible(offer, now) {
		return nil, decimal.Zero, apperrors.ErrOfferNotEligible
	}

	approved, err := s.offers.IsApprovedForBrand(ctx, offerID, brandID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !approved {
		return nil, decimal.Zero, apperrors.Validation("bank offer is not approved for this brand")
	}

	return offer, ComputeDiscount(offer, amount), nil
}

func (s *service) RecordRedemption(ctx context.Context, in RedemptionInput) error {
	// Replay guard: the reconciler calls this once per completed webhook
	// delivery; duplicates for the same session must not burn claims.
	if in.SessionCode != "" {
		exists, err := s.offers.HasRedemptionForSession(ctx, in.OfferID, in.SessionCode)
		if err != nil {
			return err
		}
		if exists {
			s.logger.Debug("redemption already recorded",
				zap.Uint("offer_id", in.OfferID),
				zap.String("session_code", in.SessionCode))
			return nil
		}
	}

	err := s.offers.RecordRedemption(ctx, &models.OfferRedemption{
		BankOfferID:     in.OfferID,
		UserID:          in.UserID,
		BranchID:        in.BranchID,
		SessionCode:     in.SessionCode,
		OriginalAmount:  in.OriginalAmount,
		DiscountApplied: in.DiscountApplied,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrOfferExhausted) {
			s.logger.Warn("offer cap reached at redemption time",
				zap.Uint("offer_id", in.OfferID),
				zap.String("session_code", in.SessionCode))
		}
		return err
	}
	return nil
}

func (s *service) ListEligible(ctx context.Context, brandID uint, bin string, now time.Time) ([]models.BankOffer, error) {
	offers, err := s.offers.ListApprovedForBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	var card *models.CardType
	if bin != "" {
		normalized, err := NormalizeBIN(bin)
		if err != nil {
			return nil, err
		}
		cardTypes, err := s.offers.ListActiveCardTypes(ctx)
		if err != nil {
			return nil, err
		}
		card = FindCardType(cardTypes, normalized)
	}

	eligible := make([]models.BankOffer, 0, len(offers))
	for _, offer := range offers {
		if !IsEligible(&offer, now) {
			continue
		}
		// Offers pinned to a card type only apply to that card; offers
		// pinned to a bank apply to any of the bank's cards.
		if bin != "" {
			if card == nil {
				continue
			}
			if offer.CardTypeID != nil && *offer.CardTypeID != card.ID {
				continue
			}
			if offer.CardTypeID == nil && offer.BankID != card.BankID {
				continue
			}
		}
		eligible = append(eligible, offer)
	}
	return eligible, nil
}

func (s *service) LookupCard(ctx context.Context, bin string) (*CardLookup, error) {
	normalized, err := NormalizeBIN(bin)
	if err != nil {
		return nil, err
	}

	lookup := &CardLookup{DetectedNetwork: DetectNetwork(normalized)}

	cardTypes, err := s.offers.ListActiveCardTypes(ctx)
	if err != nil {
		return nil, err
	}
	if card := FindCardType(cardTypes, normalized); card != nil {
		lookup.Found = true
		lookup.CardType = card
		lookup.Bank = &card.Bank
	}
	return lookup, nil
}
