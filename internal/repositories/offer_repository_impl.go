package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/models"

	"gorm.io/gorm"
)

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) GetByID(ctx context.Context, offerID uint) (*models.BankOffer, error) {
	var offer models.BankOffer
	err := r.db.WithContext(ctx).Preload("Bank").First(&offer, offerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &offer, nil
}

func (r *offerRepository) IsApprovedForBrand(ctx context.Context, offerID, brandID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BankOfferBrand{}).
		Where("bank_offer_id = ? AND brand_id = ? AND status = ?",
			offerID, brandID, models.OfferBrandStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check offer approval: %w", err)
	}
	return count > 0, nil
}

func (r *offerRepository) ListApprovedForBrand(ctx context.Context, brandID uint) ([]models.BankOffer, error) {
	var offers []models.BankOffer
	err := r.db.WithContext(ctx).
		Preload("Bank").
		Joins("JOIN bank_offer_brands ON bank_offer_brands.bank_offer_id = bank_offers.id").
		Where("bank_offer_brands.brand_id = ? AND bank_offer_brands.status = ? AND bank_offers.status = ?",
			brandID, models.OfferBrandStatusApproved, models.OfferStatusActive).
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) RecordRedemption(ctx context.Context, redemption *models.OfferRedemption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The cap check and the increment are one statement, so two
		// redemptions racing for the last claim cannot both pass.
		res := tx.Model(&models.BankOffer{}).
			Where("id = ? AND status = ? AND (max_claims IS NULL OR total_claims < max_claims)",
				redemption.BankOfferID, models.OfferStatusActive).
			Update("total_claims", gorm.Expr("total_claims + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to increment claims: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrOfferExhausted
		}
		if err := tx.Create(redemption).Error; err != nil {
			return fmt.Errorf("failed to insert redemption: %w", err)
		}
		return nil
	})
}

func (r *offerRepository) HasRedemptionForSession(ctx context.Context, offerID uint, sessionCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OfferRedemption{}).
		Where("bank_offer_id = ? AND session_code = ?", offerID, sessionCode).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check redemption: %w", err)
	}
	return count > 0, nil
}

func (r *offerRepository) ListActiveCardTypes(ctx context.Context) ([]models.CardType, error) {
	var cardTypes []models.CardType
	err := r.db.WithContext(ctx).
		Preload("Bank").
		Where("status = ?", "active").
		Find(&cardTypes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list card types: %w", err)
	}
	return cardTypes, nil
}
