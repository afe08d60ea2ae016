package repositories

import (
	"context"
	"errors"
	"fmt"

	"qrpay/internal/models"

	"gorm.io/gorm"
)

// CliqRequestRepository persists the bank-transfer rail's payment requests.
type CliqRequestRepository interface {
	Create(ctx context.Context, req *models.CliqPaymentRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*models.CliqPaymentRequest, error)
	UpdateStatus(ctx context.Context, requestID, status string, payload models.JSON) error
}

type cliqRequestRepository struct {
	db *gorm.DB
}

func NewCliqRequestRepository(db *gorm.DB) CliqRequestRepository {
	return &cliqRequestRepository{db: db}
}

func (r *cliqRequestRepository) Create(ctx context.Context, req *models.CliqPaymentRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create cliq request: %w", err)
	}
	return nil
}

func (r *cliqRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*models.CliqPaymentRequest, error) {
	var req models.CliqPaymentRequest
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliq request %s not found", requestID)
		}
		return nil, fmt.Errorf("failed to get cliq request: %w", err)
	}
	return &req, nil
}

func (r *cliqRequestRepository) UpdateStatus(ctx context.Context, requestID, status string, payload models.JSON) error {
	updates := map[string]interface{}{"status": status}
	if payload != nil {
		updates["raw_payload"] = payload
	}
	res := r.db.WithContext(ctx).
		Model(&models.CliqPaymentRequest{}).
		Where("request_id = ?", requestID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update cliq request: %w", res.Error)
	}
	return nil
}
