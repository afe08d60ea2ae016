package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) CreateIfAbsent(ctx context.Context, tx *models.PaymentTransaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).
		Create(tx)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) GetByGatewayTransactionID(ctx context.Context, gateway, externalID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND gateway_transaction_id = ?", gateway, externalID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by gateway id: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) ConditionalUpdate(ctx context.Context, reference string, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("reference = ? AND status IN ?", reference, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *transactionRepository) UpdateByReference(ctx context.Context, reference string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("reference = ?", reference).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) CountBySession(ctx context.Context, sessionID uint, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND status = ?", sessionID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
