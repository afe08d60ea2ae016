package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/models"

	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.QrPaymentSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByCode(ctx context.Context, code string) (*models.QrPaymentSession, error) {
	var session models.QrPaymentSession
	err := r.db.WithContext(ctx).Where("session_code = ?", code).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) GetByGatewayTransactionID(ctx context.Context, gateway, externalID string) (*models.QrPaymentSession, error) {
	var session models.QrPaymentSession
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND gateway_transaction_id = ?", gateway, externalID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by gateway id: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) ConditionalUpdate(ctx context.Context, sessionID uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	updates["version"] = gorm.Expr("version + 1")
	res := r.db.WithContext(ctx).
		Model(&models.QrPaymentSession{}).
		Where("id = ? AND status IN ?", sessionID, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QrPaymentSession{}).
		Where("status IN ? AND expires_at < ?",
			[]string{
				models.SessionStatusPending,
				models.SessionStatusScanned,
				models.SessionStatusProcessing,
				models.SessionStatusFailed,
			}, now).
		Updates(map[string]interface{}{
			"status":  models.SessionStatusExpired,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepository) ListByBranch(ctx context.Context, branchID uint, limit, offset int) ([]models.QrPaymentSession, int64, error) {
	var sessions []models.QrPaymentSession
	var total int64

	q := r.db.WithContext(ctx).Model(&models.QrPaymentSession{}).Where("branch_id = ?", branchID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}
