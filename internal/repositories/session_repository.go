package repositories

import (
	"context"
	"time"

	"qrpay/internal/models"
)

// SessionRepository persists QR payment sessions. Status transitions go
// through ConditionalUpdate so racing writers resolve deterministically:
// exactly one sees a row affected, the rest no-op.
type SessionRepository interface {
	Create(ctx context.Context, session *models.QrPaymentSession) error
	GetByCode(ctx context.Context, code string) (*models.QrPaymentSession, error)
	GetByGatewayTransactionID(ctx context.Context, gateway, externalID string) (*models.QrPaymentSession, error)

	// ConditionalUpdate applies updates to the session only while its
	// status is one of fromStatuses, bumping the optimistic version.
	// Returns false when the guard did not match (lost race or illegal
	// transition); the session is untouched in that case.
	ConditionalUpdate(ctx context.Context, sessionID uint, fromStatuses []string, updates map[string]interface{}) (bool, error)

	// SweepExpired marks every non-terminal session past its expiry as
	// expired and returns how many rows moved.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	ListByBranch(ctx context.Context, branchID uint, limit, offset int) ([]models.QrPaymentSession, int64, error)
}
