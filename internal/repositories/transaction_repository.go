package repositories

import (
	"context"

	"qrpay/internal/models"
)

// TransactionRepository persists the payment ledger. Creation is an
// idempotent upsert keyed by reference so a replayed webhook can never
// produce a second row.
type TransactionRepository interface {
	// CreateIfAbsent inserts the transaction unless one with the same
	// reference already exists. Returns true when this call created the
	// row.
	CreateIfAbsent(ctx context.Context, tx *models.PaymentTransaction) (bool, error)

	GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error)
	GetByGatewayTransactionID(ctx context.Context, gateway, externalID string) (*models.PaymentTransaction, error)

	// ConditionalUpdate applies updates while the transaction's status is
	// one of fromStatuses. Returns false when the guard did not match.
	ConditionalUpdate(ctx context.Context, reference string, fromStatuses []string, updates map[string]interface{}) (bool, error)

	// UpdateByReference applies updates unconditionally (refund bookkeeping).
	UpdateByReference(ctx context.Context, reference string, updates map[string]interface{}) error

	CountBySession(ctx context.Context, sessionID uint, status string) (int64, error)
}
