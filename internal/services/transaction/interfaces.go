package transaction

import (
	"context"

	"qrpay/internal/models"

	"github.com/shopspring/decimal"
)

// Service exposes the ledger to merchants: lookups and refund initiation.
// Settlement writes stay with the reconciler.
type Service interface {
	GetByReference(ctx context.Context, actor models.Actor, reference string) (*models.PaymentTransaction, error)

	// Refund asks the originating rail to return amount (or the full
	// final amount when zero) to the customer. The ledger is finalized
	// by the rail's refunded webhook, not here.
	Refund(ctx context.Context, actor models.Actor, reference string, amount decimal.Decimal) (*models.PaymentTransaction, error)
}
