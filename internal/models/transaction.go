package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction statuses. A superset of the session states: the ledger also
// tracks refunds, which never reopen the originating session.
const (
	TransactionStatusPending           = "pending"
	TransactionStatusProcessing        = "processing"
	TransactionStatusAuthorized        = "authorized"
	TransactionStatusCompleted         = "completed"
	TransactionStatusFailed            = "failed"
	TransactionStatusCancelled         = "cancelled"
	TransactionStatusVoided            = "voided"
	TransactionStatusRefunded          = "refunded"
	TransactionStatusPartiallyRefunded = "partially_refunded"
)

// Payment methods accepted at the point of sale.
const (
	PaymentMethodCard = "card"
	PaymentMethodCliq = "cliq"
)

// PaymentTransaction is the durable ledger record of a settled (or
// attempted) charge. It is created once by the reconciler and survives
// deletion of the session that produced it, so refunds and voids remain
// possible after the session is gone.
type PaymentTransaction struct {
	gorm.Model
	Reference string `gorm:"uniqueIndex;not null"`
	SessionID *uint  `gorm:"index"`

	OriginalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency       string          `gorm:"size:3;not null;default:'JOD'"`

	PaymentMethod        string `gorm:"not null"`
	Gateway              string `gorm:"not null"`
	GatewayTransactionID string `gorm:"index"`

	// Display-only card data. The full PAN never reaches this table.
	CardLastFour string `gorm:"size:4"`
	CardBrand    string

	Status        string `gorm:"not null;default:'pending';index"`
	FailureReason string

	BankOfferID *uint `gorm:"index"`

	RefundedAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	RefundedAt     *time.Time
	CompletedAt    *time.Time
}
