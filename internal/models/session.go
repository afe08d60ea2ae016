package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Session statuses. Transitions are enforced by the session service; the
// database only ever sees conditional updates keyed on the current status.
const (
	SessionStatusPending    = "pending"
	SessionStatusScanned    = "scanned"
	SessionStatusProcessing = "processing"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
	SessionStatusExpired    = "expired"
	SessionStatusCancelled  = "cancelled"
)

// IsTerminalSessionStatus reports whether a status admits no further
// user-driven transition (the failed/expired retry edge is handled
// separately by the session service).
func IsTerminalSessionStatus(status string) bool {
	switch status {
	case SessionStatusCompleted, SessionStatusCancelled, SessionStatusExpired:
		return true
	}
	return false
}

// QrPaymentSession is one merchant-issued, time-boxed payment intent.
// Rows are never physically deleted; terminal sessions stay for audit.
type QrPaymentSession struct {
	gorm.Model
	SessionCode string `gorm:"uniqueIndex;not null"`

	BrandID     uint `gorm:"not null;index"`
	BranchID    uint `gorm:"not null;index"`
	CreatedByID uint `gorm:"not null"`

	CustomerID *uint `gorm:"index"`

	OriginalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency       string          `gorm:"size:3;not null;default:'JOD'"`
	Description    string

	BankOfferID *uint `gorm:"index"`

	Gateway              string
	GatewayTransactionID string `gorm:"index"`
	PaymentMethod        string

	Status  string `gorm:"not null;default:'pending';index"`
	Version int    `gorm:"not null;default:0"`

	// Set when a webhook completes a session that had already expired.
	// The money moved, so the ledger records it, but the session is held
	// for manual reconciliation instead of being silently reopened.
	FlaggedForReview bool `gorm:"not null;default:false"`
	FlagReason       string

	ScannedAt   *time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
	CompletedAt *time.Time
}

// IsExpired reports whether the session is past its expiry instant.
func (s *QrPaymentSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
