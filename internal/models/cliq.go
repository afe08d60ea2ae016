package models

import "gorm.io/gorm"

// CliQ request statuses as tracked locally.
const (
	CliqRequestStatusPending   = "pending"
	CliqRequestStatusAccepted  = "accepted"
	CliqRequestStatusDeclined  = "declined"
	CliqRequestStatusExpired   = "expired"
	CliqRequestStatusCompleted = "completed"
)

// CliqPaymentRequest is the bank-transfer sub-resource of a session.
// At most one request is active per session while the CliQ rail is the
// chosen payment method.
type CliqPaymentRequest struct {
	gorm.Model
	RequestID  string `gorm:"uniqueIndex;not null"`
	SessionID  uint   `gorm:"not null;index"`
	SenderBank string
	Status     string `gorm:"not null;default:'pending'"`
	RawPayload JSON   `gorm:"type:jsonb"`
}
