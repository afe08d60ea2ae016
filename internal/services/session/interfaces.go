package session

import (
	"context"
	"time"

	"qrpay/internal/models"
)

// Service owns the QR payment session lifecycle. Every transition is a
// single conditional update guarded by the expected current status, so
// concurrent writers (scan, webhook, sweep) resolve deterministically:
// one wins, the rest observe zero rows and no-op or error.
type Service interface {
	Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.QrPaymentSession, error)
	Get(ctx context.Context, code string) (*models.QrPaymentSession, error)
	List(ctx context.Context, actor models.Actor, page, limit int) ([]models.QrPaymentSession, int64, error)

	// Scan attaches the customer to a pending session. Idempotent for the
	// same customer; a second, different customer gets a conflict.
	Scan(ctx context.Context, actor models.Actor, code string) (*models.QrPaymentSession, error)

	// ApplyDiscount recomputes the discounted amounts from a bank offer.
	// Legal only while scanned.
	ApplyDiscount(ctx context.Context, actor models.Actor, code string, offerID uint) (*models.QrPaymentSession, error)

	// BeginProcessing picks a rail, moves the session to processing and
	// initiates the external charge. A rail failure reverts the session
	// to scanned so another method can be tried.
	BeginProcessing(ctx context.Context, actor models.Actor, code string, in PayInput) (*PaymentInstruction, error)

	// MarkCompleted applies a settled outcome. Sticky: once completed
	// with an external id, replays with the same id are no-ops and a
	// different id is a conflict. A completion landing on an expired (or
	// otherwise non-processing) session is recorded but flagged for
	// manual reconciliation instead of rewriting history.
	MarkCompleted(ctx context.Context, code, externalID string, at time.Time) (*CompletionResult, error)

	// RevertToScanned returns a processing session to scanned after a
	// gateway-reported failure, or reopens a failed/expired session for
	// retry while it has not passed its expiry.
	RevertToScanned(ctx context.Context, code, reason string) (*models.QrPaymentSession, error)

	// Cancel terminates a session that has not begun processing.
	Cancel(ctx context.Context, actor models.Actor, code string) error

	// SweepExpired expires every non-terminal session past its deadline.
	// Safe to run concurrently with user-driven transitions.
	SweepExpired(ctx context.Context) (int64, error)
}
