package session

import (
	"time"

	"qrpay/internal/gateway"
	"qrpay/internal/models"

	"github.com/shopspring/decimal"
)

// CreateInput is the typed request for opening a session. Fields absent
// here cannot be set at creation; later mutations go through their own
// operations.
type CreateInput struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	ExpiresIn   time.Duration
}

// PayInput selects the rail and payment method for a scanned session.
type PayInput struct {
	Gateway string
	Method  string

	// Card rail: either an existing token or raw card data to tokenize.
	CardToken string
	Card      *gateway.CardData

	// Bank-transfer rail: the customer's bank alias.
	CustomerAlias string

	ReturnURL string
}

// PaymentInstruction tells the client how to continue after a charge was
// initiated: follow the redirect, or wait for settlement.
type PaymentInstruction struct {
	Session     *models.QrPaymentSession
	ExternalID  string
	RedirectURL string
	Status      gateway.Status
}

// CompletionResult reports how a completion was applied.
type CompletionResult struct {
	Session *models.QrPaymentSession

	// NewlyCompleted is false on duplicate deliveries.
	NewlyCompleted bool

	// Anomalous is true when the completion landed on a session that was
	// no longer processing (e.g. already swept to expired). The ledger
	// records the settlement; the session keeps its terminal status and
	// is flagged for manual review.
	Anomalous bool
}
