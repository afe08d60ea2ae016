package gateway

import "github.com/shopspring/decimal"

// Status is the normalized rail status vocabulary. Each rail maps its own
// wire statuses onto this set; anything unmapped becomes StatusUnknown and
// is acknowledged without a state change.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusAuthorized Status = "authorized"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusVoided     Status = "voided"
	StatusUnknown    Status = "unknown"
)

// Amount is a monetary value with its currency.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// InitiateRequest starts (or authorizes) a charge on a rail.
type InitiateRequest struct {
	// Reference is the session code, echoed in the rail's merchant
	// reference field for webhook correlation.
	Reference   string
	Amount      Amount
	Description string

	// CardToken is set on the card rail.
	CardToken string
	// CustomerAlias is set on the bank-transfer rail.
	CustomerAlias string

	ReturnURL string
}

type InitiateResponse struct {
	Success     bool
	ExternalID  string
	RedirectURL string
	Status      Status
}

type OperationResponse struct {
	Success    bool
	ExternalID string
	Status     Status
}

// CardData is raw card input for tokenization. It must never be persisted
// or logged.
type CardData struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	HolderName  string
}

// CardDisplay is the only card data that may be stored or shown.
type CardDisplay struct {
	LastFour string
	Brand    string
}

type TokenizedCard struct {
	Token       string
	CustomerRef string
	Display     CardDisplay
}

// WebhookPayload is a rail notification normalized for the reconciler.
type WebhookPayload struct {
	ExternalID    string
	Reference     string
	Status        Status
	Amount        Amount
	CardDisplay   CardDisplay
	FailureReason string
	RefundAmount  decimal.Decimal
	SenderBank    string
	Raw           map[string]interface{}
}

// Result is the structured outcome of one raw HTTP call to a rail. Callers
// branch on Success/HTTPStatus instead of unwinding through errors.
type Result struct {
	Success    bool
	HTTPStatus int
	Body       []byte
}
