package cardrail

import (
	"encoding/json"
	"fmt"

	"qrpay/internal/gateway"

	"github.com/shopspring/decimal"
)

// webhookEvent is the rail's native webhook body.
type webhookEvent struct {
	EventType string `json:"event_type"`
	Charge    struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
		Reference string `json:"merchant_reference"`
		Card      struct {
			LastFour string `json:"last_four"`
			Brand    string `json:"brand"`
		} `json:"card"`
		FailureReason string `json:"failure_reason"`
		RefundAmount  string `json:"refund_amount"`
	} `json:"charge"`
}

func (r *Rail) ParseWebhookPayload(raw []byte) (*gateway.WebhookPayload, error) {
	var event webhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("malformed card webhook payload: %w", err)
	}
	if event.Charge.ID == "" && event.Charge.Reference == "" {
		return nil, fmt.Errorf("card webhook payload has no charge id or reference")
	}

	amount, _ := decimal.NewFromString(event.Charge.Amount)
	refund, _ := decimal.NewFromString(event.Charge.RefundAmount)

	var rawMap map[string]interface{}
	_ = json.Unmarshal(raw, &rawMap)

	return &gateway.WebhookPayload{
		ExternalID: event.Charge.ID,
		Reference:  event.Charge.Reference,
		Status:     normalizeStatus(event.Charge.Status),
		Amount: gateway.Amount{
			Value:    amount,
			Currency: event.Charge.Currency,
		},
		CardDisplay: gateway.CardDisplay{
			LastFour: event.Charge.Card.LastFour,
			Brand:    event.Charge.Card.Brand,
		},
		FailureReason: event.Charge.FailureReason,
		RefundAmount:  refund,
		Raw:           rawMap,
	}, nil
}

func (r *Rail) VerifySignature(rawBody []byte, getHeader func(string) string) bool {
	sig := getHeader(SignatureHeader)
	if sig == "" {
		return false
	}
	return gateway.VerifyHex(r.cfg.WebhookSecret, rawBody, sig)
}
