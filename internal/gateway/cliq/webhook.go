package cliq

import (
	"encoding/json"
	"fmt"

	"qrpay/internal/gateway"

	"github.com/shopspring/decimal"
)

// webhookEvent is the provider's native notification body.
type webhookEvent struct {
	RequestID   string `json:"requestId"`
	MerchantRef string `json:"merchantRef"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	SenderBank  string `json:"senderBank"`
	Reason      string `json:"reason"`
}

func (r *Rail) ParseWebhookPayload(raw []byte) (*gateway.WebhookPayload, error) {
	var event webhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("malformed cliq webhook payload: %w", err)
	}
	if event.RequestID == "" && event.MerchantRef == "" {
		return nil, fmt.Errorf("cliq webhook payload has no request id or merchant ref")
	}

	amount, _ := decimal.NewFromString(event.Amount)

	var rawMap map[string]interface{}
	_ = json.Unmarshal(raw, &rawMap)

	return &gateway.WebhookPayload{
		ExternalID: event.RequestID,
		Reference:  event.MerchantRef,
		Status:     normalizeStatus(event.Status),
		Amount: gateway.Amount{
			Value:    amount,
			Currency: event.Currency,
		},
		FailureReason: event.Reason,
		SenderBank:    event.SenderBank,
		Raw:           rawMap,
	}, nil
}

// VerifySignature tries every header name the provider has used, and both
// encodings of the HMAC.
func (r *Rail) VerifySignature(rawBody []byte, getHeader func(string) string) bool {
	for _, name := range signatureHeaders {
		if sig := getHeader(name); sig != "" {
			if gateway.VerifyHexOrBase64(r.cfg.WebhookSecret, rawBody, sig) {
				return true
			}
		}
	}
	return false
}
