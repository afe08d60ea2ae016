// Package cardrail implements the card-processor rail of the gateway
// contract: a JSON REST API with HMAC-SHA256 signed webhooks, plus card
// tokenization through Stripe.
package cardrail

import (
	"context"
	"encoding/json"
	"fmt"

	"qrpay/internal/config"
	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"

	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Cardrail-Signature"

type Rail struct {
	cfg    config.RailConfig
	client *gateway.Client
	logger *zap.Logger
}

func New(cfg config.RailConfig, client *gateway.Client, logger *zap.Logger) *Rail {
	return &Rail{cfg: cfg, client: client, logger: logger}
}

func (r *Rail) Name() string { return gateway.NameCardRail }

// chargeResponse is the rail's native charge representation.
type chargeResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
	Reference   string `json:"merchant_reference"`
	Error       struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *Rail) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + r.cfg.APIKey,
		"X-Merchant-Id": r.cfg.MerchantID,
	}
}

func (r *Rail) charge(ctx context.Context, req gateway.InitiateRequest, capture bool) (*chargeResponse, *gateway.Result, error) {
	body := map[string]interface{}{
		"amount":             req.Amount.Value.StringFixed(2),
		"currency":           req.Amount.Currency,
		"token":              req.CardToken,
		"merchant_reference": req.Reference,
		"description":        req.Description,
		"capture":            capture,
	}
	if req.ReturnURL != "" {
		body["return_url"] = req.ReturnURL
	}

	res, err := r.client.PostJSON(ctx, r.cfg.BaseURL+"/charges", r.headers(), body)
	if err != nil {
		return nil, res, apperrors.Gateway("card rail unreachable", err)
	}

	var charge chargeResponse
	if err := json.Unmarshal(res.Body, &charge); err != nil {
		return nil, res, apperrors.Gateway("card rail returned malformed body", err)
	}
	return &charge, res, nil
}

func (r *Rail) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	charge, res, err := r.charge(ctx, req, true)
	if err != nil {
		return nil, err
	}
	r.logger.Info("card charge initiated",
		zap.String("reference", req.Reference),
		zap.String("external_id", charge.ID),
		zap.Int("http_status", res.HTTPStatus))

	return &gateway.InitiateResponse{
		Success:     res.Success,
		ExternalID:  charge.ID,
		RedirectURL: charge.RedirectURL,
		Status:      normalizeStatus(charge.Status),
	}, nil
}

func (r *Rail) Authorize(ctx context.Context, req gateway.InitiateRequest) (*gateway.OperationResponse, error) {
	charge, res, err := r.charge(ctx, req, false)
	if err != nil {
		return nil, err
	}
	return &gateway.OperationResponse{
		Success:    res.Success,
		ExternalID: charge.ID,
		Status:     normalizeStatus(charge.Status),
	}, nil
}

func (r *Rail) Capture(ctx context.Context, externalID string, amount gateway.Amount) (*gateway.OperationResponse, error) {
	return r.operation(ctx, externalID, "capture", map[string]interface{}{
		"amount": amount.Value.StringFixed(2),
	})
}

func (r *Rail) Void(ctx context.Context, externalID string) (*gateway.OperationResponse, error) {
	return r.operation(ctx, externalID, "void", map[string]interface{}{})
}

func (r *Rail) Refund(ctx context.Context, externalID string, amount gateway.Amount) (*gateway.OperationResponse, error) {
	return r.operation(ctx, externalID, "refunds", map[string]interface{}{
		"amount": amount.Value.StringFixed(2),
	})
}

func (r *Rail) operation(ctx context.Context, externalID, op string, body map[string]interface{}) (*gateway.OperationResponse, error) {
	url := fmt.Sprintf("%s/charges/%s/%s", r.cfg.BaseURL, externalID, op)
	res, err := r.client.PostJSON(ctx, url, r.headers(), body)
	if err != nil {
		return nil, apperrors.Gateway("card rail unreachable", err)
	}

	var charge chargeResponse
	if err := json.Unmarshal(res.Body, &charge); err != nil {
		return nil, apperrors.Gateway("card rail returned malformed body", err)
	}
	if !res.Success {
		r.logger.Warn("card rail operation rejected",
			zap.String("operation", op),
			zap.String("external_id", externalID),
			zap.Int("http_status", res.HTTPStatus),
			zap.String("error_code", charge.Error.Code))
	}
	return &gateway.OperationResponse{
		Success:    res.Success,
		ExternalID: charge.ID,
		Status:     normalizeStatus(charge.Status),
	}, nil
}

// normalizeStatus maps the card rail's vocabulary onto the shared set.
func normalizeStatus(s string) gateway.Status {
	switch s {
	case "created", "pending":
		return gateway.StatusPending
	case "processing", "requires_action":
		return gateway.StatusProcessing
	case "authorized":
		return gateway.StatusAuthorized
	case "succeeded", "captured", "completed":
		return gateway.StatusCompleted
	case "declined", "failed":
		return gateway.StatusFailed
	case "cancelled", "canceled":
		return gateway.StatusCancelled
	case "refunded":
		return gateway.StatusRefunded
	case "voided":
		return gateway.StatusVoided
	default:
		return gateway.StatusUnknown
	}
}
