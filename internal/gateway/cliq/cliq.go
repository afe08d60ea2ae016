// Package cliq implements the bank-transfer rail of the gateway contract:
// payment requests pushed to a customer's bank alias over the instant
// payments network, settled asynchronously via webhook.
package cliq

import (
	"context"
	"encoding/json"
	"fmt"

	"qrpay/internal/config"
	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"

	"go.uber.org/zap"
)

// The provider has shipped the signature under all three of these names.
var signatureHeaders = []string{"X-Cliq-Signature", "X-Signature", "Signature"}

type Rail struct {
	cfg    config.RailConfig
	client *gateway.Client
	logger *zap.Logger
}

func New(cfg config.RailConfig, client *gateway.Client, logger *zap.Logger) *Rail {
	return &Rail{cfg: cfg, client: client, logger: logger}
}

func (r *Rail) Name() string { return gateway.NameCliq }

type requestResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func (r *Rail) headers() map[string]string {
	return map[string]string{
		"X-Api-Key":        r.cfg.APIKey,
		"X-Merchant-Alias": r.cfg.MerchantID,
	}
}

// Initiate pushes a payment request to the customer's banking app. The
// customer approves or declines there; the outcome arrives as a webhook.
func (r *Rail) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	if req.CustomerAlias == "" {
		return nil, apperrors.Validation("customer bank alias is required for cliq payments")
	}

	body := map[string]interface{}{
		"amount":        req.Amount.Value.StringFixed(2),
		"currency":      req.Amount.Currency,
		"alias":         req.CustomerAlias,
		"merchantRef":   req.Reference,
		"description":   req.Description,
		"merchantAlias": r.cfg.MerchantID,
	}

	res, err := r.client.PostJSON(ctx, r.cfg.BaseURL+"/payment-requests", r.headers(), body)
	if err != nil {
		return nil, apperrors.Gateway("cliq rail unreachable", err)
	}

	var reqResp requestResponse
	if err := json.Unmarshal(res.Body, &reqResp); err != nil {
		return nil, apperrors.Gateway("cliq rail returned malformed body", err)
	}

	r.logger.Info("cliq payment request created",
		zap.String("reference", req.Reference),
		zap.String("request_id", reqResp.RequestID),
		zap.Int("http_status", res.HTTPStatus))

	return &gateway.InitiateResponse{
		Success:    res.Success,
		ExternalID: reqResp.RequestID,
		Status:     normalizeStatus(reqResp.Status),
	}, nil
}

// Authorize is not part of the instant-payments flow; transfers settle in
// one step.
func (r *Rail) Authorize(ctx context.Context, req gateway.InitiateRequest) (*gateway.OperationResponse, error) {
	return nil, apperrors.Gateway("cliq rail does not support authorization holds", nil)
}

func (r *Rail) Capture(ctx context.Context, externalID string, amount gateway.Amount) (*gateway.OperationResponse, error) {
	return nil, apperrors.Gateway("cliq rail does not support capture", nil)
}

// Void cancels a pending payment request before the customer acts on it.
func (r *Rail) Void(ctx context.Context, externalID string) (*gateway.OperationResponse, error) {
	url := fmt.Sprintf("%s/payment-requests/%s/cancel", r.cfg.BaseURL, externalID)
	res, err := r.client.PostJSON(ctx, url, r.headers(), map[string]interface{}{})
	if err != nil {
		return nil, apperrors.Gateway("cliq rail unreachable", err)
	}
	var reqResp requestResponse
	if err := json.Unmarshal(res.Body, &reqResp); err != nil {
		return nil, apperrors.Gateway("cliq rail returned malformed body", err)
	}
	return &gateway.OperationResponse{
		Success:    res.Success,
		ExternalID: externalID,
		Status:     normalizeStatus(reqResp.Status),
	}, nil
}

// Refund issues a reverse credit transfer for a settled payment.
func (r *Rail) Refund(ctx context.Context, externalID string, amount gateway.Amount) (*gateway.OperationResponse, error) {
	body := map[string]interface{}{
		"originalRequestId": externalID,
		"amount":            amount.Value.StringFixed(2),
		"currency":          amount.Currency,
	}
	res, err := r.client.PostJSON(ctx, r.cfg.BaseURL+"/refunds", r.headers(), body)
	if err != nil {
		return nil, apperrors.Gateway("cliq rail unreachable", err)
	}
	var reqResp requestResponse
	if err := json.Unmarshal(res.Body, &reqResp); err != nil {
		return nil, apperrors.Gateway("cliq rail returned malformed body", err)
	}
	return &gateway.OperationResponse{
		Success:    res.Success,
		ExternalID: reqResp.RequestID,
		Status:     normalizeStatus(reqResp.Status),
	}, nil
}

// Tokenize has no meaning on a bank-transfer rail.
func (r *Rail) Tokenize(ctx context.Context, card gateway.CardData, customerRef string) (*gateway.TokenizedCard, error) {
	return nil, apperrors.Validation("cliq rail does not tokenize cards")
}

// normalizeStatus maps the provider's vocabulary onto the shared set.
func normalizeStatus(s string) gateway.Status {
	switch s {
	case "PENDING", "SENT":
		return gateway.StatusPending
	case "IN_PROGRESS":
		return gateway.StatusProcessing
	case "ACCEPTED", "SETTLED", "COMPLETED":
		return gateway.StatusCompleted
	case "DECLINED", "REJECTED", "FAILED":
		return gateway.StatusFailed
	case "CANCELLED", "EXPIRED":
		return gateway.StatusCancelled
	case "REFUNDED":
		return gateway.StatusRefunded
	default:
		return gateway.StatusUnknown
	}
}
