// Package notification emits outbound completion events. The publisher is
// invoked only after a financial transition has committed; a publish
// failure is logged and never propagated into the payment path.
package notification

import (
	"context"
	"time"

	"qrpay/internal/models"
	"qrpay/internal/repositories/cache"

	"go.uber.org/zap"
)

// CompletedChannel is the pub/sub channel completion events go out on.
const CompletedChannel = "qrpay:payments:completed"

// CompletionEvent is the message broadcast when a payment settles.
type CompletionEvent struct {
	SessionCode string    `json:"session_code"`
	Reference   string    `json:"reference"`
	Gateway     string    `json:"gateway"`
	FinalAmount string    `json:"final_amount"`
	Currency    string    `json:"currency"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher broadcasts settlement outcomes to interested observers.
type Publisher interface {
	PublishCompleted(ctx context.Context, session *models.QrPaymentSession, tx *models.PaymentTransaction)
}

type redisPublisher struct {
	cache  *cache.CacheService
	logger *zap.Logger
}

func NewRedisPublisher(c *cache.CacheService, logger *zap.Logger) Publisher {
	return &redisPublisher{cache: c, logger: logger}
}

func (p *redisPublisher) PublishCompleted(ctx context.Context, session *models.QrPaymentSession, tx *models.PaymentTransaction) {
	event := CompletionEvent{
		SessionCode: session.SessionCode,
		Reference:   tx.Reference,
		Gateway:     tx.Gateway,
		FinalAmount: tx.FinalAmount.StringFixed(2),
		Currency:    tx.Currency,
	}
	if tx.CompletedAt != nil {
		event.CompletedAt = *tx.CompletedAt
	}

	if err := p.cache.Publish(ctx, CompletedChannel, event); err != nil {
		p.logger.Error("failed to publish completion event",
			zap.String("session_code", session.SessionCode),
			zap.Error(err))
	}
}
