// Package reconcile applies asynchronous gateway webhooks to sessions and
// the transaction ledger, exactly once per settlement regardless of
// delivery order or duplication.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"
	"qrpay/internal/models"
	"qrpay/internal/repositories"
	"qrpay/internal/repositories/cache"
	"qrpay/internal/services/discount"
	"qrpay/internal/services/notification"
	"qrpay/internal/services/session"

	"go.uber.org/zap"
)

// Config wires the reconciler's collaborators.
type Config struct {
	Rails        *gateway.Registry
	Sessions     session.Service
	SessionRepo  repositories.SessionRepository
	Transactions repositories.TransactionRepository
	Discounts    discount.Service
	Cliq         repositories.CliqRequestRepository
	Publisher    notification.Publisher
	Cache        *cache.CacheService
	Logger       *zap.Logger

	Now func() time.Time
}

type service struct {
	rails        *gateway.Registry
	sessions     session.Service
	sessionRepo  repositories.SessionRepository
	transactions repositories.TransactionRepository
	discounts    discount.Service
	cliq         repositories.CliqRequestRepository
	publisher    notification.Publisher
	cache        *cache.CacheService
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(cfg Config) Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		rails:        cfg.Rails,
		sessions:     cfg.Sessions,
		sessionRepo:  cfg.SessionRepo,
		transactions: cfg.Transactions,
		discounts:    cfg.Discounts,
		cliq:         cfg.Cliq,
		publisher:    cfg.Publisher,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
}

func (s *service) Process(ctx context.Context, railName string, rawBody []byte, getHeader func(string) string) (*Outcome, error) {
	rail, ok := s.rails.Get(railName)
	if !ok {
		return nil, apperrors.Validationf("unknown rail %q", railName)
	}

	// Authenticity first. A bad signature changes nothing and leaks
	// nothing about why.
	if !rail.VerifySignature(rawBody, getHeader) {
		return nil, apperrors.ErrInvalidSignature
	}

	payload, err := rail.ParseWebhookPayload(rawBody)
	if err != nil {
		return nil, apperrors.Validationf("unparseable webhook payload: %v", err)
	}

	// Fast-path dedup mark. Purely advisory: the conditional updates
	// below are the source of truth, so a missing or stale mark is safe.
	dedupKey := fmt.Sprintf("webhook:%s:%s:%s", railName, payload.ExternalID, payload.Status)
	if s.cache != nil && payload.ExternalID != "" {
		if seen, _ := s.cache.Exists(ctx, dedupKey); seen {
			s.logger.Debug("webhook already applied",
				zap.String("rail", railName),
				zap.String("external_id", payload.ExternalID))
			return &Outcome{Status: payload.Status, Reference: payload.Reference, Duplicate: true}, nil
		}
	}

	// Resolve the session by merchant reference first, then by the
	// rail's own transaction id.
	sess, err := s.resolveSession(ctx, railName, payload)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			s.logger.Warn("webhook for unknown reference",
				zap.String("rail", railName),
				zap.String("reference", payload.Reference),
				zap.String("external_id", payload.ExternalID))
			return &Outcome{Status: payload.Status, Reference: payload.Reference, UnknownReference: true}, nil
		}
		return nil, err
	}

	var outcome *Outcome
	switch payload.Status {
	case gateway.StatusCompleted:
		outcome, err = s.applyCompleted(ctx, rail, sess, payload)
	case gateway.StatusFailed, gateway.StatusCancelled:
		outcome, err = s.applyFailed(ctx, rail, sess, payload)
	case gateway.StatusRefunded:
		outcome, err = s.applyRefunded(ctx, sess, payload)
	default:
		// Forward-compatible: acknowledge unmapped statuses untouched.
		outcome = &Outcome{Status: payload.Status, Reference: sess.SessionCode}
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil && payload.ExternalID != "" && !outcome.Duplicate {
		if _, err := s.cache.SetNX(ctx, dedupKey, "1", 24*time.Hour); err != nil {
			s.logger.Debug("failed to set webhook dedup mark", zap.Error(err))
		}
	}
	return outcome, nil
}

func (s *service) resolveSession(ctx context.Context, railName string, payload *gateway.WebhookPayload) (*models.QrPaymentSession, error) {
	if payload.Reference != "" {
		sess, err := s.sessionRepo.GetByCode(ctx, payload.Reference)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, apperrors.ErrSessionNotFound) {
			return nil, err
		}
	}
	if payload.ExternalID != "" {
		return s.sessionRepo.GetByGatewayTransactionID(ctx, railName, payload.ExternalID)
	}
	return nil, apperrors.ErrSessionNotFound
}

func (s *service) applyCompleted(ctx context.Context, rail gateway.Gateway, sess *models.QrPaymentSession, payload *gateway.WebhookPayload) (*Outcome, error) {
	now := s.now()
	completedAt := now

	// Ledger first, keyed by session code: the upsert is what makes a
	// replay produce zero new rows.
	ledger := &models.PaymentTransaction{
		Reference:            sess.SessionCode,
		SessionID:            &sess.ID,
		OriginalAmount:       sess.OriginalAmount,
		DiscountAmount:       sess.DiscountAmount,
		FinalAmount:          sess.FinalAmount,
		Currency:             sess.Currency,
		PaymentMethod:        sess.PaymentMethod,
		Gateway:              rail.Name(),
		GatewayTransactionID: payload.ExternalID,
		CardLastFour:         payload.CardDisplay.LastFour,
		CardBrand:            payload.CardDisplay.Brand,
		Status:               models.TransactionStatusCompleted,
		BankOfferID:          sess.BankOfferID,
		CompletedAt:          &completedAt,
	}
	created, err := s.transactions.CreateIfAbsent(ctx, ledger)
	if err != nil {
		return nil, apperrors.Internal("failed to record settlement", err)
	}
	if !created {
		// Row exists from an earlier failed attempt or an earlier
		// delivery. Completed stays sticky: the guard refuses to move a
		// completed row anywhere.
		_, err := s.transactions.ConditionalUpdate(ctx, sess.SessionCode,
			[]string{
				models.TransactionStatusPending,
				models.TransactionStatusProcessing,
				models.TransactionStatusAuthorized,
				models.TransactionStatusFailed,
				models.TransactionStatusCancelled,
			},
			map[string]interface{}{
				"status":                 models.TransactionStatusCompleted,
				"gateway_transaction_id": payload.ExternalID,
				"card_last_four":         payload.CardDisplay.LastFour,
				"card_brand":             payload.CardDisplay.Brand,
				"failure_reason":         "",
				"completed_at":           completedAt,
			})
		if err != nil {
			return nil, apperrors.Internal("failed to update settlement", err)
		}
	}

	result, err := s.sessions.MarkCompleted(ctx, sess.SessionCode, payload.ExternalID, completedAt)
	if err != nil {
		if apperrors.Kind(err) == apperrors.CodeConflict {
			// A different external id already completed this session.
			// Retrying will not change that; hold it for manual review.
			s.logger.Error("conflicting completion held for review",
				zap.String("session_code", sess.SessionCode),
				zap.String("external_id", payload.ExternalID))
			return &Outcome{Status: payload.Status, Reference: sess.SessionCode, Conflict: true}, nil
		}
		return nil, err
	}

	if rail.Name() == gateway.NameCliq && payload.ExternalID != "" {
		if err := s.cliq.UpdateStatus(ctx, payload.ExternalID, models.CliqRequestStatusCompleted, models.NewJSON(payload.Raw)); err != nil {
			s.logger.Warn("failed to update cliq request", zap.Error(err))
		}
	}

	if !result.NewlyCompleted {
		return &Outcome{Status: payload.Status, Reference: sess.SessionCode, Duplicate: true}, nil
	}

	// One redemption per settled session. The discount service skips the
	// insert when a redemption for this session already exists, and the
	// repository's conditional increment enforces the claim cap.
	if sess.BankOfferID != nil && sess.CustomerID != nil {
		err := s.discounts.RecordRedemption(ctx, discount.RedemptionInput{
			OfferID:         *sess.BankOfferID,
			UserID:          *sess.CustomerID,
			BranchID:        sess.BranchID,
			SessionCode:     sess.SessionCode,
			OriginalAmount:  sess.OriginalAmount,
			DiscountApplied: sess.DiscountAmount,
		})
		if err != nil && !errors.Is(err, apperrors.ErrOfferExhausted) {
			return nil, apperrors.Internal("failed to record redemption", err)
		}
		if errors.Is(err, apperrors.ErrOfferExhausted) {
			// The discount was honored at payment time; the cap filled
			// up in between. Keep the settlement, surface for review.
			s.logger.Error("offer cap exceeded post-settlement",
				zap.Uint("offer_id", *sess.BankOfferID),
				zap.String("session_code", sess.SessionCode))
		}
	}

	// Broadcast only after everything committed.
	tx, err := s.transactions.GetByReference(ctx, sess.SessionCode)
	if err == nil {
		s.publisher.PublishCompleted(ctx, result.Session, tx)
	}

	s.logger.Info("settlement reconciled",
		zap.String("session_code", sess.SessionCode),
		zap.String("rail", rail.Name()),
		zap.Bool("anomalous", result.Anomalous))

	return &Outcome{
		Status:    payload.Status,
		Reference: sess.SessionCode,
		Anomalous: result.Anomalous,
	}, nil
}

func (s *service) applyFailed(ctx context.Context, rail gateway.Gateway, sess *models.QrPaymentSession, payload *gateway.WebhookPayload) (*Outcome, error) {
	reason := payload.FailureReason
	if reason == "" {
		reason = string(payload.Status)
	}

	ledger := &models.PaymentTransaction{
		Reference:            sess.SessionCode,
		SessionID:            &sess.ID,
		OriginalAmount:       sess.OriginalAmount,
		DiscountAmount:       sess.DiscountAmount,
		FinalAmount:          sess.FinalAmount,
		Currency:             sess.Currency,
		PaymentMethod:        sess.PaymentMethod,
		Gateway:              rail.Name(),
		GatewayTransactionID: payload.ExternalID,
		Status:               models.TransactionStatusFailed,
		FailureReason:        reason,
		BankOfferID:          sess.BankOfferID,
	}
	created, err := s.transactions.CreateIfAbsent(ctx, ledger)
	if err != nil {
		return nil, apperrors.Internal("failed to record failure", err)
	}
	if !created {
		// Never let a late failure overwrite a settled ledger row.
		if _, err := s.transactions.ConditionalUpdate(ctx, sess.SessionCode,
			[]string{
				models.TransactionStatusPending,
				models.TransactionStatusProcessing,
				models.TransactionStatusAuthorized,
			},
			map[string]interface{}{
				"status":         models.TransactionStatusFailed,
				"failure_reason": reason,
			}); err != nil {
			return nil, apperrors.Internal("failed to update failure", err)
		}
	}

	if rail.Name() == gateway.NameCliq && payload.ExternalID != "" {
		if err := s.cliq.UpdateStatus(ctx, payload.ExternalID, models.CliqRequestStatusDeclined, models.NewJSON(payload.Raw)); err != nil {
			s.logger.Warn("failed to update cliq request", zap.Error(err))
		}
	}

	// Free the session for another attempt with a different method.
	if sess.Status == models.SessionStatusProcessing {
		if _, err := s.sessions.RevertToScanned(ctx, sess.SessionCode, reason); err != nil {
			// The session may have expired or completed meanwhile;
			// either way the failure is recorded.
			s.logger.Info("could not revert session after failure",
				zap.String("session_code", sess.SessionCode),
				zap.Error(err))
		}
	}

	return &Outcome{Status: payload.Status, Reference: sess.SessionCode}, nil
}

func (s *service) applyRefunded(ctx context.Context, sess *models.QrPaymentSession, payload *gateway.WebhookPayload) (*Outcome, error) {
	tx, err := s.transactions.GetByReference(ctx, sess.SessionCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return &Outcome{Status: payload.Status, Reference: sess.SessionCode, UnknownReference: true}, nil
		}
		return nil, err
	}

	refundAmount := payload.RefundAmount
	if refundAmount.IsZero() {
		refundAmount = tx.FinalAmount
	}
	newTotal := tx.RefundedAmount.Add(refundAmount)

	status := models.TransactionStatusPartiallyRefunded
	if newTotal.GreaterThanOrEqual(tx.FinalAmount) {
		status = models.TransactionStatusRefunded
	}

	now := s.now()
	// Refunds touch the ledger only; the session's history stands.
	if err := s.transactions.UpdateByReference(ctx, sess.SessionCode, map[string]interface{}{
		"status":          status,
		"refunded_amount": newTotal,
		"refunded_at":     now,
	}); err != nil {
		return nil, apperrors.Internal("failed to record refund", err)
	}

	s.logger.Info("refund reconciled",
		zap.String("reference", sess.SessionCode),
		zap.String("amount", refundAmount.StringFixed(2)))

	return &Outcome{Status: payload.Status, Reference: sess.SessionCode}, nil
}
