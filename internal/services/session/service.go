package session

import (
	"context"
	"fmt"
	"time"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"
	"qrpay/internal/models"
	"qrpay/internal/repositories"
	"qrpay/internal/services/discount"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config wires the session service's collaborators.
type Config struct {
	Sessions   repositories.SessionRepository
	Cliq       repositories.CliqRequestRepository
	Discounts  discount.Service
	Rails      *gateway.Registry
	Logger     *zap.Logger
	DefaultTTL time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

type service struct {
	sessions   repositories.SessionRepository
	cliq       repositories.CliqRequestRepository
	discounts  discount.Service
	rails      *gateway.Registry
	logger     *zap.Logger
	defaultTTL time.Duration
	now        func() time.Time
}

func NewService(cfg Config) Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 15 * time.Minute
	}
	return &service{
		sessions:   cfg.Sessions,
		cliq:       cfg.Cliq,
		discounts:  cfg.Discounts,
		rails:      cfg.Rails,
		logger:     cfg.Logger,
		defaultTTL: cfg.DefaultTTL,
		now:        cfg.Now,
	}
}

func newSessionCode() string {
	suffix, err := gonanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		panic("failed to generate session code: " + err.Error())
	}
	return codePrefix + suffix
}

func (s *service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.QrPaymentSession, error) {
	if actor.Role != models.RoleMerchant && actor.Role != models.RoleAdmin {
		return nil, ErrNotMerchant
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be positive")
	}
	currency := in.Currency
	if currency == "" {
		currency = "JOD"
	}
	ttl := in.ExpiresIn
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	sess := &models.QrPaymentSession{
		SessionCode:    newSessionCode(),
		BrandID:        actor.BrandID,
		BranchID:       actor.BranchID,
		CreatedByID:    actor.UserID,
		OriginalAmount: in.Amount.Round(2),
		DiscountAmount: decimal.Zero,
		FinalAmount:    in.Amount.Round(2),
		Currency:       currency,
		Description:    in.Description,
		Status:         models.SessionStatusPending,
		ExpiresAt:      s.now().Add(ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("payment session created",
		zap.String("session_code", sess.SessionCode),
		zap.Uint("branch_id", sess.BranchID),
		zap.String("amount", sess.OriginalAmount.StringFixed(2)))
	return sess, nil
}

func (s *service) Get(ctx context.Context, code string) (*models.QrPaymentSession, error) {
	return s.sessions.GetByCode(ctx, code)
}

func (s *service) List(ctx context.Context, actor models.Actor, page, limit int) ([]models.QrPaymentSession, int64, error) {
	if actor.Role != models.RoleMerchant && actor.Role != models.RoleAdmin {
		return nil, 0, ErrNotMerchant
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.sessions.ListByBranch(ctx, actor.BranchID, limit, (page-1)*limit)
}

func (s *service) Scan(ctx context.Context, actor models.Actor, code string) (*models.QrPaymentSession, error) {
	sess, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sess.IsExpired(now) {
		return nil, apperrors.ErrSessionExpired
	}

	switch sess.Status {
	case models.SessionStatusScanned:
		if sess.CustomerID != nil && *sess.CustomerID == actor.UserID {
			return sess, nil
		}
		return nil, apperrors.ErrScannedByOther
	case models.SessionStatusPending:
		// fall through to claim
	default:
		return nil, apperrors.InvalidState(fmt.Sprintf("session cannot be scanned while %s", sess.Status))
	}

	ok, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{models.SessionStatusPending},
		map[string]interface{}{
			"status":      models.SessionStatusScanned,
			"customer_id": actor.UserID,
			"scanned_at":  now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race. Re-read to distinguish "same customer scanned"
		// from a genuine conflict.
		sess, err = s.sessions.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if sess.Status == models.SessionStatusScanned && sess.CustomerID != nil && *sess.CustomerID == actor.UserID {
			return sess, nil
		}
		return nil, apperrors.ErrScannedByOther
	}
	return s.sessions.GetByCode(ctx, code)
}

func (s *service) ApplyDiscount(ctx context.Context, actor models.Actor, code string, offerID uint) (*models.QrPaymentSession, error) {
	sess, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionStatusScanned {
		return nil, ErrNotScanned
	}
	if sess.IsExpired(s.now()) {
		return nil, apperrors.ErrSessionExpired
	}

	offer, discountAmount, err := s.discounts.ComputeForSession(ctx, offerID, sess.BrandID, sess.OriginalAmount, s.now())
	if err != nil {
		return nil, err
	}
	finalAmount := sess.OriginalAmount.Sub(discountAmount)

	ok, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{models.SessionStatusScanned},
		map[string]interface{}{
			"bank_offer_id":   offer.ID,
			"discount_amount": discountAmount,
			"final_amount":    finalAmount,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotScanned
	}

	s.logger.Info("discount applied",
		zap.String("session_code", code),
		zap.Uint("offer_id", offer.ID),
		zap.String("discount", discountAmount.StringFixed(2)))
	return s.sessions.GetByCode(ctx, code)
}

func (s *service) BeginProcessing(ctx context.Context, actor models.Actor, code string, in PayInput) (*PaymentInstruction, error) {
	sess, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionStatusScanned {
		return nil, ErrNotPayable
	}
	if sess.IsExpired(s.now()) {
		return nil, apperrors.ErrSessionExpired
	}

	rail, ok := s.rails.Get(in.Gateway)
	if !ok {
		return nil, apperrors.Validationf("unknown payment gateway %q", in.Gateway)
	}

	// Claim the session before the external call. No lock is held while
	// the rail call is in flight; a failed call reverts the claim.
	claimed, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{models.SessionStatusScanned},
		map[string]interface{}{
			"status":         models.SessionStatusProcessing,
			"gateway":        rail.Name(),
			"payment_method": in.Method,
		})
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrNotPayable
	}

	req := gateway.InitiateRequest{
		Reference: sess.SessionCode,
		Amount: gateway.Amount{
			Value:    sess.FinalAmount,
			Currency: sess.Currency,
		},
		Description:   sess.Description,
		CustomerAlias: in.CustomerAlias,
		ReturnURL:     in.ReturnURL,
	}

	if in.Gateway == gateway.NameCardRail {
		token := in.CardToken
		if token == "" && in.Card != nil {
			tokenized, err := rail.Tokenize(ctx, *in.Card, fmt.Sprintf("cust_%d", actor.UserID))
			if err != nil {
				s.revertClaim(ctx, sess.ID, "tokenization failed")
				return nil, err
			}
			token = tokenized.Token
		}
		if token == "" {
			s.revertClaim(ctx, sess.ID, "missing card token")
			return nil, apperrors.Validation("card token or card data is required")
		}
		req.CardToken = token
	}

	resp, err := rail.Initiate(ctx, req)
	if err != nil {
		s.revertClaim(ctx, sess.ID, "gateway initiation failed")
		return nil, err
	}
	if !resp.Success || resp.Status == gateway.StatusFailed {
		s.revertClaim(ctx, sess.ID, "gateway declined initiation")
		return nil, apperrors.Gateway("payment initiation was declined", nil)
	}

	// Record the rail's transaction id; the status guard keeps this from
	// clobbering a webhook that already completed the session.
	if _, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{models.SessionStatusProcessing},
		map[string]interface{}{
			"gateway_transaction_id": resp.ExternalID,
		}); err != nil {
		return nil, err
	}

	if in.Gateway == gateway.NameCliq {
		if err := s.cliq.Create(ctx, &models.CliqPaymentRequest{
			RequestID:  resp.ExternalID,
			SessionID:  sess.ID,
			SenderBank: in.CustomerAlias,
			Status:     models.CliqRequestStatusPending,
		}); err != nil {
			s.logger.Error("failed to record cliq request",
				zap.String("session_code", code),
				zap.Error(err))
		}
	}

	sess, err = s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment initiated",
		zap.String("session_code", code),
		zap.String("gateway", rail.Name()),
		zap.String("external_id", resp.ExternalID))

	return &PaymentInstruction{
		Session:     sess,
		ExternalID:  resp.ExternalID,
		RedirectURL: resp.RedirectURL,
		Status:      resp.Status,
	}, nil
}

// revertClaim undoes the scanned→processing claim after a failed
// initiation, clearing the rail selection.
func (s *service) revertClaim(ctx context.Context, sessionID uint, reason string) {
	if _, err := s.sessions.ConditionalUpdate(ctx, sessionID,
		[]string{models.SessionStatusProcessing},
		map[string]interface{}{
			"status":                 models.SessionStatusScanned,
			"gateway":                "",
			"gateway_transaction_id": "",
			"payment_method":         "",
		}); err != nil {
		s.logger.Error("failed to revert session claim",
			zap.Uint("session_id", sessionID),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func (s *service) MarkCompleted(ctx context.Context, code, externalID string, at time.Time) (*CompletionResult, error) {
	sess, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if sess.Status == models.SessionStatusCompleted {
		if sess.GatewayTransactionID == externalID {
			return &CompletionResult{Session: sess}, nil
		}
		return nil, apperrors.Conflict("session already completed with a different external id")
	}

	ok, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{models.SessionStatusProcessing},
		map[string]interface{}{
			"status":                 models.SessionStatusCompleted,
			"gateway_transaction_id": externalID,
			"completed_at":           at,
		})
	if err != nil {
		return nil, err
	}
	if ok {
		sess, err = s.sessions.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		return &CompletionResult{Session: sess, NewlyCompleted: true}, nil
	}

	// The session was not processing: a sweep, cancel or competing
	// webhook got there first. Re-read and branch.
	sess, err = s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionStatusCompleted {
		if sess.GatewayTransactionID == externalID {
			return &CompletionResult{Session: sess}, nil
		}
		return nil, apperrors.Conflict("session already completed with a different external id")
	}

	// A replayed delivery for a settlement already flagged: the external
	// id is on file, nothing new happened.
	if sess.FlaggedForReview && sess.GatewayTransactionID != "" {
		if sess.GatewayTransactionID == externalID {
			return &CompletionResult{Session: sess, Anomalous: true}, nil
		}
		return nil, apperrors.Conflict("session already settled with a different external id")
	}

	// Money moved on the rail regardless of what the session looks like
	// locally. Keep the local status, record the settlement instant and
	// flag the session for manual reconciliation.
	reason := fmt.Sprintf("completion webhook arrived while session was %s", sess.Status)
	if _, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{sess.Status},
		map[string]interface{}{
			"gateway_transaction_id": externalID,
			"completed_at":           at,
			"flagged_for_review":     true,
			"flag_reason":            reason,
		}); err != nil {
		return nil, err
	}

	s.logger.Warn("anomalous completion flagged",
		zap.String("session_code", code),
		zap.String("status", sess.Status),
		zap.String("external_id", externalID))

	sess, err = s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &CompletionResult{Session: sess, NewlyCompleted: true, Anomalous: true}, nil
}

func (s *service) RevertToScanned(ctx context.Context, code, reason string) (*models.QrPaymentSession, error) {
	sess, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	from := []string{models.SessionStatusProcessing}
	// The retry edge out of failed/expired stays open only until the
	// session's own deadline.
	if sess.Status == models.SessionStatusFailed || sess.Status == models.SessionStatusExpired {
		if sess.IsExpired(s.now()) {
			return nil, apperrors.ErrSessionExpired
		}
		from = []string{sess.Status}
	}

	ok, err := s.sessions.ConditionalUpdate(ctx, sess.ID, from,
		map[string]interface{}{
			"status":                 models.SessionStatusScanned,
			"gateway":                "",
			"gateway_transaction_id": "",
			"payment_method":         "",
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState(fmt.Sprintf("session cannot be reverted while %s", sess.Status))
	}

	s.logger.Info("session reverted to scanned",
		zap.String("session_code", code),
		zap.String("reason", reason))
	return s.sessions.GetByCode(ctx, code)
}

func (s *service) Cancel(ctx context.Context, actor models.Actor, code string) error {
	if actor.Role != models.RoleMerchant && actor.Role != models.RoleAdmin {
		return ErrNotMerchant
	}
	sess, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	ok, err := s.sessions.ConditionalUpdate(ctx, sess.ID,
		[]string{models.SessionStatusPending, models.SessionStatusScanned},
		map[string]interface{}{"status": models.SessionStatusCancelled})
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InvalidState(fmt.Sprintf("session cannot be cancelled while %s", sess.Status))
	}
	return nil
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.sessions.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.logger.Info("expired sessions swept", zap.Int64("count", swept))
	}
	return swept, nil
}
