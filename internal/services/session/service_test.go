package session

import (
	"context"
	"testing"
	"time"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"
	"qrpay/internal/models"
	"qrpay/internal/services/discount"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSessionRepo is an in-memory SessionRepository with the same
// conditional-update semantics as the SQL implementation.
type fakeSessionRepo struct {
	sessions map[uint]*models.QrPaymentSession
	nextID   uint
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uint]*models.QrPaymentSession), nextID: 1}
}

func (r *fakeSessionRepo) Create(_ context.Context, sess *models.QrPaymentSession) error {
	sess.ID = r.nextID
	r.nextID++
	cp := *sess
	r.sessions[sess.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByCode(_ context.Context, code string) (*models.QrPaymentSession, error) {
	for _, s := range r.sessions {
		if s.SessionCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (r *fakeSessionRepo) GetByGatewayTransactionID(_ context.Context, gw, externalID string) (*models.QrPaymentSession, error) {
	for _, s := range r.sessions {
		if s.Gateway == gw && s.GatewayTransactionID == externalID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (r *fakeSessionRepo) ConditionalUpdate(_ context.Context, sessionID uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, st := range fromStatuses {
		if s.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	applyUpdates(s, updates)
	s.Version++
	return true, nil
}

func (r *fakeSessionRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	sweepable := map[string]bool{
		models.SessionStatusPending:    true,
		models.SessionStatusScanned:    true,
		models.SessionStatusProcessing: true,
		models.SessionStatusFailed:     true,
	}
	for _, s := range r.sessions {
		if sweepable[s.Status] && now.After(s.ExpiresAt) {
			s.Status = models.SessionStatusExpired
			s.Version++
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) ListByBranch(_ context.Context, branchID uint, limit, offset int) ([]models.QrPaymentSession, int64, error) {
	var out []models.QrPaymentSession
	for _, s := range r.sessions {
		if s.BranchID == branchID {
			out = append(out, *s)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func applyUpdates(s *models.QrPaymentSession, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "status":
			s.Status = v.(string)
		case "customer_id":
			id := v.(uint)
			s.CustomerID = &id
		case "scanned_at":
			t := v.(time.Time)
			s.ScannedAt = &t
		case "bank_offer_id":
			id := v.(uint)
			s.BankOfferID = &id
		case "discount_amount":
			s.DiscountAmount = v.(decimal.Decimal)
		case "final_amount":
			s.FinalAmount = v.(decimal.Decimal)
		case "gateway":
			s.Gateway = v.(string)
		case "payment_method":
			s.PaymentMethod = v.(string)
		case "gateway_transaction_id":
			s.GatewayTransactionID = v.(string)
		case "completed_at":
			t := v.(time.Time)
			s.CompletedAt = &t
		case "flagged_for_review":
			s.FlaggedForReview = v.(bool)
		case "flag_reason":
			s.FlagReason = v.(string)
		}
	}
}

type fakeCliqRepo struct {
	created []*models.CliqPaymentRequest
}

func (r *fakeCliqRepo) Create(_ context.Context, req *models.CliqPaymentRequest) error {
	r.created = append(r.created, req)
	return nil
}

func (r *fakeCliqRepo) GetByRequestID(_ context.Context, requestID string) (*models.CliqPaymentRequest, error) {
	for _, req := range r.created {
		if req.RequestID == requestID {
			return req, nil
		}
	}
	return nil, apperrors.NotFound("cliq request not found")
}

func (r *fakeCliqRepo) UpdateStatus(_ context.Context, requestID, status string, _ models.JSON) error {
	for _, req := range r.created {
		if req.RequestID == requestID {
			req.Status = status
		}
	}
	return nil
}

type fakeDiscounts struct {
	offer    *models.BankOffer
	discount decimal.Decimal
	err      error
}

func (d *fakeDiscounts) ComputeForSession(_ context.Context, offerID, brandID uint, amount decimal.Decimal, _ time.Time) (*models.BankOffer, decimal.Decimal, error) {
	if d.err != nil {
		return nil, decimal.Zero, d.err
	}
	return d.offer, d.discount, nil
}

func (d *fakeDiscounts) RecordRedemption(_ context.Context, _ discount.RedemptionInput) error {
	return nil
}

func (d *fakeDiscounts) ListEligible(_ context.Context, _ uint, _ string, _ time.Time) ([]models.BankOffer, error) {
	return nil, nil
}

func (d *fakeDiscounts) LookupCard(_ context.Context, _ string) (*discount.CardLookup, error) {
	return &discount.CardLookup{}, nil
}

// fakeRail scripts Initiate outcomes for the card rail.
type fakeRail struct {
	name         string
	initiateResp *gateway.InitiateResponse
	initiateErr  error
	initiated    int
	tokenized    int
}

func (f *fakeRail) Name() string { return f.name }

func (f *fakeRail) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	f.initiated++
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	return f.initiateResp, nil
}

func (f *fakeRail) Authorize(_ context.Context, _ gateway.InitiateRequest) (*gateway.OperationResponse, error) {
	return nil, apperrors.Gateway("not supported", nil)
}

func (f *fakeRail) Capture(_ context.Context, _ string, _ gateway.Amount) (*gateway.OperationResponse, error) {
	return nil, apperrors.Gateway("not supported", nil)
}

func (f *fakeRail) Void(_ context.Context, _ string) (*gateway.OperationResponse, error) {
	return nil, apperrors.Gateway("not supported", nil)
}

func (f *fakeRail) Refund(_ context.Context, _ string, _ gateway.Amount) (*gateway.OperationResponse, error) {
	return nil, apperrors.Gateway("not supported", nil)
}

func (f *fakeRail) Tokenize(_ context.Context, _ gateway.CardData, customerRef string) (*gateway.TokenizedCard, error) {
	f.tokenized++
	return &gateway.TokenizedCard{Token: "tok_fake", CustomerRef: customerRef}, nil
}

func (f *fakeRail) ParseWebhookPayload(_ []byte) (*gateway.WebhookPayload, error) {
	return nil, apperrors.Validation("not implemented")
}

func (f *fakeRail) VerifySignature(_ []byte, _ func(string) string) bool { return true }

type fixture struct {
	svc      Service
	repo     *fakeSessionRepo
	cliq     *fakeCliqRepo
	rail     *fakeRail
	cliqRail *fakeRail
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeSessionRepo()
	cliqRepo := &fakeCliqRepo{}
	rail := &fakeRail{
		name:         gateway.NameCardRail,
		initiateResp: &gateway.InitiateResponse{Success: true, ExternalID: "ch_1", Status: gateway.StatusProcessing},
	}
	cliqRail := &fakeRail{
		name:         gateway.NameCliq,
		initiateResp: &gateway.InitiateResponse{Success: true, ExternalID: "req_1", Status: gateway.StatusPending},
	}
	svc := NewService(Config{
		Sessions:  repo,
		Cliq:      cliqRepo,
		Discounts: &fakeDiscounts{},
		Rails:     gateway.NewRegistry(rail, cliqRail),
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return now },
	})
	return &fixture{svc: svc, repo: repo, cliq: cliqRepo, rail: rail, cliqRail: cliqRail, now: now}
}

var (
	merchant = models.Actor{UserID: 1, Role: models.RoleMerchant, BrandID: 10, BranchID: 100}
	customer = models.Actor{UserID: 2, Role: models.RoleCustomer}
	rival    = models.Actor{UserID: 3, Role: models.RoleCustomer}
)

func (f *fixture) createSession(t *testing.T) *models.QrPaymentSession {
	t.Helper()
	sess, err := f.svc.Create(context.Background(), merchant, CreateInput{
		Amount: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)
	return sess
}

func (f *fixture) scannedSession(t *testing.T) *models.QrPaymentSession {
	t.Helper()
	sess := f.createSession(t)
	scanned, err := f.svc.Scan(context.Background(), customer, sess.SessionCode)
	require.NoError(t, err)
	return scanned
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("merchant opens a session", func(t *testing.T) {
		sess, err := f.svc.Create(ctx, merchant, CreateInput{Amount: decimal.RequireFromString("50.00")})
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusPending, sess.Status)
		assert.Equal(t, "JOD", sess.Currency)
		assert.True(t, sess.FinalAmount.Equal(sess.OriginalAmount))
		assert.True(t, sess.DiscountAmount.IsZero())
		assert.Equal(t, merchant.BranchID, sess.BranchID)
		assert.Contains(t, sess.SessionCode, "QRP-")
		assert.Equal(t, f.now.Add(15*time.Minute), sess.ExpiresAt)
	})

	t.Run("custom expiry", func(t *testing.T) {
		sess, err := f.svc.Create(ctx, merchant, CreateInput{
			Amount:    decimal.RequireFromString("5.00"),
			ExpiresIn: time.Hour,
		})
		require.NoError(t, err)
		assert.Equal(t, f.now.Add(time.Hour), sess.ExpiresAt)
	})

	t.Run("customers cannot open sessions", func(t *testing.T) {
		_, err := f.svc.Create(ctx, customer, CreateInput{Amount: decimal.RequireFromString("50.00")})
		assert.ErrorIs(t, err, ErrNotMerchant)
	})

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := f.svc.Create(ctx, merchant, CreateInput{Amount: decimal.Zero})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Kind(err))
	})
}

func TestScan(t *testing.T) {
	ctx := context.Background()

	t.Run("first scan claims the session", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)

		scanned, err := f.svc.Scan(ctx, customer, sess.SessionCode)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusScanned, scanned.Status)
		require.NotNil(t, scanned.CustomerID)
		assert.Equal(t, customer.UserID, *scanned.CustomerID)
		require.NotNil(t, scanned.ScannedAt)
	})

	t.Run("re-scan by the same customer is idempotent", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)

		_, err := f.svc.Scan(ctx, customer, sess.SessionCode)
		require.NoError(t, err)
		again, err := f.svc.Scan(ctx, customer, sess.SessionCode)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusScanned, again.Status)
	})

	t.Run("scan by a different customer conflicts", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)

		_, err := f.svc.Scan(ctx, customer, sess.SessionCode)
		require.NoError(t, err)
		_, err = f.svc.Scan(ctx, rival, sess.SessionCode)
		assert.ErrorIs(t, err, apperrors.ErrScannedByOther)
	})

	t.Run("expired session cannot be scanned", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)
		f.repo.sessions[sess.ID].ExpiresAt = f.now.Add(-time.Minute)

		_, err := f.svc.Scan(ctx, customer, sess.SessionCode)
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Scan(ctx, customer, "QRP-NOPE")
		assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("cancelled session cannot be scanned", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)
		require.NoError(t, f.svc.Cancel(ctx, merchant, sess.SessionCode))

		_, err := f.svc.Scan(ctx, customer, sess.SessionCode)
		assert.Equal(t, apperrors.CodeInvalidState, apperrors.Kind(err))
	})
}

func TestApplyDiscount(t *testing.T) {
	ctx := context.Background()

	t.Run("discount reduces the final amount", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		offer := &models.BankOffer{}
		offer.ID = 7
		f.svc.(*service).discounts = &fakeDiscounts{offer: offer, discount: decimal.RequireFromString("8.00")}

		updated, err := f.svc.ApplyDiscount(ctx, customer, sess.SessionCode, 7)
		require.NoError(t, err)
		assert.True(t, updated.DiscountAmount.Equal(decimal.RequireFromString("8.00")))
		assert.True(t, updated.FinalAmount.Equal(decimal.RequireFromString("42.00")))
		require.NotNil(t, updated.BankOfferID)
		assert.Equal(t, uint(7), *updated.BankOfferID)
		// conservation: original = discount + final
		assert.True(t, updated.OriginalAmount.Equal(updated.DiscountAmount.Add(updated.FinalAmount)))
	})

	t.Run("pending session rejects discounts", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)

		_, err := f.svc.ApplyDiscount(ctx, customer, sess.SessionCode, 7)
		assert.ErrorIs(t, err, ErrNotScanned)
	})

	t.Run("ineligible offer propagates", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		f.svc.(*service).discounts = &fakeDiscounts{err: apperrors.ErrOfferNotEligible}

		_, err := f.svc.ApplyDiscount(ctx, customer, sess.SessionCode, 7)
		assert.ErrorIs(t, err, apperrors.ErrOfferNotEligible)
	})
}

func TestBeginProcessing(t *testing.T) {
	ctx := context.Background()

	t.Run("card payment claims the session", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		instr, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		require.NoError(t, err)
		assert.Equal(t, "ch_1", instr.ExternalID)
		assert.Equal(t, models.SessionStatusProcessing, instr.Session.Status)
		assert.Equal(t, gateway.NameCardRail, instr.Session.Gateway)
		assert.Equal(t, "ch_1", instr.Session.GatewayTransactionID)
		assert.Equal(t, 1, f.rail.initiated)
	})

	t.Run("raw card data is tokenized first", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway: gateway.NameCardRail,
			Method:  models.PaymentMethodCard,
			Card:    &gateway.CardData{Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CVV: "123"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.rail.tokenized)
	})

	t.Run("missing card token reverts the claim", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway: gateway.NameCardRail,
			Method:  models.PaymentMethodCard,
		})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Kind(err))

		reread, err := f.svc.Get(ctx, sess.SessionCode)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusScanned, reread.Status)
		assert.Empty(t, reread.Gateway)
	})

	t.Run("gateway failure reverts the claim", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		f.rail.initiateErr = apperrors.Gateway("card rail unreachable", nil)

		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		assert.Equal(t, apperrors.CodeGateway, apperrors.Kind(err))

		reread, err := f.svc.Get(ctx, sess.SessionCode)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusScanned, reread.Status)
	})

	t.Run("cliq payment records the request", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		instr, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:       gateway.NameCliq,
			Method:        models.PaymentMethodCliq,
			CustomerAlias: "CUSTALIAS",
		})
		require.NoError(t, err)
		assert.Equal(t, "req_1", instr.ExternalID)
		require.Len(t, f.cliq.created, 1)
		assert.Equal(t, "req_1", f.cliq.created[0].RequestID)
		assert.Equal(t, sess.ID, f.cliq.created[0].SessionID)
	})

	t.Run("pending session is not payable", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)

		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		assert.ErrorIs(t, err, ErrNotPayable)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway: "carrier-pigeon",
			Method:  models.PaymentMethodCard,
		})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Kind(err))
	})

	t.Run("double pay: second attempt loses", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)

		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		require.NoError(t, err)

		_, err = f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		assert.ErrorIs(t, err, ErrNotPayable)
		assert.Equal(t, 1, f.rail.initiated)
	})
}

func TestMarkCompleted(t *testing.T) {
	ctx := context.Background()

	processingSession := func(t *testing.T, f *fixture) *models.QrPaymentSession {
		sess := f.scannedSession(t)
		instr, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		require.NoError(t, err)
		return instr.Session
	}

	t.Run("processing session completes", func(t *testing.T) {
		f := newFixture(t)
		sess := processingSession(t, f)

		res, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		assert.True(t, res.NewlyCompleted)
		assert.False(t, res.Anomalous)
		assert.Equal(t, models.SessionStatusCompleted, res.Session.Status)
		require.NotNil(t, res.Session.CompletedAt)
	})

	t.Run("duplicate completion is a no-op", func(t *testing.T) {
		f := newFixture(t)
		sess := processingSession(t, f)

		_, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		res, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		assert.False(t, res.NewlyCompleted)
	})

	t.Run("different external id conflicts", func(t *testing.T) {
		f := newFixture(t)
		sess := processingSession(t, f)

		_, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		_, err = f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_other", f.now)
		assert.Equal(t, apperrors.CodeConflict, apperrors.Kind(err))
	})

	t.Run("late completion on an expired session is flagged", func(t *testing.T) {
		f := newFixture(t)
		sess := processingSession(t, f)
		f.repo.sessions[sess.ID].Status = models.SessionStatusExpired

		res, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		assert.True(t, res.NewlyCompleted)
		assert.True(t, res.Anomalous)
		assert.Equal(t, models.SessionStatusExpired, res.Session.Status)
		assert.True(t, res.Session.FlaggedForReview)
		assert.NotEmpty(t, res.Session.FlagReason)
		require.NotNil(t, res.Session.CompletedAt)
	})

	t.Run("replayed late completion is not newly completed", func(t *testing.T) {
		f := newFixture(t)
		sess := processingSession(t, f)
		f.repo.sessions[sess.ID].Status = models.SessionStatusExpired

		first, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		require.True(t, first.NewlyCompleted)

		res, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		assert.False(t, res.NewlyCompleted)
		assert.True(t, res.Anomalous)
		assert.True(t, res.Session.FlaggedForReview)
	})

	t.Run("flagged session conflicts with a different external id", func(t *testing.T) {
		f := newFixture(t)
		sess := processingSession(t, f)
		f.repo.sessions[sess.ID].Status = models.SessionStatusExpired

		_, err := f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_1", f.now)
		require.NoError(t, err)
		_, err = f.svc.MarkCompleted(ctx, sess.SessionCode, "ch_other", f.now)
		assert.Equal(t, apperrors.CodeConflict, apperrors.Kind(err))
	})
}

func TestRevertToScanned(t *testing.T) {
	ctx := context.Background()

	t.Run("processing reverts and clears gateway fields", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		_, err := f.svc.BeginProcessing(ctx, customer, sess.SessionCode, PayInput{
			Gateway:   gateway.NameCardRail,
			Method:    models.PaymentMethodCard,
			CardToken: "tok_visa",
		})
		require.NoError(t, err)

		reverted, err := f.svc.RevertToScanned(ctx, sess.SessionCode, "charge declined")
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusScanned, reverted.Status)
		assert.Empty(t, reverted.Gateway)
		assert.Empty(t, reverted.GatewayTransactionID)
		assert.Empty(t, reverted.PaymentMethod)
	})

	t.Run("failed session can retry before its deadline", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		f.repo.sessions[sess.ID].Status = models.SessionStatusFailed

		reverted, err := f.svc.RevertToScanned(ctx, sess.SessionCode, "customer retry")
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusScanned, reverted.Status)
	})

	t.Run("failed session past its deadline cannot retry", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		f.repo.sessions[sess.ID].Status = models.SessionStatusFailed
		f.repo.sessions[sess.ID].ExpiresAt = f.now.Add(-time.Minute)

		_, err := f.svc.RevertToScanned(ctx, sess.SessionCode, "customer retry")
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("completed session never reverts", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		f.repo.sessions[sess.ID].Status = models.SessionStatusCompleted

		_, err := f.svc.RevertToScanned(ctx, sess.SessionCode, "oops")
		assert.Equal(t, apperrors.CodeInvalidState, apperrors.Kind(err))
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending session cancels", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)
		require.NoError(t, f.svc.Cancel(ctx, merchant, sess.SessionCode))

		reread, err := f.svc.Get(ctx, sess.SessionCode)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusCancelled, reread.Status)
	})

	t.Run("scanned session cancels", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		require.NoError(t, f.svc.Cancel(ctx, merchant, sess.SessionCode))
	})

	t.Run("processing session cannot cancel", func(t *testing.T) {
		f := newFixture(t)
		sess := f.scannedSession(t)
		f.repo.sessions[sess.ID].Status = models.SessionStatusProcessing

		err := f.svc.Cancel(ctx, merchant, sess.SessionCode)
		assert.Equal(t, apperrors.CodeInvalidState, apperrors.Kind(err))
	})

	t.Run("customer cannot cancel", func(t *testing.T) {
		f := newFixture(t)
		sess := f.createSession(t)
		assert.ErrorIs(t, f.svc.Cancel(ctx, customer, sess.SessionCode), ErrNotMerchant)
	})
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	live := f.createSession(t)
	stale := f.createSession(t)
	f.repo.sessions[stale.ID].ExpiresAt = f.now.Add(-time.Minute)
	done := f.createSession(t)
	f.repo.sessions[done.ID].Status = models.SessionStatusCompleted
	f.repo.sessions[done.ID].ExpiresAt = f.now.Add(-time.Minute)

	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reread, err := f.svc.Get(ctx, stale.SessionCode)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusExpired, reread.Status)

	reread, err = f.svc.Get(ctx, live.SessionCode)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, reread.Status)

	reread, err = f.svc.Get(ctx, done.SessionCode)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, reread.Status)
}
