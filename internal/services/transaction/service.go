package transaction

import (
	"context"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"
	"qrpay/internal/models"
	"qrpay/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	transactions repositories.TransactionRepository
	rails        *gateway.Registry
	logger       *zap.Logger
}

func NewService(transactions repositories.TransactionRepository, rails *gateway.Registry, logger *zap.Logger) Service {
	return &service{transactions: transactions, rails: rails, logger: logger}
}

func (s *service) GetByReference(ctx context.Context, actor models.Actor, reference string) (*models.PaymentTransaction, error) {
	if actor.Role != models.RoleMerchant && actor.Role != models.RoleAdmin {
		return nil, apperrors.Validation("only a merchant can view transactions")
	}
	return s.transactions.GetByReference(ctx, reference)
}

func (s *service) Refund(ctx context.Context, actor models.Actor, reference string, amount decimal.Decimal) (*models.PaymentTransaction, error) {
	if actor.Role != models.RoleMerchant && actor.Role != models.RoleAdmin {
		return nil, apperrors.Validation("only a merchant can refund transactions")
	}

	tx, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionStatusCompleted && tx.Status != models.TransactionStatusPartiallyRefunded {
		return nil, apperrors.InvalidState("only settled transactions can be refunded")
	}

	if amount.IsZero() {
		amount = tx.FinalAmount.Sub(tx.RefundedAmount)
	}
	if !amount.IsPositive() || amount.GreaterThan(tx.FinalAmount.Sub(tx.RefundedAmount)) {
		return nil, apperrors.Validation("refund amount exceeds refundable balance")
	}

	rail, ok := s.rails.Get(tx.Gateway)
	if !ok {
		return nil, apperrors.Validationf("transaction gateway %q is not configured", tx.Gateway)
	}

	resp, err := rail.Refund(ctx, tx.GatewayTransactionID, gateway.Amount{
		Value:    amount,
		Currency: tx.Currency,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.Gateway("rail rejected the refund", nil)
	}

	s.logger.Info("refund initiated",
		zap.String("reference", reference),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("gateway", tx.Gateway))

	// The refunded webhook moves the ledger; return the current row.
	return tx, nil
}
