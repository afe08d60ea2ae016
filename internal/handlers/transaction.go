package handlers

import (
	"qrpay/internal/middleware"
	"qrpay/internal/services/transaction"
	"qrpay/internal/utils/response"
	"qrpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	transactions transaction.Service
}

func NewTransactionHandler(transactions transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Get returns one ledger entry by its reference.
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	tx, err := h.transactions.GetByReference(c.Context(), actor, c.Params("reference"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Transaction retrieved", tx)
}

type refundRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"omitempty"`
}

// Refund asks the originating rail to return funds; the ledger settles
// when the refunded webhook arrives.
func (h *TransactionHandler) Refund(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.DomainError(c, err)
	}

	tx, err := h.transactions.Refund(c.Context(), actor, c.Params("reference"), req.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Refund initiated", tx)
}
