package handlers

import (
	"time"

	"qrpay/internal/gateway"
	"qrpay/internal/middleware"
	"qrpay/internal/services/session"
	"qrpay/internal/utils/pagination"
	"qrpay/internal/utils/response"
	"qrpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SessionHandler struct {
	sessions session.Service
}

func NewSessionHandler(sessions session.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Description   string          `json:"description" validate:"omitempty,max=255"`
	ExpiresInSecs int             `json:"expires_in_seconds" validate:"omitempty,min=60,max=86400"`
}

// Create opens a new payment session for the merchant's branch.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.DomainError(c, err)
	}

	sess, err := h.sessions.Create(c.Context(), actor, session.CreateInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		ExpiresIn:   time.Duration(req.ExpiresInSecs) * time.Second,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payment session created", sess)
}

// Get resolves a session by its shareable code (the QR payload).
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Context(), c.Params("code"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payment session retrieved", sess)
}

// List returns the merchant branch's sessions, newest first.
func (h *SessionHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	p := pagination.ParseFromRequest(c)
	sessions, total, err := h.sessions.List(c.Context(), actor, p.Page, p.Limit)
	if err != nil {
		return response.DomainError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, sessions))
}

// Scan attaches the scanning customer to the session.
func (h *SessionHandler) Scan(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	sess, err := h.sessions.Scan(c.Context(), actor, c.Params("code"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Session scanned", sess)
}

type applyDiscountRequest struct {
	BankOfferID uint `json:"bank_offer_id" validate:"required"`
}

// ApplyDiscount recomputes the session amounts from a bank offer.
func (h *SessionHandler) ApplyDiscount(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req applyDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.DomainError(c, err)
	}

	sess, err := h.sessions.ApplyDiscount(c.Context(), actor, c.Params("code"), req.BankOfferID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Discount applied", sess)
}

type payRequest struct {
	Gateway       string `json:"gateway" validate:"required,oneof=cardrail cliq"`
	Method        string `json:"method" validate:"required,oneof=card cliq"`
	CardToken     string `json:"card_token"`
	CustomerAlias string `json:"customer_alias"`
	ReturnURL     string `json:"return_url" validate:"omitempty,url"`

	Card *cardDataRequest `json:"card"`
}

type cardDataRequest struct {
	Number      string `json:"number" validate:"required,min=12,max=19"`
	ExpiryMonth string `json:"expiry_month" validate:"required,len=2"`
	ExpiryYear  string `json:"expiry_year" validate:"required,len=4"`
	CVV         string `json:"cvv" validate:"required,min=3,max=4"`
	HolderName  string `json:"holder_name"`
}

// Pay selects the rail and initiates the charge.
func (h *SessionHandler) Pay(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.DomainError(c, err)
	}

	in := session.PayInput{
		Gateway:       req.Gateway,
		Method:        req.Method,
		CardToken:     req.CardToken,
		CustomerAlias: req.CustomerAlias,
		ReturnURL:     req.ReturnURL,
	}
	if req.Card != nil {
		in.Card = &gateway.CardData{
			Number:      req.Card.Number,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CVV:         req.Card.CVV,
			HolderName:  req.Card.HolderName,
		}
	}

	instruction, err := h.sessions.BeginProcessing(c.Context(), actor, c.Params("code"), in)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payment initiated", fiber.Map{
		"session":      instruction.Session,
		"external_id":  instruction.ExternalID,
		"redirect_url": instruction.RedirectURL,
		"status":       instruction.Status,
	})
}

// Cancel terminates a session before payment begins.
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	if err := h.sessions.Cancel(c.Context(), actor, c.Params("code")); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Session cancelled", nil)
}

// Retry reopens a failed session for another payment attempt.
func (h *SessionHandler) Retry(c *fiber.Ctx) error {
	if _, ok := middleware.ActorFromContext(c); !ok {
		return response.Unauthorized(c)
	}

	sess, err := h.sessions.RevertToScanned(c.Context(), c.Params("code"), "customer retry")
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Session reopened", sess)
}
