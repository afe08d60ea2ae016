package handlers

import (
	"time"

	"qrpay/internal/middleware"
	"qrpay/internal/services/discount"
	"qrpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type OfferHandler struct {
	discounts discount.Service
}

func NewOfferHandler(discounts discount.Service) *OfferHandler {
	return &OfferHandler{discounts: discounts}
}

// ListEligible returns offers redeemable at the caller's brand right now,
// optionally narrowed to the customer's card BIN.
func (h *OfferHandler) ListEligible(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	offers, err := h.discounts.ListEligible(c.Context(), actor.BrandID, c.Query("bin"), time.Now())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Eligible offers retrieved", offers)
}

// LookupCard resolves a card BIN to its card type, bank and network.
func (h *OfferHandler) LookupCard(c *fiber.Ctx) error {
	lookup, err := h.discounts.LookupCard(c.Context(), c.Query("bin"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Card lookup", lookup)
}
