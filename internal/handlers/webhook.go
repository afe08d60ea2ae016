package handlers

import (
	apperrors "qrpay/internal/errors"
	"qrpay/internal/services/reconcile"
	"qrpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	reconciler reconcile.Service
}

func NewWebhookHandler(reconciler reconcile.Service) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Receive handles one rail's webhook endpoint. Duplicates and unknown
// references are acknowledged so the rail stops redelivering; only
// internal faults return a retryable status.
func (h *WebhookHandler) Receive(railName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := func(key string) string { return c.Get(key) }
		outcome, err := h.reconciler.Process(c.Context(), railName, c.Body(), header)
		if err != nil {
			switch apperrors.Kind(err) {
			case apperrors.CodeSignature:
				return response.Error(c, fiber.StatusUnauthorized, "invalid signature")
			case apperrors.CodeValidation:
				return response.BadRequest(c, "invalid payload")
			default:
				// Retryable: the rail should redeliver.
				return response.ServerError(c, "temporary failure")
			}
		}

		return c.JSON(fiber.Map{
			"received":  true,
			"status":    outcome.Status,
			"reference": outcome.Reference,
			"duplicate": outcome.Duplicate,
		})
	}
}
