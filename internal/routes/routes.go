// Package routes defines the API routing configuration.
// It wires repositories, payment rails and services together and
// registers all HTTP routes with their middleware.
package routes

import (
	"qrpay/internal/config"
	"qrpay/internal/gateway"
	"qrpay/internal/gateway/cardrail"
	"qrpay/internal/gateway/cliq"
	"qrpay/internal/handlers"
	"qrpay/internal/middleware"
	"qrpay/internal/models"
	"qrpay/internal/repositories"
	"qrpay/internal/services/discount"
	"qrpay/internal/services/notification"
	"qrpay/internal/services/reconcile"
	"qrpay/internal/services/session"
	"qrpay/internal/services/transaction"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It builds the full dependency graph and returns the session service so
// the caller can run the expiry sweeper against the same instance.
func SetupRoutes(app *fiber.App, db *gorm.DB, logger *zap.Logger) session.Service {
	// Repositories
	sessionRepo := repositories.NewSessionRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	offerRepo := repositories.NewOfferRepository(db)
	cliqRepo := repositories.NewCliqRequestRepository(db)

	// Payment rails
	httpClient := gateway.NewClient(logger)
	rails := gateway.NewRegistry(
		cardrail.New(config.CardRail(), httpClient, logger),
		cliq.New(config.CliqRail(), httpClient, logger),
	)

	// Services
	discountService := discount.NewService(offerRepo, logger)
	sessionService := session.NewService(session.Config{
		Sessions:   sessionRepo,
		Cliq:       cliqRepo,
		Discounts:  discountService,
		Rails:      rails,
		Logger:     logger,
		DefaultTTL: config.SessionTTL(),
	})
	publisher := notification.NewRedisPublisher(repositories.CacheService, logger)
	reconcileService := reconcile.NewService(reconcile.Config{
		Rails:        rails,
		Sessions:     sessionService,
		SessionRepo:  sessionRepo,
		Transactions: transactionRepo,
		Discounts:    discountService,
		Cliq:         cliqRepo,
		Publisher:    publisher,
		Cache:        repositories.CacheService,
		Logger:       logger,
	})
	transactionService := transaction.NewService(transactionRepo, rails, logger)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessionService)
	webhookHandler := handlers.NewWebhookHandler(reconcileService)
	offerHandler := handlers.NewOfferHandler(discountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	app.Get("/health", handlers.Health)

	api := app.Group("/api/v1")

	// Webhook endpoints are authenticated by HMAC signature, not JWT.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/cardrail", webhookHandler.Receive(gateway.NameCardRail))
	webhooks.Post("/cliq", webhookHandler.Receive(gateway.NameCliq))

	// Everything below requires a valid token.
	protected := api.Use(middleware.Auth)

	sessions := protected.Group("/sessions")
	sessions.Post("/", middleware.RequireRole(models.RoleMerchant, models.RoleAdmin), sessionHandler.Create)
	sessions.Get("/", middleware.RequireRole(models.RoleMerchant, models.RoleAdmin), sessionHandler.List)
	sessions.Get("/:code", sessionHandler.Get)
	sessions.Post("/:code/scan", middleware.RequireRole(models.RoleCustomer), sessionHandler.Scan)
	sessions.Post("/:code/discount", middleware.RequireRole(models.RoleCustomer), sessionHandler.ApplyDiscount)
	sessions.Post("/:code/pay", middleware.RequireRole(models.RoleCustomer), sessionHandler.Pay)
	sessions.Post("/:code/retry", middleware.RequireRole(models.RoleCustomer), sessionHandler.Retry)
	sessions.Post("/:code/cancel", middleware.RequireRole(models.RoleMerchant, models.RoleAdmin), sessionHandler.Cancel)

	protected.Get("/offers", offerHandler.ListEligible)
	protected.Get("/cards/lookup", offerHandler.LookupCard)

	transactions := protected.Group("/transactions")
	transactions.Get("/:reference", transactionHandler.Get)
	transactions.Post("/:reference/refund", middleware.RequireRole(models.RoleMerchant, models.RoleAdmin), transactionHandler.Refund)

	return sessionService
}
