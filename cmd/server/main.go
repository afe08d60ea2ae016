// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrpay/internal/config"
	"qrpay/internal/repositories"
	"qrpay/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}

	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("failed to close database connection", zap.Error(err))
				}
			}
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				logger.Warn("failed to close redis connection", zap.Error(err))
			}
		}
	}()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "qrpay",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	// Request logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Webhook endpoints take the brunt of gateway retries; cap them per IP.
	app.Use("/api/v1/webhooks", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("WEBHOOK_RATE_LIMIT", 120),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	// Routes
	sessionService := routes.SetupRoutes(app, repositories.DB, logger)

	// Background sweeper: expires sessions whose deadline has passed.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(config.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				n, err := sessionService.SweepExpired(sweepCtx)
				if err != nil {
					logger.Error("session sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("expired stale sessions", zap.Int64("count", n))
				}
			}
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("shutting down")
		stopSweep()
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	// Start server
	addr := ":" + config.GetEnv("PORT", "3000")
	logger.Info("starting server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if config.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
