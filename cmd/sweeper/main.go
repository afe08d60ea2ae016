// Standalone expired-session sweeper. Deployments that scale the HTTP
// server horizontally run one of these instead of the in-process ticker.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrpay/internal/config"
	"qrpay/internal/repositories"
	"qrpay/internal/services/session"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	config.LoadEnv()

	logger, err := zap.NewProduction()
	if !config.IsProduction() {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := repositories.InitDB(); err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close() //nolint:errcheck
		}
	}()

	sessions := session.NewService(session.Config{
		Sessions: repositories.NewSessionRepository(repositories.DB),
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := func() {
		n, err := sessions.SweepExpired(ctx)
		if err != nil {
			logger.Error("sweep failed", zap.Error(err))
			return
		}
		logger.Info("sweep complete", zap.Int64("expired", n))
	}

	sweep()
	if *once {
		os.Exit(0)
	}

	ticker := time.NewTicker(config.SweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
