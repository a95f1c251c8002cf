package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetly/internal/auth"
	"budgetly/internal/backend"
	"budgetly/internal/cli"
	"budgetly/internal/config"
	apphttp "budgetly/internal/http"
	"budgetly/internal/loader"
	"budgetly/internal/log"
	"budgetly/internal/services"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentApp, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startCtx, backendCfg)
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ld, err := loader.New(result.Store, cfg.SnapshotCacheTTL, logger)
	if err != nil {
		logger.Error("Failed to initialize loader", log.FieldError, err.Error())
		os.Exit(1)
	}

	// keep the interface nil when events are disabled
	var publisher services.Publisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}

	loc := cfg.Location()
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              result.Store,
		Auth:               auth.NewService(result.Store, cfg.JWTSecret, cfg.SessionTTL, logger),
		Transactions:       services.NewTransactionService(result.Store, ld, publisher, loc, logger),
		Dashboard:          services.NewDashboardService(ld, loc),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		ld.Close()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting budgetly server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"events_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
