// cmd/quickbite-api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quickbite/internal/api"
	"quickbite/internal/app"
	"quickbite/internal/common/config"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/observability"
	"quickbite/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting QuickBite API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name+"-api", cfg.App.Version, cfg.Tracing)
	if err != nil {
		zapLog.Warn("observability partially initialised", zap.Error(err))
	}

	ctx := context.Background()

	components, err := app.Build(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}
	defer components.Close()

	if err := repository.ApplySchema(ctx, components.Postgres); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	deps := components.APIDependencies()
	deps.Observability = obs

	mode := "release"
	if cfg.App.Environment == "development" {
		mode = "debug"
	}
	server := api.NewServer(api.Config{
		CookieName:      cfg.HTTP.SessionCookie,
		SecureCookies:   cfg.HTTP.SecureCookies,
		MaxUploadBytes:  cfg.HTTP.MaxUploadBytes,
		RequestTimeout:  config.GetDuration(cfg.Chat.RequestTimeout),
		TrustedProxies:  cfg.HTTP.TrustedProxies,
		AdminIdentities: cfg.HTTP.AdminIdentities,
		Mode:            mode,
	}, deps, log)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("QuickBite API stopped gracefully", zap.Duration("uptime", time.Since(startedAt)))
}

var startedAt = time.Now()
