// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quickbite/internal/api"
	"quickbite/internal/app"
	"quickbite/internal/common/camunda"
	"quickbite/internal/common/config"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/observability"

	cpe "quickbite/internal/workers/chat/confirm-price-edit"
	hcm "quickbite/internal/workers/chat/handle-chat-message"
	hiu "quickbite/internal/workers/chat/handle-image-upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs, err := observability.New(cfg.App.Name+"-workers", cfg.App.Version, cfg.Tracing)
	if err != nil {
		zapLog.Warn("observability partially initialised", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = app.RetryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			Retry: &camunda.Backoff{
				MaxRetries: 3,
				BaseDelay:  500 * time.Millisecond,
				MaxDelay:   config.GetDuration(cfg.Camunda.RequestTimeout),
			},
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	components, err := app.Build(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}
	defer components.Close()

	// --- Register chat workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := config.GetWorkerConfig(cfg, hcm.TaskType); wcfg.Enabled {
		hc := hcm.LoadConfig()
		hc.Timeout = config.GetDuration(wcfg.Timeout)
		hc.MaxRetries = wcfg.MaxRetries
		hc.Backoff = zeebe.Backoff()
		handler := hcm.NewHandler(hc, components.Assistant, log)
		workers = append(workers, startWorker(zeebe, hcm.TaskType, wcfg, handler, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, hiu.TaskType); wcfg.Enabled {
		hc := hiu.LoadConfig()
		hc.Timeout = config.GetDuration(wcfg.Timeout)
		hc.MaxRetries = wcfg.MaxRetries
		hc.Backoff = zeebe.Backoff()
		handler := hiu.NewHandler(hc, components.Assistant, log)
		workers = append(workers, startWorker(zeebe, hiu.TaskType, wcfg, handler, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, cpe.TaskType); wcfg.Enabled {
		hc := cpe.LoadConfig()
		hc.Timeout = config.GetDuration(wcfg.Timeout)
		hc.MaxRetries = wcfg.MaxRetries
		hc.Backoff = zeebe.Backoff()
		handler := cpe.NewHandler(hc, components.Assistant, log)
		workers = append(workers, startWorker(zeebe, cpe.TaskType, wcfg, handler, zapLog))
	}

	zapLog.Info("Chat workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	checks := append(components.Readiness(), api.Checker{Name: "zeebe", Check: zeebe.HealthCheck})
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			writeStatus(w, http.StatusOK, map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			status, code := map[string]string{"status": "ready"}, http.StatusOK
			for _, c := range checks {
				if err := c.Check(ctx); err != nil {
					status[c.Name] = err.Error()
					status["status"], code = "not ready", http.StatusServiceUnavailable
					continue
				}
				status[c.Name] = "ok"
			}
			writeStatus(w, code, status)
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, log *zap.Logger) *camunda.CamundaWorker {
	return camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, handler, log)
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
