package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/fleet-compliance/internal/adapters/scheduler"
	"github.com/kirillkom/fleet-compliance/internal/bootstrap"
	"github.com/kirillkom/fleet-compliance/internal/config"
	"github.com/kirillkom/fleet-compliance/internal/observability/logging"
	"github.com/kirillkom/fleet-compliance/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Install("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, workerMetrics)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	digests, err := app.NewDigestUseCase()
	if err != nil {
		slog.Error("digest_publisher_failed", "error", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	slog.Info("worker_started",
		"subject", cfg.NATSSubject,
		"interval", cfg.ScanInterval.String(),
		"snapshot_source", cfg.SnapshotSource,
	)
	scheduler.NewDigestLoop(digests, workerMetrics, cfg.ScanInterval).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
