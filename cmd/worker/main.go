package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusmind/campus-assistant/internal/bootstrap"
	"github.com/campusmind/campus-assistant/internal/config"
	"github.com/campusmind/campus-assistant/internal/observability/logging"
	"github.com/campusmind/campus-assistant/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logging.Setup("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReingest(ctx, func(handlerCtx context.Context, corpus string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		start := time.Now()
		runErr := runIngestion(runCtx, app, corpus)
		workerMetrics.ObserveRun(corpus, runErr, time.Since(start))
		if runErr == nil {
			workerMetrics.SetRecordsIndexed(corpus, app.Catalog.Size())
		}
		return runErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func runIngestion(ctx context.Context, app *bootstrap.App, corpus string) error {
	switch corpus {
	case "courses":
		return app.IngestCoursesUC.IngestCourses(ctx)
	case "knowledge":
		return app.IngestKnowledgeUC.IngestKnowledge(ctx)
	default:
		return fmt.Errorf("unknown corpus %q", corpus)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
