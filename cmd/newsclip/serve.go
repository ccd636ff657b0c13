package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/deusflow/newsclip/internal/app"
	"github.com/deusflow/newsclip/internal/logger"
	"github.com/deusflow/newsclip/internal/metrics"
	"github.com/deusflow/newsclip/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /health and /metrics and run the pipeline at the configured hours",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "monitoring port (default: MONITORING_PORT or 8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.MonitoringPort = port
	}

	ctx := cmd.Context()
	svc, err := app.Build(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.MonitoringPort,
		Handler:           monitoringMux(svc.Store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting monitoring server", "port", cfg.MonitoringPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Monitoring server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err = app.Schedule(ctx, cfg.RunHours, logger.Logger, func(ctx context.Context, at time.Time) {
		// failures are already logged and recorded in metrics.Global
		_, _ = svc.Pipeline.Run(ctx, app.PeriodAt(at, cfg.AfternoonStartHour))
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("👋 Shutting down")
		return nil
	}
	return err
}

func monitoringMux(store storage.Store) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(store))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !metrics.Global.Healthy() {
		status = "error"
	}

	response := map[string]interface{}{
		"status":      status,
		"last_run_id": stats["last_run_id"],
		"last_run":    stats["last_run_time"],
		"last_error":  stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(response)
}

// statsHandler reports the run counters together with the store's record counts.
func statsHandler(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := metrics.Global.GetStats()
		if store != nil {
			if storeStats, err := store.Stats(r.Context()); err == nil {
				stats["store"] = storeStats
			} else {
				stats["store_error"] = err.Error()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}
