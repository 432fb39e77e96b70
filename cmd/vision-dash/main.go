package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dj-oyu/vision-dash/internal/dashboard"
	"github.com/dj-oyu/vision-dash/internal/logger"
	"github.com/dj-oyu/vision-dash/internal/metrics"
)

func main() {
	cfg := dashboard.LoadEnv(dashboard.DefaultConfig())

	var logLevel string
	var logColor bool

	flag.StringVar(&cfg.Addr, "http", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.APIBase, "api-base", cfg.APIBase, "Prediction producer base URL (env "+dashboard.APIBaseEnv+")")
	flag.IntVar(&cfg.CameraCount, "cameras", cfg.CameraCount, "Number of selectable cameras")
	flag.IntVar(&cfg.HistoryCapacity, "history", cfg.HistoryCapacity, "Maximum history records kept")
	flag.BoolVar(&cfg.StrictPayload, "strict-payload", cfg.StrictPayload, "Reject events whose counts are not integers")
	flag.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Directory overriding the embedded web assets")
	flag.DurationVar(&cfg.KeepaliveInterval, "keepalive", cfg.KeepaliveInterval, "Live stream keepalive interval")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, silent)")
	flag.BoolVar(&logColor, "log-color", true, "Enable colored log output")
	flag.Parse()

	// Initialize logger
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, logColor)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	server := dashboard.NewServer(cfg, metrics.New())

	logger.Info("Main", "Vision dashboard listening on %s", cfg.Addr)
	logger.Info("Main", "Prediction feed: %s/stream", cfg.APIBase)
	logger.Info("Main", "Log level: %s", level)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Main", "Shutting down...")

	// Close the upstream session before draining HTTP clients.
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("Main", "Error during shutdown: %v", err)
	}

	logger.Info("Main", "Server stopped")
}
