package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/sandbox"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment sandbox",
		"port", cfg.Sandbox.Port,
		"base_url", cfg.Sandbox.BaseURL,
	)

	handler := sandbox.New(cfg.Sandbox.BaseURL, logger)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Sandbox.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Sandbox.ReadTimeout,
		WriteTimeout: cfg.Sandbox.WriteTimeout,
		IdleTimeout:  cfg.Sandbox.IdleTimeout,
	}

	go func() {
		logger.Info("sandbox listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down sandbox...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("sandbox exited")
}
