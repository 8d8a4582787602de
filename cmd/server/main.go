package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"andicblue/backend/internal/bootstrap"
	"andicblue/backend/internal/config"
	"andicblue/backend/internal/httpapi"
	"andicblue/backend/internal/logging"
	"andicblue/backend/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	os.Exit(finish(logger, run(cfg, logger)))
}

// finish logs a failed run and flushes the logger before the process exits.
func finish(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server failed", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc, closers, err := bootstrap.Open(ctx, cfg, logger, metrics)
	defer closers.Close(logger)
	if err != nil {
		return err
	}

	api := httpapi.New(svc, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit:     cfg.RateLimit,
		Metrics:       metrics,
		Logger:        logger,
	})
	server := newHTTPServer(cfg.Address(), api.Handler())

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("ventas backend listening", zap.String("addr", server.Addr), zap.String("storage", cfg.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Writes may wait out storage retries.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
