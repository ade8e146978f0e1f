package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsfeed/config"
	"newsfeed/internal/app"
	"newsfeed/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Errorf("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	application, err := app.New(cfg)
	if err != nil {
		logger.Errorf("Failed to initialize application: %v", err)
		os.Exit(1)
	}
	defer application.Close()

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Newsfeed views poll every source of the user before responding.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server started on port %s (%s)", cfg.AppPort, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infof("Received %s, shutting down", sig)
	case err := <-errCh:
		logger.Errorf("Server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
