// Command server runs the dog adoption API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tonybigdeals/dog-project/internal/app"
	"github.com/tonybigdeals/dog-project/internal/config"
	"github.com/tonybigdeals/dog-project/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewDefault("server").WithError(err).Fatal("load configuration")
	}
	log := logging.New("dog-project", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("initialise application")
	}
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start background services")
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           application.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).WithField("backend", cfg.Storage.Backend).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	failed := false
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.WithError(err).Error("server error")
		failed = true
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
	log.Info("server stopped")
	if failed {
		os.Exit(1)
	}
}
