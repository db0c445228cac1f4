package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/maxviazov/cve-catalog-service/internal/config"
	"github.com/maxviazov/cve-catalog-service/internal/logger"
)

const defaultConfigPath = "config.yaml"

// configPath honours CONFIG_PATH; without it config.yaml is used when present,
// otherwise defaults and environment variables alone.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return defaultConfigPath
}

func main() {
	// Load application config
	cfg, err := config.Load(configPath())
	if err != nil {
		stdlog.Fatalf("config loading failed: %v", err)
	}

	// Initialize logger
	if cfg.Logger.ServiceVersion == "" {
		cfg.Logger.ServiceVersion = cfg.App.Version
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		stdlog.Fatalf("logger initialization failed: %v", err)
	}
	log.Logger = appLogger

	ctx := context.Background()
	s, err := openStore(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("record store unavailable at startup")
	}
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      newRouter(cfg, appLogger, s, prometheus.NewRegistry()),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-stop:
		appLogger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		appLogger.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("shutdown error")
	}
	appLogger.Info().Msg("stopped")
}
