package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theblitlabs/ioc-monitor/internal/config"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func RunMonitor(configPath string) error {
	log := logger.WithComponent("cli")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	errCh, err := app.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	var runErr error
	select {
	case sig := <-stopChan:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received, gracefully shutting down...")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Monitor failed")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
