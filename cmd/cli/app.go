package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/config"
	"github.com/theblitlabs/ioc-monitor/internal/monitoring/health"
	"github.com/theblitlabs/ioc-monitor/internal/monitoring/ioc"
	"github.com/theblitlabs/ioc-monitor/internal/monitoring/metrics"
	"github.com/theblitlabs/ioc-monitor/internal/publish"
	"github.com/theblitlabs/ioc-monitor/internal/server"
	"github.com/theblitlabs/ioc-monitor/internal/services"
	"github.com/theblitlabs/ioc-monitor/internal/telemetry"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

// App wires the aggregator to its sinks, the poll loop and the HTTP server.
type App struct {
	cfg               *config.Config
	aggregator        *ioc.Aggregator
	polls             *services.PollService
	server            *server.Server
	shutdownTelemetry func(context.Context) error
	log               zerolog.Logger
}

func matcherFromConfig(cfg *config.Config) ioc.Matcher {
	return ioc.Matcher{
		Interpreter: cfg.Monitor.Interpreter,
		Target:      cfg.Monitor.Target,
		Exclude:     cfg.Monitor.Exclude,
	}
}

// NewApp builds every component. reg receives the Prometheus gauges.
func NewApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	shutdown, err := telemetry.InitTelemetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	groups := []publish.Sinks{publish.NewLogSinks(logger.WithComponent("publisher"))}

	promSinks, err := telemetry.NewPrometheusSinks(reg)
	if err != nil {
		shutdown(ctx)
		return nil, fmt.Errorf("failed to register gauges: %w", err)
	}
	groups = append(groups, promSinks)

	if telemetry.Meter != nil {
		otelSinks, err := telemetry.NewOTelSinks(telemetry.Meter)
		if err != nil {
			shutdown(ctx)
			return nil, fmt.Errorf("failed to create otel gauges: %w", err)
		}
		groups = append(groups, otelSinks)
	}

	aggregator := ioc.NewAggregator(metrics.NewProcessSource(), matcherFromConfig(cfg), publish.Fanout(groups...))

	hc := health.NewHealthChecker(cfg.Health.FailureThreshold)
	status := services.NewStatusTracker()
	hub := server.NewStreamHub()

	app := &App{
		cfg:               cfg,
		aggregator:        aggregator,
		polls:             services.NewPollService(aggregator, cfg.Monitor.Interval, hc, status, hub),
		shutdownTelemetry: shutdown,
		log:               logger.WithComponent("app"),
	}
	if cfg.Server.Enabled {
		app.server = server.NewServer(cfg.ServerAddr(), hc, status, hub)
	}

	return app, nil
}

// Start launches the poll loop and, if enabled, the HTTP server. Server
// failures are reported on the returned channel.
func (a *App) Start(ctx context.Context) (<-chan error, error) {
	m := a.aggregator.Matcher()
	a.log.Info().
		Str("interpreter", m.Interpreter).
		Str("target", m.Target).
		Str("exclude", m.Exclude).
		Dur("interval", a.cfg.Monitor.Interval).
		Msg("Starting IOC monitor")

	if err := a.polls.Start(ctx); err != nil {
		return nil, err
	}

	errCh := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}
	return errCh, nil
}

// Stop shuts everything down within the context deadline.
func (a *App) Stop(ctx context.Context) error {
	start := time.Now()
	var firstErr error

	if a.server != nil {
		if err := a.server.Stop(ctx); err != nil {
			a.log.Error().Err(err).Msg("Error during HTTP server shutdown")
			firstErr = err
		}
	}

	a.polls.Stop()

	if err := a.shutdownTelemetry(ctx); err != nil {
		a.log.Error().Err(err).Msg("Error during telemetry shutdown")
		if firstErr == nil {
			firstErr = err
		}
	}

	a.log.Info().Dur("duration", time.Since(start)).Msg("IOC monitor stopped")
	return firstErr
}
