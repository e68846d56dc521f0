package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
	"github.com/theblitlabs/ioc-monitor/internal/telemetry"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

var ErrAlreadyStarted = errors.New("poll service already started")

// Poller runs one aggregation cycle. Implementations need not be safe for
// concurrent use; PollService never overlaps calls.
type Poller interface {
	Poll(ctx context.Context) (*models.Sample, error)
	Close()
}

// PollObserver is notified after every poll, successful or not. Exactly one
// of sample and err is non-nil.
type PollObserver interface {
	ObservePoll(sample *models.Sample, err error)
}

// PollService invokes a Poller on a fixed interval.
type PollService struct {
	poller    Poller
	interval  time.Duration
	observers []PollObserver
	logger    zerolog.Logger
	tracer    trace.Tracer

	pollMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPollService creates a poll service; observers are called in order.
func NewPollService(poller Poller, interval time.Duration, observers ...PollObserver) *PollService {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &PollService{
		poller:    poller,
		interval:  interval,
		observers: observers,
		logger:    logger.WithComponent("poll_service"),
		tracer:    otel.Tracer("github.com/theblitlabs/ioc-monitor/internal/services"),
	}
}

// Start polls immediately and then on every tick until ctx is cancelled or
// Stop is called.
func (s *PollService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info().Dur("interval", s.interval).Msg("Starting poll service")

	go s.loop(ctx, s.done)
	return nil
}

func (s *PollService) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			s.logger.Info().Msg("Poll service stopped")
			return
		}
	}
}

// Stop halts the loop, waits for an in-flight poll and releases the poller.
func (s *PollService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.pollMu.Lock()
	s.poller.Close()
	s.pollMu.Unlock()
}

// RunOnce performs a single poll and notifies observers. It is serialized
// with the background loop.
func (s *PollService) RunOnce(ctx context.Context) (*models.Sample, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ioc.poll")
	defer span.End()

	start := time.Now()
	sample, err := s.poller.Poll(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "poll failed")
		telemetry.RecordPoll(telemetry.PollStatusError, elapsed, 0)
		s.logger.Error().Err(err).Dur("elapsed", elapsed).
			Msg("Poll failed, keeping last published values")
	} else {
		span.SetAttributes(
			attribute.Int("ioc.matched", sample.MatchedCount),
			attribute.Int("ioc.skipped", sample.Skipped),
			attribute.Float64("ioc.cpu_percent", sample.TotalCPUPercent),
			attribute.Float64("ioc.memory_mb", sample.TotalMemoryMB),
		)
		telemetry.RecordPoll(telemetry.PollStatusSuccess, elapsed, sample.Skipped)
		s.logger.Debug().
			Int("matched", sample.MatchedCount).
			Int("skipped", sample.Skipped).
			Float64("cpu_percent", sample.TotalCPUPercent).
			Float64("memory_mb", sample.TotalMemoryMB).
			Dur("elapsed", elapsed).
			Msg("Poll complete")
	}

	for _, o := range s.observers {
		o.ObservePoll(sample, err)
	}

	return sample, err
}
