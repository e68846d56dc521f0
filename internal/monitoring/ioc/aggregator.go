package ioc

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
	"github.com/theblitlabs/ioc-monitor/internal/publish"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

const bytesPerMB = 1024 * 1024

// Aggregator walks the process table once per poll, sums the usage of matched
// IOC processes and publishes the totals. Calls to Poll must not overlap.
type Aggregator struct {
	source  ports.ProcessSource
	matcher Matcher
	cache   *HandleCache
	sinks   publish.Sinks
	log     zerolog.Logger
	now     func() time.Time
}

// NewAggregator creates an aggregator with an empty handle cache.
func NewAggregator(source ports.ProcessSource, matcher Matcher, sinks publish.Sinks) *Aggregator {
	return &Aggregator{
		source:  source,
		matcher: matcher,
		cache:   NewHandleCache(source),
		sinks:   sinks,
		log:     logger.WithComponent("aggregator"),
		now:     time.Now,
	}
}

// Poll runs one scan-aggregate-publish cycle. Per-process failures exclude that
// process from the totals. A failure to enumerate processes aborts the poll
// before anything is published.
func (a *Aggregator) Poll(ctx context.Context) (*models.Sample, error) {
	start := a.now()

	entries, err := a.source.Processes(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var totalCPU, totalMem float64
	found := make(map[int32]struct{})
	skipped := 0

	for _, entry := range entries {
		usage, err := a.inspect(ctx, entry)
		if err != nil {
			skipped++
			a.reportSkip(entry.PID(), err)
			continue
		}
		if usage == nil {
			continue
		}

		totalCPU += usage.cpu
		totalMem += float64(usage.rss) / bytesPerMB
		found[entry.PID()] = struct{}{}
	}

	if removed := a.cache.Prune(found); removed > 0 {
		a.log.Debug().Int("removed", removed).Msg("Pruned exited IOC processes")
	}

	sample := &models.Sample{
		TotalCPUPercent: totalCPU,
		TotalMemoryMB:   totalMem,
		MatchedCount:    len(found),
		Skipped:         skipped,
		CachedHandles:   a.cache.Len(),
		CollectedAt:     start,
		Duration:        a.now().Sub(start),
	}

	a.sinks.Publish(sample)
	return sample, nil
}

type usage struct {
	cpu float64
	rss uint64
}

// inspect returns nil usage for processes that do not match. The command
// line is only read once the name passes, so unrelated processes with
// unreadable arguments are not counted as skipped.
func (a *Aggregator) inspect(ctx context.Context, entry ports.ProcessEntry) (*usage, error) {
	name, err := entry.Name(ctx)
	if err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	if !a.matcher.MatchesName(name) {
		return nil, nil
	}
	cmdline, err := entry.Cmdline(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cmdline: %w", err)
	}
	if !a.matcher.MatchesArgs(cmdline) {
		return nil, nil
	}

	createTime, err := entry.CreateTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("read create time: %w", err)
	}
	handle, err := a.cache.GetOrCreate(ctx, entry.PID(), createTime)
	if err != nil {
		return nil, fmt.Errorf("open handle: %w", err)
	}

	cpu, err := handle.CPUPercent(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cpu: %w", err)
	}
	rss, err := handle.RSS(ctx)
	if err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}

	return &usage{cpu: cpu, rss: rss}, nil
}

func (a *Aggregator) reportSkip(pid int32, err error) {
	outcome := Classify(err)
	event := a.log.Trace()
	if outcome == OutcomeFailed {
		event = a.log.Warn()
	}
	event.Err(err).
		Int32("pid", pid).
		Str("outcome", outcome.String()).
		Msg("Skipped process")
}

// Matcher returns the matcher in use.
func (a *Aggregator) Matcher() Matcher {
	return a.matcher
}

// Close releases all cached handles.
func (a *Aggregator) Close() {
	a.cache.Reset()
}
