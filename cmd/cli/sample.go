package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/theblitlabs/ioc-monitor/internal/config"
	"github.com/theblitlabs/ioc-monitor/internal/core/models"
	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
	"github.com/theblitlabs/ioc-monitor/internal/monitoring/ioc"
	"github.com/theblitlabs/ioc-monitor/internal/monitoring/metrics"
	"github.com/theblitlabs/ioc-monitor/internal/publish"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

// RunSample polls twice, wait apart, and prints the second result. The first
// poll only establishes the CPU baseline.
func RunSample(out io.Writer, configPath string, wait time.Duration) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sample, err := sampleOnce(context.Background(), metrics.NewProcessSource(), matcherFromConfig(cfg), wait)
	if err != nil {
		return err
	}

	writeSample(out, sample)
	return nil
}

func sampleOnce(ctx context.Context, source ports.ProcessSource, matcher ioc.Matcher, wait time.Duration) (*models.Sample, error) {
	aggregator := ioc.NewAggregator(source, matcher, publish.NewLogSinks(logger.WithComponent("publisher")))
	defer aggregator.Close()

	if _, err := aggregator.Poll(ctx); err != nil {
		return nil, err
	}

	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return aggregator.Poll(ctx)
}

func writeSample(out io.Writer, sample *models.Sample) {
	line := func(desc publish.Descriptor, v float64) {
		fmt.Fprintln(out, strings.TrimSpace(fmt.Sprintf("%-14s %.*f %s", desc.Name, desc.Precision, v, desc.Unit)))
	}
	line(publish.CPUDescriptor, sample.TotalCPUPercent)
	line(publish.MemoryDescriptor, sample.TotalMemoryMB)
	line(publish.CountDescriptor, float64(sample.MatchedCount))
}
