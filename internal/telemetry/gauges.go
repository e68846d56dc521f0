package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"

	"github.com/theblitlabs/ioc-monitor/internal/publish"
)

const namespace = "ioc_monitor"

var promUnits = map[string]string{
	"%":  "percent",
	"MB": "megabytes",
}

var otelUnits = map[string]string{
	"%":  "%",
	"MB": "MBy",
	"":   "{process}",
}

func promName(desc publish.Descriptor) string {
	if suffix, ok := promUnits[desc.Unit]; ok {
		return desc.Name + "_" + suffix
	}
	return desc.Name
}

// NewPrometheusSinks registers one gauge per aggregate on reg.
func NewPrometheusSinks(reg prometheus.Registerer) (publish.Sinks, error) {
	newGauge := func(desc publish.Descriptor) (prometheus.Gauge, error) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      promName(desc),
			Help:      desc.Help,
		})
		if err := reg.Register(g); err != nil {
			return nil, fmt.Errorf("register %s: %w", desc.Name, err)
		}
		return g, nil
	}

	cpu, err := newGauge(publish.CPUDescriptor)
	if err != nil {
		return publish.Sinks{}, err
	}
	mem, err := newGauge(publish.MemoryDescriptor)
	if err != nil {
		return publish.Sinks{}, err
	}
	count, err := newGauge(publish.CountDescriptor)
	if err != nil {
		return publish.Sinks{}, err
	}

	return publish.Sinks{CPU: cpu, Memory: mem, Count: count}, nil
}

// NewOTelSinks creates observable gauges that report the last published
// values whenever the meter's reader collects.
func NewOTelSinks(meter metric.Meter) (publish.Sinks, error) {
	cpu, mem, count := &publish.Cell{}, &publish.Cell{}, &publish.Cell{}

	floatGauge := func(desc publish.Descriptor, cell *publish.Cell) error {
		_, err := meter.Float64ObservableGauge(
			namespace+"."+desc.Name,
			metric.WithDescription(desc.Help),
			metric.WithUnit(otelUnits[desc.Unit]),
			metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
				if v, ok := cell.Load(); ok {
					o.Observe(v)
				}
				return nil
			}),
		)
		return err
	}

	if err := floatGauge(publish.CPUDescriptor, cpu); err != nil {
		return publish.Sinks{}, fmt.Errorf("create cpu gauge: %w", err)
	}
	if err := floatGauge(publish.MemoryDescriptor, mem); err != nil {
		return publish.Sinks{}, fmt.Errorf("create memory gauge: %w", err)
	}

	_, err := meter.Int64ObservableGauge(
		namespace+"."+publish.CountDescriptor.Name,
		metric.WithDescription(publish.CountDescriptor.Help),
		metric.WithUnit(otelUnits[publish.CountDescriptor.Unit]),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			if v, ok := count.Load(); ok {
				o.Observe(int64(v))
			}
			return nil
		}),
	)
	if err != nil {
		return publish.Sinks{}, fmt.Errorf("create count gauge: %w", err)
	}

	return publish.Sinks{CPU: cpu, Memory: mem, Count: count}, nil
}
