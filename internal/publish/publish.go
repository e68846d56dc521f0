// Package publish adapts aggregate samples onto named metric sinks.
package publish

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
)

// Descriptor names a sink and carries its display metadata.
type Descriptor struct {
	Name      string
	Help      string
	Unit      string
	Precision int
}

var (
	CPUDescriptor = Descriptor{
		Name:      "total_ioc_cpu",
		Help:      "Aggregate CPU usage of all IOC processes, percent of one core",
		Unit:      "%",
		Precision: 2,
	}
	MemoryDescriptor = Descriptor{
		Name:      "total_ioc_mem",
		Help:      "Aggregate resident memory of all IOC processes",
		Unit:      "MB",
		Precision: 1,
	}
	CountDescriptor = Descriptor{
		Name: "ioc_count",
		Help: "Number of running IOC processes",
	}
)

// Sinks groups the three outputs of a poll.
type Sinks struct {
	CPU    ports.Sink
	Memory ports.Sink
	Count  ports.Sink
}

// Publish writes one sample. Nil sinks are skipped.
func (s Sinks) Publish(sample *models.Sample) {
	set(s.CPU, sample.TotalCPUPercent)
	set(s.Memory, sample.TotalMemoryMB)
	set(s.Count, float64(sample.MatchedCount))
}

func set(sink ports.Sink, v float64) {
	if sink != nil {
		sink.Set(v)
	}
}

// Fanout combines several sink groups into one.
func Fanout(groups ...Sinks) Sinks {
	var cpu, mem, count Multi
	for _, g := range groups {
		cpu = appendSink(cpu, g.CPU)
		mem = appendSink(mem, g.Memory)
		count = appendSink(count, g.Count)
	}
	return Sinks{CPU: cpu, Memory: mem, Count: count}
}

func appendSink(m Multi, s ports.Sink) Multi {
	if s == nil {
		return m
	}
	return append(m, s)
}

// Multi sets the same value on every sink it holds.
type Multi []ports.Sink

func (m Multi) Set(v float64) {
	for _, s := range m {
		s.Set(v)
	}
}

// Round rounds v to the given number of decimal places.
func Round(v float64, precision int) float64 {
	if precision <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}

// LogSink writes each value to a logger at debug level, rounded to the
// descriptor precision.
type LogSink struct {
	desc Descriptor
	log  zerolog.Logger
}

func NewLogSink(desc Descriptor, log zerolog.Logger) *LogSink {
	return &LogSink{desc: desc, log: log}
}

func (s *LogSink) Set(v float64) {
	s.log.Debug().
		Str("metric", s.desc.Name).
		Float64("value", Round(v, s.desc.Precision)).
		Str("unit", s.desc.Unit).
		Msg("Published")
}

// NewLogSinks returns a log sink for each aggregate.
func NewLogSinks(log zerolog.Logger) Sinks {
	return Sinks{
		CPU:    NewLogSink(CPUDescriptor, log),
		Memory: NewLogSink(MemoryDescriptor, log),
		Count:  NewLogSink(CountDescriptor, log),
	}
}

// Cell holds the last value set on it. It is safe for concurrent use and is
// meant for pull-based exporters that read the value on their own schedule.
type Cell struct {
	bits  atomic.Uint64
	valid atomic.Bool
}

func (c *Cell) Set(v float64) {
	c.bits.Store(math.Float64bits(v))
	c.valid.Store(true)
}

// Load returns the last value and whether one has been set.
func (c *Cell) Load() (float64, bool) {
	return math.Float64frombits(c.bits.Load()), c.valid.Load()
}
