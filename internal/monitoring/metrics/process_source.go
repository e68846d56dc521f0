package metrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
)

// ProcessSource implements ports.ProcessSource on top of gopsutil.
type ProcessSource struct{}

// NewProcessSource creates a gopsutil-backed process source.
func NewProcessSource() *ProcessSource {
	return &ProcessSource{}
}

// Processes lists every process currently known to the OS.
func (s *ProcessSource) Processes(ctx context.Context) ([]ports.ProcessEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	entries := make([]ports.ProcessEntry, 0, len(procs))
	for _, p := range procs {
		entries = append(entries, processEntry{proc: p})
	}
	return entries, nil
}

// Open creates a handle that keeps CPU times between calls, so CPUPercent
// reports usage since the previous call.
func (s *ProcessSource) Open(ctx context.Context, pid int32) (ports.ProcessHandle, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	return &processHandle{proc: p}, nil
}

type processEntry struct {
	proc *process.Process
}

func (e processEntry) PID() int32 {
	return e.proc.Pid
}

func (e processEntry) Name(ctx context.Context) (string, error) {
	return e.proc.NameWithContext(ctx)
}

func (e processEntry) Cmdline(ctx context.Context) ([]string, error) {
	return e.proc.CmdlineSliceWithContext(ctx)
}

func (e processEntry) CreateTime(ctx context.Context) (int64, error) {
	return e.proc.CreateTimeWithContext(ctx)
}

type processHandle struct {
	proc *process.Process
}

func (h *processHandle) PID() int32 {
	return h.proc.Pid
}

func (h *processHandle) CPUPercent(ctx context.Context) (float64, error) {
	// A zero interval compares against the times stored by the previous call.
	return h.proc.PercentWithContext(ctx, 0)
}

func (h *processHandle) RSS(ctx context.Context) (uint64, error) {
	info, err := h.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

var _ ports.ProcessSource = (*ProcessSource)(nil)
