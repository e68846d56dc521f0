package ioc

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
)

type stubHandle struct {
	pid    int32
	cpu    []float64
	rss    uint64
	calls  int
	cpuErr error
	rssErr error
}

func (h *stubHandle) PID() int32 {
	return h.pid
}

func (h *stubHandle) CPUPercent(ctx context.Context) (float64, error) {
	if h.cpuErr != nil {
		return 0, h.cpuErr
	}
	i := h.calls
	if i >= len(h.cpu) {
		i = len(h.cpu) - 1
	}
	h.calls++
	if i < 0 {
		return 0, nil
	}
	return h.cpu[i], nil
}

func (h *stubHandle) RSS(ctx context.Context) (uint64, error) {
	return h.rss, h.rssErr
}

// stubSource serves a mutable process table. Open builds a new handle from the
// template registered for the pid, so every call yields a distinct instance.
type stubSource struct {
	entries   []ports.ProcessEntry
	err       error
	templates map[int32]stubHandle
	opened    map[int32][]*stubHandle
}

func newStubSource() *stubSource {
	return &stubSource{
		templates: make(map[int32]stubHandle),
		opened:    make(map[int32][]*stubHandle),
	}
}

func (s *stubSource) Processes(ctx context.Context) ([]ports.ProcessEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func (s *stubSource) Open(ctx context.Context, pid int32) (ports.ProcessHandle, error) {
	tmpl, ok := s.templates[pid]
	if !ok {
		return nil, process.ErrorProcessNotRunning
	}
	h := tmpl
	h.pid = pid
	s.opened[pid] = append(s.opened[pid], &h)
	return &h, nil
}

// last returns the most recently opened handle for pid.
func (s *stubSource) last(pid int32) *stubHandle {
	hs := s.opened[pid]
	if len(hs) == 0 {
		return nil
	}
	return hs[len(hs)-1]
}
