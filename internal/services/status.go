package services

import (
	"sync"
	"time"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
)

// Status is a point-in-time view of the poll loop.
type Status struct {
	StartedAt    time.Time      `json:"started_at"`
	Polls        uint64         `json:"polls"`
	Failures     uint64         `json:"failures"`
	LastSample   *models.Sample `json:"last_sample,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	LastFailedAt *time.Time     `json:"last_failed_at,omitempty"`
}

// StatusTracker keeps the last good sample and poll counters.
type StatusTracker struct {
	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		status: Status{StartedAt: time.Now()},
		now:    time.Now,
	}
}

// ObservePoll records a poll. A failure leaves the last sample in place.
func (t *StatusTracker) ObservePoll(sample *models.Sample, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Polls++
	if err != nil {
		failedAt := t.now()
		t.status.Failures++
		t.status.LastError = err.Error()
		t.status.LastFailedAt = &failedAt
		return
	}

	s := *sample
	t.status.LastSample = &s
	t.status.LastError = ""
}

// Snapshot returns a copy of the current status.
func (t *StatusTracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.status
	if out.LastSample != nil {
		s := *out.LastSample
		out.LastSample = &s
	}
	if out.LastFailedAt != nil {
		f := *out.LastFailedAt
		out.LastFailedAt = &f
	}
	return out
}
