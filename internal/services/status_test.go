package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
)

func TestStatusTracker(t *testing.T) {
	tracker := NewStatusTracker()
	failedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return failedAt }

	snap := tracker.Snapshot()
	assert.Nil(t, snap.LastSample)
	assert.Zero(t, snap.Polls)

	tracker.ObservePoll(&models.Sample{TotalCPUPercent: 2, MatchedCount: 1}, nil)
	tracker.ObservePoll(nil, errors.New("enumerate processes: boom"))

	snap = tracker.Snapshot()
	assert.Equal(t, uint64(2), snap.Polls)
	assert.Equal(t, uint64(1), snap.Failures)
	require.NotNil(t, snap.LastSample)
	assert.Equal(t, 2.0, snap.LastSample.TotalCPUPercent)
	assert.Equal(t, "enumerate processes: boom", snap.LastError)
	require.NotNil(t, snap.LastFailedAt)
	assert.Equal(t, failedAt, *snap.LastFailedAt)

	tracker.ObservePoll(&models.Sample{MatchedCount: 2}, nil)
	snap = tracker.Snapshot()
	assert.Empty(t, snap.LastError)
	assert.Equal(t, 2, snap.LastSample.MatchedCount)
}

func TestStatusTrackerSnapshotIsCopy(t *testing.T) {
	tracker := NewStatusTracker()
	sample := &models.Sample{MatchedCount: 1}
	tracker.ObservePoll(sample, nil)

	sample.MatchedCount = 99
	snap := tracker.Snapshot()
	snap.LastSample.MatchedCount = 42

	assert.Equal(t, 1, tracker.Snapshot().LastSample.MatchedCount)
}
