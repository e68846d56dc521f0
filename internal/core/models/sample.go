package models

import "time"

// Sample is the aggregate of one poll over all matched IOC processes.
type Sample struct {
	TotalCPUPercent float64       `json:"total_cpu_percent"`
	TotalMemoryMB   float64       `json:"total_memory_mb"`
	MatchedCount    int           `json:"matched_count"`
	Skipped         int           `json:"skipped"`
	CachedHandles   int           `json:"cached_handles"`
	CollectedAt     time.Time     `json:"collected_at"`
	Duration        time.Duration `json:"duration_ns"`
}
