package ioc

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

type cacheEntry struct {
	handle     ports.ProcessHandle
	createTime int64
}

// HandleCache keeps one measurement handle per live IOC process so that CPU
// percentages are computed against the previous poll. It is not safe for
// concurrent use.
type HandleCache struct {
	source  ports.ProcessSource
	entries map[int32]cacheEntry
	log     zerolog.Logger
}

// NewHandleCache creates an empty cache that opens handles through source.
func NewHandleCache(source ports.ProcessSource) *HandleCache {
	return &HandleCache{
		source:  source,
		entries: make(map[int32]cacheEntry),
		log:     logger.WithComponent("handle_cache"),
	}
}

// GetOrCreate returns the cached handle for pid, opening one if none exists.
// A cached handle is only replaced when both creation times are known and
// differ, which means the pid now belongs to a different process.
func (c *HandleCache) GetOrCreate(ctx context.Context, pid int32, createTime int64) (ports.ProcessHandle, error) {
	if entry, ok := c.entries[pid]; ok {
		if !pidReused(entry.createTime, createTime) {
			return entry.handle, nil
		}
		c.log.Debug().
			Int32("pid", entry.handle.PID()).
			Int64("old_create_time", entry.createTime).
			Int64("new_create_time", createTime).
			Msg("Pid reused, replacing handle")
		delete(c.entries, pid)
	}

	handle, err := c.source.Open(ctx, pid)
	if err != nil {
		return nil, err
	}

	c.entries[pid] = cacheEntry{handle: handle, createTime: createTime}
	return handle, nil
}

func pidReused(cached, current int64) bool {
	return cached != 0 && current != 0 && cached != current
}

// Prune drops every entry whose pid is not in found.
func (c *HandleCache) Prune(found map[int32]struct{}) int {
	removed := 0
	for pid := range c.entries {
		if _, ok := found[pid]; !ok {
			delete(c.entries, pid)
			removed++
		}
	}
	return removed
}

// Has reports whether pid has a cached handle.
func (c *HandleCache) Has(pid int32) bool {
	_, ok := c.entries[pid]
	return ok
}

// Len returns the number of cached handles.
func (c *HandleCache) Len() int {
	return len(c.entries)
}

// PIDs returns the cached pids in no particular order.
func (c *HandleCache) PIDs() []int32 {
	pids := make([]int32, 0, len(c.entries))
	for pid := range c.entries {
		pids = append(pids, pid)
	}
	return pids
}

// Reset drops all handles.
func (c *HandleCache) Reset() {
	c.entries = make(map[int32]cacheEntry)
}
