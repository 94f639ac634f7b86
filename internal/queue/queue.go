// Package queue holds the per-rank mapping from block id to pending ray
// batches. Ordering within a queue is irrelevant for correctness; batches
// are processed FIFO only for cache locality.
package queue

import (
	"sort"
	"sync"

	"github.com/gravit-cluster/gvtcore/internal/rayproto"
)

// Map is a per-rank RayQueueMap: block id -> pending rays. A single
// RWMutex guards every block's queue; there is no per-block lock, so
// concurrent enqueues to different blocks still contend on it.
type Map struct {
	mu     sync.RWMutex
	queues map[uint32][]rayproto.Ray
}

// New creates an empty queue map.
func New() *Map {
	return &Map{queues: make(map[uint32][]rayproto.Ray)}
}

// Enqueue appends rays to block b's queue.
func (m *Map) Enqueue(b uint32, rays ...rayproto.Ray) {
	if len(rays) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[b] = append(m.queues[b], rays...)
}

// Take removes and returns all rays queued for block b.
func (m *Map) Take(b uint32) []rayproto.Ray {
	m.mu.Lock()
	defer m.mu.Unlock()
	rays := m.queues[b]
	delete(m.queues, b)
	return rays
}

// Len returns the number of rays queued for block b.
func (m *Map) Len(b uint32) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queues[b])
}

// Empty reports whether every block queue on this rank is empty.
func (m *Map) Empty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rays := range m.queues {
		if len(rays) > 0 {
			return false
		}
	}
	return true
}

// Total returns the number of rays queued across all blocks.
func (m *Map) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, rays := range m.queues {
		total += len(rays)
	}
	return total
}

// Largest returns the block id with the most queued rays, breaking ties by
// lowest id. ok is false when every queue is empty.
func (m *Map) Largest() (id uint32, count int, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best, bestCount := uint32(0), 0
	found := false
	for b, rays := range m.queues {
		n := len(rays)
		if n == 0 {
			continue
		}
		if !found || n > bestCount || (n == bestCount && b < best) {
			best, bestCount, found = b, n, true
		}
	}
	return best, bestCount, found
}

// Report is a (block_id, ray_count) pair, used both by Snapshot and by the
// Hybrid coordinator's per-round rank reports.
type Report struct {
	BlockID uint32
	Count   int
}

// Snapshot lists the non-empty block queues as (id, count) pairs sorted by
// block id, for deterministic reporting to a coordinator.
func (m *Map) Snapshot() []Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reports := make([]Report, 0, len(m.queues))
	for b, rays := range m.queues {
		if len(rays) > 0 {
			reports = append(reports, Report{BlockID: b, Count: len(rays)})
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].BlockID < reports[j].BlockID })
	return reports
}

// BlockIDs lists every block id with queued rays.
func (m *Map) BlockIDs() []uint32 {
	reports := m.Snapshot()
	ids := make([]uint32, len(reports))
	for i, r := range reports {
		ids[i] = r.BlockID
	}
	return ids
}
