// Package monitoring collects per-rank cluster statistics: rays
// traced, rays exchanged across ranks, rounds completed, and basic
// runtime system stats, mirroring the teacher's atomic-counter,
// snapshot-on-read collector for the render-loop counters a cluster
// rank accumulates instead of the counters a single-node tile renderer
// accumulated.
package monitoring

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

// RankStats is the counter set one rank's scheduler accumulates over a
// frame. All fields are updated via atomic ops so TraceRound (called
// from exactly one goroutine per rank) and any concurrently-running
// async exchange goroutine can both record safely.
type RankStats struct {
	startTime time.Time

	raysTraced    int64
	raysSent      int64
	raysReceived  int64
	roundsRun     int64
	voterRounds   int64
}

// NewRankStats starts a fresh counter set, timestamped at construction.
func NewRankStats() *RankStats {
	return &RankStats{startTime: time.Now()}
}

func (s *RankStats) RecordRaysTraced(n int)   { atomic.AddInt64(&s.raysTraced, int64(n)) }
func (s *RankStats) RecordRaysSent(n int)     { atomic.AddInt64(&s.raysSent, int64(n)) }
func (s *RankStats) RecordRaysReceived(n int) { atomic.AddInt64(&s.raysReceived, int64(n)) }
func (s *RankStats) RecordRound()             { atomic.AddInt64(&s.roundsRun, 1) }
func (s *RankStats) RecordVoterRound()        { atomic.AddInt64(&s.voterRounds, 1) }

// Snapshot is a point-in-time, non-atomic copy of RankStats suitable
// for logging or JSON serialization at Finalize.
type Snapshot struct {
	RaysTraced    int64         `json:"rays_traced"`
	RaysSent      int64         `json:"rays_sent"`
	RaysReceived  int64         `json:"rays_received"`
	RoundsRun     int64         `json:"rounds_run"`
	VoterRounds   int64         `json:"voter_rounds"`
	Elapsed       time.Duration `json:"elapsed"`
	RaysPerSecond float64       `json:"rays_per_second"`
	HeapAllocMB   float64       `json:"heap_alloc_mb"`
	Goroutines    int           `json:"goroutines"`
}

// Snapshot reads every counter plus a fresh runtime.MemStats sample.
func (s *RankStats) Snapshot() Snapshot {
	elapsed := time.Since(s.startTime)
	traced := atomic.LoadInt64(&s.raysTraced)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(traced) / elapsed.Seconds()
	}

	return Snapshot{
		RaysTraced:    traced,
		RaysSent:      atomic.LoadInt64(&s.raysSent),
		RaysReceived:  atomic.LoadInt64(&s.raysReceived),
		RoundsRun:     atomic.LoadInt64(&s.roundsRun),
		VoterRounds:   atomic.LoadInt64(&s.voterRounds),
		Elapsed:       elapsed,
		RaysPerSecond: rps,
		HeapAllocMB:   float64(m.HeapAlloc) / (1024 * 1024),
		Goroutines:    runtime.NumGoroutine(),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("rounds=%d traced=%d sent=%d received=%d rate=%.0f rays/s heap=%.1fMB goroutines=%d",
		s.RoundsRun, s.RaysTraced, s.RaysSent, s.RaysReceived, s.RaysPerSecond, s.HeapAllocMB, s.Goroutines)
}
