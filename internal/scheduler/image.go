package scheduler

import (
	"context"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/compositor"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/monitoring"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
)

// Image implements the §4.3 pixel-partitioned scheduler: every rank owns
// a contiguous pixel-id slice of the frame's primary rays and never
// migrates a ray to another rank. Rounds just pick the locally largest
// queue, trace it, and reshuffle until the local map is empty.
type ImageScheduler struct {
	Rank, NumRanks int

	Cache       *block.Cache
	Queue       *queue.Map
	FB          *framebuffer.Framebuffer
	Adapter     adapter.API
	Shuffler    *shuffler.Shuffler
	Compositor  compositor.Compositor
	Gatherer    compositor.Gatherer
	CameraRays  []rayproto.Ray // the frame's full primary ray set, every rank's copy
	Result      *framebuffer.Framebuffer

	// Stats is optional; a nil Stats records nothing.
	Stats *monitoring.RankStats
}

// InitRound slices this rank's pixel range out of the shared camera ray
// set and shuffles it into the local queue. A fresh camera ray's
// intersection list is empty, so Shuffle's Terminated() branch runs a
// BVH query on each one exactly as it would for a ray returning from
// Adapter.Trace with an exhausted list.
func (s *ImageScheduler) InitRound(ctx context.Context) error {
	lo, hi := pixelRange(s.Rank, s.NumRanks, len(s.CameraRays))
	if lo >= hi {
		return nil
	}
	mine := make([]rayproto.Ray, hi-lo)
	copy(mine, s.CameraRays[lo:hi])
	s.Shuffler.Shuffle(mine, nil)
	return nil
}

// TraceRound picks the largest local queue, ensures its block resident,
// traces it, and shuffles the moved rays back in. Done is reported once
// every local block queue is empty.
func (s *ImageScheduler) TraceRound(ctx context.Context) (bool, error) {
	id, _, ok := s.Queue.Largest()
	if !ok {
		return true, nil
	}
	if err := s.Cache.Ensure(id); err != nil {
		return false, err
	}
	blk, _ := s.Cache.Get(id)

	rays := s.Queue.Take(id)
	moved, err := s.Adapter.Trace(blk, rays)
	if err != nil {
		return false, err
	}
	if s.Stats != nil {
		s.Stats.RecordRaysTraced(len(rays))
		s.Stats.RecordRound()
	}
	s.Shuffler.Shuffle(moved, blk)
	return false, nil
}

// Finalize composites this rank's framebuffer with every other rank's
// into the final frame, meaningful only on the gatherer's root rank.
func (s *ImageScheduler) Finalize(ctx context.Context) error {
	out, err := s.Compositor.Composite(ctx, s.FB, s.Gatherer)
	if err != nil {
		return err
	}
	s.Result = out
	return nil
}
