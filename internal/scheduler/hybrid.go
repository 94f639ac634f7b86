package scheduler

import (
	"context"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/compositor"
	"github.com/gravit-cluster/gvtcore/internal/controlplane"
	"github.com/gravit-cluster/gvtcore/internal/exchange"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/hybridpolicy"
	"github.com/gravit-cluster/gvtcore/internal/monitoring"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
)

// Hybrid implements the §4.5 reassignment scheduler: no block has a
// fixed home. Every round, each rank reports its current target and
// local demand to the Coordinator, which runs one hybridpolicy.Policy to
// produce a new Map (rank -> block) and broadcasts it back; a rank whose
// target changed evicts/loads accordingly, and rays queued for a block
// another rank now holds migrate there the same way Domain migrates
// foreign-home rays.
type HybridScheduler struct {
	Rank, NumRanks int

	Cache       *block.Cache
	Queue       *queue.Map
	FB          *framebuffer.Framebuffer
	Adapter     adapter.API
	Shuffler    *shuffler.Shuffler
	Transport   *exchange.Transport
	Coordinator *controlplane.Coordinator
	Compositor  compositor.Compositor

	CameraRays []rayproto.Ray

	Result *framebuffer.Framebuffer

	// Stats is optional; a nil Stats records nothing.
	Stats *monitoring.RankStats

	currentTarget int32
}

// InitRound casts this rank's pixel-range slice of the shared camera ray
// set, same partitioning as Image/Domain so no ray is ever produced
// twice, then shuffles it into the local queue. Block ownership is
// decided round by round, not up front, so a ray simply waits under
// whatever block id the BVH first assigns it until the first round's
// Map says who traces it.
func (s *HybridScheduler) InitRound(ctx context.Context) error {
	s.currentTarget = hybridpolicy.Idle
	lo, hi := pixelRange(s.Rank, s.NumRanks, len(s.CameraRays))
	if lo >= hi {
		return nil
	}
	rays := make([]rayproto.Ray, hi-lo)
	copy(rays, s.CameraRays[lo:hi])
	s.Shuffler.Shuffle(rays, nil)
	return nil
}

// report builds this rank's RankReport from its local queue snapshot.
func (s *HybridScheduler) report() hybridpolicy.RankReport {
	snap := s.Queue.Snapshot()
	demand := make([]hybridpolicy.BlockDemand, len(snap))
	for i, r := range snap {
		demand[i] = hybridpolicy.BlockDemand{BlockID: r.BlockID, Rays: r.Count}
	}
	return hybridpolicy.RankReport{CurrentTarget: s.currentTarget, Demand: demand}
}

// holderOf finds which rank m assigns block id to this round, if any.
func holderOf(m hybridpolicy.Map, id uint32) (int, bool) {
	for rank, b := range m {
		if b == int32(id) {
			return rank, true
		}
	}
	return 0, false
}

// TraceRound reports to the coordinator, adjusts residency for this
// rank's new target, migrates any locally-queued rays whose block is now
// held elsewhere, traces this rank's own target, and folds in whatever
// the cross-rank exchange returns. Done is reported once a round's total
// reported demand is zero.
func (s *HybridScheduler) TraceRound(ctx context.Context) (bool, error) {
	m, _, total := s.Coordinator.Round(s.Rank, s.report())
	if total == 0 {
		return true, nil
	}

	newTarget := m[s.Rank]
	if newTarget != s.currentTarget {
		if s.currentTarget != hybridpolicy.Idle {
			s.Cache.Evict(uint32(s.currentTarget))
		}
		if newTarget != hybridpolicy.Idle {
			if err := s.Cache.Ensure(uint32(newTarget)); err != nil {
				return false, err
			}
		}
		s.currentTarget = newTarget
	}

	outbound := make([][]rayproto.Ray, s.NumRanks)
	for _, id := range s.Queue.BlockIDs() {
		if int32(id) == s.currentTarget {
			continue
		}
		holder, ok := holderOf(m, id)
		if !ok || holder == s.Rank {
			continue // not claimed this round or already local; retry next round
		}
		rays := s.Queue.Take(id)
		for i := range rays {
			// Same carry as Domain: the block id that routed these rays
			// here was already popped off the front locally, so it rides
			// along as the tail entry for the receiving rank (§4.7.4).
			rays[i].Intersection = append(rays[i].Intersection, id)
		}
		outbound[holder] = append(outbound[holder], rays...)
	}

	if s.currentTarget != hybridpolicy.Idle {
		rays := s.Queue.Take(uint32(s.currentTarget))
		if len(rays) > 0 {
			blk, _ := s.Cache.Get(uint32(s.currentTarget))
			moved, err := s.Adapter.Trace(blk, rays)
			if err != nil {
				return false, err
			}
			if s.Stats != nil {
				s.Stats.RecordRaysTraced(len(rays))
			}
			s.Shuffler.Shuffle(moved, blk)
		}
	}

	sent := 0
	for _, batch := range outbound {
		sent += len(batch)
	}
	received, err := s.Transport.ExchangeRays(outbound)
	if err != nil {
		return false, err
	}
	if s.Stats != nil {
		s.Stats.RecordRaysSent(sent)
		s.Stats.RecordRaysReceived(len(received))
		s.Stats.RecordRound()
	}
	enqueueReceived(s.Queue, s.Shuffler, received)
	return false, nil
}

// Finalize composites this rank's framebuffer into the final frame.
func (s *HybridScheduler) Finalize(ctx context.Context) error {
	out, err := s.Compositor.Composite(ctx, s.FB, s.Transport)
	if err != nil {
		return err
	}
	s.Result = out
	return nil
}
