package scheduler

import (
	"context"
	"sort"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/compositor"
	"github.com/gravit-cluster/gvtcore/internal/exchange"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/monitoring"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
	"github.com/gravit-cluster/gvtcore/internal/voter"
)

// Domain implements the §4.4 home-rank scheduler: every block has a fixed
// home rank, a ray only ever gets traced on its current head block's
// home rank, and rays that cross to a foreign-home block migrate there
// over exchange.Transport instead of being traced remotely. Quiescence
// (every rank locally empty and no ray still in flight) is detected by a
// TpcVoter, since a rank can look empty for a round while a peer is
// about to hand it more work.
//
// Async controls where the round waits on the cross-rank send relative
// to the rest of the round's bookkeeping. Sync Domain blocks on
// Transport.ExchangeRays before polling the voter; AsyncDomain instead
// starts the exchange in a goroutine and only joins it at the top of the
// *next* round (or at Finalize), so voter accounting of in-flight rays,
// rather than the scheduler blocking, is what keeps quiescence correct
// in the interim.
type DomainScheduler struct {
	Rank, NumRanks int
	Async          bool

	AllBlocks map[uint32]*block.Block // every block in the frame, for home-rank lookup
	HomeBlocks []*block.Block         // AllBlocks filtered to Home == Rank, fixed for the frame

	Cache      *block.Cache
	Queue      *queue.Map
	FB         *framebuffer.Framebuffer
	Adapter    adapter.API
	Shuffler   *shuffler.Shuffler
	Transport  *exchange.Transport
	Voter      *voter.Voter
	Compositor compositor.Compositor

	CameraRays []rayproto.Ray

	Result *framebuffer.Framebuffer

	// Stats is optional; a nil Stats records nothing.
	Stats *monitoring.RankStats

	pending chan error
}

// InitRound casts this rank's pixel-range slice of the shared camera ray
// set — every physical ray is produced by exactly one rank, same as
// Image, so multi-rank Domain never double-traces a pixel — and
// shuffles it into the local queue. The BVH query inside Shuffle routes
// each one toward its first block regardless of which rank owns it;
// foreign-home rays simply wait in the local queue until the first
// TraceRound ships them out.
func (s *DomainScheduler) InitRound(ctx context.Context) error {
	lo, hi := pixelRange(s.Rank, s.NumRanks, len(s.CameraRays))
	if lo >= hi {
		return nil
	}
	rays := make([]rayproto.Ray, hi-lo)
	copy(rays, s.CameraRays[lo:hi])
	s.Shuffler.Shuffle(rays, nil)
	return nil
}

func (s *DomainScheduler) isHome(id uint32) bool {
	b, ok := s.AllBlocks[id]
	return ok && b.Home == s.Rank
}

// TraceRound traces every non-empty home block (largest queue first),
// ships rays queued against a foreign-home block to that block's home
// rank, and polls the voter for quiescence.
func (s *DomainScheduler) TraceRound(ctx context.Context) (bool, error) {
	if s.Async {
		if err := s.join(); err != nil {
			return false, err
		}
	}

	sort.Slice(s.HomeBlocks, func(i, j int) bool {
		return s.Queue.Len(s.HomeBlocks[i].ID) > s.Queue.Len(s.HomeBlocks[j].ID)
	})
	for _, b := range s.HomeBlocks {
		if s.Queue.Len(b.ID) == 0 {
			continue
		}
		if err := s.Cache.Ensure(b.ID); err != nil {
			return false, err
		}
		rays := s.Queue.Take(b.ID)
		moved, err := s.Adapter.Trace(b, rays)
		if err != nil {
			return false, err
		}
		if s.Stats != nil {
			s.Stats.RecordRaysTraced(len(rays))
		}
		s.Shuffler.Shuffle(moved, b)
	}

	outbound := make([][]rayproto.Ray, s.NumRanks)
	sent := 0
	for _, id := range s.Queue.BlockIDs() {
		if s.isHome(id) {
			continue
		}
		b, ok := s.AllBlocks[id]
		if !ok {
			continue
		}
		rays := s.Queue.Take(id)
		for i := range rays {
			// route already popped id off the front when it enqueued
			// these rays locally; carry it as the tail entry so the
			// receiving rank knows which block to enqueue against
			// (§4.7.4) without re-querying the BVH.
			rays[i].Intersection = append(rays[i].Intersection, id)
		}
		outbound[b.Home] = append(outbound[b.Home], rays...)
		sent += len(rays)
	}
	s.Voter.AddPendingRays(sent)

	// ExchangeRays is a synchronous rendezvous: every rank's outbound
	// batch is guaranteed delivered by the time it returns, so this
	// rank's own `sent` count — not however many rays came back — is
	// what clears from its pending total.
	exchangeFn := func() error {
		received, err := s.Transport.ExchangeRays(outbound)
		s.Voter.SubtractPendingRays(sent)
		if err != nil {
			return err
		}
		if s.Stats != nil {
			s.Stats.RecordRaysSent(sent)
			s.Stats.RecordRaysReceived(len(received))
		}
		enqueueReceived(s.Queue, s.Shuffler, received)
		return nil
	}

	if s.Async {
		s.pending = make(chan error, 1)
		go func() { s.pending <- exchangeFn() }()
	} else if err := exchangeFn(); err != nil {
		return false, err
	}

	if s.Stats != nil {
		s.Stats.RecordRound()
	}
	state := s.Voter.UpdateState(s.Queue.Empty())
	if s.Stats != nil && state != voter.Active {
		s.Stats.RecordVoterRound()
	}
	return state == voter.Terminate, nil
}

// join waits for a previously posted async exchange to land.
func (s *DomainScheduler) join() error {
	if s.pending == nil {
		return nil
	}
	err := <-s.pending
	s.pending = nil
	return err
}

// Finalize joins any outstanding async exchange, then composites.
func (s *DomainScheduler) Finalize(ctx context.Context) error {
	if err := s.join(); err != nil {
		return err
	}
	out, err := s.Compositor.Composite(ctx, s.FB, s.Transport)
	if err != nil {
		return err
	}
	s.Result = out
	return nil
}
