// Package scheduler implements the three interchangeable distributed
// schedulers (Image, Domain/AsyncDomain, Hybrid) behind one tagged-variant
// dispatcher. Every variant implements the same three hooks — init_round,
// trace_round, finalize — so the frame driver never needs a type switch.
package scheduler

import (
	"context"

	"github.com/gravit-cluster/gvtcore/internal/corelog"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
)

// Kind tags which scheduling strategy a Scheduler runs.
type Kind int

const (
	Image Kind = iota
	Domain
	AsyncDomain
	Hybrid
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Domain:
		return "domain"
	case AsyncDomain:
		return "async-domain"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Hooks is the per-variant round loop. InitRound runs once before the
// first round; TraceRound runs until it reports done; Finalize composites
// and returns once. A non-nil error from any hook aborts the frame.
type Hooks interface {
	InitRound(ctx context.Context) error
	TraceRound(ctx context.Context) (done bool, err error)
	Finalize(ctx context.Context) error
}

// Scheduler dispatches RunFrame to whichever Hooks implementation backs
// this rank's chosen Kind. Log is optional; a nil Log runs silently.
type Scheduler struct {
	Kind  Kind
	Hooks Hooks
	Log   *corelog.Logger
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.Log != nil {
		s.Log.Printf(format, args...)
	}
}

// pixelRange returns the half-open pixel-id slice [lo,hi) rank owns out
// of n total primary rays, the last rank absorbing any remainder. Every
// variant uses this once, up front, to decide which primary rays it
// casts — a camera tile assignment independent of which rank later
// traces which block. Rays are never duplicated across ranks by
// re-injecting the full shared set; ownership is decided exactly once.
func pixelRange(rank, numRanks, n int) (lo, hi int) {
	per := n / numRanks
	lo = rank * per
	hi = lo + per
	if rank == numRanks-1 {
		hi = n
	}
	return lo, hi
}

// enqueueReceived places a batch of cross-rank rays straight into the
// local queue, per §4.7 step 4: the sender already decided which local
// block each ray is bound for and carried that block id as the tail
// entry of the ray's intersection list (TailBlock), since the id that
// routed it here was popped off the head before it was shipped. Re-BVH
// querying a received ray would recompute a fresh intersection list
// from its current origin and skip past the very block it migrated to
// reach, so this enqueues directly at the carried id instead of routing
// it through Shuffler.route. A ray with no carried id (fully escaped in
// flight) still needs Shuffler's commit-to-framebuffer path.
func enqueueReceived(q *queue.Map, shuf *shuffler.Shuffler, received []rayproto.Ray) {
	for _, r := range received {
		id, ok := r.TailBlock()
		if !ok {
			shuf.Shuffle([]rayproto.Ray{r}, nil)
			continue
		}
		r.Intersection = r.Intersection[:len(r.Intersection)-1]
		q.Enqueue(id, r)
	}
}

// RunFrame drives one complete frame: init, then trace rounds until done,
// then finalize. It is the single entry point every variant shares,
// matching the source's template-specialized render loop collapsed into
// one dispatch method.
func (s *Scheduler) RunFrame(ctx context.Context) error {
	s.logf("starting frame, kind=%s", s.Kind)
	if err := s.Hooks.InitRound(ctx); err != nil {
		return err
	}
	for round := 0; ; round++ {
		done, err := s.Hooks.TraceRound(ctx)
		if err != nil {
			return err
		}
		if done {
			s.logf("frame done after %d rounds", round+1)
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return s.Hooks.Finalize(ctx)
}
