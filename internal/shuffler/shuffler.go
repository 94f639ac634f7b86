// Package shuffler implements the ray-classification step shared by every
// scheduler: given a batch of moved rays, decide for each one whether it
// has escaped the scene (commit to the framebuffer), still has blocks to
// cross (enqueue locally, possibly for a later cross-rank send), or needs
// a cheap geometric extension of its intersection list first.
package shuffler

import (
	"sync"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
)

// segmentEpsilon nudges a ray's near-t past a block's exit-t before the
// next BVH query, so the same block's AABB (still straddling the old
// [TMin,TMax] at the boundary itself) is not re-discovered.
const segmentEpsilon = 1e-4

// Shuffler routes moved rays to the next local queue, or to the
// framebuffer when they have escaped. It holds no per-rank identity; the
// scheduler decides what "local" means (all blocks in Image mode, only
// home blocks in Domain/Hybrid mode).
type Shuffler struct {
	BVH          *block.BVH
	Queue        *queue.Map
	Framebuffer  *framebuffer.Framebuffer
	Adapter      adapter.API
	NumHWThreads int
}

// New builds a shuffler over the given replicated BVH, local queue map,
// local framebuffer, and adapter (used only for march_out). numHWThreads
// must be >= 1; it sizes the chunking used by Shuffle.
func New(bvh *block.BVH, q *queue.Map, fb *framebuffer.Framebuffer, ad adapter.API, numHWThreads int) *Shuffler {
	if numHWThreads < 1 {
		numHWThreads = 1
	}
	return &Shuffler{BVH: bvh, Queue: q, Framebuffer: fb, Adapter: ad, NumHWThreads: numHWThreads}
}

// Shuffle classifies a batch of moved rays, optionally produced by block
// producer (nil for the initial camera ray set, where march_out has
// nothing to extend). It partitions rays into chunks sized
// max(1, n/(2*NumHWThreads)) and processes chunks concurrently; the
// shared queue serializes writes under its single map-wide lock and the
// framebuffer under its per-pixel-row mutexes; the shuffler itself holds
// no lock.
func (s *Shuffler) Shuffle(rays []rayproto.Ray, producer *block.Block) {
	n := len(rays)
	if n == 0 {
		return
	}

	chunkSize := n / (2 * s.NumHWThreads)
	if chunkSize < 1 {
		chunkSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(chunk []rayproto.Ray) {
			defer wg.Done()
			for i := range chunk {
				s.route(&chunk[i], producer)
			}
		}(rays[start:end])
	}
	wg.Wait()
}

func (s *Shuffler) route(r *rayproto.Ray, producer *block.Block) {
	// A ray whose Term already carries a stop reason (surface/opaque hit)
	// is done for good: march_out and the BVH query only apply to a ray
	// still traveling with an empty list, not one that stopped inside
	// the block that just traced it.
	stopped := r.Term != 0

	if !stopped && r.Terminated() && producer != nil {
		if s.Adapter != nil {
			s.Adapter.MarchOut(producer, r)
		}
		// A miss leaves the ray's segment unchanged; re-querying the BVH
		// with [TMin,TMax] as-is would just re-discover producer's own
		// AABB and loop forever. Advance TMin past where the ray exits
		// producer so the requery only sees blocks further along R.
		if _, tExit, ok := producer.Box.Hit(r.Origin, r.Direction, r.TMin, r.TMax); ok {
			r.TMin = tExit + segmentEpsilon
		}
	}

	if !stopped && r.Terminated() && s.BVH != nil {
		hits := s.BVH.Query(r.Origin, r.Direction, r.TMin, r.TMax)
		r.Intersection = hits
	}

	if r.Terminated() {
		s.Framebuffer.Commit(int(r.ID), r.Color)
		return
	}

	b, _ := r.NextBlock()
	s.Queue.Enqueue(b, *r)
}
