package scheduler

import (
	"context"
	"testing"

	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/compositor"
	"github.com/gravit-cluster/gvtcore/internal/controlplane"
	"github.com/gravit-cluster/gvtcore/internal/exchange"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/hybridpolicy"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
	"github.com/stretchr/testify/require"
)

// TestHybridSchedulerGreedyDrainsAllDemandToZero is the S4 scenario: a
// single contested block, a deterministic Greedy placement, and two
// ranks that must converge to zero reported demand once every queued ray
// has actually been traced, with the loser of each round's assignment
// migrating its rays to whichever rank currently holds the block.
func TestHybridSchedulerGreedyDrainsAllDemandToZero(t *testing.T) {
	const n = 8
	const numRanks = 2
	camera := cameraGrid(n)

	transports := exchange.NewTransport(numRanks)
	coordinator := controlplane.NewCoordinator(numRanks, hybridpolicy.Greedy, 1)

	fbs := make([]*framebuffer.Framebuffer, numRanks)
	results := make([]*framebuffer.Framebuffer, numRanks)
	errs := make([]error, numRanks)
	done := make(chan int, numRanks)

	for r := 0; r < numRanks; r++ {
		r := r
		ref, blk := coneSceneFixture()
		bvh := block.Build([]*block.Block{blk})
		cache := block.NewCache(0)
		cache.Register(blk)
		fb := framebuffer.New(n, 1)
		fbs[r] = fb
		q := queue.New()
		shuf := shuffler.New(bvh, q, fb, ref, 2)

		sched := &HybridScheduler{
			Rank: r, NumRanks: numRanks,
			Cache: cache, Queue: q, FB: fb, Adapter: ref, Shuffler: shuf,
			Transport:   transports[r],
			Coordinator: coordinator,
			Compositor:  &compositor.MPIGather{NumHWThreads: 1},
			CameraRays:  camera,
		}
		runner := &Scheduler{Kind: Hybrid, Hooks: sched}

		go func() {
			errs[r] = runner.RunFrame(context.Background())
			results[r] = sched.Result
			done <- r
		}()
	}
	<-done
	<-done

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	require.NotNil(t, results[0], "rank 0 is the compositor root")
	require.Nil(t, results[1])

	total := int64(0)
	for _, fb := range fbs {
		total += fb.Writes()
	}
	require.Equal(t, int64(n), total, "every ray must be committed exactly once across all ranks")
	for i := 0; i < n; i++ {
		require.Greater(t, results[0].At(i).R, 0.0, "pixel %d missing from composited result", i)
	}
}
