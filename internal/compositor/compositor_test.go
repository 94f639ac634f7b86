package compositor

import (
	"context"
	"sync"
	"testing"

	"github.com/gravit-cluster/gvtcore/internal/exchange"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/stretchr/testify/require"
)

func TestMPIGatherSumsAssumingBlackBackground(t *testing.T) {
	ranks := 3
	transports := exchange.NewTransport(ranks)

	var wg sync.WaitGroup
	results := make([]*framebuffer.Framebuffer, ranks)
	errs := make([]error, ranks)

	for r := 0; r < ranks; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			local := framebuffer.New(4, 1)
			for i := 0; i < 4; i++ {
				local.Commit(i, math.Vec3{X: 0.1, Y: 0.1, Z: 0.1})
			}
			c := &MPIGather{NumHWThreads: 1}
			out, err := c.Composite(context.Background(), local, transports[rank])
			results[rank] = out
			errs[rank] = err
		}(r)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NotNil(t, results[0])
	require.InDelta(t, 0.3, results[0].At(0).R, 1e-6)
	require.Nil(t, results[1])
	require.Nil(t, results[2])
}

func TestTreeReduceMatchesMPIGatherSum(t *testing.T) {
	ranks := 4
	transports := exchange.NewTransport(ranks)

	var wg sync.WaitGroup
	results := make([]*framebuffer.Framebuffer, ranks)

	for r := 0; r < ranks; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			local := framebuffer.New(2, 2)
			v := 0.05 * float64(rank+1)
			local.Commit(0, math.Vec3{X: v, Y: v, Z: v})
			c := &TreeReduce{NumHWThreads: 1}
			out, _ := c.Composite(context.Background(), local, transports[rank])
			results[rank] = out
		}(r)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	require.InDelta(t, 0.5, results[0].At(0).R, 1e-6) // 0.05+0.1+0.15+0.2
}
