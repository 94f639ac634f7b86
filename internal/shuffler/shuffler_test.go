package shuffler

import (
	"testing"

	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/stretchr/testify/require"
)

func TestShuffleEscapedRayCommitsToFramebuffer(t *testing.T) {
	fb := framebuffer.New(4, 1)
	q := queue.New()
	s := New(nil, q, fb, nil, 2)

	ray := rayproto.New(0, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	ray.Color = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}

	s.Shuffle([]rayproto.Ray{ray}, nil)

	require.Equal(t, int64(1), fb.Writes())
	require.True(t, q.Empty())
}

func TestShuffleRayWithIntersectionListEnqueuesToBlock(t *testing.T) {
	fb := framebuffer.New(4, 1)
	q := queue.New()
	s := New(nil, q, fb, nil, 2)

	ray := rayproto.New(1, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	ray.Intersection = []uint32{7, 9}

	s.Shuffle([]rayproto.Ray{ray}, nil)

	require.Equal(t, int64(0), fb.Writes())
	require.Equal(t, 1, q.Len(7))
	require.Equal(t, 0, q.Len(9))
}

func TestShuffleQueriesBVHWhenListEmpty(t *testing.T) {
	blocks := []*block.Block{
		block.NewBlock(1, block.AABB{Min: math.Vec3{X: -1, Y: -1, Z: -6}, Max: math.Vec3{X: 1, Y: 1, Z: -4}}, -1, nil),
	}
	bvh := block.Build(blocks)
	fb := framebuffer.New(4, 1)
	q := queue.New()
	s := New(bvh, q, fb, nil, 2)

	ray := rayproto.New(2, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	s.Shuffle([]rayproto.Ray{ray}, nil)

	require.Equal(t, 1, q.Len(1))
}

// missAdapter.Trace always misses (returns an empty hit list with Term
// unset), standing in for a block whose AABB the ray enters but whose
// geometry it passes clean through.
type missAdapter struct{}

func (missAdapter) Loader(id uint32) (block.Payload, error) { return nil, nil }
func (missAdapter) Trace(b *block.Block, rays []rayproto.Ray) ([]rayproto.Ray, error) {
	return rays, nil
}
func (missAdapter) MarchOut(b *block.Block, r *rayproto.Ray) {}

// TestRouteAdvancesPastMissedBlockInsteadOfLooping reproduces the
// non-termination case: producer's AABB straddles the ray's
// [TMin,TMax], Trace reports a miss (empty intersection list, no Term),
// and a second block sits further along the same ray. Without
// advancing TMin past producer's exit-t, the BVH requery would
// re-discover producer forever; with it, the ray must land in the
// second block's queue instead.
func TestRouteAdvancesPastMissedBlockInsteadOfLooping(t *testing.T) {
	near := block.NewBlock(1, block.AABB{
		Min: math.Vec3{X: -1, Y: -1, Z: -2}, Max: math.Vec3{X: 1, Y: 1, Z: -1},
	}, -1, nil)
	far := block.NewBlock(2, block.AABB{
		Min: math.Vec3{X: -1, Y: -1, Z: -6}, Max: math.Vec3{X: 1, Y: 1, Z: -4},
	}, -1, nil)
	bvh := block.Build([]*block.Block{near, far})

	fb := framebuffer.New(1, 1)
	q := queue.New()
	s := New(bvh, q, fb, missAdapter{}, 1)

	ray := rayproto.New(0, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	s.route(&ray, near)

	require.Equal(t, 0, q.Len(1), "ray must not re-enqueue the block it just missed")
	require.Equal(t, 1, q.Len(2), "ray must advance into the block further along its path")
}

func TestShuffleChunksLargeBatchesConcurrently(t *testing.T) {
	fb := framebuffer.New(64, 1)
	q := queue.New()
	s := New(nil, q, fb, nil, 4)

	rays := make([]rayproto.Ray, 64)
	for i := range rays {
		rays[i] = rayproto.New(uint32(i), math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	}
	s.Shuffle(rays, nil)

	require.Equal(t, int64(64), fb.Writes())
}
