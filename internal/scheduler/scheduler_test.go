package scheduler

import (
	"testing"

	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/gravit-cluster/gvtcore/internal/queue"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/gravit-cluster/gvtcore/internal/shuffler"
	"github.com/stretchr/testify/require"
)

// TestEnqueueReceivedUsesTailBlockNotHeadRequery is the §4.7.4 regression
// case: a migrated ray still has a later block queued up behind the one
// it was sent to trace. enqueueReceived must land it in the carried tail
// block, not let a fresh BVH query (which knows nothing of the carried
// id) skip straight to whatever the ray's remaining list or current
// origin would suggest.
func TestEnqueueReceivedUsesTailBlockNotHeadRequery(t *testing.T) {
	q := queue.New()
	fb := framebuffer.New(1, 1)
	shuf := shuffler.New(nil, q, fb, nil, 1)

	ray := rayproto.New(0, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	// 7 is the block this ray migrated here to trace (carried as the
	// tail entry by the sender); 9 is a block still ahead of it.
	ray.Intersection = []uint32{9, 7}

	enqueueReceived(q, shuf, []rayproto.Ray{ray})

	require.Equal(t, 1, q.Len(7), "ray must land in the block it migrated to trace")
	require.Equal(t, 0, q.Len(9), "ray must not skip ahead to a block it hasn't reached yet")
}

// TestEnqueueReceivedFallsBackToShuffleWhenListEmpty covers a received
// ray that already escaped in flight: with no carried tail block, it
// must still reach the framebuffer rather than being silently dropped.
func TestEnqueueReceivedFallsBackToShuffleWhenListEmpty(t *testing.T) {
	q := queue.New()
	fb := framebuffer.New(1, 1)
	shuf := shuffler.New(nil, q, fb, nil, 1)

	ray := rayproto.New(0, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	ray.Color = math.Vec3{X: 0.2, Y: 0.2, Z: 0.2}

	enqueueReceived(q, shuf, []rayproto.Ray{ray})

	require.Equal(t, int64(1), fb.Writes())
	require.True(t, q.Empty())
}
