package rayproto

import (
	"testing"

	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/stretchr/testify/require"
)

// TestPackUnpackRoundTrip covers S6: a batch of rays with varying
// intersection-list lengths packs and unpacks byte-identically, and the
// total buffer size equals the sum of per-ray packed sizes.
func TestPackUnpackRoundTrip(t *testing.T) {
	var rays []Ray
	for i := 0; i < 1000; i++ {
		listLen := i % 17 // 0..16
		// An empty list stays nil: the wire carries no distinction between
		// nil and empty, and Unpack leaves Intersection nil for list_len 0.
		var list []uint32
		for j := 0; j < listLen; j++ {
			list = append(list, uint32(i*100+j))
		}
		rays = append(rays, Ray{
			// Values chosen to be exactly representable as float32 so the
			// round trip can be compared bit-for-bit at float64 precision.
			Origin:       math.Vec3{X: float64(i), Y: 1, Z: 2},
			Direction:    math.Vec3{X: 0, Y: 0, Z: 1},
			Color:        math.Vec3{X: 0.125, Y: 0.25, Z: 0.375},
			Alpha:        0.5,
			T:            8,
			TMin:         0.0625,
			TMax:         1024,
			ID:           uint32(i),
			Depth:        uint16(i % 50),
			Kind:         Type(i % 4),
			Term:         Term(i % 16),
			Intersection: list,
		})
	}

	wantSize := 0
	for _, r := range rays {
		wantSize += r.PackedSize()
	}

	buf := PackBatch(rays)
	require.Len(t, buf, wantSize)

	got, err := UnpackBatch(buf)
	require.NoError(t, err)
	require.Len(t, got, len(rays))

	for i := range rays {
		require.Equal(t, rays[i], got[i], "ray %d mismatch", i)
	}
}

func TestPackedSizeIsFixedPlusList(t *testing.T) {
	r := Ray{Intersection: []uint32{1, 2, 3}}
	require.Equal(t, FixedWireSize+4*3, r.PackedSize())
}
