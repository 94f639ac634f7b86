package adapter

import (
	"testing"

	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/geometry"
	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
	"github.com/stretchr/testify/require"
)

func newSphereFixture() (*Reference, *block.Block) {
	mesh := Mesh{Objects: []geometry.Hittable{
		geometry.NewSphere(math.Vec3{X: 0, Y: 0, Z: -5}, 1, nil),
	}}
	ref := NewReference(
		map[uint32]Mesh{1: mesh},
		[]Light{{Position: math.Vec3{X: 5, Y: 5, Z: 0}, Color: math.Vec3{X: 1, Y: 1, Z: 1}}},
		math.Vec3{X: 0.05, Y: 0.05, Z: 0.05},
	)
	b := block.NewBlock(1, block.AABB{
		Min: math.Vec3{X: -1, Y: -1, Z: -6},
		Max: math.Vec3{X: 1, Y: 1, Z: -4},
	}, -1, ref.Loader)
	return ref, b
}

func TestTraceHitTerminatesWithColor(t *testing.T) {
	ref, b := newSphereFixture()
	require.NoError(t, b.Load())

	ray := rayproto.New(1, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	out, err := ref.Trace(b, []rayproto.Ray{ray})
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.True(t, out[0].Terminated())
	require.Equal(t, rayproto.TermSurface, out[0].Term)
	require.Greater(t, out[0].Color.X+out[0].Color.Y+out[0].Color.Z, 0.0)
	require.Equal(t, 1.0, out[0].Alpha)
}

func TestTraceMissLeavesIntersectionEmpty(t *testing.T) {
	ref, b := newSphereFixture()
	require.NoError(t, b.Load())

	ray := rayproto.New(2, math.Vec3{X: 10, Y: 10, Z: 0}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	out, err := ref.Trace(b, []rayproto.Ray{ray})
	require.NoError(t, err)
	require.True(t, out[0].Terminated())
	require.Equal(t, rayproto.Term(0), out[0].Term)
}

func TestOccludedLightProducesAmbientOnly(t *testing.T) {
	mesh := Mesh{Objects: []geometry.Hittable{
		geometry.NewSphere(math.Vec3{X: 0, Y: 0, Z: -5}, 1, nil),
		geometry.NewSphere(math.Vec3{X: 2.5, Y: 2.5, Z: -2}, 0.5, nil),
	}}
	ambient := math.Vec3{X: 0.05, Y: 0.05, Z: 0.05}
	ref := NewReference(
		map[uint32]Mesh{1: mesh},
		[]Light{{Position: math.Vec3{X: 5, Y: 5, Z: 0}, Color: math.Vec3{X: 1, Y: 1, Z: 1}}},
		ambient,
	)
	b := block.NewBlock(1, block.AABB{}, -1, ref.Loader)
	require.NoError(t, b.Load())

	ray := rayproto.New(1, math.Vec3{}, math.Vec3{X: 0, Y: 0, Z: -1}, 0.001, 1000, 0)
	out, err := ref.Trace(b, []rayproto.Ray{ray})
	require.NoError(t, err)
	require.InDelta(t, ambient.X, out[0].Color.X, 1e-9)
}

func TestLoaderUnknownBlockErrors(t *testing.T) {
	ref := NewReference(map[uint32]Mesh{}, nil, math.Vec3{})
	_, err := ref.Loader(99)
	require.Error(t, err)
}
