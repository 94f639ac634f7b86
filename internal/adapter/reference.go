package adapter

import (
	"fmt"

	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/geometry"
	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
)

// Light is a single point light used by the reference adapter's direct
// lighting term — the teacher's renderer supported area and environment
// lights too, but a reference/test back-end only needs enough to produce
// a non-degenerate silhouette.
type Light struct {
	Position math.Vec3
	Color    math.Vec3
}

// Mesh is the reference adapter's Payload: a flat list of hittable
// primitives (spheres, triangles) local to one block, carried exactly as
// the teacher's scene.go built its Hittable lists.
type Mesh struct {
	Objects []geometry.Hittable
}

// Reference is a trimmed, single-bounce direct-lighting back-end: it
// exists to exercise the AdapterAPI boundary in tests and CLI fixtures,
// not to reproduce the teacher's full path tracer (reflection, refraction,
// atmospheric scattering). A primary ray that hits local geometry is shaded
// once against Lights and terminated; it never spawns shadow or secondary
// children across blocks, so MarchOut is a no-op and blocks are expected
// to hold self-contained geometry.
type Reference struct {
	Meshes map[uint32]Mesh
	Lights []Light
	Ambient math.Vec3
}

// NewReference builds a reference back-end over a fixed id->mesh table,
// the shape the S1/S3 test fixtures construct directly.
func NewReference(meshes map[uint32]Mesh, lights []Light, ambient math.Vec3) *Reference {
	return &Reference{Meshes: meshes, Lights: lights, Ambient: ambient}
}

// Loader satisfies block.Loader by looking up the fixed mesh table; no
// actual I/O happens since the reference back-end keeps meshes in memory.
func (r *Reference) Loader(id uint32) (block.Payload, error) {
	mesh, ok := r.Meshes[id]
	if !ok {
		return nil, fmt.Errorf("adapter: no mesh registered for block %d", id)
	}
	return mesh, nil
}

// Trace runs closest-hit intersection against b's resident mesh for every
// ray in in, shading hits with a hard-shadow direct-lighting term and
// leaving misses with an empty intersection list so the Shuffler can
// consult the global BVH for further blocks.
func (r *Reference) Trace(b *block.Block, in []rayproto.Ray) ([]rayproto.Ray, error) {
	payload := b.Payload()
	if payload == nil {
		return nil, fmt.Errorf("adapter: block %d not resident", b.ID)
	}
	mesh, ok := payload.(Mesh)
	if !ok {
		return nil, fmt.Errorf("adapter: block %d payload is not a Mesh", b.ID)
	}

	out := make([]rayproto.Ray, len(in))
	for i, ray := range in {
		out[i] = r.shade(mesh, ray)
	}
	return out, nil
}

// MarchOut is a no-op: the reference fixtures use self-contained,
// non-adjacent block geometry, so a ray that misses a block's mesh has
// nothing further to cross besides what the global BVH already finds.
func (r *Reference) MarchOut(b *block.Block, ray *rayproto.Ray) {}

func (r *Reference) shade(mesh Mesh, ray rayproto.Ray) rayproto.Ray {
	gr := geometry.NewRay(ray.Origin, ray.Direction)

	var best *geometry.HitRecord
	for _, obj := range mesh.Objects {
		if rec, ok := obj.Hit(gr, ray.TMin, ray.TMax); ok {
			if best == nil || rec.T < best.T {
				best = rec
			}
		}
	}

	if best == nil {
		ray.Intersection = nil
		return ray
	}

	color := r.Ambient
	for _, l := range r.Lights {
		if r.occluded(mesh, best.Point, l.Position) {
			continue
		}
		toLight := l.Position.Sub(best.Point).Normalize()
		ndotl := best.Normal.Dot(toLight)
		if ndotl <= 0 {
			continue
		}
		color = color.Add(l.Color.MulScalar(ndotl))
	}

	ray.Color = color
	ray.Clamp()
	ray.Term = rayproto.TermSurface
	ray.Intersection = nil
	return ray
}

// occluded runs a hard shadow test: any hit strictly between the surface
// point and the light blocks it. No soft-shadow sampling, matching the
// reference back-end's single-bounce scope.
func (r *Reference) occluded(mesh Mesh, point, lightPos math.Vec3) bool {
	toLight := lightPos.Sub(point)
	dist := toLight.Length()
	if dist < 1e-9 {
		return false
	}
	dir := toLight.DivScalar(dist)
	shadowRay := geometry.NewRay(point, dir)

	for _, obj := range mesh.Objects {
		if _, ok := obj.Hit(shadowRay, 1e-4, dist-1e-4); ok {
			return true
		}
	}
	return false
}
