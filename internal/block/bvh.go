package block

import (
	"sort"

	"github.com/gravit-cluster/gvtcore/internal/math"
)

// BVH is the replicated, read-only global block BVH the Shuffler queries
// to fill a ray's intersection list once march_out leaves it empty.
// Adapted from the teacher's geometry-object BVH: the leaves here hold
// block ids and boxes instead of primitives, since the core only ever
// needs block-granularity hit ordering, not per-triangle detail.
type BVH struct {
	left, right *BVH
	box         AABB
	blockID     uint32
	isLeaf      bool
}

type leaf struct {
	id  uint32
	box AABB
}

// Build constructs a BVH over the given blocks' bounding boxes.
func Build(blocks []*Block) *BVH {
	leaves := make([]leaf, len(blocks))
	for i, b := range blocks {
		leaves[i] = leaf{id: b.ID, box: b.Box}
	}
	return build(leaves, 0, len(leaves))
}

func build(leaves []leaf, start, end int) *BVH {
	if end-start == 1 {
		return &BVH{blockID: leaves[start].id, box: leaves[start].box, isLeaf: true}
	}

	box := leaves[start].box
	for i := start + 1; i < end; i++ {
		box = Union(box, leaves[i].box)
	}

	axis := longestAxis(box)
	sub := leaves[start:end]
	sort.Slice(sub, func(i, j int) bool {
		return centroid(sub[i].box, axis) < centroid(sub[j].box, axis)
	})

	mid := (start + end) / 2
	return &BVH{
		box:   box,
		left:  build(leaves, start, mid),
		right: build(leaves, mid, end),
	}
}

func longestAxis(box AABB) int {
	extent := box.Max.Sub(box.Min)
	if extent.X > extent.Y && extent.X > extent.Z {
		return 0
	} else if extent.Y > extent.Z {
		return 1
	}
	return 2
}

func centroid(box AABB, axis int) float64 {
	switch axis {
	case 0:
		return (box.Min.X + box.Max.X) / 2
	case 1:
		return (box.Min.Y + box.Max.Y) / 2
	default:
		return (box.Min.Z + box.Max.Z) / 2
	}
}

// hit is an internal candidate: a leaf block and the t the ray entered it.
type hit struct {
	id uint32
	t  float64
}

// Query returns the ids of every block the segment (origin,dir,[tMin,tMax])
// crosses, in increasing-t order — the order the Shuffler needs to fill a
// ray's intersection list.
func (v *BVH) Query(origin, dir math.Vec3, tMin, tMax float64) []uint32 {
	if v == nil {
		return nil
	}
	var hits []hit
	v.query(origin, dir, tMin, tMax, &hits)
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	ids := make([]uint32, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

func (v *BVH) query(origin, dir math.Vec3, tMin, tMax float64, out *[]hit) {
	tEnter, _, ok := v.box.Hit(origin, dir, tMin, tMax)
	if !ok {
		return
	}
	if v.isLeaf {
		*out = append(*out, hit{id: v.blockID, t: tEnter})
		return
	}
	v.left.query(origin, dir, tMin, tMax, out)
	v.right.query(origin, dir, tMin, tMax, out)
}
