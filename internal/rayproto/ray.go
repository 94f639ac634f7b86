// Package rayproto defines the scheduling core's Ray: the unit that moves
// between block queues, across ranks, and into/out of an adapter call.
package rayproto

import (
	"github.com/gravit-cluster/gvtcore/internal/math"
)

// Type tags a ray's role in the light path.
type Type uint8

const (
	Primary Type = iota
	Shadow
	Secondary
	Empty
)

// Term is a bitset of reasons a ray stopped advancing.
type Term uint8

const (
	TermSurface Term = 1 << iota
	TermOpaque
	TermBoundary
	TermTimeout
)

// Any reports whether any of the given bits are set.
func (t Term) Any(bits Term) bool { return t&bits != 0 }

// Ray is the wire-serializable unit the Shuffler, RayQueueMap, and
// cross-rank exchange operate on. A live ray is always in exactly one
// place: a block's queue, a send/receive buffer, or inside an adapter call.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
	Color     math.Vec3
	Alpha     float64

	T, TMin, TMax float64

	ID    uint32
	Depth uint16
	Kind  Type
	Term  Term

	// Intersection is the ordered list of block ids this ray still has to
	// traverse, nearest first. Popping the head is how the Shuffler routes
	// a ray to its next queue; an empty list after march_out/BVH query
	// means the ray has escaped the scene.
	Intersection []uint32
}

// New builds a primary ray ready for camera-side dispatch.
func New(id uint32, origin, direction math.Vec3, tMin, tMax float64, depth uint16) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
		TMin:      tMin,
		TMax:      tMax,
		T:         tMax,
		ID:        id,
		Depth:     depth,
		Kind:      Primary,
	}
}

// At returns the point along the ray at parameter t.
func (r Ray) At(t float64) math.Vec3 {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// Terminated reports whether the ray has no more blocks to visit.
func (r Ray) Terminated() bool {
	return len(r.Intersection) == 0
}

// NextBlock pops and returns the head of the intersection list. The second
// return is false when the list was already empty.
func (r *Ray) NextBlock() (uint32, bool) {
	if len(r.Intersection) == 0 {
		return 0, false
	}
	b := r.Intersection[0]
	r.Intersection = r.Intersection[1:]
	return b, true
}

// TailBlock returns the last (deepest) entry of the intersection list — the
// block a received ray should be enqueued into, per the wire-exchange
// framing where the list travels with the ray and the tail is "next".
func (r Ray) TailBlock() (uint32, bool) {
	if len(r.Intersection) == 0 {
		return 0, false
	}
	return r.Intersection[len(r.Intersection)-1], true
}

// CanSpawn reports whether this ray still has bounce budget left.
func (r Ray) CanSpawn() bool {
	return r.Depth > 0
}

// Clamp clamps the accumulated color into [0,1] and sets full opacity,
// matching the Shuffler's commit-to-framebuffer step.
func (r *Ray) Clamp() {
	r.Color = r.Color.Clamp(0, 1)
	r.Alpha = 1
}
