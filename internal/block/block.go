// Package block models scene partitions: the unit of residency, loading,
// and (in Domain mode) home-rank assignment that rays are routed toward.
package block

import (
	"fmt"
	"sync"

	"github.com/gravit-cluster/gvtcore/internal/math"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max math.Vec3
}

// Union returns the smallest AABB containing both a and b.
func Union(a, b AABB) AABB {
	return AABB{
		Min: math.Vec3{
			X: math.FastMin(a.Min.X, b.Min.X),
			Y: math.FastMin(a.Min.Y, b.Min.Y),
			Z: math.FastMin(a.Min.Z, b.Min.Z),
		},
		Max: math.Vec3{
			X: math.FastMax(a.Max.X, b.Max.X),
			Y: math.FastMax(a.Max.Y, b.Max.Y),
			Z: math.FastMax(a.Max.Z, b.Max.Z),
		},
	}
}

// Hit reports whether the segment [tMin,tMax] of ray (origin,dir) crosses
// the box, and the entry/exit parameters when it does.
func (b AABB) Hit(origin, dir math.Vec3, tMin, tMax float64) (tEnter, tExit float64, ok bool) {
	tEnter, tExit = tMin, tMax
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, 0, false
			}
			continue
		}
		invD := 1.0 / d[axis]
		t0 := (lo[axis] - o[axis]) * invD
		t1 := (hi[axis] - o[axis]) * invD
		if invD < 0 {
			t0, t1 = t1, t0
		}
		tEnter = math.FastMax(tEnter, t0)
		tExit = math.FastMin(tExit, t1)
		if tExit <= tEnter {
			return 0, 0, false
		}
	}
	return tEnter, tExit, true
}

// Payload is the opaque, adapter-specific content of a block (a mesh
// region, a volume brick). The core never inspects it.
type Payload interface{}

// Loader materializes a block's payload from cold storage on demand.
type Loader func(id uint32) (Payload, error)

// Block is a unit of scene partitioning. Queues reference blocks only by
// integer id; blocks never hold a back-pointer to a queue.
type Block struct {
	ID   uint32
	Box  AABB
	Home int // home rank in Domain mode, -1 when the mode has no concept of home

	loader Loader

	mu       sync.Mutex
	payload  Payload
	resident bool
}

// NewBlock creates block metadata. Payload is not materialized until Load.
func NewBlock(id uint32, box AABB, home int, loader Loader) *Block {
	return &Block{ID: id, Box: box, Home: home, loader: loader}
}

// Load is idempotent residency control: materializing an already-resident
// block is a no-op.
func (b *Block) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resident {
		return nil
	}
	if b.loader == nil {
		return fmt.Errorf("block %d: no loader configured", b.ID)
	}
	payload, err := b.loader(b.ID)
	if err != nil {
		return fmt.Errorf("block %d: load: %w", b.ID, err)
	}
	b.payload = payload
	b.resident = true
	return nil
}

// Unload is idempotent residency control: unloading a non-resident block
// is a no-op. Eviction is cheap by design — it only drops the reference.
func (b *Block) Unload() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payload = nil
	b.resident = false
}

// Resident reports whether the block is currently materialized.
func (b *Block) Resident() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resident
}

// Payload returns the materialized payload, or nil if not resident.
func (b *Block) Payload() Payload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.payload
}
