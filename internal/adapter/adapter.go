// Package adapter defines the AdapterAPI boundary: the opaque,
// back-end-specific capability set {load, unload, trace, march_out} that
// intersection back-ends (Manta, OptiX, Embree, OSPRay in the external
// system) present to the scheduling core. The core never sees back-end
// vocabulary past this interface.
package adapter

import (
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
)

// API is the sole component that runs actual intersection and shading;
// the core treats it as opaque. Trace is called serially per block, but
// different blocks may be traced concurrently — the interface allows but
// does not require that of an implementation.
type API interface {
	// Loader materializes a block's back-end-specific payload from cold
	// storage. Passed to block.NewBlock; residency control itself
	// (idempotent load/unload) lives in block.Cache.
	Loader(id uint32) (block.Payload, error)

	// Trace consumes an owned ray batch for block b and emits the moved
	// rays: primary rays that terminate with a surface hit and
	// accumulated color, rays that miss and continue (empty
	// intersection list, still open for march_out/BVH), or shadow/
	// secondary children with fresh intersection lists. Must be
	// thread-safe across different blocks; trace on a single block is
	// always called serially.
	Trace(b *block.Block, in []rayproto.Ray) ([]rayproto.Ray, error)

	// MarchOut is a cheap geometric step producing the next block a ray
	// crosses after b, appended to the ray's intersection list. Called
	// only when the list is already empty.
	MarchOut(b *block.Block, r *rayproto.Ray)
}
