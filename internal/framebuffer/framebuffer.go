// Package framebuffer holds the per-rank dense color-with-alpha image and
// the accumulation/composite machinery that merges per-rank buffers at
// frame end.
package framebuffer

import (
	"sync"
	"sync/atomic"

	"github.com/gravit-cluster/gvtcore/internal/math"
)

// RGBA is a color-with-alpha sample.
type RGBA struct {
	R, G, B, A float64
}

// Framebuffer is a dense width x height array of RGBA, local to one rank.
// Writes are serialized by a per-pixel-row mutex, one per row (Height of
// them), so contention scales with pixel rows, not a fixed lock count.
type Framebuffer struct {
	Width, Height int
	pixels        []RGBA
	rowMu         []sync.Mutex
	writes        int64
}

// New allocates a zeroed framebuffer.
func New(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		pixels: make([]RGBA, width*height),
		rowMu:  make([]sync.Mutex, height),
	}
}

func (f *Framebuffer) rowOf(pixelID int) int {
	if f.Width == 0 {
		return 0
	}
	return (pixelID / f.Width) % f.Height
}

// Commit accumulates color into pixel id, clamps to [0,1], and sets full
// opacity — the Shuffler's terminal step for an escaped or surface-hit ray.
func (f *Framebuffer) Commit(pixelID int, color math.Vec3) {
	row := f.rowOf(pixelID)
	f.rowMu[row].Lock()
	defer f.rowMu[row].Unlock()

	p := &f.pixels[pixelID]
	p.R = clamp01(p.R + color.X)
	p.G = clamp01(p.G + color.Y)
	p.B = clamp01(p.B + color.Z)
	p.A = 1

	atomic.AddInt64(&f.writes, 1)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Writes returns the total number of Commit calls observed, used by the
// color-idempotence property test (total writes must equal width*height
// for a single unobstructed frame).
func (f *Framebuffer) Writes() int64 {
	return atomic.LoadInt64(&f.writes)
}

// At returns the pixel at id.
func (f *Framebuffer) At(pixelID int) RGBA {
	return f.pixels[pixelID]
}

// Pixels returns the backing pixel slice. Callers must not retain it past
// the frame's lifetime without copying.
func (f *Framebuffer) Pixels() []RGBA {
	return f.pixels
}

// Add sums another same-sized framebuffer into this one, assuming a black
// background so per-channel addition is a valid way to composite —
// exactly the MPI-gather compositor's path (§4.9).
func (f *Framebuffer) Add(other *Framebuffer) {
	for i := range f.pixels {
		f.pixels[i].R += other.pixels[i].R
		f.pixels[i].G += other.pixels[i].G
		f.pixels[i].B += other.pixels[i].B
		if other.pixels[i].A > f.pixels[i].A {
			f.pixels[i].A = other.pixels[i].A
		}
	}
}
