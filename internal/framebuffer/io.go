package framebuffer

import (
	"fmt"
	"os"
	"sync/atomic"
)

// FillBackground commits the background color to every pixel that never
// received a ray contribution — the missed-all-geometry path of the
// Shuffler's terminal step.
func (f *Framebuffer) FillBackground(background RGBA) {
	for i := range f.pixels {
		if f.pixels[i].A == 0 {
			f.pixels[i] = background
			atomic.AddInt64(&f.writes, 1)
		}
	}
}

// WritePPM writes the authoritative composited frame as a plain (P3) PPM,
// the format the teacher's output package used for the single-node
// renderer and that this core keeps for the cluster's rank-0 write path.
func (f *Framebuffer) WritePPM(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("framebuffer: create %s: %w", filename, err)
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n%d %d\n255\n", f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			p := f.pixels[y*f.Width+x]
			fmt.Fprintf(file, "%d %d %d ", to255(p.R), to255(p.G), to255(p.B))
		}
		fmt.Fprintln(file)
	}
	return nil
}

func to255(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v*255 + 0.5)
}
