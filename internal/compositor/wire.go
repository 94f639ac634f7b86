package compositor

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
)

// pack/unpack give the compositor its own tiny wire format for a whole
// framebuffer — width, height, then R/G/B/A per pixel as little-endian
// float32 — the same bit-level convention rayproto's wire format uses,
// since a gathered framebuffer is exactly the kind of fixed, dense
// payload that format suits.
func pack(fb *framebuffer.Framebuffer) []byte {
	pixels := fb.Pixels()
	buf := make([]byte, 8+16*len(pixels))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(fb.Width))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(fb.Height))

	off := 8
	putF32 := func(v float64) {
		binary.LittleEndian.PutUint32(buf[off:off+4], stdmath.Float32bits(float32(v)))
		off += 4
	}
	for _, p := range pixels {
		putF32(p.R)
		putF32(p.G)
		putF32(p.B)
		putF32(p.A)
	}
	return buf
}

func unpack(buf []byte) (*framebuffer.Framebuffer, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("compositor: short framebuffer header")
	}
	width := int(binary.LittleEndian.Uint32(buf[0:4]))
	height := int(binary.LittleEndian.Uint32(buf[4:8]))

	need := 8 + 16*width*height
	if len(buf) < need {
		return nil, fmt.Errorf("compositor: short framebuffer body: need %d, have %d", need, len(buf))
	}

	fb := framebuffer.New(width, height)
	pixels := fb.Pixels()
	off := 8
	getF32 := func() float64 {
		v := stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		return float64(v)
	}
	for i := range pixels {
		pixels[i].R = getF32()
		pixels[i].G = getF32()
		pixels[i].B = getF32()
		pixels[i].A = getF32()
	}
	return fb, nil
}
