package rayproto

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/gravit-cluster/gvtcore/internal/math"
)

// FixedWireSize is the byte count of every field but the variable-length
// intersection list: origin[3] + direction[3] + color[4] f32, t/tmin/tmax
// f32, id u32, depth u16, type u8, term u8, list_len u16.
const FixedWireSize = 4*3 + 4*3 + 4*4 + 4*3 + 4 + 2 + 1 + 1 + 2

// PackedSize returns the number of bytes this ray occupies on the wire.
// Rays have variable packed size because the intersection list varies in
// length, so callers packing a batch must size buffers from this value
// rather than assume a fixed stride.
func (r Ray) PackedSize() int {
	return FixedWireSize + 4*len(r.Intersection)
}

// Pack appends the little-endian wire encoding of r to buf and returns the
// extended slice.
func (r Ray) Pack(buf []byte) []byte {
	var tmp [8]byte

	putF32 := func(v float64) {
		binary.LittleEndian.PutUint32(tmp[:4], stdmath.Float32bits(float32(v)))
		buf = append(buf, tmp[:4]...)
	}

	putF32(r.Origin.X)
	putF32(r.Origin.Y)
	putF32(r.Origin.Z)
	putF32(r.Direction.X)
	putF32(r.Direction.Y)
	putF32(r.Direction.Z)
	putF32(r.Color.X)
	putF32(r.Color.Y)
	putF32(r.Color.Z)
	putF32(r.Alpha)
	putF32(r.T)
	putF32(r.TMin)
	putF32(r.TMax)

	binary.LittleEndian.PutUint32(tmp[:4], r.ID)
	buf = append(buf, tmp[:4]...)

	binary.LittleEndian.PutUint16(tmp[:2], r.Depth)
	buf = append(buf, tmp[:2]...)

	buf = append(buf, byte(r.Kind), byte(r.Term))

	binary.LittleEndian.PutUint16(tmp[:2], uint16(len(r.Intersection)))
	buf = append(buf, tmp[:2]...)

	for _, id := range r.Intersection {
		binary.LittleEndian.PutUint32(tmp[:4], id)
		buf = append(buf, tmp[:4]...)
	}

	return buf
}

// Unpack decodes one ray from the head of buf, returning the ray and the
// remainder of buf after it. It respects the wire's list_len framing so a
// stream of variably-sized rays can be walked sequentially.
func Unpack(buf []byte) (Ray, []byte, error) {
	if len(buf) < FixedWireSize {
		return Ray{}, nil, fmt.Errorf("rayproto: short buffer: need %d fixed bytes, have %d", FixedWireSize, len(buf))
	}

	var r Ray
	off := 0

	getF32 := func() float64 {
		v := stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		return float64(v)
	}

	r.Origin = math.Vec3{X: getF32(), Y: getF32(), Z: getF32()}
	r.Direction = math.Vec3{X: getF32(), Y: getF32(), Z: getF32()}
	r.Color = math.Vec3{X: getF32(), Y: getF32(), Z: getF32()}
	r.Alpha = getF32()
	r.T = getF32()
	r.TMin = getF32()
	r.TMax = getF32()

	r.ID = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	r.Depth = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	r.Kind = Type(buf[off])
	off++
	r.Term = Term(buf[off])
	off++
	listLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2

	need := off + 4*listLen
	if len(buf) < need {
		return Ray{}, nil, fmt.Errorf("rayproto: short buffer: need %d bytes for list_len=%d, have %d", need, listLen, len(buf))
	}

	if listLen > 0 {
		r.Intersection = make([]uint32, listLen)
		for i := 0; i < listLen; i++ {
			r.Intersection[i] = binary.LittleEndian.Uint32(buf[off : off+4])
			off += 4
		}
	}

	return r, buf[off:], nil
}

// PackBatch packs rays into one contiguous buffer, sizing it in an
// enumeration pass first since packed size is ray-dependent.
func PackBatch(rays []Ray) []byte {
	total := 0
	for _, r := range rays {
		total += r.PackedSize()
	}
	buf := make([]byte, 0, total)
	for _, r := range rays {
		buf = r.Pack(buf)
	}
	return buf
}

// UnpackBatch walks buf decoding rays until it is exhausted.
func UnpackBatch(buf []byte) ([]Ray, error) {
	var rays []Ray
	for len(buf) > 0 {
		r, rest, err := Unpack(buf)
		if err != nil {
			return rays, err
		}
		rays = append(rays, r)
		buf = rest
	}
	return rays, nil
}
