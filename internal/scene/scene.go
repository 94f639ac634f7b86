// Package scene describes a cluster frame's static inputs: the blocks
// an AdapterAPI back-end will trace, the point lights and ambient term
// the reference back-end shades against, and the camera that generates
// the frame's primary ray set. A scene file is per-frame content, not
// core configuration — it says what to render, internal/config says
// how to schedule rendering it.
package scene

import (
	"encoding/json"
	"fmt"
	stdmath "math"
	"os"

	"github.com/gravit-cluster/gvtcore/internal/adapter"
	"github.com/gravit-cluster/gvtcore/internal/block"
	"github.com/gravit-cluster/gvtcore/internal/geometry"
	"github.com/gravit-cluster/gvtcore/internal/math"
	"github.com/gravit-cluster/gvtcore/internal/rayproto"
)

// Camera is a standard look-from/look-at/up/fov perspective camera.
type Camera struct {
	Eye    math.Vec3 `json:"eye"`
	Focus  math.Vec3 `json:"focus"`
	Up     math.Vec3 `json:"up"`
	FOVDeg float64   `json:"fov"`
}

// Object is one primitive inside a block, tagged by Type ("sphere" or
// "triangle") with only the fields that type needs populated.
type Object struct {
	Type   string    `json:"type"`
	Center math.Vec3 `json:"center,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	V0     math.Vec3 `json:"v0,omitempty"`
	V1     math.Vec3 `json:"v1,omitempty"`
	V2     math.Vec3 `json:"v2,omitempty"`
}

// BlockDesc is one block's geometry, bounds, and fixed home rank (Home
// is meaningless to Image and Hybrid, which ignore it).
type BlockDesc struct {
	ID      uint32    `json:"id"`
	Home    int       `json:"home"`
	Min     math.Vec3 `json:"min"`
	Max     math.Vec3 `json:"max"`
	Objects []Object  `json:"objects"`
}

// Light is a single point light, forwarded verbatim to adapter.Light.
type Light struct {
	Position math.Vec3 `json:"position"`
	Color    math.Vec3 `json:"color"`
}

// Scene is the parsed contents of a scene file.
type Scene struct {
	Camera  Camera      `json:"camera"`
	Blocks  []BlockDesc `json:"blocks"`
	Lights  []Light     `json:"lights"`
	Ambient math.Vec3   `json:"ambient"`
}

// LoadFromFile reads and parses a JSON scene description.
func LoadFromFile(filename string) (*Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scene file: %w", err)
	}
	return &s, nil
}

func (o Object) hittable() geometry.Hittable {
	switch o.Type {
	case "sphere":
		return geometry.NewSphere(o.Center, o.Radius, nil)
	case "triangle":
		return geometry.NewTriangle(o.V0, o.V1, o.V2, nil)
	default:
		return nil
	}
}

// Build materializes every BlockDesc into a *block.Block backed by a
// reference adapter.Mesh Loader, and returns the single adapter built
// over all of them — the reference back-end keeps every block's
// geometry in one meshes-by-id table rather than one adapter per block.
func (s *Scene) Build() (*adapter.Reference, []*block.Block) {
	meshes := make(map[uint32]adapter.Mesh, len(s.Blocks))
	lights := make([]adapter.Light, len(s.Lights))
	for i, l := range s.Lights {
		lights[i] = adapter.Light{Position: l.Position, Color: l.Color}
	}
	ref := adapter.NewReference(meshes, lights, s.Ambient)

	blocks := make([]*block.Block, len(s.Blocks))
	for i, bd := range s.Blocks {
		var objs []geometry.Hittable
		for _, o := range bd.Objects {
			if h := o.hittable(); h != nil {
				objs = append(objs, h)
			}
		}
		meshes[bd.ID] = adapter.Mesh{Objects: objs}
		blocks[i] = block.NewBlock(bd.ID, block.AABB{Min: bd.Min, Max: bd.Max}, bd.Home, ref.Loader)
	}
	return ref, blocks
}

// CameraRays generates one primary ray per pixel in raster order
// (row-major, row 0 at the top) — the frame's full shared ray set every
// scheduler variant then partitions by pixel range.
func (c Camera) CameraRays(width, height int) []rayproto.Ray {
	forward := c.Focus.Sub(c.Eye).Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward).Normalize()

	theta := c.FOVDeg * stdmath.Pi / 180
	viewportHeight := 2 * stdmath.Tan(theta/2)
	viewportWidth := viewportHeight * float64(width) / float64(height)

	horizontal := right.MulScalar(viewportWidth)
	vertical := up.MulScalar(viewportHeight)
	lowerLeft := c.Eye.Add(forward).Sub(horizontal.DivScalar(2)).Sub(vertical.DivScalar(2))

	rays := make([]rayproto.Ray, width*height)
	id := uint32(0)
	for y := 0; y < height; y++ {
		v := 1 - float64(y)/float64(height-1)
		for x := 0; x < width; x++ {
			u := float64(x) / float64(width-1)
			target := lowerLeft.Add(horizontal.MulScalar(u)).Add(vertical.MulScalar(v))
			dir := target.Sub(c.Eye).Normalize()
			rays[id] = rayproto.New(id, c.Eye, dir, 0.001, 1e6, 0)
			id++
		}
	}
	return rays
}
