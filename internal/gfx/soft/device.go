// Package soft is a software gfx.Device. It rasterizes into an RGBA image
// with a float depth buffer and an 8-bit stencil buffer, which is enough to
// run the full shadow volume pipeline headless.
package soft

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/geom"
	"github.com/purchess/purchess/internal/gfx"
)

// Stats counts work done since Begin.
type Stats struct {
	Draws     int
	Triangles int
	Fragments int
}

// Device renders into Color.
type Device struct {
	color    *image.RGBA
	depth    []float32
	stencil  []uint8
	viewport geom.Rect
	stats    Stats
	drawing  bool
}

// New allocates buffers for a width x height target.
func New(width, height int) *Device {
	d := &Device{}
	d.Resize(width, height)
	return d
}

// Resize reallocates the buffers when the target size changes.
func (d *Device) Resize(width, height int) {
	if d.color != nil && d.color.Rect.Dx() == width && d.color.Rect.Dy() == height {
		return
	}
	d.color = image.NewRGBA(image.Rect(0, 0, width, height))
	d.depth = make([]float32, width*height)
	d.stencil = make([]uint8, width*height)
}

// Size returns the target dimensions.
func (d *Device) Size() (int, int) {
	return d.color.Rect.Dx(), d.color.Rect.Dy()
}

func (d *Device) Begin(viewport geom.Rect, clear mgl32.Vec4) {
	d.drawing = true
	d.stats = Stats{}
	d.viewport = viewport.Intersect(geom.Rect{Width: d.color.Rect.Dx(), Height: d.color.Rect.Dy()})

	black := color.RGBA{A: 255}
	bg := toRGBA(clear)
	w := d.color.Rect.Dx()
	for y := 0; y < d.color.Rect.Dy(); y++ {
		for x := 0; x < w; x++ {
			c := black
			if d.viewport.Contains(float64(x)+0.5, float64(y)+0.5) {
				c = bg
			}
			d.color.SetRGBA(x, y, c)
		}
	}
	for i := range d.depth {
		d.depth[i] = 1
		d.stencil[i] = 0
	}
}

func (d *Device) Draw(call gfx.DrawCall) {
	if !d.drawing {
		panic("soft: Draw outside Begin/End")
	}
	if call.Mesh == nil {
		panic("soft: draw call without a mesh")
	}
	d.stats.Draws++

	indices := call.Mesh.Indices
	if call.Shadow {
		indices = call.Mesh.Shadow
	}

	shaded := make([]varying, len(call.Mesh.Vertices))
	for i, v := range call.Mesh.Vertices {
		shaded[i] = shadeVertex(&call, v.Position, v.Normal)
	}

	var poly [9]varying
	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]varying{shaded[indices[i]], shaded[indices[i+1]], shaded[indices[i+2]]}
		axis := dominantAxis(call.Mesh.Vertices[indices[i]].Normal)
		n := clipNear(tri, poly[:0])
		for k := 1; k+1 < len(n); k++ {
			d.triangle(&call, axis, n[0], n[k], n[k+1])
		}
	}
}

func (d *Device) End() {
	d.drawing = false
}

// Image returns the colour buffer. It is reused across frames.
func (d *Device) Image() *image.RGBA {
	return d.color
}

// Stats returns the counters of the current or last frame.
func (d *Device) Stats() Stats {
	return d.stats
}

// StencilAt returns the stencil value of a pixel.
func (d *Device) StencilAt(x, y int) uint8 {
	return d.stencil[y*d.color.Rect.Dx()+x]
}

// DepthAt returns the depth value of a pixel.
func (d *Device) DepthAt(x, y int) float32 {
	return d.depth[y*d.color.Rect.Dx()+x]
}

func toRGBA(c mgl32.Vec4) color.RGBA {
	return color.RGBA{R: unit(c[0]), G: unit(c[1]), B: unit(c[2]), A: unit(c[3])}
}

func unit(v float32) uint8 {
	return uint8(math.Round(float64(mgl32.Clamp(v, 0, 1) * 255)))
}
