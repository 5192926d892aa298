// Package gfx is the draw interface the renderer issues its passes against.
// It mirrors the small slice of GL state the passes need: depth, stencil,
// culling, colour masking and blending.
package gfx

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/geom"
	"github.com/purchess/purchess/internal/mesh"
	"golang.org/x/image/draw"
)

// Compare is a depth or stencil comparison function.
type Compare int

const (
	Always Compare = iota
	Never
	Less
	LessEqual
	Equal
	NotEqual
	Greater
)

func (c Compare) String() string {
	switch c {
	case Always:
		return "always"
	case Never:
		return "never"
	case Less:
		return "less"
	case LessEqual:
		return "lequal"
	case Equal:
		return "equal"
	case NotEqual:
		return "notequal"
	case Greater:
		return "greater"
	default:
		return fmt.Sprintf("Compare(%d)", int(c))
	}
}

// Test reports whether a incoming value passes against b stored.
func (c Compare) Test(a, b float32) bool {
	switch c {
	case Always:
		return true
	case Never:
		return false
	case Less:
		return a < b
	case LessEqual:
		return a <= b
	case Equal:
		return a == b
	case NotEqual:
		return a != b
	case Greater:
		return a > b
	default:
		panic(fmt.Sprintf("gfx: unknown compare %d", int(c)))
	}
}

// StencilOp updates the stencil value of a fragment.
type StencilOp int

const (
	Keep StencilOp = iota
	Zero
	Replace
	IncrWrap
	DecrWrap
)

// Apply returns the new stencil value.
func (op StencilOp) Apply(v, ref uint8) uint8 {
	switch op {
	case Zero:
		return 0
	case Replace:
		return ref
	case IncrWrap:
		return v + 1
	case DecrWrap:
		return v - 1
	default:
		return v
	}
}

// Cull selects which winding is discarded. Front faces wind
// counter-clockwise on screen.
type Cull int

const (
	CullNone Cull = iota
	CullBack
	CullFront
)

// Stencil is the stencil test and its update ops.
type Stencil struct {
	Enabled   bool
	Func      Compare
	Ref       uint8
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
}

// State is the fixed-function state for one draw.
type State struct {
	DepthTest  Compare
	DepthWrite bool
	ColorWrite bool
	Cull       Cull
	Stencil    Stencil
	Blend      bool
}

// Program selects the vertex and fragment stages.
type Program int

const (
	// ProgramSky is unlit and coloured by view elevation.
	ProgramSky Program = iota
	// ProgramDark is lit by ambient and diffuse light scaled by the shadow tint.
	ProgramDark
	// ProgramShadow extrudes faces turned away from the shadow light.
	ProgramShadow
	// ProgramLit is full diffuse and specular lighting.
	ProgramLit
	// ProgramFlat is an unlit tinted surface, used for highlights.
	ProgramFlat
	// ProgramSprite is a screen-space textured quad.
	ProgramSprite
)

var programNames = map[Program]string{
	ProgramSky:    "sky",
	ProgramDark:   "dark",
	ProgramShadow: "shadow",
	ProgramLit:    "lit",
	ProgramFlat:   "flat",
	ProgramSprite: "sprite",
}

func (p Program) String() string {
	if n, ok := programNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Program(%d)", int(p))
}

// Light is a directional light. Direction is the way the light travels.
type Light struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
}

// Lighting is shared by every lit draw of a frame.
type Lighting struct {
	Lights        [3]Light
	Ambient       mgl32.Vec3
	SpecularPower float32
	SpecularColor mgl32.Vec3
	ShadowTint    mgl32.Vec3
}

// Texture is an image sampled with wrap-around addressing unless Clamp is set.
type Texture struct {
	Name  string
	Image *image.NRGBA
	Clamp bool
}

// NewTexture converts img to the sampling format.
func NewTexture(name string, img image.Image) *Texture {
	if n, ok := img.(*image.NRGBA); ok {
		return &Texture{Name: name, Image: n}
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Texture{Name: name, Image: dst}
}

// Uniforms are the per-draw shader inputs.
type Uniforms struct {
	MVP            mgl32.Mat4
	Model          mgl32.Mat4
	ViewProjection mgl32.Mat4
	Tint           mgl32.Vec4
	Texture        *Texture
	TextureScale   mgl32.Vec3
	TextureOffset  mgl32.Vec3
	Lighting       *Lighting
	ViewDirection  mgl32.Vec3
	ShadowLight    mgl32.Vec3
	Extrude        float32
}

// DrawCall is one mesh draw.
type DrawCall struct {
	Program  Program
	Mesh     *mesh.Mesh
	Shadow   bool // draw the shadow index list instead of the surface
	State    State
	Uniforms Uniforms
}

// Device executes draw calls into a frame.
type Device interface {
	// Begin clears the whole target to black and the viewport to clear,
	// resets depth to the far plane and stencil to zero.
	Begin(viewport geom.Rect, clear mgl32.Vec4)
	Draw(call DrawCall)
	End()
}

// Recorder is a Device that keeps every call, for tests and debugging.
type Recorder struct {
	Viewport geom.Rect
	Clear    mgl32.Vec4
	Calls    []DrawCall
	Frames   int
	open     bool
}

func (r *Recorder) Begin(viewport geom.Rect, clear mgl32.Vec4) {
	if r.open {
		panic("gfx: Begin called twice without End")
	}
	r.open = true
	r.Viewport, r.Clear = viewport, clear
	r.Calls = r.Calls[:0]
}

func (r *Recorder) Draw(call DrawCall) {
	if !r.open {
		panic("gfx: Draw outside Begin/End")
	}
	r.Calls = append(r.Calls, call)
}

func (r *Recorder) End() {
	r.open = false
	r.Frames++
}

// Programs returns the program of every recorded call in order.
func (r *Recorder) Programs() []Program {
	out := make([]Program, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Program
	}
	return out
}
