package soft

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/geom"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWidth  = 160
	testHeight = 90
)

var testViewport = geom.Rect{Width: testWidth, Height: testHeight}

func testCamera() geom.Camera {
	return geom.Camera{Lens: geom.Lens{Distance: 5, Height: 5, FOV: 45}}
}

func pixelOf(vp mgl32.Mat4, p mgl32.Vec3) (int, int) {
	clip := vp.Mul4x1(p.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	return int((ndc.X() + 1) / 2 * testWidth), int((1 - ndc.Y()) / 2 * testHeight)
}

func opaque() gfx.State {
	return gfx.State{DepthTest: gfx.Less, DepthWrite: true, ColorWrite: true, Cull: gfx.CullBack}
}

func flat(m *mesh.Mesh, model, vp mgl32.Mat4, tint mgl32.Vec4, st gfx.State) gfx.DrawCall {
	return gfx.DrawCall{
		Program: gfx.ProgramFlat,
		Mesh:    m,
		State:   st,
		Uniforms: gfx.Uniforms{
			MVP:            vp.Mul4(model),
			Model:          model,
			ViewProjection: vp,
			Tint:           tint,
		},
	}
}

func TestBeginClearsViewportOnly(t *testing.T) {
	d := New(200, 90)
	d.Begin(geom.Rect{Left: 20, Width: testWidth, Height: testHeight}, mgl32.Vec4{0, 0, 1, 1})
	d.End()

	assert.Equal(t, color.RGBA{A: 255}, d.Image().RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, d.Image().RGBAAt(100, 45))
	assert.Equal(t, float32(1), d.DepthAt(100, 45))
	assert.Equal(t, uint8(0), d.StencilAt(100, 45))
}

func TestDrawWritesDepthAndColour(t *testing.T) {
	cam := testCamera()
	vp := cam.ViewProjection()
	d := New(testWidth, testHeight)

	d.Begin(testViewport, mgl32.Vec4{0, 0, 0, 1})
	d.Draw(flat(mesh.Cube("cube", mgl32.Vec3{1, 1, 1}), mgl32.Ident4(), vp, mgl32.Vec4{1, 0, 0, 1}, opaque()))
	d.End()

	x, y := pixelOf(vp, mgl32.Vec3{})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, d.Image().RGBAAt(x, y))
	assert.Less(t, d.DepthAt(x, y), float32(1))
	assert.Equal(t, 1, d.Stats().Draws)
	assert.Greater(t, d.Stats().Fragments, 0)
}

func TestCullingUsesScreenWinding(t *testing.T) {
	quad := mesh.Quad("quad")
	sprite := func(cull gfx.Cull) gfx.DrawCall {
		return gfx.DrawCall{
			Program: gfx.ProgramSprite,
			Mesh:    quad,
			State:   gfx.State{DepthTest: gfx.Always, ColorWrite: true, Cull: cull},
			Uniforms: gfx.Uniforms{
				MVP:  mgl32.Scale3D(1, 1, 1),
				Tint: mgl32.Vec4{1, 1, 1, 1},
			},
		}
	}

	d := New(testWidth, testHeight)
	d.Begin(testViewport, mgl32.Vec4{0, 0, 0, 1})
	d.Draw(sprite(gfx.CullFront))
	assert.Zero(t, d.Stats().Fragments)
	d.Draw(sprite(gfx.CullBack))
	assert.NotZero(t, d.Stats().Fragments)
	d.End()
}

func TestSharedEdgesAreRasterizedOnce(t *testing.T) {
	d := New(testWidth, testHeight)
	d.Begin(testViewport, mgl32.Vec4{0, 0, 0, 1})
	d.Draw(gfx.DrawCall{
		Program: gfx.ProgramSprite,
		Mesh:    mesh.Quad("quad"),
		State: gfx.State{
			DepthTest: gfx.Always,
			Stencil:   gfx.Stencil{Enabled: true, Func: gfx.Always, Pass: gfx.IncrWrap},
		},
		Uniforms: gfx.Uniforms{MVP: mgl32.Scale3D(1.5, 1.5, 1)},
	})
	d.End()

	for y := 0; y < testHeight; y++ {
		for x := 0; x < testWidth; x++ {
			require.LessOrEqual(t, d.StencilAt(x, y), uint8(1), "pixel %d,%d", x, y)
		}
	}
	assert.Equal(t, uint8(1), d.StencilAt(testWidth/2, testHeight/2))
}

func TestShadowVolumeMarksStencil(t *testing.T) {
	cam := testCamera()
	vp := cam.ViewProjection()
	d := New(testWidth, testHeight)

	ground := mesh.Cube("ground", mgl32.Vec3{6, 0.1, 6})
	groundModel := mgl32.Translate3D(0, -0.05, 0)
	occluder := mesh.Cube("occluder", mgl32.Vec3{0.5, 0.5, 0.5})
	occluderModel := mgl32.Translate3D(0, 1, 0)
	green, red := mgl32.Vec4{0, 1, 0, 1}, mgl32.Vec4{1, 0, 0, 1}

	d.Begin(testViewport, mgl32.Vec4{0, 0, 0, 1})
	d.Draw(flat(ground, groundModel, vp, green, opaque()))
	d.Draw(flat(occluder, occluderModel, vp, green, opaque()))

	for _, pass := range []struct {
		cull gfx.Cull
		op   gfx.StencilOp
	}{{gfx.CullFront, gfx.IncrWrap}, {gfx.CullBack, gfx.DecrWrap}} {
		call := flat(occluder, occluderModel, vp, green, gfx.State{
			DepthTest: gfx.Less,
			Cull:      pass.cull,
			Stencil:   gfx.Stencil{Enabled: true, Func: gfx.Always, Pass: pass.op},
		})
		call.Program = gfx.ProgramShadow
		call.Shadow = true
		call.Uniforms.ShadowLight = mgl32.Vec3{0, -1, 0}
		call.Uniforms.Extrude = 50
		d.Draw(call)
	}

	lit := gfx.State{
		DepthTest:  gfx.LessEqual,
		ColorWrite: true,
		Cull:       gfx.CullBack,
		Stencil:    gfx.Stencil{Enabled: true, Func: gfx.Equal, Ref: 0},
	}
	d.Draw(flat(ground, groundModel, vp, red, lit))
	d.End()

	sx, sy := pixelOf(vp, mgl32.Vec3{0, 0, 0.1})
	lx, ly := pixelOf(vp, mgl32.Vec3{1.5, 0, 0})

	assert.NotZero(t, d.StencilAt(sx, sy), "under the occluder")
	assert.Zero(t, d.StencilAt(lx, ly), "open ground")
	assert.Equal(t, color.RGBA{G: 255, A: 255}, d.Image().RGBAAt(sx, sy))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, d.Image().RGBAAt(lx, ly))
}

func TestNearPlaneClipping(t *testing.T) {
	cam := testCamera()
	vp := cam.ViewProjection()
	d := New(testWidth, testHeight)

	// A huge box around the camera: only the parts past the near plane draw.
	d.Begin(testViewport, mgl32.Vec4{0, 0, 0, 1})
	st := opaque()
	st.Cull = gfx.CullNone
	d.Draw(flat(mesh.Cube("room", mgl32.Vec3{40, 40, 40}), mgl32.Ident4(), vp, mgl32.Vec4{1, 1, 1, 1}, st))
	d.End()

	for _, p := range [][2]int{{0, 0}, {testWidth - 1, testHeight - 1}, {testWidth / 2, testHeight / 2}} {
		z := d.DepthAt(p[0], p[1])
		assert.True(t, z >= 0 && z < 1, "depth %v at %v", z, p)
	}
}

func TestLitProgramIsBrighterThanDark(t *testing.T) {
	cam := testCamera()
	vp := cam.ViewProjection()
	light := &gfx.Lighting{
		Lights:     [3]gfx.Light{{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{0.8, 0.8, 0.8}}},
		Ambient:    mgl32.Vec3{0.1, 0.1, 0.1},
		ShadowTint: mgl32.Vec3{0.3, 0.3, 0.4},
	}
	ground := mesh.Cube("ground", mgl32.Vec3{6, 0.1, 6})
	model := mgl32.Translate3D(0, -0.05, 0)

	render := func(p gfx.Program) color.RGBA {
		d := New(testWidth, testHeight)
		d.Begin(testViewport, mgl32.Vec4{0, 0, 0, 1})
		call := flat(ground, model, vp, mgl32.Vec4{1, 1, 1, 1}, opaque())
		call.Program = p
		call.Uniforms.Lighting = light
		call.Uniforms.ViewDirection = cam.ViewDirection()
		d.Draw(call)
		d.End()
		return d.Image().RGBAAt(testWidth/2, testHeight/2)
	}

	lit, dark := render(gfx.ProgramLit), render(gfx.ProgramDark)
	assert.Greater(t, lit.R, dark.R)
	assert.Greater(t, dark.B, dark.R, "shadow tint shifts towards blue")
}
