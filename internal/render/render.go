// Package render draws a scene frame with stencil shadow volumes:
// sky, dark, shadow volume, lit and overlay passes, in that order.
package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/geom"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/mesh"
	"github.com/purchess/purchess/internal/scene"
	"github.com/purchess/purchess/internal/ui"
)

// Pass states. The shadow volume passes count with wrapping arithmetic so
// the order in which faces arrive never matters.
var (
	skyState = gfx.State{
		DepthTest:  gfx.Always,
		ColorWrite: true,
		Cull:       gfx.CullNone,
	}
	darkState = gfx.State{
		DepthTest:  gfx.Less,
		DepthWrite: true,
		ColorWrite: true,
		Cull:       gfx.CullBack,
	}
	shadowBackState = gfx.State{
		DepthTest: gfx.Less,
		Cull:      gfx.CullFront,
		Stencil: gfx.Stencil{
			Enabled: true, Func: gfx.Always,
			Fail: gfx.Keep, DepthFail: gfx.Keep, Pass: gfx.IncrWrap,
		},
	}
	shadowFrontState = gfx.State{
		DepthTest: gfx.Less,
		Cull:      gfx.CullBack,
		Stencil: gfx.Stencil{
			Enabled: true, Func: gfx.Always,
			Fail: gfx.Keep, DepthFail: gfx.Keep, Pass: gfx.DecrWrap,
		},
	}
	litState = gfx.State{
		DepthTest:  gfx.LessEqual,
		ColorWrite: true,
		Cull:       gfx.CullBack,
		Stencil: gfx.Stencil{
			Enabled: true, Func: gfx.Equal, Ref: 0,
			Fail: gfx.Keep, DepthFail: gfx.Keep, Pass: gfx.Keep,
		},
	}
	highlightState = gfx.State{
		DepthTest:  gfx.LessEqual,
		ColorWrite: true,
		Cull:       gfx.CullBack,
		Blend:      true,
	}
	overlayState = gfx.State{
		DepthTest:  gfx.Always,
		ColorWrite: true,
		Cull:       gfx.CullNone,
		Blend:      true,
	}
)

// Renderer issues the passes of a frame to a device.
type Renderer struct {
	device gfx.Device
	labels *ui.Labels
	quad   *mesh.Mesh
}

// New returns a renderer drawing into device. quad is used for sprites and labels.
func New(device gfx.Device, labels *ui.Labels, quad *mesh.Mesh) *Renderer {
	return &Renderer{device: device, labels: labels, quad: quad}
}

// Render draws the frame into viewport.
func (r *Renderer) Render(f *scene.Frame, viewport geom.Rect) {
	r.device.Begin(viewport, f.Clear)
	defer r.device.End()

	r.draw(gfx.ProgramSky, f.Sky, skyState, f, false)

	for _, obj := range f.Lit {
		r.draw(gfx.ProgramDark, obj, darkState, f, false)
	}

	for _, state := range []gfx.State{shadowBackState, shadowFrontState} {
		for _, obj := range f.Lit {
			if obj.CastsShadow && len(obj.Mesh.Shadow) > 0 {
				r.draw(gfx.ProgramShadow, obj, state, f, true)
			}
		}
	}

	for _, obj := range f.Lit {
		r.draw(gfx.ProgramLit, obj, litState, f, false)
	}

	for _, obj := range f.Highlights {
		r.draw(gfx.ProgramFlat, obj, highlightState, f, false)
	}
	for _, s := range f.UI {
		r.sprite(s)
	}
	for _, l := range f.Labels {
		r.label(l)
	}
	r.labels.Sweep()
}

func (r *Renderer) draw(program gfx.Program, obj scene.Object, state gfx.State, f *scene.Frame, shadow bool) {
	r.device.Draw(gfx.DrawCall{
		Program: program,
		Mesh:    obj.Mesh,
		Shadow:  shadow,
		State:   state,
		Uniforms: gfx.Uniforms{
			MVP:            obj.MVP,
			Model:          obj.Model,
			ViewProjection: f.ViewProjection,
			Tint:           obj.Tint,
			Texture:        obj.Texture,
			TextureScale:   obj.TextureScale,
			TextureOffset:  obj.TextureOffset,
			Lighting:       &f.Lighting,
			ViewDirection:  f.ViewDirection,
			ShadowLight:    f.ShadowLight,
			Extrude:        f.Extrude,
		},
	})
}

// SpriteTransform places the unit quad in device coordinates.
func SpriteTransform(s scene.Sprite) mgl32.Mat4 {
	return mgl32.Translate3D(s.Position.X(), s.Position.Y(), 0).
		Mul4(mgl32.Scale3D(1/geom.TargetAspect, 1, 1)).
		Mul4(mgl32.HomogRotate3DZ(s.Angle)).
		Mul4(mgl32.Scale3D(s.Scale.X(), s.Scale.Y(), 1))
}

func (r *Renderer) sprite(s scene.Sprite) {
	model := SpriteTransform(s)
	r.device.Draw(gfx.DrawCall{
		Program: gfx.ProgramSprite,
		Mesh:    r.quad,
		State:   overlayState,
		Uniforms: gfx.Uniforms{
			MVP:     model,
			Model:   model,
			Tint:    s.Tint,
			Texture: s.Texture,
		},
	})
}

func (r *Renderer) label(l scene.Label) {
	tex := r.labels.Texture(l.Text)
	if tex == nil {
		return
	}
	b := tex.Image.Bounds()
	width := l.Height * float32(b.Dx()) / float32(b.Dy())

	pos := l.Position
	switch l.Anchor {
	case scene.AnchorLeft:
		pos[0] += width / 2 / geom.TargetAspect
	case scene.AnchorRight:
		pos[0] -= width / 2 / geom.TargetAspect
	}
	r.sprite(scene.Sprite{
		Texture:  tex,
		Tint:     l.Tint,
		Position: pos,
		Scale:    mgl32.Vec2{width, l.Height},
	})
}
