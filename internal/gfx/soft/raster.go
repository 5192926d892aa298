package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/gfx"
)

// varying is the vertex stage output, interpolated across a triangle.
type varying struct {
	clip  mgl32.Vec4
	model mgl32.Vec3
	light mgl32.Vec3
	spec  mgl32.Vec3
}

func (a varying) lerp(b varying, t float32) varying {
	return varying{
		clip:  a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		model: a.model.Add(b.model.Sub(a.model).Mul(t)),
		light: a.light.Add(b.light.Sub(a.light).Mul(t)),
		spec:  a.spec.Add(b.spec.Sub(a.spec).Mul(t)),
	}
}

var white = mgl32.Vec3{1, 1, 1}

func shadeVertex(call *gfx.DrawCall, pos, normal mgl32.Vec3) varying {
	u := &call.Uniforms
	out := varying{model: pos, light: white}
	out.clip = u.MVP.Mul4x1(pos.Vec4(1))

	switch call.Program {
	case gfx.ProgramShadow:
		n := u.Model.Mat3().Mul3x1(normal)
		if n.Dot(u.ShadowLight) > 0 {
			world := u.Model.Mul4x1(pos.Vec4(1)).Vec3()
			world = world.Add(u.ShadowLight.Normalize().Mul(u.Extrude))
			out.clip = u.ViewProjection.Mul4x1(world.Vec4(1))
		}

	case gfx.ProgramDark, gfx.ProgramLit:
		if u.Lighting == nil {
			break
		}
		l := u.Lighting
		n := u.Model.Mat3().Mul3x1(normal)
		if n.Len() > 0 {
			n = n.Normalize()
		}
		light := l.Ambient
		var spec mgl32.Vec3
		for _, src := range l.Lights {
			toLight := src.Direction.Mul(-1)
			if toLight.Len() == 0 {
				continue
			}
			toLight = toLight.Normalize()
			diffuse := max(0, n.Dot(toLight))
			light = light.Add(src.Color.Mul(diffuse))

			if call.Program == gfx.ProgramLit && diffuse > 0 && l.SpecularPower > 0 {
				half := toLight.Sub(u.ViewDirection)
				if half.Len() > 0 {
					s := float32(math.Pow(float64(max(0, n.Dot(half.Normalize()))), float64(l.SpecularPower)))
					spec = spec.Add(mulVec(src.Color, l.SpecularColor).Mul(s))
				}
			}
		}
		if call.Program == gfx.ProgramDark {
			light = mulVec(light, l.ShadowTint)
		}
		out.light, out.spec = light, spec
	}
	return out
}

// clipNear clips a triangle against the near plane (z >= -w) and returns
// the resulting convex polygon, appended to buf.
func clipNear(tri [3]varying, buf []varying) []varying {
	dist := func(v varying) float32 { return v.clip.Z() + v.clip.W() }
	for i := 0; i < 3; i++ {
		a, b := tri[i], tri[(i+1)%3]
		da, db := dist(a), dist(b)
		if da >= 0 {
			buf = append(buf, a)
		}
		if (da >= 0) != (db >= 0) {
			buf = append(buf, a.lerp(b, da/(da-db)))
		}
	}
	return buf
}

// Texture coordinate modes, picked per triangle.
const (
	axisX = iota
	axisY
	axisZ
)

func dominantAxis(n mgl32.Vec3) int {
	ax, ay, az := abs(n.X()), abs(n.Y()), abs(n.Z())
	switch {
	case ax >= ay && ax >= az:
		return axisX
	case ay >= az:
		return axisY
	default:
		return axisZ
	}
}

type screenVertex struct {
	x, y, z, invW float32
	v             varying
}

func (d *Device) project(v varying) screenVertex {
	invW := 1 / v.clip.W()
	ndc := v.clip.Vec3().Mul(invW)
	vp := d.viewport
	return screenVertex{
		x:    float32(vp.Left) + (ndc.X()+1)*0.5*float32(vp.Width),
		y:    float32(vp.Top) + (1-ndc.Y())*0.5*float32(vp.Height),
		z:    (ndc.Z() + 1) * 0.5,
		invW: invW,
		v:    v,
	}
}

func edgeFn(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether an edge owns the pixels exactly on it, so pixels
// on an edge shared by two triangles are drawn once.
func topLeft(a, b screenVertex) bool {
	return (a.y == b.y && b.x > a.x) || b.y < a.y
}

func (d *Device) triangle(call *gfx.DrawCall, axis int, a, b, c varying) {
	v0, v1, v2 := d.project(a), d.project(b), d.project(c)

	// Winding is judged in normalised device coordinates where y points
	// up; on screen y points down, so a front face has negative area here.
	area := edgeFn(v0, v1, v2.x, v2.y)
	if area == 0 {
		return
	}
	front := area < 0
	switch call.State.Cull {
	case gfx.CullBack:
		if !front {
			return
		}
	case gfx.CullFront:
		if front {
			return
		}
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}
	d.stats.Triangles++

	vp := d.viewport
	minX := max(vp.Left, int(math.Floor(float64(min(v0.x, v1.x, v2.x)))))
	maxX := min(vp.Left+vp.Width-1, int(math.Ceil(float64(max(v0.x, v1.x, v2.x)))))
	minY := max(vp.Top, int(math.Floor(float64(min(v0.y, v1.y, v2.y)))))
	maxY := min(vp.Top+vp.Height-1, int(math.Ceil(float64(max(v0.y, v1.y, v2.y)))))

	tl0, tl1, tl2 := topLeft(v1, v2), topLeft(v2, v0), topLeft(v0, v1)
	width := d.color.Rect.Dx()
	st := &call.State

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			e0 := edgeFn(v1, v2, px, py)
			e1 := edgeFn(v2, v0, px, py)
			e2 := edgeFn(v0, v1, px, py)
			if !inside(e0, tl0) || !inside(e1, tl1) || !inside(e2, tl2) {
				continue
			}
			l0, l1, l2 := e0/area, e1/area, e2/area
			z := l0*v0.z + l1*v1.z + l2*v2.z
			if z < 0 || z > 1 {
				continue
			}

			idx := y*width + x
			if st.Stencil.Enabled {
				if !st.Stencil.Func.Test(float32(st.Stencil.Ref), float32(d.stencil[idx])) {
					d.stencil[idx] = st.Stencil.Fail.Apply(d.stencil[idx], st.Stencil.Ref)
					continue
				}
			}
			if !st.DepthTest.Test(z, d.depth[idx]) {
				if st.Stencil.Enabled {
					d.stencil[idx] = st.Stencil.DepthFail.Apply(d.stencil[idx], st.Stencil.Ref)
				}
				continue
			}
			if st.Stencil.Enabled {
				d.stencil[idx] = st.Stencil.Pass.Apply(d.stencil[idx], st.Stencil.Ref)
			}
			if st.DepthWrite {
				d.depth[idx] = z
			}
			d.stats.Fragments++
			if !st.ColorWrite {
				continue
			}

			// Perspective-correct attribute interpolation.
			w0, w1, w2 := l0*v0.invW, l1*v1.invW, l2*v2.invW
			inv := 1 / (w0 + w1 + w2)
			w0, w1, w2 = w0*inv, w1*inv, w2*inv
			frag := varying{
				model: v0.v.model.Mul(w0).Add(v1.v.model.Mul(w1)).Add(v2.v.model.Mul(w2)),
				light: v0.v.light.Mul(w0).Add(v1.v.light.Mul(w1)).Add(v2.v.light.Mul(w2)),
				spec:  v0.v.spec.Mul(w0).Add(v1.v.spec.Mul(w1)).Add(v2.v.spec.Mul(w2)),
			}
			d.write(x, y, shadeFragment(call, axis, frag), st.Blend)
		}
	}
}

func inside(e float32, owns bool) bool {
	if owns {
		return e >= 0
	}
	return e > 0
}

func shadeFragment(call *gfx.DrawCall, axis int, f varying) mgl32.Vec4 {
	u := &call.Uniforms
	var tu, tv float32
	switch call.Program {
	case gfx.ProgramSky:
		dir := f.model
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		tu = 0.5 + float32(math.Atan2(float64(dir.Z()), float64(dir.X())))/(2*math.Pi)
		tv = 0.5 - 0.5*dir.Y()
	case gfx.ProgramSprite:
		tu, tv = f.model.X()+0.5, 0.5-f.model.Y()
	default:
		p := mulVec(f.model, u.TextureScale).Add(u.TextureOffset)
		switch axis {
		case axisX:
			tu, tv = p.Z(), -p.Y()
		case axisY:
			tu, tv = p.X(), p.Z()
		default:
			tu, tv = p.X(), -p.Y()
		}
	}

	texel := sample(u.Texture, tu, tv)
	base := mgl32.Vec4{texel[0] * u.Tint[0], texel[1] * u.Tint[1], texel[2] * u.Tint[2], texel[3] * u.Tint[3]}

	switch call.Program {
	case gfx.ProgramDark, gfx.ProgramLit:
		rgb := mulVec(base.Vec3(), f.light).Add(f.spec)
		return rgb.Vec4(1)
	default:
		return base
	}
}

// sample is a nearest-neighbour lookup. A nil texture is opaque white.
func sample(t *gfx.Texture, u, v float32) mgl32.Vec4 {
	if t == nil || t.Image == nil {
		return mgl32.Vec4{1, 1, 1, 1}
	}
	img := t.Image
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x := int(math.Floor(float64(u * float32(w))))
	y := int(math.Floor(float64(v * float32(h))))
	if t.Clamp {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
	} else {
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
	}
	off := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	px := img.Pix[off : off+4 : off+4]
	return mgl32.Vec4{
		float32(px[0]) / 255,
		float32(px[1]) / 255,
		float32(px[2]) / 255,
		float32(px[3]) / 255,
	}
}

func (d *Device) write(x, y int, c mgl32.Vec4, blend bool) {
	off := d.color.PixOffset(x, y)
	px := d.color.Pix[off : off+4 : off+4]
	if blend {
		a := mgl32.Clamp(c[3], 0, 1)
		for i := 0; i < 3; i++ {
			dst := float32(px[i]) / 255
			px[i] = unit(c[i]*a + dst*(1-a))
		}
		px[3] = 255
		return
	}
	px[0], px[1], px[2], px[3] = unit(c[0]), unit(c[1]), unit(c[2]), 255
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
