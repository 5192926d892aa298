// Package mesh builds closed triangle meshes with flat normals and the
// extra edge triangles stencil shadow volumes need.
package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one corner of a flat-shaded triangle.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// Mesh is immutable once built. Indices draws the visible surface; Shadow
// draws the same triangles plus one triangle per directed edge, which
// stretches into a quad when the vertex stage extrudes the unlit side.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Shadow   []uint32
	Min, Max mgl32.Vec3
}

// Triangles returns the number of visible triangles.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

type edge struct{ a, b uint32 }

// Builder collects shared positions and counter-clockwise triangles.
// Identical positions are merged so adjoining primitives share edges.
type Builder struct {
	positions []mgl32.Vec3
	lookup    map[mgl32.Vec3]uint32
	triangles [][3]uint32
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{lookup: make(map[mgl32.Vec3]uint32)}
}

// Vertex adds or reuses a position and returns its index.
func (b *Builder) Vertex(p mgl32.Vec3) uint32 {
	if i, ok := b.lookup[p]; ok {
		return i
	}
	i := uint32(len(b.positions))
	b.positions = append(b.positions, p)
	b.lookup[p] = i
	return i
}

// Triangle adds a face. Front faces wind counter-clockwise seen from outside.
func (b *Builder) Triangle(i0, i1, i2 uint32) {
	b.triangles = append(b.triangles, [3]uint32{i0, i1, i2})
}

// Quad adds two triangles covering a, b, c, d in counter-clockwise order.
func (b *Builder) Quad(a, bb, c, d uint32) {
	b.Triangle(a, bb, c)
	b.Triangle(a, c, d)
}

// Box adds an axis aligned box.
func (b *Builder) Box(center, half mgl32.Vec3) {
	axes := [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, n := range axes {
		u, v := axes[(i+1)%3], axes[(i+2)%3]
		for _, sign := range []float32{1, -1} {
			face := n.Mul(sign)
			// u x v == n, so flipping v keeps the corner order
			// counter-clockwise around the flipped normal.
			fv := v.Mul(sign)
			corner := func(su, sv float32) uint32 {
				p := face.Add(u.Mul(su)).Add(fv.Mul(sv))
				return b.Vertex(center.Add(mul(p, half)))
			}
			b.Quad(corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1))
		}
	}
}

// Lathe revolves a profile of (radius, height) points, listed bottom to top,
// around the Y axis. Every radius must be positive; the ends are closed
// with flat caps.
func (b *Builder) Lathe(origin mgl32.Vec3, profile []mgl32.Vec2, segments int) {
	if len(profile) < 2 {
		panic(fmt.Sprintf("mesh: lathe needs 2+ profile points, got %d", len(profile)))
	}
	first, last := b.revolve(origin, profile, segments)
	b.cap(b.Vertex(origin.Add(mgl32.Vec3{0, profile[0].Y(), 0})), first, false)
	b.cap(b.Vertex(origin.Add(mgl32.Vec3{0, profile[len(profile)-1].Y(), 0})), last, true)
}

// Sphere adds a UV sphere: a lathe whose caps close onto the poles.
func (b *Builder) Sphere(center mgl32.Vec3, radius float32, rings, segments int) {
	if rings < 2 {
		panic(fmt.Sprintf("mesh: sphere needs 2+ rings, got %d", rings))
	}
	profile := make([]mgl32.Vec2, 0, rings-1)
	for i := 1; i < rings; i++ {
		phi := math.Pi * float64(i) / float64(rings)
		profile = append(profile, mgl32.Vec2{
			radius * float32(math.Sin(phi)),
			-radius * float32(math.Cos(phi)),
		})
	}
	first, last := b.revolve(center, profile, segments)
	b.cap(b.Vertex(center.Add(mgl32.Vec3{0, -radius, 0})), first, false)
	b.cap(b.Vertex(center.Add(mgl32.Vec3{0, radius, 0})), last, true)
}

// revolve adds the side wall of a lathe and returns its first and last rings.
func (b *Builder) revolve(origin mgl32.Vec3, profile []mgl32.Vec2, segments int) ([]uint32, []uint32) {
	if segments < 3 {
		panic(fmt.Sprintf("mesh: lathe needs 3+ segments, got %d", segments))
	}
	rings := make([][]uint32, len(profile))
	for i, pt := range profile {
		if pt.X() <= 0 {
			panic(fmt.Sprintf("mesh: lathe profile radius %v at %d", pt.X(), i))
		}
		ring := make([]uint32, segments)
		for j := range ring {
			angle := 2 * math.Pi * float64(j) / float64(segments)
			ring[j] = b.Vertex(origin.Add(mgl32.Vec3{
				pt.X() * float32(math.Cos(angle)),
				pt.Y(),
				pt.X() * float32(math.Sin(angle)),
			}))
		}
		rings[i] = ring
	}

	for i := 0; i+1 < len(rings); i++ {
		lower, upper := rings[i], rings[i+1]
		for j := 0; j < segments; j++ {
			k := (j + 1) % segments
			b.Triangle(lower[j], upper[k], lower[k])
			b.Triangle(lower[j], upper[j], upper[k])
		}
	}
	return rings[0], rings[len(rings)-1]
}

// cap fans a ring onto a centre vertex, facing down unless up is set.
func (b *Builder) cap(center uint32, ring []uint32, up bool) {
	for j := range ring {
		k := (j + 1) % len(ring)
		if up {
			b.Triangle(center, ring[k], ring[j])
		} else {
			b.Triangle(center, ring[j], ring[k])
		}
	}
}

// Build expands the shared-vertex triangles into flat-shaded vertices and
// generates shadow indices. It panics if any edge has no opposite twin,
// since an open mesh cannot cast a correct shadow volume.
func (b *Builder) Build(name string) *Mesh {
	m := &Mesh{
		Name:     name,
		Vertices: make([]Vertex, 0, len(b.triangles)*3),
		Indices:  make([]uint32, 0, len(b.triangles)*3),
	}

	edges := make(map[edge]edge, len(b.triangles)*3)
	order := make([]edge, 0, len(b.triangles)*3)
	for _, tri := range b.triangles {
		base := uint32(len(m.Vertices))
		p0, p1, p2 := b.positions[tri[0]], b.positions[tri[1]], b.positions[tri[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		for k := 0; k < 3; k++ {
			m.Vertices = append(m.Vertices, Vertex{Position: b.positions[tri[k]], Normal: n})
			m.Indices = append(m.Indices, base+uint32(k))

			old := edge{tri[k], tri[(k+1)%3]}
			if _, dup := edges[old]; dup {
				panic(fmt.Sprintf("mesh %s: edge %v is shared by more than two faces", name, old))
			}
			edges[old] = edge{base + uint32(k), base + uint32((k+1)%3)}
			order = append(order, old)
		}
	}

	m.Shadow = make([]uint32, len(m.Indices), len(m.Indices)+len(order)*3)
	copy(m.Shadow, m.Indices)
	for _, old := range order {
		a := edges[old]
		twin, ok := edges[edge{old.b, old.a}]
		if !ok {
			panic(fmt.Sprintf("mesh %s isn't closed: open edge %v", name, old))
		}
		m.Shadow = append(m.Shadow, a.b, a.a, twin.a)
	}

	m.Min, m.Max = bounds(b.positions)
	return m
}

func bounds(ps []mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if len(ps) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi := ps[0], ps[0]
	for _, p := range ps[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return lo, hi
}

func mul(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Cube returns a box of the given size centred on the origin.
func Cube(name string, size mgl32.Vec3) *Mesh {
	b := NewBuilder()
	b.Box(mgl32.Vec3{}, size.Mul(0.5))
	return b.Build(name)
}

// Quad returns a unit square in the XY plane facing +Z. It is open, so it
// carries no shadow indices and is only used for sprites and labels.
func Quad(name string) *Mesh {
	corners := [4]mgl32.Vec3{{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0}, {-0.5, 0.5, 0}}
	m := &Mesh{Name: name, Min: corners[0], Max: corners[2]}
	for _, k := range []int{0, 1, 2, 0, 2, 3} {
		m.Indices = append(m.Indices, uint32(len(m.Vertices)))
		m.Vertices = append(m.Vertices, Vertex{Position: corners[k], Normal: mgl32.Vec3{0, 0, 1}})
	}
	return m
}
