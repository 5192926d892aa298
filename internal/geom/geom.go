// Package geom maps between grid squares, world space and the screen.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/board"
)

// TargetAspect is the aspect ratio the scene is composed for.
const TargetAspect = float32(16.0 / 9.0)

// GridToWorld returns the centre of a square on the table surface.
func GridToWorld(p board.Pos) mgl32.Vec3 {
	return mgl32.Vec3{float32(p.X) - 3.5, 0, float32(p.Y) - 3.5}
}

// WorldToGrid returns the square containing a point on the table surface.
func WorldToGrid(v mgl32.Vec3) board.Pos {
	return board.Pos{
		X: int(math.Round(float64(v.X() + 3.5))),
		Y: int(math.Round(float64(v.Z() + 3.5))),
	}
}

// Rect is a pixel rectangle with a top-left origin.
type Rect struct {
	Left, Top, Width, Height int
}

// Contains reports whether the pixel lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.Left) && x < float64(r.Left+r.Width) &&
		y >= float64(r.Top) && y < float64(r.Top+r.Height)
}

// Intersect returns the overlap of two rectangles, empty if they are disjoint.
func (r Rect) Intersect(o Rect) Rect {
	left, top := max(r.Left, o.Left), max(r.Top, o.Top)
	right := min(r.Left+r.Width, o.Left+o.Width)
	bottom := min(r.Top+r.Height, o.Top+o.Height)
	if right <= left || bottom <= top {
		return Rect{}
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// ViewportRect letterboxes (or pillarboxes) the target aspect ratio into a
// screen of the given size, centred.
func ViewportRect(screenWidth, screenHeight int, targetAspect float32) Rect {
	w, h := float32(screenWidth), float32(screenHeight)
	actual := w / h
	ratio := actual / targetAspect

	width := int(w / max(ratio, 1))
	height := int(h * min(ratio, 1))
	return Rect{
		Left:   (screenWidth - width) / 2,
		Top:    (screenHeight - height) / 2,
		Width:  width,
		Height: height,
	}
}

// Ray is a half line in world space.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// ScreenRay unprojects a pixel through the inverse view-projection matrix.
func ScreenRay(x, y float64, viewport Rect, viewProjection mgl32.Mat4) Ray {
	ndcX := float32((x-float64(viewport.Left))/float64(viewport.Width))*2 - 1
	ndcY := 1 - float32((y-float64(viewport.Top))/float64(viewport.Height))*2

	inv := viewProjection.Inv()
	near := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	n := near.Vec3().Mul(1 / near.W())
	f := far.Vec3().Mul(1 / far.W())
	return Ray{Origin: n, Direction: f.Sub(n).Normalize()}
}

// IntersectGround intersects the ray with the horizontal plane y = height.
func (r Ray) IntersectGround(height float32) (mgl32.Vec3, bool) {
	dy := r.Direction.Y()
	if float32(math.Abs(float64(dy))) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := (height - r.Origin.Y()) / dy
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.Origin.Add(r.Direction.Mul(t)), true
}

// PickSquare returns the grid square under a pixel, or false when the pixel is
// outside the viewport or the ray misses the table.
func PickSquare(x, y float64, viewport Rect, viewProjection mgl32.Mat4) (board.Pos, bool) {
	if !viewport.Contains(x, y) {
		return board.Pos{}, false
	}
	hit, ok := ScreenRay(x, y, viewport, viewProjection).IntersectGround(0)
	if !ok {
		return board.Pos{}, false
	}
	return WorldToGrid(hit), true
}
