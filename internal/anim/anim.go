// Package anim advances piece animations and reports their completion.
package anim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/geom"
)

// Sound is the cue fired when an animation lands.
type Sound int

const (
	SoundTap Sound = iota
	SoundCoin
)

func (s Sound) String() string {
	if s == SoundCoin {
		return "coin"
	}
	return "tap"
}

// Completion describes one animation that finished this frame.
type Completion struct {
	Piece   board.PieceID
	Sound   Sound
	Removed bool
}

// Shape controls the arc pieces travel along.
type Shape struct {
	Lift float32 // height of the travel phase above the table
	Sink float32 // depth below the surface a sold piece descends to
}

// DefaultShape matches the stock settings file.
var DefaultShape = Shape{Lift: 1, Sink: 1.2}

// New returns an animation starting now.
func New(from, to board.Pos, sink bool) *board.Animation {
	return &board.Animation{From: from, To: to, Sink: sink}
}

// Step advances every animation on the board by dt. Finished animations are
// cleared and reported once; pieces flagged for deletion are removed after
// the scan so the collection is never mutated mid-iteration.
func Step(b *board.Board, dt float32) []Completion {
	var (
		done   []Completion
		remove []board.PieceID
	)
	pieces := b.Pieces()
	for i := range pieces {
		p := &pieces[i]
		if p.Animation == nil {
			continue
		}
		p.Animation.T += dt
		if p.Animation.T <= 1 {
			continue
		}
		p.Animation = nil
		if p.DeleteAfterAnimation {
			remove = append(remove, p.ID)
			done = append(done, Completion{Piece: p.ID, Sound: SoundCoin, Removed: true})
		} else {
			done = append(done, Completion{Piece: p.ID, Sound: SoundTap})
		}
	}
	b.Remove(remove...)
	return done
}

func ease(t float32) float32 {
	return float32(math.Sqrt(float64(mgl32.Clamp(t, 0, 1))))
}

// WorldPosition returns where the animated piece is drawn. The path rises
// from the origin, travels at lift height, then descends onto the target;
// each phase takes a third of the animation.
func WorldPosition(a *board.Animation, shape Shape) mgl32.Vec3 {
	start := geom.GridToWorld(a.From)
	end := geom.GridToWorld(a.To)
	if a.Sink {
		end = end.Sub(mgl32.Vec3{0, shape.Sink, 0})
	}
	up := mgl32.Vec3{0, shape.Lift, 0}

	const third = float32(1.0 / 3.0)
	switch t := a.T; {
	case t < third:
		s := ease(t / third)
		return start.Add(up.Mul(s))
	case t < 2*third:
		s := ease((t - third) / third)
		return lerp(start, end.Sub(mgl32.Vec3{0, end.Y(), 0}), s).Add(up)
	default:
		s := ease((t - 2*third) / third)
		top := mgl32.Vec3{end.X(), shape.Lift, end.Z()}
		return lerp(top, end, s)
	}
}

// PiecePosition returns the draw position of a piece, animated or resting.
func PiecePosition(p *board.Piece, shape Shape) mgl32.Vec3 {
	if p.Animation != nil {
		return WorldPosition(p.Animation, shape)
	}
	return geom.GridToWorld(p.Position)
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
