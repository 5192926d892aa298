package assets

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/mesh"
)

const pieceSegments = 16

// Profiles are (radius, height) pairs from the base upward.
var (
	pawnProfile = []mgl32.Vec2{
		{0.32, 0}, {0.32, 0.08}, {0.24, 0.12}, {0.14, 0.2}, {0.1, 0.42}, {0.18, 0.46},
		{0.1, 0.5}, {0.13, 0.53}, {0.15, 0.6}, {0.13, 0.68}, {0.08, 0.73}, {0.03, 0.76},
	}
	rookProfile = []mgl32.Vec2{
		{0.34, 0}, {0.34, 0.1}, {0.26, 0.16}, {0.22, 0.2}, {0.2, 0.6}, {0.27, 0.64}, {0.27, 0.8},
	}
	knightProfile = []mgl32.Vec2{
		{0.34, 0}, {0.34, 0.1}, {0.24, 0.16}, {0.2, 0.3},
	}
	bishopProfile = []mgl32.Vec2{
		{0.33, 0}, {0.33, 0.08}, {0.24, 0.13}, {0.16, 0.2}, {0.11, 0.55}, {0.18, 0.58},
		{0.11, 0.62}, {0.14, 0.7}, {0.15, 0.8}, {0.11, 0.9}, {0.05, 0.96}, {0.02, 0.98},
	}
	queenProfile = []mgl32.Vec2{
		{0.36, 0}, {0.36, 0.09}, {0.26, 0.15}, {0.17, 0.22}, {0.12, 0.7}, {0.2, 0.74},
		{0.13, 0.78}, {0.2, 0.95}, {0.14, 1}, {0.06, 1.05}, {0.03, 1.08},
	}
	kingProfile = []mgl32.Vec2{
		{0.37, 0}, {0.37, 0.1}, {0.27, 0.16}, {0.18, 0.24}, {0.13, 0.75}, {0.21, 0.79},
		{0.14, 0.83}, {0.2, 1}, {0.15, 1.03},
	}
)

func pieceMeshes() map[board.PieceType]*mesh.Mesh {
	lathe := func(name string, profile []mgl32.Vec2, extra func(b *mesh.Builder)) *mesh.Mesh {
		b := mesh.NewBuilder()
		b.Lathe(mgl32.Vec3{}, profile, pieceSegments)
		if extra != nil {
			extra(b)
		}
		return b.Build(name)
	}

	return map[board.PieceType]*mesh.Mesh{
		board.Pawn: lathe("pawn", pawnProfile, nil),
		board.Rook: lathe("rook", rookProfile, func(b *mesh.Builder) {
			for i := 0; i < 4; i++ {
				a := float64(i)*math.Pi/2 + math.Pi/4
				c := mgl32.Vec3{0.19 * float32(math.Cos(a)), 0.86, 0.19 * float32(math.Sin(a))}
				b.Box(c, mgl32.Vec3{0.06, 0.06, 0.06})
			}
		}),
		// The knight's head points towards +Z, away from white's side.
		board.Knight: lathe("knight", knightProfile, func(b *mesh.Builder) {
			b.Box(mgl32.Vec3{0, 0.5, -0.02}, mgl32.Vec3{0.12, 0.22, 0.15})
			b.Box(mgl32.Vec3{0, 0.7, 0.1}, mgl32.Vec3{0.1, 0.09, 0.21})
			b.Box(mgl32.Vec3{0, 0.83, -0.08}, mgl32.Vec3{0.05, 0.05, 0.04})
		}),
		board.Bishop: lathe("bishop", bishopProfile, nil),
		board.Queen:  lathe("queen", queenProfile, nil),
		board.King: lathe("king", kingProfile, func(b *mesh.Builder) {
			b.Box(mgl32.Vec3{0, 1.15, 0}, mgl32.Vec3{0.04, 0.12, 0.04})
			b.Box(mgl32.Vec3{0, 1.17, 0}, mgl32.Vec3{0.1, 0.035, 0.035})
		}),
	}
}

// Board furniture. Tiles and pedestals have their top face at y = 0.
func tileMesh() *mesh.Mesh {
	b := mesh.NewBuilder()
	b.Box(mgl32.Vec3{0, -0.1, 0}, mgl32.Vec3{0.5, 0.1, 0.5})
	return b.Build("tile")
}

func frameMesh() *mesh.Mesh {
	b := mesh.NewBuilder()
	b.Box(mgl32.Vec3{0, -0.12, 0}, mgl32.Vec3{4.3, 0.1, 4.3})
	return b.Build("frame")
}

func tableMesh() *mesh.Mesh {
	b := mesh.NewBuilder()
	b.Box(mgl32.Vec3{0, -0.4, 0}, mgl32.Vec3{7, 0.2, 5.5})
	return b.Build("table")
}

func pedestalMesh() *mesh.Mesh {
	b := mesh.NewBuilder()
	b.Lathe(mgl32.Vec3{}, []mgl32.Vec2{{0.45, -0.2}, {0.45, -0.03}, {0.4, 0}}, 24)
	return b.Build("pedestal")
}

func sellTileMesh() *mesh.Mesh {
	b := mesh.NewBuilder()
	b.Lathe(mgl32.Vec3{}, []mgl32.Vec2{{0.48, -0.2}, {0.48, 0}, {0.38, 0}, {0.38, -0.05}}, 24)
	return b.Build("sell")
}

func highlightMesh() *mesh.Mesh {
	return mesh.Cube("highlight", mgl32.Vec3{0.96, 0.02, 0.96})
}

func skyMesh() *mesh.Mesh {
	b := mesh.NewBuilder()
	b.Sphere(mgl32.Vec3{}, 50, 12, 24)
	return b.Build("sky")
}
