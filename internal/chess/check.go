package chess

import "github.com/purchess/purchess/internal/board"

var (
	knightJumps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	straight    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal    = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// grid is the occupancy of the 64 squares as the notation sees it: pieces
// being sold are gone and the last piece on a square wins.
type grid [64]*board.Piece

func newGrid(pieces []board.Piece) *grid {
	var g grid
	for i := range pieces {
		p := &pieces[i]
		if p.DeleteAfterAnimation || !p.Position.OnBoard() {
			continue
		}
		g[p.Position.Index()] = p
	}
	return &g
}

func (g *grid) at(x, y int) (*board.Piece, bool) {
	pos := board.Pos{X: x, Y: y}
	if !pos.OnBoard() {
		return nil, false
	}
	return g[pos.Index()], true
}

func (g *grid) holds(x, y int, c board.Color, types ...board.PieceType) bool {
	p, _ := g.at(x, y)
	if p == nil || p.Color != c {
		return false
	}
	for _, t := range types {
		if p.Type == t {
			return true
		}
	}
	return false
}

// slides walks from sq along dir and reports whether the first piece met
// is one of by's types.
func (g *grid) slides(sq board.Pos, dir [2]int, by board.Color, types ...board.PieceType) bool {
	x, y := sq.X+dir[0], sq.Y+dir[1]
	for {
		p, ok := g.at(x, y)
		if !ok {
			return false
		}
		if p != nil {
			return g.holds(x, y, by, types...)
		}
		x, y = x+dir[0], y+dir[1]
	}
}

func (g *grid) attacked(sq board.Pos, by board.Color) bool {
	// A pawn of color by attacks diagonally forward, so it stands one rank
	// behind sq from its own point of view.
	back := -1
	if by == board.Black {
		back = 1
	}
	if g.holds(sq.X-1, sq.Y+back, by, board.Pawn) || g.holds(sq.X+1, sq.Y+back, by, board.Pawn) {
		return true
	}
	for _, d := range knightJumps {
		if g.holds(sq.X+d[0], sq.Y+d[1], by, board.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if g.holds(sq.X+d[0], sq.Y+d[1], by, board.King) {
			return true
		}
	}
	for _, d := range straight {
		if g.slides(sq, d, by, board.Rook, board.Queen) {
			return true
		}
	}
	for _, d := range diagonal {
		if g.slides(sq, d, by, board.Bishop, board.Queen) {
			return true
		}
	}
	return false
}

// Attacked reports whether any live piece of color by attacks sq.
func Attacked(pieces []board.Piece, sq board.Pos, by board.Color) bool {
	return newGrid(pieces).attacked(sq, by)
}

// InCheck reports whether a king of color c stands on an attacked square.
func InCheck(pieces []board.Piece, c board.Color) bool {
	g := newGrid(pieces)
	for _, p := range g {
		if p != nil && p.Color == c && p.Type == board.King && g.attacked(p.Position, c.Opponent()) {
			return true
		}
	}
	return false
}

// Safe reports whether neither king is in check. Trades that would leave a
// position failing this are refused.
func Safe(pieces []board.Piece) bool {
	return !InCheck(pieces, board.White) && !InCheck(pieces, board.Black)
}
