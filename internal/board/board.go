// Package board holds the piece collection and the queries the rest of the
// game runs against it.
package board

import (
	"strconv"
	"strings"
)

// Board owns every piece of a session.
type Board struct {
	pieces []Piece
	nextID PieceID
}

// New returns an empty board.
func New() *Board {
	return &Board{nextID: 1}
}

// NewStandard returns a board with the usual 32-piece starting position.
func NewStandard() *Board {
	b := New()
	back := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for _, c := range []Color{White, Black} {
		for x, t := range back {
			b.Add(Piece{Position: Pos{X: x, Y: c.BackRank()}, Color: c, Type: t})
		}
		for x := 0; x < 8; x++ {
			b.Add(Piece{Position: Pos{X: x, Y: c.PawnRank()}, Color: c, Type: Pawn})
		}
	}
	return b
}

// Add stores the piece under a fresh ID and returns it.
func (b *Board) Add(p Piece) PieceID {
	p.ID = b.nextID
	b.nextID++
	b.pieces = append(b.pieces, p)
	return p.ID
}

// Get returns a pointer to the piece with the given ID. The pointer is only
// valid until the next Add or Remove.
func (b *Board) Get(id PieceID) *Piece {
	for i := range b.pieces {
		if b.pieces[i].ID == id {
			return &b.pieces[i]
		}
	}
	return nil
}

// Remove drops the given pieces, keeping the relative order of the rest.
func (b *Board) Remove(ids ...PieceID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[PieceID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := b.pieces[:0]
	for _, p := range b.pieces {
		if _, ok := drop[p.ID]; !ok {
			kept = append(kept, p)
		}
	}
	b.pieces = kept
}

// Pieces exposes the collection for iteration. Callers must not append.
func (b *Board) Pieces() []Piece {
	return b.pieces
}

// Len is the number of pieces, including ones animating out.
func (b *Board) Len() int {
	return len(b.pieces)
}

// PieceAt returns the piece standing on pos. When several pieces share the
// square the last one in collection order wins.
func (b *Board) PieceAt(pos Pos) (PieceID, bool) {
	return PieceAt(b.pieces, pos)
}

// PieceAt is the slice form of Board.PieceAt.
func PieceAt(pieces []Piece, pos Pos) (PieceID, bool) {
	var (
		found PieceID
		ok    bool
	)
	for i := range pieces {
		if pieces[i].Position == pos {
			found, ok = pieces[i].ID, true
		}
	}
	return found, ok
}

// Animating reports whether any piece is mid-animation.
func (b *Board) Animating() bool {
	for i := range b.pieces {
		if b.pieces[i].Animation != nil {
			return true
		}
	}
	return false
}

// Count returns the number of live pieces of the given color and type.
func (b *Board) Count(c Color, t PieceType) int {
	n := 0
	for _, p := range b.pieces {
		if p.Color == c && p.Type == t && !p.DeleteAfterAnimation {
			n++
		}
	}
	return n
}

// Owned returns the IDs of live pieces of the given color and type.
func (b *Board) Owned(c Color, t PieceType) []PieceID {
	var ids []PieceID
	for _, p := range b.pieces {
		if p.Color == c && p.Type == t && !p.DeleteAfterAnimation {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// FEN serializes the board for the given side to move.
func (b *Board) FEN(turn Color) string {
	return GenerateFEN(b.pieces, turn)
}

// GenerateFEN writes the eight ranks from rank 8 down to rank 1, the side to
// move and a fixed "KQkq - 0 1" suffix. Castling is always advertised.
func GenerateFEN(pieces []Piece, turn Color) string {
	var sb strings.Builder
	sb.Grow(96)

	for y := 7; y >= 0; y-- {
		empty := 0
		for x := 0; x < 8; x++ {
			id, ok := PieceAt(pieces, Pos{X: x, Y: y})
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			p := find(pieces, id)
			sb.WriteByte(p.Type.Letter(p.Color))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if y > 0 {
			sb.WriteByte('/')
		}
	}

	if turn == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}
	sb.WriteString("KQkq - 0 1")
	return sb.String()
}

func find(pieces []Piece, id PieceID) *Piece {
	for i := range pieces {
		if pieces[i].ID == id {
			return &pieces[i]
		}
	}
	return nil
}

// Kings returns the live kings of a color.
func (b *Board) Kings(c Color) []PieceID {
	return b.Owned(c, King)
}
