package chess

import (
	"github.com/purchess/purchess/internal/board"
)

// Verdict is the rules engine's judgement of the side to move.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictCheckmate
	VerdictStalemate
)

func (v Verdict) String() string {
	switch v {
	case VerdictCheckmate:
		return "checkmate"
	case VerdictStalemate:
		return "stalemate"
	default:
		return "none"
	}
}

// Move is an engine move in board coordinates. Castling is expressed as
// the king moving onto its own rook's square.
type Move struct {
	From         board.Pos       `json:"from"`
	To           board.Pos       `json:"to"`
	Promotion    board.PieceType `json:"promotion,omitempty"`
	HasPromotion bool            `json:"hasPromotion"`
}

// MaterialCount represents the material count for both sides
type MaterialCount struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// Balance is white's material minus black's.
func (m MaterialCount) Balance() int {
	return m.White - m.Black
}

// StandardPieceValues maps piece types to their standard values
var StandardPieceValues = map[board.PieceType]int{
	board.Pawn:   1,
	board.Knight: 3,
	board.Bishop: 3,
	board.Rook:   5,
	board.Queen:  9,
	board.King:   0, // King has no material value
}

// SearchDepth is the fixed engine look-ahead in plies.
const SearchDepth = 3
