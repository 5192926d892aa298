package board

import "fmt"

// Color is the side a piece belongs to.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// BackRank is the rank the color's major pieces start on.
func (c Color) BackRank() int {
	if c == White {
		return 0
	}
	return 7
}

// PawnRank is the rank the color's pawns start on.
func (c Color) PawnRank() int {
	if c == White {
		return 1
	}
	return 6
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseColor accepts "white" or "black".
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// PieceType is ordered by value so that comparisons pick the stronger piece.
type PieceType int

const (
	Pawn PieceType = iota
	Knight
	Rook
	Bishop
	Queen
	King
)

// PieceTypes lists every type in value order.
var PieceTypes = []PieceType{Pawn, Knight, Rook, Bishop, Queen, King}

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
}

func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Letter returns the FEN letter for the type, upper case for white.
func (t PieceType) Letter(c Color) byte {
	var ch byte
	switch t {
	case Pawn:
		ch = 'p'
	case Knight:
		ch = 'n'
	case Rook:
		ch = 'r'
	case Bishop:
		ch = 'b'
	case Queen:
		ch = 'q'
	case King:
		ch = 'k'
	default:
		panic(fmt.Sprintf("board: no FEN letter for %v", t))
	}
	if c == White {
		ch -= 'a' - 'A'
	}
	return ch
}

// Pos is a grid coordinate: X is the file, Y is the rank. Squares outside
// 0..7 are valid positions for furniture such as the shop and sell tiles.
type Pos struct {
	X int `json:"x" mapstructure:"x"`
	Y int `json:"y" mapstructure:"y"`
}

func (p Pos) String() string {
	if p.OnBoard() {
		return string([]byte{byte('a' + p.X), byte('1' + p.Y)})
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// OnBoard reports whether the position is one of the 64 squares.
func (p Pos) OnBoard() bool {
	return p.X >= 0 && p.X < 8 && p.Y >= 0 && p.Y < 8
}

// Index is the 0-63 square index used by move engines (a1 = 0, h8 = 63).
func (p Pos) Index() int {
	return p.Y*8 + p.X
}

// PosFromIndex is the inverse of Index.
func PosFromIndex(i int) Pos {
	return Pos{X: i % 8, Y: i / 8}
}

// Animation is an in-flight transition of a piece between two grid positions.
type Animation struct {
	From Pos     `json:"from"`
	To   Pos     `json:"to"`
	T    float32 `json:"t"`
	// Sink makes the final descent go below the surface (sell tile disposal).
	Sink bool `json:"sink"`
}

// PieceID is a stable handle to a piece. IDs are never reused within a board.
type PieceID uint32

// Piece is one chessman on (or moving over) the table.
type Piece struct {
	ID                   PieceID    `json:"id"`
	Position             Pos        `json:"position"`
	Color                Color      `json:"color"`
	Type                 PieceType  `json:"type"`
	Moved                bool       `json:"moved"`
	Animation            *Animation `json:"animation,omitempty"`
	DeleteAfterAnimation bool       `json:"deleteAfterAnimation,omitempty"`
}
