// Package chess adapts the board to a move-generation engine: legal
// destinations, game verdicts and engine-chosen moves.
package chess

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"
	"github.com/purchess/purchess/internal/board"
)

// ErrMissingKing is returned when a side has no king on the board; the move
// generator cannot reason about such positions.
var ErrMissingKing = errors.New("position is missing a king")

// ErrNoMoves is returned by searchers when the side to move has no legal move.
var ErrNoMoves = errors.New("no legal moves")

// Searcher picks a move for the side to move in a FEN position.
type Searcher interface {
	BestMove(ctx context.Context, fen string) (Move, error)
}

// Rules answers legality and outcome questions about a board.
type Rules struct {
	searcher Searcher
}

// NewRules returns rules that delegate move choice to s. A nil searcher
// falls back to the built-in alpha-beta search.
func NewRules(s Searcher) *Rules {
	if s == nil {
		s = NewAlphaBeta()
	}
	return &Rules{searcher: s}
}

func parsePosition(fen string) (*chess.Position, error) {
	fenFunc, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	return chess.NewGame(fenFunc).Position(), nil
}

func boardPosition(b *board.Board, turn board.Color) (*chess.Position, error) {
	for _, c := range []board.Color{board.White, board.Black} {
		if b.Count(c, board.King) == 0 {
			return nil, fmt.Errorf("%v: %w", c, ErrMissingKing)
		}
	}
	return parsePosition(b.FEN(turn))
}

// ValidDestinations lists the squares the piece on origin may move to.
func (r *Rules) ValidDestinations(b *board.Board, turn board.Color, origin board.Pos) ([]board.Pos, error) {
	pos, err := boardPosition(b, turn)
	if err != nil {
		return nil, err
	}

	from := toSquare(origin)
	seen := make(map[board.Pos]bool)
	var dests []board.Pos
	for _, m := range pos.ValidMoves() {
		if m.S1() != from || !playable(pos, m) || capturesKing(pos, m) {
			continue
		}
		to := translateCastle(b, origin, fromSquare(m.S2()))
		if !seen[to] {
			seen[to] = true
			dests = append(dests, to)
		}
	}
	return dests, nil
}

// Verdict reports checkmate or stalemate for the side to move. Insufficient
// material is deliberately not a verdict: pieces can still be bought.
func (r *Rules) Verdict(b *board.Board, turn board.Color) (Verdict, error) {
	pos, err := boardPosition(b, turn)
	if err != nil {
		return VerdictNone, err
	}
	switch pos.Status() {
	case chess.Checkmate:
		return VerdictCheckmate, nil
	case chess.Stalemate:
		return VerdictStalemate, nil
	default:
		return VerdictNone, nil
	}
}

// DecideMove asks the searcher for a move and translates castling into the
// king-onto-rook form the board uses. The call blocks until the search ends.
func (r *Rules) DecideMove(ctx context.Context, b *board.Board, turn board.Color) (Move, error) {
	if _, err := boardPosition(b, turn); err != nil {
		return Move{}, err
	}
	m, err := r.SearchFEN(ctx, b.FEN(turn))
	if err != nil {
		return Move{}, err
	}
	return r.Normalize(b, m), nil
}

// SearchFEN runs the searcher on a notation snapshot. It never touches a
// board, so it is safe to call from a goroutine.
func (r *Rules) SearchFEN(ctx context.Context, fen string) (Move, error) {
	m, err := r.searcher.BestMove(ctx, fen)
	if err != nil {
		return Move{}, fmt.Errorf("search: %w", err)
	}
	return m, nil
}

// Normalize rewrites a standard castling move as king onto rook.
func (r *Rules) Normalize(b *board.Board, m Move) Move {
	m.To = translateCastle(b, m.From, m.To)
	return m
}

// MaterialOf counts material on the board using StandardPieceValues.
func MaterialOf(b *board.Board) MaterialCount {
	return MaterialOfPieces(b.Pieces())
}

// MaterialOfPieces counts material in a piece snapshot.
func MaterialOfPieces(pieces []board.Piece) MaterialCount {
	var count MaterialCount
	for _, p := range pieces {
		if p.DeleteAfterAnimation || !p.Position.OnBoard() {
			continue
		}
		if p.Color == board.White {
			count.White += StandardPieceValues[p.Type]
		} else {
			count.Black += StandardPieceValues[p.Type]
		}
	}
	return count
}

// capturesKing reports moves onto a king. The generator offers them when the
// side not to move is in check, which a board built by trades can produce.
func capturesKing(pos *chess.Position, m *chess.Move) bool {
	return pos.Board().Piece(m.S2()).Type() == chess.King
}

// translateCastle turns a two-square king move into the king-onto-rook move.
func translateCastle(b *board.Board, from, to board.Pos) board.Pos {
	id, ok := b.PieceAt(from)
	if !ok {
		return to
	}
	king := b.Get(id)
	if king.Type != board.King || from.Y != to.Y {
		return to
	}
	switch to.X - from.X {
	case 2:
		return board.Pos{X: 7, Y: from.Y}
	case -2:
		return board.Pos{X: 0, Y: from.Y}
	}
	return to
}

// playable filters castling moves the generator offers only because the
// notation always advertises castling rights.
func playable(pos *chess.Position, m *chess.Move) bool {
	if !m.HasTag(chess.KingSideCastle) && !m.HasTag(chess.QueenSideCastle) {
		return true
	}
	b := pos.Board()
	king := b.Piece(m.S1())
	if king.Type() != chess.King || king.Color() != pos.Turn() {
		return false
	}
	rookFile := chess.FileH
	if m.HasTag(chess.QueenSideCastle) {
		rookFile = chess.FileA
	}
	rook := b.Piece(chess.NewSquare(rookFile, m.S1().Rank()))
	return rook.Type() == chess.Rook && rook.Color() == pos.Turn()
}

func toSquare(p board.Pos) chess.Square {
	return chess.Square(p.Index())
}

func fromSquare(sq chess.Square) board.Pos {
	return board.PosFromIndex(int(sq))
}

func fromPieceType(t chess.PieceType) (board.PieceType, bool) {
	switch t {
	case chess.Queen:
		return board.Queen, true
	case chess.Rook:
		return board.Rook, true
	case chess.Bishop:
		return board.Bishop, true
	case chess.Knight:
		return board.Knight, true
	default:
		return board.Pawn, false
	}
}

// ParsePromotion maps a UCI promotion suffix to a piece type.
func ParsePromotion(p string) (board.PieceType, bool) {
	switch p {
	case "q":
		return board.Queen, true
	case "r":
		return board.Rook, true
	case "b":
		return board.Bishop, true
	case "n":
		return board.Knight, true
	default:
		return board.Pawn, false
	}
}

// ParseUCIMove parses long algebraic notation such as "e7e8q".
func ParseUCIMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move notation %q", s)
	}
	from, ok1 := parseSquare(s[0:2])
	to, ok2 := parseSquare(s[2:4])
	if !ok1 || !ok2 {
		return Move{}, fmt.Errorf("invalid square notation in %q", s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		promo, ok := ParsePromotion(s[4:])
		if !ok {
			return Move{}, fmt.Errorf("invalid promotion in %q", s)
		}
		m.Promotion, m.HasPromotion = promo, true
	}
	return m, nil
}

func parseSquare(sq string) (board.Pos, bool) {
	if len(sq) != 2 {
		return board.Pos{}, false
	}
	file := int(sq[0]) - 'a'
	rank := int(sq[1]) - '1'
	p := board.Pos{X: file, Y: rank}
	return p, p.OnBoard()
}
