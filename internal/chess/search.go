package chess

import (
	"context"
	"sort"

	"github.com/notnil/chess"
)

const (
	mateScore = 100000
	infinity  = 1 << 30
)

var centipawns = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 300,
	chess.Bishop: 300,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

// AlphaBeta is a fixed-depth negamax search over the notnil move generator.
type AlphaBeta struct {
	Depth int
}

// NewAlphaBeta returns a searcher looking SearchDepth plies ahead.
func NewAlphaBeta() *AlphaBeta {
	return &AlphaBeta{Depth: SearchDepth}
}

// search is the per-call state; every BestMove gets a fresh one.
type search struct {
	ctx   context.Context
	nodes int
}

// BestMove returns the highest scoring move. Ties keep the first move in
// capture-first order, so results are deterministic for a position.
func (a *AlphaBeta) BestMove(ctx context.Context, fen string) (Move, error) {
	pos, err := parsePosition(fen)
	if err != nil {
		return Move{}, err
	}
	depth := a.Depth
	if depth <= 0 {
		depth = SearchDepth
	}

	s := &search{ctx: ctx}
	moves := s.ordered(pos)
	if len(moves) == 0 {
		return Move{}, ErrNoMoves
	}

	best := moves[0]
	alpha := -infinity
	for _, m := range moves {
		score := -s.negamax(pos.Update(m), depth-1, -infinity, -alpha)
		if err := ctx.Err(); err != nil {
			return Move{}, err
		}
		if score > alpha {
			alpha = score
			best = m
		}
	}
	return toMove(best), nil
}

func (s *search) negamax(pos *chess.Position, depth, alpha, beta int) int {
	s.nodes++
	if s.nodes&1023 == 0 && s.ctx.Err() != nil {
		return 0
	}

	if depth == 0 {
		return evaluate(pos)
	}
	moves := s.ordered(pos)
	if len(moves) == 0 {
		if pos.Status() == chess.Checkmate {
			// Prefer the quickest mate.
			return -mateScore - depth
		}
		return 0
	}

	for _, m := range moves {
		score := -s.negamax(pos.Update(m), depth-1, -beta, -alpha)
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// ordered returns the playable moves with captures and promotions first.
func (s *search) ordered(pos *chess.Position) []*chess.Move {
	valid := pos.ValidMoves()
	moves := make([]*chess.Move, 0, len(valid))
	for _, m := range valid {
		if playable(pos, m) && !capturesKing(pos, m) {
			moves = append(moves, m)
		}
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return moveRank(pos, moves[i]) > moveRank(pos, moves[j])
	})
	return moves
}

func moveRank(pos *chess.Position, m *chess.Move) int {
	rank := 0
	if m.HasTag(chess.Capture) {
		victim := pos.Board().Piece(m.S2()).Type()
		attacker := pos.Board().Piece(m.S1()).Type()
		rank += 10*centipawns[victim] - centipawns[attacker]/10 + 1
	}
	if m.Promo() != chess.NoPieceType {
		rank += centipawns[m.Promo()]
	}
	return rank
}

// evaluate scores material plus a small pawn-advance bonus from the point of
// view of the side to move.
func evaluate(pos *chess.Position) int {
	score := 0
	for sq, p := range pos.Board().SquareMap() {
		v := centipawns[p.Type()]
		if p.Type() == chess.Pawn {
			advance := int(sq.Rank())
			if p.Color() == chess.Black {
				advance = 7 - advance
			}
			v += advance * 5
		}
		if p.Color() == pos.Turn() {
			score += v
		} else {
			score -= v
		}
	}
	return score
}

func toMove(m *chess.Move) Move {
	out := Move{From: fromSquare(m.S1()), To: fromSquare(m.S2())}
	if promo, ok := fromPieceType(m.Promo()); ok {
		out.Promotion, out.HasPromotion = promo, true
	}
	return out
}
