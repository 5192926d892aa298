package uci

import (
	"context"

	"github.com/purchess/purchess/internal/chess"
	"github.com/rs/zerolog/log"
)

// Searcher adapts a Session to chess.Searcher with a fixed depth.
type Searcher struct {
	session *Session
	depth   int
}

// NewSearcher searches s to the given depth for every move.
func NewSearcher(s *Session, depth int) *Searcher {
	return &Searcher{session: s, depth: depth}
}

// BestMove asks the engine for a move in long algebraic notation.
func (u *Searcher) BestMove(ctx context.Context, fen string) (chess.Move, error) {
	resp, err := u.session.Search(ctx, SearchRequest{FEN: fen, Limits: Limits{Depth: u.depth}})
	if err != nil {
		return chess.Move{}, err
	}
	log.Debug().Str("move", resp.BestMove).Int("cp", resp.EvalCP).Int("depth", resp.Depth).Msg("uci best move")
	return chess.ParseUCIMove(resp.BestMove)
}

// Close stops the engine process.
func (u *Searcher) Close() error {
	return u.session.Close()
}
