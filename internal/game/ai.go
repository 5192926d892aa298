package game

import (
	"context"
	"errors"

	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/chess"
	"github.com/purchess/purchess/internal/economy"
	"github.com/rs/zerolog/log"
)

type searchResult struct {
	move chess.Move
	err  error
}

// pendingSearch is an engine search running on a goroutine. The goroutine
// only sees the FEN string; the result comes back over a buffered channel.
type pendingSearch struct {
	result chan searchResult
}

// aiAct takes at most one action for the computer's side. Forced sales
// are spread over the game, one per turn.
func (c *Controller) aiAct(ctx context.Context) {
	if c.forcedSales > 0 && !c.forcedSold {
		c.forcedSold = true
		if pawns := c.sellablePawns(); len(pawns) > 0 {
			id := pawns[c.rng.IntN(len(pawns))]
			c.forcedSales--
			c.reset()
			c.commitSale(id)
			return
		}
	}

	if slot, pos, ok := c.bestPurchase(); ok {
		c.Purchase(slot, pos)
		return
	}

	m, ok := c.engineMove(ctx)
	if !ok {
		return
	}
	id, found := c.board.PieceAt(m.From)
	if !found {
		log.Panic().Str("from", m.From.String()).Str("fen", c.board.FEN(c.turn)).Msg("Engine moved from an empty square")
	}
	var promotion *board.PieceType
	if m.HasPromotion {
		promotion = &m.Promotion
	}
	c.reset()
	c.commitMove(id, m.To, promotion)
}

// sellablePawns lists the mover's pawns whose sale keeps both kings safe.
func (c *Controller) sellablePawns() []board.PieceID {
	var ids []board.PieceID
	for _, id := range c.board.Owned(c.turn, board.Pawn) {
		if c.Sellable(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// bestPurchase picks the most valuable affordable shop item that has a free
// square to go to. Ties keep the lower slot.
func (c *Controller) bestPurchase() (int, board.Pos, bool) {
	funds := c.wallets.Of(c.turn)
	best, bestValue := -1, -1
	var bestSquares []board.Pos
	for i := range c.shop.Slots {
		item, ok := c.shop.Peek(i)
		if !ok || economy.BuyPrice(item) > funds {
			continue
		}
		value := chess.StandardPieceValues[item.Type]
		if value <= bestValue {
			continue
		}
		squares := c.purchasePlacements(item.Type)
		if len(squares) == 0 {
			continue
		}
		best, bestValue, bestSquares = i, value, squares
	}
	if best < 0 {
		return 0, board.Pos{}, false
	}
	return best, bestSquares[c.rng.IntN(len(bestSquares))], true
}

// engineMove returns the engine's move, blocking unless searches are async.
// In async mode it starts a search and reports false until the result is in.
func (c *Controller) engineMove(ctx context.Context) (chess.Move, bool) {
	if !c.ai.Async {
		m, err := c.rules.DecideMove(ctx, c.board, c.turn)
		if err != nil {
			c.searchFailed(ctx, err)
			return chess.Move{}, false
		}
		return m, true
	}

	if c.search == nil {
		fen := c.board.FEN(c.turn)
		p := &pendingSearch{result: make(chan searchResult, 1)}
		c.search = p
		go func() {
			m, err := c.rules.SearchFEN(ctx, fen)
			p.result <- searchResult{move: m, err: err}
		}()
		log.Debug().Str("fen", fen).Msg("Engine search started")
		return chess.Move{}, false
	}

	select {
	case r := <-c.search.result:
		c.search = nil
		if r.err != nil {
			c.searchFailed(ctx, r.err)
			return chess.Move{}, false
		}
		return c.rules.Normalize(c.board, r.move), true
	default:
		return chess.Move{}, false
	}
}

// searchFailed ignores cancellation by the session and treats anything
// else as a broken engine.
func (c *Controller) searchFailed(ctx context.Context, err error) {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.Debug().Err(err).Msg("Engine search cancelled")
		return
	}
	log.Panic().Err(err).Str("fen", c.board.FEN(c.turn)).Msg("Engine search failed")
}

// Searching reports whether an async search is in flight.
func (c *Controller) Searching() bool {
	return c.search != nil
}
