// Package game runs the turn state machine: selection, move, sale and
// purchase commits, outcome tracking and the computer opponent.
package game

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/purchess/purchess/internal/anim"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/chess"
	"github.com/purchess/purchess/internal/economy"
	"github.com/rs/zerolog/log"
)

// AIOptions enable the computer opponent for one color.
type AIOptions struct {
	Color          board.Color
	ForcedSalesMin int
	ForcedSalesMax int
	// Async runs engine searches on a goroutine polled once per frame.
	Async bool
}

// Options configure a new game. A nil Rand is seeded from the runtime and a
// nil AI means both sides are played by hand.
type Options struct {
	StartingCoins uint
	ShopTiles     [economy.SlotCount]board.Pos
	SellTile      board.Pos
	AI            *AIOptions
	Rand          *rand.Rand
	Events        EventSink
}

// Controller owns the game state of one session. It is not safe for
// concurrent use; everything runs on the frame thread.
type Controller struct {
	board   *board.Board
	shop    economy.Shop
	wallets economy.Wallets
	turn    board.Color
	outcome Outcome
	control ControlState

	hover        board.Pos
	hovering     bool
	destinations []board.Pos

	rules     *chess.Rules
	rng       *rand.Rand
	events    EventSink
	shopTiles [economy.SlotCount]board.Pos
	sellTile  board.Pos

	ai          *AIOptions
	forcedSales int
	forcedSold  bool
	search      *pendingSearch
}

// New starts a game from the standard position with a stocked shop.
func New(rules *chess.Rules, opt Options) *Controller {
	return NewWithBoard(board.NewStandard(), rules, opt)
}

// NewWithBoard starts a game on an arbitrary position, white to move.
func NewWithBoard(b *board.Board, rules *chess.Rules, opt Options) *Controller {
	rng := opt.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c := &Controller{
		board:     b,
		turn:      board.White,
		rules:     rules,
		rng:       rng,
		events:    opt.Events,
		shopTiles: opt.ShopTiles,
		sellTile:  opt.SellTile,
		ai:        opt.AI,
	}
	c.wallets.Credit(board.White, opt.StartingCoins)
	c.wallets.Credit(board.Black, opt.StartingCoins)
	c.shop.Restock(rng)

	if c.ai != nil {
		lo, hi := c.ai.ForcedSalesMin, c.ai.ForcedSalesMax
		if hi >= lo && hi > 0 {
			c.forcedSales = lo + rng.IntN(hi-lo+1)
		}
		log.Info().
			Str("color", c.ai.Color.String()).
			Int("forced_sales", c.forcedSales).
			Bool("async", c.ai.Async).
			Msg("Computer opponent enabled")
	}
	return c
}

// Board returns the live board. Callers outside the frame thread should use
// View instead.
func (c *Controller) Board() *board.Board { return c.board }

// Shop returns the three shop slots.
func (c *Controller) Shop() *economy.Shop { return &c.shop }

// Wallets returns both sides' coins.
func (c *Controller) Wallets() *economy.Wallets { return &c.wallets }

// Turn is the side to move.
func (c *Controller) Turn() board.Color { return c.turn }

// Outcome is Ongoing until a verdict ends the game.
func (c *Controller) Outcome() Outcome { return c.outcome }

// Control is the current selection state.
func (c *Controller) Control() ControlState { return c.control }

// Destinations are the legal targets of the selected piece.
func (c *Controller) Destinations() []board.Pos { return c.destinations }

// ForcedSalesRemaining is how many pawns the computer still has to sell.
func (c *Controller) ForcedSalesRemaining() int { return c.forcedSales }

// Playable reports whether actions are accepted this frame.
func (c *Controller) Playable() bool {
	return !c.outcome.Over() && !c.board.Animating()
}

// AITurn reports whether the computer moves for the side to move.
func (c *Controller) AITurn() bool {
	return c.ai != nil && c.ai.Color == c.turn
}

// SetHover records the tile under the cursor.
func (c *Controller) SetHover(pos board.Pos, ok bool) {
	c.hover, c.hovering = pos, ok
}

// Hover returns the tile under the cursor, if any.
func (c *Controller) Hover() (board.Pos, bool) {
	return c.hover, c.hovering
}

// Update advances animations and lets the computer act. It returns the
// animations that finished this frame.
func (c *Controller) Update(ctx context.Context, dt float32) []anim.Completion {
	done := anim.Step(c.board, dt)
	if c.AITurn() && c.Playable() {
		c.aiAct(ctx)
	}
	return done
}

// Click applies a click on a grid position to the control state.
func (c *Controller) Click(pos board.Pos) {
	if !c.Playable() || c.AITurn() {
		return
	}

	switch c.control.Kind {
	case Idle:
		if id, ok := c.board.PieceAt(pos); ok && pos.OnBoard() && c.board.Get(id).Color == c.turn {
			c.selectPiece(id)
			return
		}
		if slot, ok := c.shopSlotAt(pos); ok {
			if _, stocked := c.shop.Peek(slot); stocked {
				c.control = ControlState{Kind: SelectedPurchase, Slot: slot}
			}
		}

	case SelectedPiece:
		id, dests := c.control.Piece, c.destinations
		c.reset()
		if slices.Contains(dests, pos) {
			c.commitMove(id, pos, nil)
			return
		}
		if pos == c.sellTile && c.Sellable(id) {
			c.commitSale(id)
		}

	case SelectedPurchase:
		slot := c.control.Slot
		c.reset()
		c.Purchase(slot, pos)
	}
}

func (c *Controller) selectPiece(id board.PieceID) {
	c.control = ControlState{Kind: SelectedPiece, Piece: id}
	c.destinations = c.destinationsFor(id)
}

func (c *Controller) destinationsFor(id board.PieceID) []board.Pos {
	if c.control.Kind == SelectedPiece && c.control.Piece == id && c.destinations != nil {
		return c.destinations
	}
	p := c.board.Get(id)
	if p == nil {
		return nil
	}
	dests, err := c.rules.ValidDestinations(c.board, c.turn, p.Position)
	if err != nil {
		log.Panic().Err(err).Str("fen", c.board.FEN(c.turn)).Msg("Rules engine rejected the board")
	}
	return dests
}

func (c *Controller) reset() {
	c.control = ControlState{}
	c.destinations = nil
}

// Sellable reports whether the side to move may sell the piece now. A sale
// that would open a line onto either king is refused.
func (c *Controller) Sellable(id board.PieceID) bool {
	p := c.board.Get(id)
	if p == nil || p.Color != c.turn || !p.Position.OnBoard() ||
		p.DeleteAfterAnimation || !economy.Tradable(p.Type) {
		return false
	}
	after := make([]board.Piece, 0, c.board.Len())
	for _, q := range c.board.Pieces() {
		if q.ID != id {
			after = append(after, q)
		}
	}
	return chess.Safe(after)
}

// purchasePlacements filters the free squares for t down to those where a
// new piece leaves both kings out of check.
func (c *Controller) purchasePlacements(t board.PieceType) []board.Pos {
	squares := economy.ValidPurchasePlacements(c.board, t, c.turn)
	after := append(slices.Clone(c.board.Pieces()), board.Piece{Color: c.turn, Type: t})
	safe := squares[:0]
	for _, pos := range squares {
		after[len(after)-1].Position = pos
		if chess.Safe(after) {
			safe = append(safe, pos)
		}
	}
	return safe
}

// Placements lists where the selected shop item could go.
func (c *Controller) Placements() []board.Pos {
	if c.control.Kind != SelectedPurchase {
		return nil
	}
	item, ok := c.shop.Peek(c.control.Slot)
	if !ok {
		return nil
	}
	return c.purchasePlacements(item.Type)
}

func (c *Controller) shopSlotAt(pos board.Pos) (int, bool) {
	for i, tile := range c.shopTiles {
		if tile == pos {
			return i, true
		}
	}
	return 0, false
}

// ShopTile returns the tile of a shop slot.
func (c *Controller) ShopTile(slot int) board.Pos {
	return c.shopTiles[slot]
}

// SellTile is where sold and captured pieces go.
func (c *Controller) SellTile() board.Pos {
	return c.sellTile
}

// Move commits a move for the side to move if it is legal. It reports
// whether anything happened.
func (c *Controller) Move(from, to board.Pos) bool {
	if !c.Playable() {
		return false
	}
	id, ok := c.board.PieceAt(from)
	if !ok || c.board.Get(id).Color != c.turn {
		return false
	}
	if !slices.Contains(c.destinationsFor(id), to) {
		return false
	}
	c.reset()
	c.commitMove(id, to, nil)
	return true
}

// Sell commits a sale of one of the mover's pieces.
func (c *Controller) Sell(id board.PieceID) bool {
	if !c.Playable() || !c.Sellable(id) {
		return false
	}
	c.reset()
	c.commitSale(id)
	return true
}

// Purchase buys the item in slot and places it on pos. Unaffordable items
// and invalid squares are rejected without changing anything. Squares where
// the new piece would give check count as invalid.
func (c *Controller) Purchase(slot int, pos board.Pos) bool {
	if !c.Playable() {
		return false
	}
	item, ok := c.shop.Peek(slot)
	if !ok {
		return false
	}
	if !slices.Contains(c.purchasePlacements(item.Type), pos) {
		return false
	}
	price := economy.BuyPrice(item)
	if err := c.wallets.Debit(c.turn, price); err != nil {
		log.Debug().Err(err).Str("piece", item.Type.String()).Msg("Purchase rejected")
		return false
	}
	c.shop.Take(slot)

	from := c.shopTiles[slot]
	c.board.Add(board.Piece{
		Position:  pos,
		Color:     c.turn,
		Type:      item.Type,
		Animation: anim.New(from, pos, false),
	})
	c.reset()
	c.emit(Event{Kind: EventPurchase, Color: c.turn, Piece: item.Type, From: from, To: pos, Coins: price})
	c.settleTrade()
	return true
}

// commitMove assumes the move was validated by the rules engine.
func (c *Controller) commitMove(id board.PieceID, to board.Pos, promotion *board.PieceType) {
	p := c.board.Get(id)
	from := p.Position
	mover := p.Color
	kind := EventMove
	var coins uint

	if targetID, ok := c.board.PieceAt(to); ok && targetID != id {
		target := c.board.Get(targetID)
		if target.Color == mover {
			// King onto own rook is a castle: the rook jumps to the king's square.
			kind = EventCastle
			target.Position = from
			target.Moved = true
			target.Animation = anim.New(to, from, false)
		} else {
			kind = EventCapture
			coins = c.dispose(targetID, mover)
		}
	}

	p = c.board.Get(id)
	p.Moved = true
	p.Position = to
	p.Animation = anim.New(from, to, false)

	if p.Type == board.Pawn && to.Y == mover.Opponent().BackRank() {
		p.Type = board.Queen
		if promotion != nil {
			p.Type = *promotion
		}
		c.emit(Event{Kind: EventPromote, Color: mover, Piece: p.Type, From: from, To: to})
	}

	c.emit(Event{Kind: kind, Color: mover, Piece: p.Type, From: from, To: to, Coins: coins})
	c.endTurn(mover)
}

// dispose sends a piece to the sell tile and credits its value to owner.
func (c *Controller) dispose(id board.PieceID, owner board.Color) uint {
	p := c.board.Get(id)
	refund := economy.SellPrice(p.Type, p.Moved)
	c.wallets.Credit(owner, refund)
	p.Animation = anim.New(p.Position, c.sellTile, true)
	p.Position = c.sellTile
	p.DeleteAfterAnimation = true
	return refund
}

func (c *Controller) commitSale(id board.PieceID) {
	p := c.board.Get(id)
	from, pt := p.Position, p.Type
	refund := c.dispose(id, c.turn)
	c.emit(Event{Kind: EventSale, Color: c.turn, Piece: pt, From: from, To: c.sellTile, Coins: refund})
	c.settleTrade()
}

// settleTrade judges the position again after a sale or purchase. Selling
// the last piece that could move leaves the trader stalemated.
func (c *Controller) settleTrade() {
	c.search = nil
	c.judge()
	c.announceEnd(c.turn)
}

func (c *Controller) endTurn(mover board.Color) {
	c.turn = mover.Opponent()
	c.search = nil
	c.forcedSold = false

	c.judge()
	c.shop.MarkDiscounts()
	c.shop.Restock(c.rng)
	c.announceEnd(mover)
}

// judge sets the outcome from the verdict for the side to move. A
// checkmated side loses to the other.
func (c *Controller) judge() {
	verdict, err := c.rules.Verdict(c.board, c.turn)
	if err != nil {
		log.Panic().Err(err).Str("fen", c.board.FEN(c.turn)).Msg("Rules engine rejected the board")
	}
	switch verdict {
	case chess.VerdictCheckmate:
		c.outcome = Outcome{Kind: Victory, Winner: c.turn.Opponent()}
	case chess.VerdictStalemate:
		c.outcome = Outcome{Kind: Stalemate}
	}
}

func (c *Controller) announceEnd(actor board.Color) {
	if !c.outcome.Over() {
		return
	}
	log.Info().Str("outcome", c.outcome.Kind.String()).Str("winner", c.outcome.Winner.String()).Msg("Game over")
	c.emit(Event{Kind: EventGameEnd, Color: actor, Outcome: c.outcome})
}

func (c *Controller) emit(e Event) {
	e.Outcome = c.outcome
	log.Debug().
		Str("kind", string(e.Kind)).
		Str("color", e.Color.String()).
		Str("piece", e.Piece.String()).
		Str("from", e.From.String()).
		Str("to", e.To.String()).
		Uint("coins", e.Coins).
		Msg("Game event")
	if c.events != nil {
		c.events.Publish(e)
	}
}
