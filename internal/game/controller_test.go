package game

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/purchess/purchess/internal/anim"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/chess"
	"github.com/purchess/purchess/internal/economy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testShopTiles = [economy.SlotCount]board.Pos{{X: 9, Y: 2}, {X: 9, Y: 3}, {X: 9, Y: 4}}
	testSellTile  = board.Pos{X: -2, Y: 3}
)

type recorder struct {
	events []Event
}

func (r *recorder) Publish(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []EventKind {
	var kinds []EventKind
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func testOptions(rec *recorder) Options {
	return Options{
		StartingCoins: 3,
		ShopTiles:     testShopTiles,
		SellTile:      testSellTile,
		Rand:          rand.New(rand.NewPCG(1, 2)),
		Events:        rec,
	}
}

func place(b *board.Board, x, y int, c board.Color, t board.PieceType) board.PieceID {
	return b.Add(board.Piece{Position: board.Pos{X: x, Y: y}, Color: c, Type: t})
}

// kingsOnly returns a board with the white king on e1 and the black king on e8.
func kingsOnly() *board.Board {
	b := board.New()
	place(b, 4, 0, board.White, board.King)
	place(b, 4, 7, board.Black, board.King)
	return b
}

func settle(t *testing.T, c *Controller) []anim.Completion {
	t.Helper()
	done := c.Update(context.Background(), 1.5)
	require.False(t, c.Board().Animating())
	return done
}

func TestScenarioPawnAdvance(t *testing.T) {
	b := kingsOnly()
	pawn := place(b, 0, 1, board.White, board.Pawn)
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(&recorder{}))

	c.Click(board.Pos{X: 0, Y: 1})
	require.Equal(t, ControlState{Kind: SelectedPiece, Piece: pawn}, c.Control())
	assert.Contains(t, c.Destinations(), board.Pos{X: 0, Y: 2})

	c.Click(board.Pos{X: 0, Y: 2})
	p := c.Board().Get(pawn)
	assert.Equal(t, board.Pos{X: 0, Y: 2}, p.Position)
	assert.True(t, p.Moved)
	require.NotNil(t, p.Animation)
	assert.Equal(t, board.Pos{X: 0, Y: 1}, p.Animation.From)
	assert.Equal(t, board.Pos{X: 0, Y: 2}, p.Animation.To)
	assert.Equal(t, board.Black, c.Turn())
	assert.Equal(t, Idle, c.Control().Kind)
}

func TestTurnFlipsOnlyOnCommittedMoves(t *testing.T) {
	rec := &recorder{}
	c := New(chess.NewRules(nil), testOptions(rec))

	// Select a pawn, then click somewhere illegal: cancelled, same turn.
	c.Click(board.Pos{X: 4, Y: 1})
	require.Equal(t, SelectedPiece, c.Control().Kind)
	c.Click(board.Pos{X: 4, Y: 5})
	assert.Equal(t, Idle, c.Control().Kind)
	assert.Equal(t, board.White, c.Turn())

	// Opponent pieces cannot be selected.
	c.Click(board.Pos{X: 4, Y: 6})
	assert.Equal(t, Idle, c.Control().Kind)

	c.Click(board.Pos{X: 4, Y: 1})
	c.Click(board.Pos{X: 4, Y: 3})
	assert.Equal(t, board.Black, c.Turn())

	// Clicks are ignored until the animation lands.
	c.Click(board.Pos{X: 4, Y: 6})
	assert.Equal(t, Idle, c.Control().Kind)

	done := settle(t, c)
	require.Len(t, done, 1)
	assert.Equal(t, anim.SoundTap, done[0].Sound)

	assert.True(t, c.Move(board.Pos{X: 4, Y: 6}, board.Pos{X: 4, Y: 4}))
	assert.Equal(t, board.White, c.Turn())
	assert.Equal(t, []EventKind{EventMove, EventMove}, rec.kinds())
}

func TestCheckmateFreezesTheGame(t *testing.T) {
	b := board.New()
	place(b, 6, 5, board.White, board.King)  // g6
	place(b, 0, 6, board.White, board.Queen) // a7
	place(b, 7, 7, board.Black, board.King)  // h8
	place(b, 0, 3, board.Black, board.Pawn)  // a4
	rec := &recorder{}
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(rec))

	require.True(t, c.Move(board.Pos{X: 0, Y: 6}, board.Pos{X: 6, Y: 6}))
	assert.Equal(t, Outcome{Kind: Victory, Winner: board.White}, c.Outcome())
	assert.Equal(t, []EventKind{EventMove, EventGameEnd}, rec.kinds())

	settle(t, c)
	assert.False(t, c.Playable())
	c.Click(board.Pos{X: 0, Y: 3})
	assert.Equal(t, Idle, c.Control().Kind)
	assert.False(t, c.Move(board.Pos{X: 0, Y: 3}, board.Pos{X: 0, Y: 2}))
	assert.Equal(t, Victory, c.Outcome().Kind)
}

func TestStalemateHasNoWinner(t *testing.T) {
	b := board.New()
	place(b, 5, 6, board.White, board.King)  // f7
	place(b, 6, 1, board.White, board.Queen) // g2
	place(b, 7, 7, board.Black, board.King)  // h8
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(&recorder{}))

	require.True(t, c.Move(board.Pos{X: 6, Y: 1}, board.Pos{X: 6, Y: 5}))
	assert.Equal(t, Stalemate, c.Outcome().Kind)
	assert.True(t, c.Outcome().Over())
}

func TestScenarioPurchase(t *testing.T) {
	rec := &recorder{}
	c := NewWithBoard(kingsOnly(), chess.NewRules(nil), testOptions(rec))
	c.Shop().Slots[0] = &economy.PieceForSale{Type: board.Queen}
	square := board.Pos{X: 3, Y: 0}

	c.Wallets().White = 8
	assert.False(t, c.Purchase(0, square))
	assert.Equal(t, uint(8), c.Wallets().White)
	item, ok := c.Shop().Peek(0)
	require.True(t, ok)
	assert.Equal(t, economy.PieceForSale{Type: board.Queen}, item)
	assert.Equal(t, 2, c.Board().Len())

	c.Wallets().White = 9
	// Through the click path: select the slot, then the square.
	c.Click(testShopTiles[0])
	require.Equal(t, ControlState{Kind: SelectedPurchase, Slot: 0}, c.Control())
	assert.Contains(t, c.Placements(), square)
	c.Click(square)

	assert.Equal(t, uint(0), c.Wallets().White)
	_, ok = c.Shop().Peek(0)
	assert.False(t, ok)
	id, ok := c.Board().PieceAt(square)
	require.True(t, ok)
	p := c.Board().Get(id)
	assert.Equal(t, board.Queen, p.Type)
	require.NotNil(t, p.Animation)
	assert.Equal(t, testShopTiles[0], p.Animation.From)
	assert.Equal(t, board.White, c.Turn(), "purchases do not end the turn")
	assert.Equal(t, []EventKind{EventPurchase}, rec.kinds())
	assert.Equal(t, uint(9), rec.events[0].Coins)
}

func TestPurchaseRejectsInvalidSquare(t *testing.T) {
	c := NewWithBoard(kingsOnly(), chess.NewRules(nil), testOptions(&recorder{}))
	c.Shop().Slots[1] = &economy.PieceForSale{Type: board.Pawn, Discounted: true}
	c.Wallets().White = 5

	assert.False(t, c.Purchase(1, board.Pos{X: 3, Y: 0}), "pawns go on the second rank")
	assert.False(t, c.Purchase(1, board.Pos{X: 4, Y: 0}))
	assert.True(t, c.Purchase(1, board.Pos{X: 3, Y: 1}))
	assert.Equal(t, uint(4), c.Wallets().White)
}

func TestScenarioSale(t *testing.T) {
	b := kingsOnly()
	rook := place(b, 0, 0, board.White, board.Rook)
	rec := &recorder{}
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(rec))
	c.Wallets().White = 0

	c.Click(board.Pos{X: 0, Y: 0})
	c.Click(testSellTile)

	assert.Equal(t, uint(4), c.Wallets().White)
	p := c.Board().Get(rook)
	require.NotNil(t, p)
	assert.True(t, p.DeleteAfterAnimation)
	require.NotNil(t, p.Animation)
	assert.True(t, p.Animation.Sink)
	assert.Equal(t, testSellTile, p.Animation.To)
	assert.Equal(t, board.White, c.Turn(), "sales do not end the turn")

	done := settle(t, c)
	require.Len(t, done, 1)
	assert.Equal(t, anim.Completion{Piece: rook, Sound: anim.SoundCoin, Removed: true}, done[0])
	assert.Nil(t, c.Board().Get(rook))
	assert.Empty(t, c.Update(context.Background(), 1.5))
	assert.Equal(t, []EventKind{EventSale}, rec.kinds())
}

func TestKingsCannotBeSold(t *testing.T) {
	c := NewWithBoard(kingsOnly(), chess.NewRules(nil), testOptions(&recorder{}))
	king, _ := c.Board().PieceAt(board.Pos{X: 4, Y: 0})

	assert.False(t, c.Sellable(king))
	c.Click(board.Pos{X: 4, Y: 0})
	c.Click(testSellTile)
	assert.Equal(t, Idle, c.Control().Kind)
	assert.NotNil(t, c.Board().Get(king))
	assert.False(t, c.Board().Get(king).DeleteAfterAnimation)
}

func TestCaptureCreditsMover(t *testing.T) {
	b := kingsOnly()
	rook := place(b, 0, 0, board.White, board.Rook)
	knight := place(b, 0, 7, board.Black, board.Knight)
	rec := &recorder{}
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(rec))

	require.True(t, c.Move(board.Pos{X: 0, Y: 0}, board.Pos{X: 0, Y: 7}))
	assert.Equal(t, uint(3+3), c.Wallets().White, "unmoved knight sells for 3")
	assert.Equal(t, uint(3), c.Wallets().Black)

	captured := c.Board().Get(knight)
	assert.True(t, captured.DeleteAfterAnimation)
	assert.Equal(t, testSellTile, captured.Position)
	id, _ := c.Board().PieceAt(board.Pos{X: 0, Y: 7})
	assert.Equal(t, rook, id)
	assert.Equal(t, EventCapture, rec.events[0].Kind)
	assert.Equal(t, uint(3), rec.events[0].Coins)

	done := settle(t, c)
	assert.Len(t, done, 2)
	assert.Nil(t, c.Board().Get(knight))
}

func TestCastleSwapsKingAndRook(t *testing.T) {
	b := kingsOnly()
	rook := place(b, 7, 0, board.White, board.Rook)
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(&recorder{}))
	king, _ := b.PieceAt(board.Pos{X: 4, Y: 0})

	c.Click(board.Pos{X: 4, Y: 0})
	require.Contains(t, c.Destinations(), board.Pos{X: 7, Y: 0})
	c.Click(board.Pos{X: 7, Y: 0})

	assert.Equal(t, board.Pos{X: 7, Y: 0}, c.Board().Get(king).Position)
	assert.Equal(t, board.Pos{X: 4, Y: 0}, c.Board().Get(rook).Position)
	assert.True(t, c.Board().Get(rook).Moved)
	assert.False(t, c.Board().Get(rook).DeleteAfterAnimation)
	assert.Equal(t, board.Black, c.Turn())
}

func TestPawnPromotesToQueen(t *testing.T) {
	b := kingsOnly()
	pawn := place(b, 0, 6, board.White, board.Pawn)
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(&recorder{}))

	require.True(t, c.Move(board.Pos{X: 0, Y: 6}, board.Pos{X: 0, Y: 7}))
	assert.Equal(t, board.Queen, c.Board().Get(pawn).Type)
}

func TestMoveCommitRestocksAndDiscounts(t *testing.T) {
	c := New(chess.NewRules(nil), testOptions(&recorder{}))
	c.Shop().Slots[0] = nil
	kept := c.Shop().Slots[1].Type

	require.True(t, c.Move(board.Pos{X: 4, Y: 1}, board.Pos{X: 4, Y: 3}))
	fresh, ok := c.Shop().Peek(0)
	require.True(t, ok)
	assert.False(t, fresh.Discounted)
	unsold, _ := c.Shop().Peek(1)
	assert.Equal(t, economy.PieceForSale{Type: kept, Discounted: true}, unsold)
}

func TestViewIsACopy(t *testing.T) {
	c := New(chess.NewRules(nil), testOptions(&recorder{}))
	c.SetHover(board.Pos{X: 1, Y: 1}, true)
	c.Click(board.Pos{X: 1, Y: 0})

	v := c.View()
	assert.Len(t, v.Pieces, 32)
	require.NotNil(t, v.Hover)
	assert.Equal(t, board.Pos{X: 1, Y: 1}, *v.Hover)
	assert.ElementsMatch(t, []board.Pos{{X: 0, Y: 2}, {X: 2, Y: 2}}, v.Destinations)
	assert.True(t, v.Sellable)
	assert.Len(t, v.Shop, economy.SlotCount)
	for i, slot := range v.Shop {
		assert.Equal(t, testShopTiles[i], slot.Tile)
		require.NotNil(t, slot.Item)
		assert.Equal(t, economy.BuyPrice(*slot.Item), slot.Price)
	}

	require.True(t, c.Move(board.Pos{X: 1, Y: 0}, board.Pos{X: 2, Y: 2}))
	before, _ := v.Piece(v.Control.Piece)
	assert.Equal(t, board.Pos{X: 1, Y: 0}, before.Position)
	assert.Nil(t, before.Animation)
}

func TestFoolsMate(t *testing.T) {
	rec := &recorder{}
	c := New(chess.NewRules(nil), testOptions(rec))

	moves := []struct{ from, to board.Pos }{
		{board.Pos{X: 6, Y: 1}, board.Pos{X: 6, Y: 3}}, // g4
		{board.Pos{X: 4, Y: 6}, board.Pos{X: 4, Y: 4}}, // e5
		{board.Pos{X: 5, Y: 1}, board.Pos{X: 5, Y: 3}}, // f4
		{board.Pos{X: 3, Y: 7}, board.Pos{X: 7, Y: 3}}, // Qh4#
	}
	for i, m := range moves {
		require.True(t, c.Move(m.from, m.to), "move %d", i+1)
		settle(t, c)
	}

	assert.Equal(t, Outcome{Kind: Victory, Winner: board.Black}, c.Outcome())
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventGameEnd, last.Kind)
	assert.Equal(t, board.Black, last.Color)
	assert.Equal(t, "rnb1kbnr/pppp1ppp/8/4p3/5PPq/8/PPPPP2P/RNBQKBNR w KQkq - 0 1", c.Board().FEN(c.Turn()))
}

func TestPurchaseCannotGiveCheck(t *testing.T) {
	b := board.New()
	place(b, 4, 0, board.White, board.King) // e1
	place(b, 3, 2, board.Black, board.King) // d3
	rec := &recorder{}
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(rec))
	c.Shop().Slots[0] = &economy.PieceForSale{Type: board.Pawn}
	c.Shop().Slots[1] = &economy.PieceForSale{Type: board.Rook}
	c.Wallets().White = 20

	c.Click(testShopTiles[0])
	require.Equal(t, SelectedPurchase, c.Control().Kind)
	placements := c.Placements()
	assert.NotContains(t, placements, board.Pos{X: 2, Y: 1}, "c2 attacks d3")
	assert.NotContains(t, placements, board.Pos{X: 4, Y: 1}, "e2 attacks d3")
	assert.Contains(t, placements, board.Pos{X: 0, Y: 1})

	// Clicking the checking square is rejected and cancels the selection.
	c.Click(board.Pos{X: 2, Y: 1})
	assert.Equal(t, Idle, c.Control().Kind)
	_, taken := c.Board().PieceAt(board.Pos{X: 2, Y: 1})
	assert.False(t, taken)
	assert.Equal(t, uint(20), c.Wallets().White)

	assert.False(t, c.Purchase(1, board.Pos{X: 3, Y: 0}), "a rook on d1 checks along the file")
	assert.True(t, c.Purchase(1, board.Pos{X: 0, Y: 0}))
	assert.True(t, c.Purchase(0, board.Pos{X: 0, Y: 1}))
	assert.True(t, chess.Safe(c.Board().Pieces()))
	assert.Equal(t, []EventKind{EventPurchase, EventPurchase}, rec.kinds())
}

func TestSaleCannotOpenALineOntoAKing(t *testing.T) {
	b := board.New()
	place(b, 0, 0, board.White, board.King)             // a1
	rook := place(b, 4, 0, board.White, board.Rook)     // e1
	knight := place(b, 4, 3, board.White, board.Knight) // e4
	place(b, 4, 7, board.Black, board.King)             // e8
	place(b, 0, 7, board.Black, board.Rook)             // a8
	bishop := place(b, 0, 1, board.White, board.Bishop) // a2
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(&recorder{}))

	assert.False(t, c.Sellable(knight), "discovered check on the black king")
	assert.False(t, c.Sellable(bishop), "the a8 rook would check the white king")
	assert.True(t, c.Sellable(rook))

	c.Click(board.Pos{X: 4, Y: 3})
	c.Click(testSellTile)
	assert.False(t, c.Board().Get(knight).DeleteAfterAnimation)
	assert.False(t, c.Sell(bishop))
	assert.True(t, c.Sell(rook))
}

func TestSaleIntoStalemateEndsTheGame(t *testing.T) {
	b := board.New()
	place(b, 7, 0, board.White, board.King) // h1
	pawn := place(b, 0, 1, board.White, board.Pawn)
	place(b, 5, 1, board.Black, board.Queen) // f2
	place(b, 0, 7, board.Black, board.King)  // a8
	rec := &recorder{}
	c := NewWithBoard(b, chess.NewRules(nil), testOptions(rec))

	require.True(t, c.Sell(pawn))
	assert.Equal(t, Outcome{Kind: Stalemate}, c.Outcome())
	assert.False(t, c.Playable())
	assert.Equal(t, []EventKind{EventSale, EventGameEnd}, rec.kinds())
}
