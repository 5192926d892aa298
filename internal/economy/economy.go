// Package economy prices pieces and runs the three-slot shop.
package economy

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/purchess/purchess/internal/board"
)

// ErrInsufficientFunds is returned when a wallet cannot cover a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// PiecePrice holds the four price tiers of a piece type.
type PiecePrice struct {
	Buy         uint
	Discount    uint
	Sell        uint
	UnmovedSell uint
}

var prices = map[board.PieceType]PiecePrice{
	board.Pawn:   {Buy: 2, Discount: 1, Sell: 1, UnmovedSell: 1},
	board.Knight: {Buy: 4, Discount: 3, Sell: 2, UnmovedSell: 3},
	board.Bishop: {Buy: 4, Discount: 3, Sell: 2, UnmovedSell: 3},
	board.Rook:   {Buy: 6, Discount: 5, Sell: 3, UnmovedSell: 4},
	board.Queen:  {Buy: 9, Discount: 7, Sell: 5, UnmovedSell: 6},
}

// Price returns the table entry for t. Kings are never traded; asking for
// their price is a programming error.
func Price(t board.PieceType) PiecePrice {
	p, ok := prices[t]
	if !ok {
		panic(fmt.Sprintf("economy: %v has no price", t))
	}
	return p
}

// Tradable reports whether t can be bought or sold at all.
func Tradable(t board.PieceType) bool {
	_, ok := prices[t]
	return ok
}

// SellPrice pays more for pieces that never left their square.
func SellPrice(t board.PieceType, moved bool) uint {
	p := Price(t)
	if moved {
		return p.Sell
	}
	return p.UnmovedSell
}

// PieceForSale is the content of one shop slot.
type PieceForSale struct {
	Type       board.PieceType `json:"type"`
	Discounted bool            `json:"discounted"`
}

// BuyPrice picks the full or discounted price.
func BuyPrice(s PieceForSale) uint {
	p := Price(s.Type)
	if s.Discounted {
		return p.Discount
	}
	return p.Buy
}

// ValidPurchasePlacements lists the empty squares a newly bought piece may
// be put on: the second rank for pawns, the back rank for everything else.
func ValidPurchasePlacements(b *board.Board, t board.PieceType, c board.Color) []board.Pos {
	if !Tradable(t) {
		panic(fmt.Sprintf("economy: %v cannot be bought", t))
	}
	rank := c.BackRank()
	if t == board.Pawn {
		rank = c.PawnRank()
	}
	var squares []board.Pos
	for x := 0; x < 8; x++ {
		pos := board.Pos{X: x, Y: rank}
		if _, taken := b.PieceAt(pos); !taken {
			squares = append(squares, pos)
		}
	}
	return squares
}

// Wallets holds the coin totals of both sides.
type Wallets struct {
	White uint `json:"white"`
	Black uint `json:"black"`
}

// Of returns the balance of c.
func (w *Wallets) Of(c board.Color) uint {
	if c == board.White {
		return w.White
	}
	return w.Black
}

// Credit adds coins to c.
func (w *Wallets) Credit(c board.Color, amount uint) {
	if c == board.White {
		w.White += amount
	} else {
		w.Black += amount
	}
}

// Debit removes coins from c, refusing to go negative.
func (w *Wallets) Debit(c board.Color, amount uint) error {
	bal := w.Of(c)
	if bal < amount {
		return fmt.Errorf("debit %d from %v with %d: %w", amount, c, bal, ErrInsufficientFunds)
	}
	if c == board.White {
		w.White -= amount
	} else {
		w.Black -= amount
	}
	return nil
}

// SlotCount is the fixed number of shop slots.
const SlotCount = 3

// restockWeights favour cheap stock.
var restockWeights = []struct {
	Type   board.PieceType
	Weight int
}{
	{board.Pawn, 8},
	{board.Knight, 3},
	{board.Bishop, 3},
	{board.Rook, 2},
	{board.Queen, 1},
}

// Shop is the shared market both sides buy from.
type Shop struct {
	Slots [SlotCount]*PieceForSale
}

// Restock fills every empty slot with a weighted random piece type.
func (s *Shop) Restock(rng *rand.Rand) {
	for i := range s.Slots {
		if s.Slots[i] == nil {
			s.Slots[i] = &PieceForSale{Type: randomStock(rng)}
		}
	}
}

// MarkDiscounts flags all stock still on the shelf as discounted.
func (s *Shop) MarkDiscounts() {
	for _, slot := range s.Slots {
		if slot != nil {
			slot.Discounted = true
		}
	}
}

// Take empties a slot and returns what was in it.
func (s *Shop) Take(i int) (PieceForSale, bool) {
	if i < 0 || i >= SlotCount || s.Slots[i] == nil {
		return PieceForSale{}, false
	}
	item := *s.Slots[i]
	s.Slots[i] = nil
	return item, true
}

// Peek returns the content of a slot without removing it.
func (s *Shop) Peek(i int) (PieceForSale, bool) {
	if i < 0 || i >= SlotCount || s.Slots[i] == nil {
		return PieceForSale{}, false
	}
	return *s.Slots[i], true
}

func randomStock(rng *rand.Rand) board.PieceType {
	total := 0
	for _, w := range restockWeights {
		total += w.Weight
	}
	n := rng.IntN(total)
	for _, w := range restockWeights {
		if n < w.Weight {
			return w.Type
		}
		n -= w.Weight
	}
	return board.Pawn
}
