package game

import (
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/economy"
)

// Slot is one shop slot in a view. Empty slots have Item == nil.
type Slot struct {
	Tile  board.Pos             `json:"tile"`
	Item  *economy.PieceForSale `json:"item,omitempty"`
	Price uint                  `json:"price,omitempty"`
}

// View is a copy of everything drawn or published for one frame. It shares
// no memory with the controller.
type View struct {
	Pieces       []board.Piece   `json:"pieces"`
	Shop         []Slot          `json:"shop"`
	SellTile     board.Pos       `json:"sellTile"`
	Wallets      economy.Wallets `json:"wallets"`
	Turn         board.Color     `json:"turn"`
	Outcome      Outcome         `json:"outcome"`
	Control      ControlState    `json:"control"`
	AITurn       bool            `json:"aiTurn"`
	Hover        *board.Pos      `json:"hover,omitempty"`
	Destinations []board.Pos     `json:"destinations,omitempty"`
	Placements   []board.Pos     `json:"placements,omitempty"`
	// Sellable marks the sell tile as a valid target for the selection.
	Sellable bool `json:"sellable"`
}

// View snapshots the controller.
func (c *Controller) View() View {
	v := View{
		Pieces:   make([]board.Piece, 0, c.board.Len()),
		Shop:     make([]Slot, len(c.shop.Slots)),
		SellTile: c.sellTile,
		Wallets:  c.wallets,
		Turn:     c.turn,
		Outcome:  c.outcome,
		Control:  c.control,
		AITurn:   c.AITurn(),
	}
	for _, p := range c.board.Pieces() {
		if p.Animation != nil {
			a := *p.Animation
			p.Animation = &a
		}
		v.Pieces = append(v.Pieces, p)
	}
	for i := range c.shop.Slots {
		v.Shop[i].Tile = c.shopTiles[i]
		if item, ok := c.shop.Peek(i); ok {
			v.Shop[i].Item = &item
			v.Shop[i].Price = economy.BuyPrice(item)
		}
	}
	if c.hovering {
		h := c.hover
		v.Hover = &h
	}
	switch c.control.Kind {
	case SelectedPiece:
		v.Destinations = append([]board.Pos(nil), c.destinations...)
		v.Sellable = c.Sellable(c.control.Piece)
	case SelectedPurchase:
		v.Placements = c.Placements()
	}
	return v
}

// Piece finds a piece in the view by id.
func (v *View) Piece(id board.PieceID) (board.Piece, bool) {
	for _, p := range v.Pieces {
		if p.ID == id {
			return p, true
		}
	}
	return board.Piece{}, false
}
