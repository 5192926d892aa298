package game

import (
	"github.com/purchess/purchess/internal/board"
)

// ControlKind is the selection mode of the side to move.
type ControlKind int

const (
	Idle ControlKind = iota
	SelectedPiece
	SelectedPurchase
)

func (k ControlKind) String() string {
	switch k {
	case SelectedPiece:
		return "selected_piece"
	case SelectedPurchase:
		return "selected_purchase"
	default:
		return "idle"
	}
}

func (k ControlKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ControlState is the current selection. Piece is only meaningful for
// SelectedPiece and Slot only for SelectedPurchase.
type ControlState struct {
	Kind  ControlKind   `json:"kind"`
	Piece board.PieceID `json:"piece,omitempty"`
	Slot  int           `json:"slot,omitempty"`
}

// OutcomeKind says whether the game is still running.
type OutcomeKind int

const (
	Ongoing OutcomeKind = iota
	Stalemate
	Victory
)

func (k OutcomeKind) String() string {
	switch k {
	case Stalemate:
		return "stalemate"
	case Victory:
		return "victory"
	default:
		return "ongoing"
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome never returns to Ongoing once decided. Winner is set for Victory.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner board.Color `json:"winner"`
}

func (o Outcome) Over() bool {
	return o.Kind != Ongoing
}

// EventKind classifies committed actions.
type EventKind string

const (
	EventMove     EventKind = "move"
	EventCastle   EventKind = "castle"
	EventCapture  EventKind = "capture"
	EventPromote  EventKind = "promote"
	EventSale     EventKind = "sale"
	EventPurchase EventKind = "purchase"
	EventGameEnd  EventKind = "game_end"
)

// Event describes one committed change to the game.
type Event struct {
	Kind  EventKind       `json:"kind"`
	Color board.Color     `json:"color"`
	Piece board.PieceType `json:"piece"`
	From  board.Pos       `json:"from"`
	To    board.Pos       `json:"to"`
	// Coins is the amount credited (captures and sales) or debited (purchases).
	Coins   uint    `json:"coins,omitempty"`
	Outcome Outcome `json:"outcome"`
}

// EventSink receives events synchronously on the frame thread. Sinks must
// not block.
type EventSink interface {
	Publish(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Publish(e Event) { f(e) }
