package chess

import (
	"context"
	"testing"

	"github.com/purchess/purchess/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kings(b *board.Board, white, black board.Pos) {
	b.Add(board.Piece{Position: white, Color: board.White, Type: board.King})
	b.Add(board.Piece{Position: black, Color: board.Black, Type: board.King})
}

func TestValidDestinationsPawnAdvance(t *testing.T) {
	b := board.New()
	kings(b, board.Pos{X: 7, Y: 0}, board.Pos{X: 7, Y: 7})
	b.Add(board.Piece{Position: board.Pos{X: 0, Y: 1}, Color: board.White, Type: board.Pawn})

	rules := NewRules(nil)
	dests, err := rules.ValidDestinations(b, board.White, board.Pos{X: 0, Y: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []board.Pos{{X: 0, Y: 2}, {X: 0, Y: 3}}, dests)

	// Not the side to move: nothing is legal.
	dests, err = rules.ValidDestinations(b, board.Black, board.Pos{X: 0, Y: 1})
	require.NoError(t, err)
	assert.Empty(t, dests)
}

func TestValidDestinationsPromotionIsReportedOnce(t *testing.T) {
	b := board.New()
	kings(b, board.Pos{X: 7, Y: 0}, board.Pos{X: 7, Y: 5})
	b.Add(board.Piece{Position: board.Pos{X: 0, Y: 6}, Color: board.White, Type: board.Pawn})

	dests, err := NewRules(nil).ValidDestinations(b, board.White, board.Pos{X: 0, Y: 6})
	require.NoError(t, err)
	assert.Equal(t, []board.Pos{{X: 0, Y: 7}}, dests)
}

func TestValidDestinationsCastleLandsOnRook(t *testing.T) {
	b := board.New()
	kings(b, board.Pos{X: 4, Y: 0}, board.Pos{X: 4, Y: 7})
	b.Add(board.Piece{Position: board.Pos{X: 7, Y: 0}, Color: board.White, Type: board.Rook})

	dests, err := NewRules(nil).ValidDestinations(b, board.White, board.Pos{X: 4, Y: 0})
	require.NoError(t, err)
	assert.Contains(t, dests, board.Pos{X: 7, Y: 0})
	assert.NotContains(t, dests, board.Pos{X: 6, Y: 0})
	// No rook on a1, so no queen side castle even though the notation
	// advertises it.
	assert.NotContains(t, dests, board.Pos{X: 2, Y: 0})
	assert.NotContains(t, dests, board.Pos{X: 0, Y: 0})
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *board.Board)
		want  Verdict
	}{
		{
			name: "two kings is not a verdict",
			setup: func(b *board.Board) {
				kings(b, board.Pos{X: 4, Y: 0}, board.Pos{X: 4, Y: 7})
			},
			want: VerdictNone,
		},
		{
			name: "queen mate in the corner",
			setup: func(b *board.Board) {
				kings(b, board.Pos{X: 6, Y: 5}, board.Pos{X: 7, Y: 7})
				b.Add(board.Piece{Position: board.Pos{X: 6, Y: 6}, Color: board.White, Type: board.Queen})
			},
			want: VerdictCheckmate,
		},
		{
			name: "queen stalemate in the corner",
			setup: func(b *board.Board) {
				kings(b, board.Pos{X: 6, Y: 5}, board.Pos{X: 7, Y: 7})
				b.Add(board.Piece{Position: board.Pos{X: 5, Y: 6}, Color: board.White, Type: board.Queen})
			},
			want: VerdictStalemate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := board.New()
			tt.setup(b)
			got, err := NewRules(nil).Verdict(b, board.Black)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected verdict %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMissingKingIsAnError(t *testing.T) {
	b := board.New()
	b.Add(board.Piece{Position: board.Pos{X: 4, Y: 0}, Color: board.White, Type: board.King})

	_, err := NewRules(nil).Verdict(b, board.White)
	assert.ErrorIs(t, err, ErrMissingKing)
	_, err = NewRules(nil).ValidDestinations(b, board.White, board.Pos{X: 4, Y: 0})
	assert.ErrorIs(t, err, ErrMissingKing)
}

func TestAlphaBetaFindsMateInOne(t *testing.T) {
	m, err := NewAlphaBeta().BestMove(context.Background(), "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, board.Pos{X: 0, Y: 0}, m.From)
	assert.Equal(t, board.Pos{X: 0, Y: 7}, m.To)
}

func TestAlphaBetaTakesHangingQueen(t *testing.T) {
	m, err := NewAlphaBeta().BestMove(context.Background(), "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, board.Pos{X: 3, Y: 1}, m.From)
	assert.Equal(t, board.Pos{X: 3, Y: 4}, m.To)
}

func TestAlphaBetaNoMoves(t *testing.T) {
	_, err := NewAlphaBeta().BestMove(context.Background(), "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	assert.ErrorIs(t, err, ErrNoMoves)
}

func TestAlphaBetaHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAlphaBeta().BestMove(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecideMoveIsLegal(t *testing.T) {
	b := board.NewStandard()
	rules := NewRules(nil)

	m, err := rules.DecideMove(context.Background(), b, board.White)
	require.NoError(t, err)

	dests, err := rules.ValidDestinations(b, board.White, m.From)
	require.NoError(t, err)
	assert.Contains(t, dests, m.To)
}

type fixedSearcher struct{ move string }

func (f fixedSearcher) BestMove(ctx context.Context, fen string) (Move, error) {
	return ParseUCIMove(f.move)
}

func TestDecideMoveTranslatesCastling(t *testing.T) {
	b := board.New()
	kings(b, board.Pos{X: 4, Y: 0}, board.Pos{X: 4, Y: 7})
	b.Add(board.Piece{Position: board.Pos{X: 0, Y: 0}, Color: board.White, Type: board.Rook})

	m, err := NewRules(fixedSearcher{"e1c1"}).DecideMove(context.Background(), b, board.White)
	require.NoError(t, err)
	assert.Equal(t, board.Pos{X: 0, Y: 0}, m.To)
}

func TestParseUCIMove(t *testing.T) {
	tests := []struct {
		input   string
		want    Move
		wantErr bool
	}{
		{"e2e4", Move{From: board.Pos{X: 4, Y: 1}, To: board.Pos{X: 4, Y: 3}}, false},
		{"a7a8q", Move{From: board.Pos{X: 0, Y: 6}, To: board.Pos{X: 0, Y: 7}, Promotion: board.Queen, HasPromotion: true}, false},
		{"h2h1n", Move{From: board.Pos{X: 7, Y: 1}, To: board.Pos{X: 7, Y: 0}, Promotion: board.Knight, HasPromotion: true}, false},
		{"z9e4", Move{}, true},
		{"e7e8k", Move{}, true},
		{"", Move{}, true},
	}

	for _, test := range tests {
		got, err := ParseUCIMove(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseUCIMove(%q) expected error", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUCIMove(%q) unexpected error: %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseUCIMove(%q) = %+v, expected %+v", test.input, got, test.want)
		}
	}
}

func TestMaterialOf(t *testing.T) {
	b := board.NewStandard()
	count := MaterialOf(b)
	assert.Equal(t, 39, count.White)
	assert.Equal(t, 39, count.Black)
	assert.Equal(t, 0, count.Balance())

	id, _ := b.PieceAt(board.Pos{X: 3, Y: 7})
	b.Get(id).DeleteAfterAnimation = true
	assert.Equal(t, 9, MaterialOf(b).Balance())
}
