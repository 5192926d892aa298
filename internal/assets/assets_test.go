package assets

import (
	"testing"

	"github.com/purchess/purchess/internal/anim"
	"github.com/purchess/purchess/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	r, err := Load(Options{FontSize: 24, SampleRate: 22050})
	require.NoError(t, err)
	defer r.Close()

	for _, pt := range board.PieceTypes {
		m := r.PieceMesh(pt)
		require.NotNil(t, m, pt.String())
		assert.Greater(t, m.Triangles(), 0)
		assert.Equal(t, 4*len(m.Indices), len(m.Shadow), "%v shadow indices", pt)
		assert.InDelta(t, 0, m.Min.Y(), 1e-6, "%v stands on the table", pt)
	}
	assert.Greater(t, r.PieceMesh(board.King).Max.Y(), r.PieceMesh(board.Pawn).Max.Y())

	// Icons are rasterized with transparent corners and an opaque centre.
	coin := r.Icon(IconCoin)
	assert.Equal(t, uint8(0), coin.Image.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), coin.Image.NRGBAAt(iconSize/2, iconSize/2).A)

	assert.Equal(t, r.Sounds.Coin, r.Sound(anim.SoundCoin))
	assert.Equal(t, r.Sounds.Tap, r.Sound(anim.SoundTap))
	assert.Len(t, r.Sounds.Tap, int(0.12*22050)*4)
	assert.NotEmpty(t, r.Sounds.Music)
}

func TestMissingResourcesPanic(t *testing.T) {
	r, err := Load(Options{FontSize: 12})
	require.NoError(t, err)
	defer r.Close()

	assert.Panics(t, func() { r.PieceMesh(board.PieceType(42)) })
	assert.Panics(t, func() { r.Icon("nope") })
}

func TestSynthClipsToRange(t *testing.T) {
	pcm := synth(8000, 0.01, []tone{{freq: 100, duration: 0.01, gain: 5, decay: 0}}, 0)
	require.Len(t, pcm, 80*4)
	// Left and right channels carry the same sample.
	for i := 0; i < len(pcm); i += 4 {
		assert.Equal(t, pcm[i:i+2], pcm[i+2:i+4])
	}
}
