package audio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog/log"
)

// Ebiten plays through ebiten's audio context. The context is process wide,
// so sessions created after a restart reuse it.
type Ebiten struct {
	ctx           *audio.Context
	effectsVolume float64
	musicVolume   float64

	mu      sync.Mutex
	players []*audio.Player
}

// NewEbiten opens (or reuses) the audio context at the given sample rate.
func NewEbiten(sampleRate int, effectsVolume, musicVolume float64) (*Ebiten, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	} else if ctx.SampleRate() != sampleRate {
		return nil, fmt.Errorf("audio context already open at %d Hz, want %d Hz", ctx.SampleRate(), sampleRate)
	}
	return &Ebiten{ctx: ctx, effectsVolume: effectsVolume, musicVolume: musicVolume}, nil
}

// PlaySoundEffect plays pcm once and forgets about it.
func (e *Ebiten) PlaySoundEffect(pcm []byte) {
	p := e.ctx.NewPlayerFromBytes(pcm)
	p.SetVolume(e.effectsVolume)
	p.Play()
	e.track(p)
}

// PlayLoopingTrack loops pcm until the sink is closed.
func (e *Ebiten) PlayLoopingTrack(pcm []byte) Track {
	loop := audio.NewInfiniteLoop(bytes.NewReader(pcm), int64(len(pcm)))
	p, err := e.ctx.NewPlayer(loop)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start music")
		return &nopTrack{}
	}
	p.SetVolume(e.musicVolume)
	p.Play()
	e.track(p)
	return &ebitenTrack{player: p}
}

// track remembers live players and forgets finished effects.
func (e *Ebiten) track(p *audio.Player) {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.players[:0]
	for _, old := range e.players {
		if old.IsPlaying() {
			live = append(live, old)
		} else {
			old.Close()
		}
	}
	e.players = append(live, p)
}

// Close stops everything this sink started. The context stays open.
func (e *Ebiten) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.players {
		if err := p.Close(); err != nil {
			return fmt.Errorf("close player: %w", err)
		}
	}
	e.players = nil
	return nil
}

type ebitenTrack struct {
	player *audio.Player
}

func (t *ebitenTrack) SetVolume(v float64) { t.player.SetVolume(v) }
func (t *ebitenTrack) Volume() float64     { return t.player.Volume() }
