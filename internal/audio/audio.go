// Package audio plays sound effects and the looping music track.
package audio

// Track is a looping track whose volume can change after it started.
type Track interface {
	SetVolume(v float64)
	Volume() float64
}

// Sink plays raw 16-bit stereo PCM. Effects are fire-and-forget.
type Sink interface {
	PlaySoundEffect(pcm []byte)
	PlayLoopingTrack(pcm []byte) Track
	Close() error
}

// Nop discards everything. It is used headless and when audio is disabled.
type Nop struct{}

func (Nop) PlaySoundEffect([]byte)        {}
func (Nop) PlayLoopingTrack([]byte) Track { return &nopTrack{volume: 1} }
func (Nop) Close() error                  { return nil }

type nopTrack struct{ volume float64 }

func (t *nopTrack) SetVolume(v float64) { t.volume = v }
func (t *nopTrack) Volume() float64     { return t.volume }

// Fader ramps a track's volume down to silence over a fixed duration once
// started. It is driven by frame time.
type Fader struct {
	track    Track
	start    float64
	duration float64
	elapsed  float64
	running  bool
}

// NewFader fades track to silence over the given number of seconds once started.
func NewFader(track Track, seconds float64) *Fader {
	return &Fader{track: track, duration: seconds}
}

// Start begins the fade from the track's current volume. Later calls are
// ignored.
func (f *Fader) Start() {
	if f.running || f.track == nil {
		return
	}
	f.running = true
	f.start = f.track.Volume()
}

// Advance moves the fade forward by dt seconds.
func (f *Fader) Advance(dt float64) {
	if !f.running {
		return
	}
	f.elapsed += dt
	if f.duration <= 0 || f.elapsed >= f.duration {
		f.track.SetVolume(0)
		return
	}
	f.track.SetVolume(f.start * (1 - f.elapsed/f.duration))
}

// Done reports whether the track is silent.
func (f *Fader) Done() bool {
	return f.running && (f.duration <= 0 || f.elapsed >= f.duration)
}
