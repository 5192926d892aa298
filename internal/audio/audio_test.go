package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaderRampsToSilence(t *testing.T) {
	track := Nop{}.PlayLoopingTrack(nil)
	track.SetVolume(0.8)

	f := NewFader(track, 2)
	f.Advance(1)
	assert.Equal(t, 0.8, track.Volume(), "nothing happens before Start")

	f.Start()
	f.Advance(1)
	assert.InDelta(t, 0.4, track.Volume(), 1e-9)
	assert.False(t, f.Done())

	f.Start()
	f.Advance(1.5)
	assert.Equal(t, 0.0, track.Volume())
	assert.True(t, f.Done())
}

func TestFaderWithoutDuration(t *testing.T) {
	track := Nop{}.PlayLoopingTrack(nil)
	f := NewFader(track, 0)
	f.Start()
	f.Advance(0.016)
	assert.Equal(t, 0.0, track.Volume())
	assert.True(t, f.Done())
}
