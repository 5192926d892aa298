package assets

import (
	"encoding/binary"
	"math"
)

// Sounds are raw 16-bit little endian stereo PCM at the session sample rate.
type Sounds struct {
	Tap   []byte
	Coin  []byte
	Music []byte
}

type tone struct {
	freq     float64
	start    float64 // seconds
	duration float64
	gain     float64
	decay    float64 // exponential decay rate per second
}

// synth mixes tones into a PCM buffer of the given length.
func synth(rate int, length float64, tones []tone, noise float64) []byte {
	n := int(length * float64(rate))
	samples := make([]float64, n)
	for _, t := range tones {
		first := int(t.start * float64(rate))
		count := int(t.duration * float64(rate))
		for i := 0; i < count && first+i < n; i++ {
			at := float64(i) / float64(rate)
			env := math.Exp(-t.decay * at)
			// Short attack to avoid clicks.
			if at < 0.004 {
				env *= at / 0.004
			}
			samples[first+i] += t.gain * env * math.Sin(2*math.Pi*t.freq*at)
		}
	}
	if noise > 0 {
		// Deterministic noise burst for percussive sounds.
		seed := uint32(2463534242)
		for i := range samples {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			at := float64(i) / float64(rate)
			samples[i] += noise * math.Exp(-90*at) * (float64(seed)/math.MaxUint32*2 - 1)
		}
	}

	out := make([]byte, n*4)
	for i, s := range samples {
		v := int16(math.Max(-1, math.Min(1, s)) * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(v))
	}
	return out
}

func tapSound(rate int) []byte {
	return synth(rate, 0.12, []tone{
		{freq: 180, duration: 0.12, gain: 0.5, decay: 40},
		{freq: 410, duration: 0.06, gain: 0.2, decay: 70},
	}, 0.3)
}

func coinSound(rate int) []byte {
	return synth(rate, 0.45, []tone{
		{freq: 988, duration: 0.1, gain: 0.35, decay: 12},
		{freq: 1319, start: 0.08, duration: 0.37, gain: 0.35, decay: 8},
		{freq: 2638, start: 0.08, duration: 0.2, gain: 0.08, decay: 20},
	}, 0)
}

// musicLoop is a slow arpeggio that loops seamlessly every bar set.
func musicLoop(rate int) []byte {
	const beat = 0.5
	chords := [][]float64{
		{220.00, 261.63, 329.63}, // Am
		{174.61, 220.00, 261.63}, // F
		{196.00, 246.94, 293.66}, // G
		{164.81, 207.65, 246.94}, // E
	}
	var tones []tone
	at := 0.0
	for _, chord := range chords {
		for rep := 0; rep < 2; rep++ {
			for _, f := range chord {
				tones = append(tones, tone{freq: f, start: at, duration: beat * 2, gain: 0.12, decay: 2})
				at += beat / 1.5
			}
		}
		tones = append(tones, tone{freq: chord[0] / 2, start: at - beat*4, duration: beat * 4, gain: 0.1, decay: 0.8})
	}
	return synth(rate, at, tones, 0)
}
