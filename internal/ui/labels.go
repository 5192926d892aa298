// Package ui turns overlay text into textures the renderer can draw as
// screen-space quads.
package ui

import (
	"image"
	"image/color"
	"strings"

	"github.com/purchess/purchess/internal/gfx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const padding = 2

// Labels caches one white texture per distinct string. The draw tint
// colours it. Entries not requested during a frame are evicted by Sweep.
type Labels struct {
	face    font.Face
	entries map[string]*entry
}

type entry struct {
	tex  *gfx.Texture
	used bool
}

// NewLabels caches label textures rendered with face.
func NewLabels(face font.Face) *Labels {
	return &Labels{face: face, entries: make(map[string]*entry)}
}

// Texture returns the rendered text. Empty strings have no texture.
func (l *Labels) Texture(text string) *gfx.Texture {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if e, ok := l.entries[text]; ok {
		e.used = true
		return e.tex
	}
	tex := l.render(text)
	l.entries[text] = &entry{tex: tex, used: true}
	return tex
}

// Aspect is width over height of the rendered text.
func (l *Labels) Aspect(text string) float32 {
	tex := l.Texture(text)
	if tex == nil {
		return 0
	}
	b := tex.Image.Bounds()
	return float32(b.Dx()) / float32(b.Dy())
}

// Sweep drops entries that were not used since the last sweep.
func (l *Labels) Sweep() {
	for text, e := range l.entries {
		if !e.used {
			delete(l.entries, text)
			continue
		}
		e.used = false
	}
}

// Len is the number of cached textures.
func (l *Labels) Len() int {
	return len(l.entries)
}

func (l *Labels) render(text string) *gfx.Texture {
	metrics := l.face.Metrics()
	drawer := &font.Drawer{Face: l.face, Src: image.NewUniform(color.White)}
	width := drawer.MeasureString(text).Ceil() + 2*padding
	height := metrics.Ascent.Ceil() + metrics.Descent.Ceil() + 2*padding

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer.Dst = img
	drawer.Dot = fixed.P(padding, padding+metrics.Ascent.Ceil())
	drawer.DrawString(text)

	tex := gfx.NewTexture("label:"+text, img)
	tex.Clamp = true
	return tex
}
