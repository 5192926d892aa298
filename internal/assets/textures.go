package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/purchess/purchess/internal/gfx"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

//go:embed icons/*.svg
var iconFiles embed.FS

// Icon names.
const (
	IconCoin  = "coin"
	IconCrown = "crown"
	IconSell  = "sell"
	IconTag   = "tag"
)

const iconSize = 128

func loadIcon(name string) (*gfx.Texture, error) {
	path := fmt.Sprintf("icons/%s.svg", name)
	data, err := iconFiles.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read icon %s: %w", path, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse icon %s: %w", path, err)
	}
	icon.SetTarget(0, 0, iconSize, iconSize)

	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(iconSize, iconSize, img, img.Bounds())
	raster := rasterx.NewDasher(iconSize, iconSize, scanner)
	icon.Draw(raster, 1.0)

	tex := gfx.NewTexture(name, img)
	tex.Clamp = true
	return tex, nil
}

// Procedural surface textures. They are grey scale so the draw tint
// supplies the colour.

func solidTexture(name string) *gfx.Texture {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return gfx.NewTexture(name, img)
}

func woodTexture(rng *rand.Rand) *gfx.Texture {
	const size = 64
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	phase := rng.Float64() * 2 * math.Pi
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			grain := math.Sin(float64(x)*0.6+math.Sin(float64(y)*0.15+phase)*2.5) * 0.5
			v := 0.82 + grain*0.12 + (rng.Float64()-0.5)*0.05
			img.SetNRGBA(x, y, grey(v))
		}
	}
	return gfx.NewTexture("wood", img)
}

func marbleTexture(rng *rand.Rand) *gfx.Texture {
	const size = 64
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			vein := math.Abs(math.Sin((float64(x)+float64(y)*0.7)*0.2 + rng.Float64()*0.4))
			v := 0.9 + 0.1*vein - (rng.Float64() * 0.04)
			img.SetNRGBA(x, y, grey(v))
		}
	}
	return gfx.NewTexture("marble", img)
}

// skyTexture is a vertical gradient, horizon at the middle row.
func skyTexture() *gfx.Texture {
	const height = 64
	img := image.NewNRGBA(image.Rect(0, 0, 1, height))
	zenith := [3]float64{0.22, 0.35, 0.6}
	horizon := [3]float64{0.75, 0.78, 0.82}
	ground := [3]float64{0.2, 0.18, 0.17}
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height-1)
		var c [3]float64
		if t < 0.5 {
			c = mix(zenith, horizon, t*2)
		} else {
			c = mix(horizon, ground, (t-0.5)*2)
		}
		img.SetNRGBA(0, y, color.NRGBA{R: byteOf(c[0]), G: byteOf(c[1]), B: byteOf(c[2]), A: 255})
	}
	return gfx.NewTexture("sky", img)
}

func mix(a, b [3]float64, t float64) [3]float64 {
	return [3]float64{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t, a[2] + (b[2]-a[2])*t}
}

func grey(v float64) color.NRGBA {
	b := byteOf(v)
	return color.NRGBA{R: b, G: b, B: b, A: 255}
}

func byteOf(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
