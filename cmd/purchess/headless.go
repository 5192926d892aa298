package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/purchess/purchess/internal/config"
	"github.com/purchess/purchess/internal/gfx/soft"
	"github.com/purchess/purchess/internal/input"
	"github.com/purchess/purchess/internal/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

const headlessDT = 1.0 / 60

type headlessOptions struct {
	Frames        int
	Snapshot      string
	SnapshotWidth int
}

// runHeadless simulates frames without a window. With the computer playing
// one side, the game advances on its own turns only.
func runHeadless(ctx context.Context, cfg *config.Config, opt headlessOptions) error {
	w, h := cfg.Display.Width, cfg.Display.Height
	device := soft.New(w, h)
	s, err := session.New(ctx, cfg, device, session.Options{Headless: true})
	if err != nil {
		return err
	}
	defer s.Close()

	var in input.State
	n := 0
	for ; n < opt.Frames && ctx.Err() == nil; n++ {
		in.BeginFrame()
		if s.Frame(&in, headlessDT, w, h) != session.Continue {
			break
		}
	}
	stats := device.Stats()
	log.Info().
		Int("frames", n).
		Int("triangles", stats.Triangles).
		Int("fragments", stats.Fragments).
		Str("turn", s.Controller().Turn().String()).
		Msg("Headless run finished")

	if opt.Snapshot == "" {
		return nil
	}
	return writeSnapshot(opt.Snapshot, device.Image(), opt.SnapshotWidth)
}

func writeSnapshot(path string, img *image.RGBA, width int) error {
	var out image.Image = img
	if b := img.Bounds(); width > 0 && width != b.Dx() {
		height := b.Dy() * width / b.Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, width, max(height, 1)))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		out = scaled
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	log.Info().Str("path", path).Int("width", out.Bounds().Dx()).Msg("Snapshot written")
	return nil
}
