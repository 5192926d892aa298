// Package shell runs sessions inside an ebiten window. Frames are rasterized
// in software and uploaded to the screen image.
package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/purchess/purchess/internal/config"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/gfx/soft"
	"github.com/purchess/purchess/internal/input"
	"github.com/purchess/purchess/internal/session"
	"github.com/rs/zerolog/log"
)

// maxFrameTime keeps a stalled frame from teleporting animations.
const maxFrameTime = 0.1

// StartFunc builds a fresh session drawing into device.
type StartFunc func(ctx context.Context, device gfx.Device) (*session.Session, error)

// Game implements ebiten.Game around a session.
type Game struct {
	ctx     context.Context
	start   StartFunc
	device  *soft.Device
	session *session.Session
	input   input.State
	source  source
	last    time.Time
	width   int
	height  int
}

// New starts the first session at the configured display size.
func New(ctx context.Context, cfg *config.Config, start StartFunc) (*Game, error) {
	g := &Game{
		ctx:    ctx,
		start:  start,
		device: soft.New(cfg.Display.Width, cfg.Display.Height),
		source: ebitenSource{},
		width:  cfg.Display.Width,
		height: cfg.Display.Height,
	}
	s, err := start(ctx, g.device)
	if err != nil {
		return nil, err
	}
	g.session = s
	return g, nil
}

// Run opens the window and blocks until the player quits.
func Run(ctx context.Context, cfg *config.Config, start StartFunc) error {
	ebiten.SetWindowSize(cfg.Display.Width, cfg.Display.Height)
	ebiten.SetWindowTitle(cfg.Display.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(cfg.Display.VSync)
	ebiten.SetTPS(60)
	if cfg.Display.Multisampling > 0 {
		log.Debug().Int("samples", cfg.Display.Multisampling).Msg("Multisampling is not supported by the software rasterizer")
	}

	g, err := New(ctx, cfg, start)
	if err != nil {
		return err
	}
	defer g.Close()

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}

// Update polls input and runs one session frame, including rendering.
func (g *Game) Update() error {
	now := time.Now()
	dt := maxFrameTime
	if !g.last.IsZero() {
		dt = min(now.Sub(g.last).Seconds(), maxFrameTime)
	}
	g.last = now

	g.input.BeginFrame()
	poll(&g.input, g.source)

	switch g.session.Frame(&g.input, dt, g.width, g.height) {
	case session.Quit:
		return ebiten.Termination
	case session.Restart:
		return g.restart()
	}
	return nil
}

func (g *Game) restart() error {
	log.Info().Msg("Restarting session")
	if err := g.session.Close(); err != nil {
		log.Warn().Err(err).Msg("Session did not close cleanly")
	}
	s, err := g.start(g.ctx, g.device)
	if err != nil {
		return fmt.Errorf("restart session: %w", err)
	}
	g.session = s
	g.input = input.State{}
	return nil
}

// Draw uploads the last rasterized frame.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.device.Image().Pix)
}

// Layout renders at the window's pixel size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := max(outsideWidth, 1), max(outsideHeight, 1)
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.device.Resize(w, h)
	}
	return w, h
}

// Close ends the current session.
func (g *Game) Close() error {
	if g.session == nil {
		return nil
	}
	err := g.session.Close()
	g.session = nil
	return err
}
