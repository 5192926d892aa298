// Package session owns everything one game needs: resources, audio, the
// engine, the controller and the optional spectator feed. A restart closes
// the session and builds a new one.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/purchess/purchess/internal/assets"
	"github.com/purchess/purchess/internal/audio"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/chess"
	"github.com/purchess/purchess/internal/chess/uci"
	"github.com/purchess/purchess/internal/config"
	"github.com/purchess/purchess/internal/economy"
	"github.com/purchess/purchess/internal/game"
	"github.com/purchess/purchess/internal/geom"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/input"
	"github.com/purchess/purchess/internal/render"
	"github.com/purchess/purchess/internal/scene"
	"github.com/purchess/purchess/internal/spectator"
	"github.com/purchess/purchess/internal/ui"
	"github.com/rs/zerolog/log"
)

// Result tells the caller what to do after a frame.
type Result int

const (
	Continue Result = iota
	Restart
	Quit
)

func (r Result) String() string {
	switch r {
	case Restart:
		return "restart"
	case Quit:
		return "quit"
	default:
		return "continue"
	}
}

const (
	orbitSpeed   = 90  // degrees per second for the arrow keys
	dragSpeed    = 0.3 // degrees per pixel
	zoomPerNotch = 0.9
	shutdownWait = 5 * time.Second
)

// Options adjust how New builds a session.
type Options struct {
	// Audio overrides the sink built from the config. Nil picks ebiten
	// audio, or silence when headless or disabled.
	Audio    audio.Sink
	Headless bool
}

// Session is one game from start to restart. Frame must be called from a
// single goroutine.
type Session struct {
	id     uuid.UUID
	cfg    *config.Config
	ctx    context.Context
	cancel context.CancelFunc

	res      *assets.Resources
	labels   *ui.Labels
	renderer *render.Renderer
	camera   geom.Camera

	sink  audio.Sink
	music audio.Track
	fader *audio.Fader

	controller *game.Controller
	engine     *uci.Searcher
	spectator  *spectator.Server
	dirty      bool

	lastMouse input.Point
}

// New builds a session that draws into device. Setup failures are returned
// wrapped; partially built sessions are closed first.
func New(ctx context.Context, cfg *config.Config, device gfx.Device, opt Options) (_ *Session, err error) {
	s := &Session{id: uuid.New(), cfg: cfg}
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	s.res, err = assets.Load(assets.Options{FontSize: cfg.Text.FontSize, SampleRate: cfg.Audio.SampleRate})
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	s.labels = ui.NewLabels(s.res.Face)
	s.renderer = render.New(device, s.labels, s.res.Quad)
	s.camera = geom.Camera{Lens: geom.Lens{
		Distance: cfg.Camera.Distance,
		Height:   cfg.Camera.Height,
		FOV:      cfg.Camera.FOV,
		Angle:    cfg.Camera.Angle,
		Tilt:     cfg.Camera.Tilt,
	}}

	s.sink, err = openSink(cfg, opt)
	if err != nil {
		return nil, err
	}
	s.music = s.sink.PlayLoopingTrack(s.res.Sounds.Music)
	s.fader = audio.NewFader(s.music, cfg.Audio.FadeSeconds)

	searcher, err := s.openEngine()
	if err != nil {
		return nil, err
	}

	gameOpt, err := s.gameOptions()
	if err != nil {
		return nil, err
	}
	s.controller = game.New(chess.NewRules(searcher), gameOpt)

	if cfg.Spectator.Enabled {
		s.spectator = spectator.New(s.id)
		if _, err := s.spectator.Start(s.ctx, cfg.Spectator.Addr()); err != nil {
			return nil, err
		}
		s.spectator.SetState(s.controller.View())
	}

	log.Info().
		Str("session", s.id.String()).
		Bool("headless", opt.Headless).
		Bool("spectator", cfg.Spectator.Enabled).
		Msg("Session started")
	return s, nil
}

func openSink(cfg *config.Config, opt Options) (audio.Sink, error) {
	switch {
	case opt.Audio != nil:
		return opt.Audio, nil
	case opt.Headless || !cfg.Audio.Enabled:
		return audio.Nop{}, nil
	}
	sink, err := audio.NewEbiten(cfg.Audio.SampleRate, cfg.Audio.EffectsVolume, cfg.Audio.MusicVolume)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	return sink, nil
}

// openEngine starts the external engine when one is configured. A nil
// searcher selects the built-in search.
func (s *Session) openEngine() (chess.Searcher, error) {
	e := s.cfg.Engine
	if e.UCIPath == "" {
		return &chess.AlphaBeta{Depth: e.Depth}, nil
	}
	sess, err := uci.NewSession(s.ctx, e.UCIPath, uci.Options{Threads: e.Threads, HashMB: e.HashMB})
	if err != nil {
		return nil, fmt.Errorf("start engine %s: %w", e.UCIPath, err)
	}
	s.engine = uci.NewSearcher(sess, e.Depth)
	log.Info().Str("path", e.UCIPath).Int("depth", e.Depth).Msg("External engine started")
	return s.engine, nil
}

func (s *Session) gameOptions() (game.Options, error) {
	cfg := s.cfg
	opt := game.Options{
		StartingCoins: cfg.Economy.StartingCoins,
		SellTile:      cfg.Tiles.Sell,
		Events:        game.EventSinkFunc(s.publish),
	}
	if len(cfg.Tiles.Shop) != economy.SlotCount {
		return opt, fmt.Errorf("need %d shop tiles, got %d", economy.SlotCount, len(cfg.Tiles.Shop))
	}
	copy(opt.ShopTiles[:], cfg.Tiles.Shop)

	if cfg.AI.Seed != 0 {
		opt.Rand = rand.New(rand.NewPCG(cfg.AI.Seed, cfg.AI.Seed^0x9e3779b97f4a7c15))
	}
	if cfg.AI.Enabled {
		color, err := cfg.AI.AIColor()
		if err != nil {
			return opt, fmt.Errorf("ai color: %w", err)
		}
		opt.AI = &game.AIOptions{
			Color:          color,
			ForcedSalesMin: cfg.AI.ForcedSalesMin,
			ForcedSalesMax: cfg.AI.ForcedSalesMax,
			Async:          cfg.Engine.Async,
		}
	}
	return opt, nil
}

func (s *Session) publish(e game.Event) {
	s.dirty = true
	if s.spectator != nil {
		s.spectator.Publish(e)
	}
}

// ID identifies the session to spectators and in logs.
func (s *Session) ID() uuid.UUID                { return s.id }
func (s *Session) Controller() *game.Controller { return s.controller }
func (s *Session) Camera() *geom.Camera         { return &s.camera }

// Spectator is the running feed, or nil when disabled.
func (s *Session) Spectator() *spectator.Server { return s.spectator }

// Frame runs one iteration: input, update, render. width and height are the
// device's pixel size.
func (s *Session) Frame(in *input.State, dt float64, width, height int) Result {
	if in.QuitRequested() {
		return Quit
	}
	if in.RestartRequested() {
		return Restart
	}

	viewport := geom.ViewportRect(width, height, geom.TargetAspect)
	if s.cfg.Camera.Interactive {
		s.steerCamera(in, dt)
	}
	s.handleMouse(in, viewport)

	for _, done := range s.controller.Update(s.ctx, float32(dt)) {
		s.sink.PlaySoundEffect(s.res.Sound(done.Sound))
	}
	if s.controller.Outcome().Over() {
		s.fader.Start()
	}
	s.fader.Advance(dt)

	view := s.controller.View()
	if s.dirty && s.spectator != nil {
		s.spectator.SetState(view)
	}
	s.dirty = false

	frame := scene.Build(&view, s.res, &s.camera, s.cfg)
	s.renderer.Render(&frame, viewport)
	return Continue
}

func (s *Session) handleMouse(in *input.State, viewport geom.Rect) {
	m := in.Mouse.Position()
	pos, ok := geom.PickSquare(m.X, m.Y, viewport, s.camera.ViewProjection())
	s.controller.SetHover(pos, ok && interactive(pos, s.cfg))
	if ok && in.Mouse.Pressed(input.ButtonLeft) {
		s.controller.Click(pos)
	}
}

// interactive reports whether a square can be clicked: the board, a shop
// tile or the sell tile.
func interactive(p board.Pos, cfg *config.Config) bool {
	if p.OnBoard() || p == cfg.Tiles.Sell {
		return true
	}
	for _, t := range cfg.Tiles.Shop {
		if p == t {
			return true
		}
	}
	return false
}

func (s *Session) steerCamera(in *input.State, dt float64) {
	step := float32(orbitSpeed * dt)
	kb := &in.Keyboard
	switch {
	case kb.Down(input.KeyLeft):
		s.camera.Orbit(-step, 0)
	case kb.Down(input.KeyRight):
		s.camera.Orbit(step, 0)
	}
	switch {
	case kb.Down(input.KeyUp):
		s.camera.Orbit(0, step)
	case kb.Down(input.KeyDown):
		s.camera.Orbit(0, -step)
	}
	if kb.Pressed(input.KeySpace) {
		s.camera.Yaw, s.camera.Pitch = 0, 0
	}

	m := in.Mouse.Position()
	if in.Mouse.Down(input.ButtonRight) && !in.Mouse.Pressed(input.ButtonRight) {
		s.camera.Orbit(float32(m.X-s.lastMouse.X)*dragSpeed, float32(m.Y-s.lastMouse.Y)*dragSpeed)
	}
	s.lastMouse = m

	if dy := in.Mouse.ScrollDelta().Y; dy != 0 {
		s.camera.Zoom(float32(math.Pow(zoomPerNotch, dy)))
	}
}

// Close tears the session down: cancels searches, stops the feed, the
// engine and audio, then frees the font.
func (s *Session) Close() error {
	s.cancel()
	var errs []error
	if s.spectator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		errs = append(errs, s.spectator.Shutdown(ctx))
		cancel()
	}
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.sink != nil {
		errs = append(errs, s.sink.Close())
	}
	if s.res != nil {
		errs = append(errs, s.res.Close())
	}
	log.Info().Str("session", s.id.String()).Msg("Session closed")
	return errors.Join(errs...)
}
