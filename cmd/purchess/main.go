package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/purchess/purchess/internal/config"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/session"
	"github.com/purchess/purchess/internal/shell"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		showHelp      bool
		configFile    string
		headless      bool
		frames        int
		snapshot      string
		snapshotWidth int
	)
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.StringVar(&configFile, "config", "", "Settings file (default: purchess.yaml in ., ./config or ./assets)")
	flag.BoolVar(&headless, "headless", false, "Run without a window or audio")
	flag.IntVar(&frames, "frames", 120, "Frames to simulate in headless mode")
	flag.StringVar(&snapshot, "snapshot", "", "Write the last headless frame to this PNG file")
	flag.IntVar(&snapshotWidth, "snapshot-width", 0, "Scale the snapshot to this width (0 keeps the display size)")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogging(cfg.Development)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if headless {
		err = runHeadless(ctx, cfg, headlessOptions{
			Frames:        frames,
			Snapshot:      snapshot,
			SnapshotWidth: snapshotWidth,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Headless run failed")
		}
		return
	}

	// Every restart reads the settings file again.
	start := func(ctx context.Context, device gfx.Device) (*session.Session, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		return session.New(ctx, cfg, device, session.Options{})
	}
	if err := shell.Run(ctx, cfg, start); err != nil {
		log.Fatal().Err(err).Msg("Game failed")
	}
	log.Info().Msg("Bye")
}

func setupLogging(dev config.DevelopmentConfig) {
	if dev.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(dev.LogLevel)
	if err != nil {
		log.Warn().Str("level", dev.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	if dev.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func showHelpMessage() {
	fmt.Println(`Purchess

Chess where pieces are bought and sold. Captures and sales pay coins, the
shop beside the board sells new pieces.

Usage:
  purchess [options]

Options:
  -h, -help              Show this help message
  -config FILE           Settings file
  -headless              Run without a window or audio
  -frames N              Frames to simulate in headless mode (default 120)
  -snapshot FILE         Write the last headless frame as PNG
  -snapshot-width N      Scale the snapshot to N pixels wide

Controls:
  Left click             Select, move, buy or sell
  Ctrl+R / Cmd+R         Restart
  Escape                 Quit

Configuration:
  Settings are read from purchess.yaml. Every key can be overridden from the
  environment with the PURCHESS_ prefix, for example PURCHESS_ENGINE_DEPTH=4.

Spectating:
  With spectator.enabled the game is served at:
  - GET /api/health
  - GET /api/game
  - GET /api/game/events
  - GET /ws (websocket updates)`)
}
