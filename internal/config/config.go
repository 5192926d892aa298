package config

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/board"
	"github.com/spf13/viper"
)

type Config struct {
	Camera      CameraConfig      `mapstructure:"camera"`
	Lighting    LightingConfig    `mapstructure:"lighting"`
	Shadow      ShadowConfig      `mapstructure:"shadow"`
	Colors      ColorConfig       `mapstructure:"colors"`
	Tiles       TileConfig        `mapstructure:"tiles"`
	Text        TextConfig        `mapstructure:"text"`
	Display     DisplayConfig     `mapstructure:"display"`
	Animation   AnimationConfig   `mapstructure:"animation"`
	Economy     EconomyConfig     `mapstructure:"economy"`
	AI          AIConfig          `mapstructure:"ai"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Audio       AudioConfig       `mapstructure:"audio"`
	Spectator   SpectatorConfig   `mapstructure:"spectator"`
	Development DevelopmentConfig `mapstructure:"development"`
}

type CameraConfig struct {
	Distance    float32 `mapstructure:"distance"`
	Height      float32 `mapstructure:"height"`
	FOV         float32 `mapstructure:"fov"`
	Angle       float32 `mapstructure:"angle"`
	Tilt        float32 `mapstructure:"tilt"`
	Interactive bool    `mapstructure:"interactive"`
}

type LightConfig struct {
	Direction mgl32.Vec3 `mapstructure:"direction"`
	Color     mgl32.Vec3 `mapstructure:"color"`
}

type LightingConfig struct {
	Key           LightConfig `mapstructure:"key"`
	Fill          LightConfig `mapstructure:"fill"`
	Back          LightConfig `mapstructure:"back"`
	Ambient       mgl32.Vec3  `mapstructure:"ambient"`
	SpecularPower float32     `mapstructure:"specular_power"`
	SpecularColor mgl32.Vec3  `mapstructure:"specular_color"`
	// ShadowLight is the direction shadow volumes are extruded along. It is
	// independent of the key light so shadows can be art directed.
	ShadowLight mgl32.Vec3 `mapstructure:"shadow_light"`
}

type ShadowConfig struct {
	Tint    mgl32.Vec3 `mapstructure:"tint"`
	Extrude float32    `mapstructure:"extrude"`
}

type ColorConfig struct {
	Clear       mgl32.Vec4 `mapstructure:"clear"`
	Sky         mgl32.Vec4 `mapstructure:"sky"`
	LightTile   mgl32.Vec4 `mapstructure:"light_tile"`
	DarkTile    mgl32.Vec4 `mapstructure:"dark_tile"`
	Table       mgl32.Vec4 `mapstructure:"table"`
	WhitePiece  mgl32.Vec4 `mapstructure:"white_piece"`
	BlackPiece  mgl32.Vec4 `mapstructure:"black_piece"`
	Cursor      mgl32.Vec4 `mapstructure:"cursor"`
	Selection   mgl32.Vec4 `mapstructure:"selection"`
	Destination mgl32.Vec4 `mapstructure:"destination"`
	Placement   mgl32.Vec4 `mapstructure:"placement"`
	Sell        mgl32.Vec4 `mapstructure:"sell"`
	Text        mgl32.Vec4 `mapstructure:"text"`
	Discount    mgl32.Vec4 `mapstructure:"discount"`
}

type TileConfig struct {
	Shop []board.Pos `mapstructure:"shop"`
	Sell board.Pos   `mapstructure:"sell"`
}

type TextConfig struct {
	FontSize    float64 `mapstructure:"font_size"`
	PriceScale  float32 `mapstructure:"price_scale"`
	CoinScale   float32 `mapstructure:"coin_scale"`
	StatusScale float32 `mapstructure:"status_scale"`
}

type DisplayConfig struct {
	Title         string `mapstructure:"title"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	VSync         bool   `mapstructure:"vsync"`
	Multisampling int    `mapstructure:"multisampling"`
}

type AnimationConfig struct {
	Lift float32 `mapstructure:"lift"`
	Sink float32 `mapstructure:"sink"`
}

type EconomyConfig struct {
	StartingCoins uint `mapstructure:"starting_coins"`
}

type AIConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Color          string `mapstructure:"color"`
	ForcedSalesMin int    `mapstructure:"forced_sales_min"`
	ForcedSalesMax int    `mapstructure:"forced_sales_max"`
	Seed           uint64 `mapstructure:"seed"`
}

type EngineConfig struct {
	Depth   int    `mapstructure:"depth"`
	UCIPath string `mapstructure:"uci_path"`
	Threads int    `mapstructure:"threads"`
	HashMB  int    `mapstructure:"hash_mb"`
	Async   bool   `mapstructure:"async"`
}

type AudioConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	SampleRate    int     `mapstructure:"sample_rate"`
	EffectsVolume float64 `mapstructure:"effects_volume"`
	MusicVolume   float64 `mapstructure:"music_volume"`
	FadeSeconds   float64 `mapstructure:"fade_seconds"`
}

type SpectatorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type DevelopmentConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Addr is the spectator listen address.
func (s SpectatorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AIColor parses the configured AI side.
func (a AIConfig) AIColor() (board.Color, error) {
	return board.ParseColor(a.Color)
}

// Load reads purchess.yaml from the working directory, ./config or ./assets,
// or from file when it is not empty. Every key has a default, so a missing
// file is not an error. Environment variables such as PURCHESS_ENGINE_DEPTH
// override both.
func Load(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("purchess")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("./assets")
	}

	// Enable environment variables
	v.SetEnvPrefix("PURCHESS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("camera.distance", 9.0)
	v.SetDefault("camera.height", 9.0)
	v.SetDefault("camera.fov", 40.0)
	v.SetDefault("camera.angle", 0.0)
	v.SetDefault("camera.tilt", 0.0)
	v.SetDefault("camera.interactive", false)

	v.SetDefault("lighting.key.direction", []float64{0.4, -1, 0.6})
	v.SetDefault("lighting.key.color", []float64{0.8, 0.78, 0.7})
	v.SetDefault("lighting.fill.direction", []float64{-0.6, -0.4, -0.2})
	v.SetDefault("lighting.fill.color", []float64{0.2, 0.22, 0.3})
	v.SetDefault("lighting.back.direction", []float64{0, -0.2, -1})
	v.SetDefault("lighting.back.color", []float64{0.15, 0.15, 0.15})
	v.SetDefault("lighting.ambient", []float64{0.15, 0.15, 0.18})
	v.SetDefault("lighting.specular_power", 24.0)
	v.SetDefault("lighting.specular_color", []float64{0.4, 0.4, 0.4})
	v.SetDefault("lighting.shadow_light", []float64{0.4, -1, 0.6})

	v.SetDefault("shadow.tint", []float64{0.45, 0.45, 0.6})
	v.SetDefault("shadow.extrude", 50.0)

	v.SetDefault("colors.clear", []float64{0.3, 0.3, 0.3, 1})
	v.SetDefault("colors.sky", []float64{1, 1, 1, 1})
	v.SetDefault("colors.light_tile", []float64{0.85, 0.8, 0.7, 1})
	v.SetDefault("colors.dark_tile", []float64{0.35, 0.25, 0.2, 1})
	v.SetDefault("colors.table", []float64{0.45, 0.3, 0.2, 1})
	v.SetDefault("colors.white_piece", []float64{0.95, 0.92, 0.85, 1})
	v.SetDefault("colors.black_piece", []float64{0.18, 0.17, 0.2, 1})
	v.SetDefault("colors.cursor", []float64{1, 1, 1, 0.25})
	v.SetDefault("colors.selection", []float64{0.2, 0.6, 1, 0.5})
	v.SetDefault("colors.destination", []float64{0.3, 1, 0.3, 0.4})
	v.SetDefault("colors.placement", []float64{1, 0.85, 0.2, 0.4})
	v.SetDefault("colors.sell", []float64{1, 0.3, 0.2, 0.5})
	v.SetDefault("colors.text", []float64{1, 1, 1, 1})
	v.SetDefault("colors.discount", []float64{1, 0.85, 0.2, 1})

	v.SetDefault("tiles.shop", []map[string]int{{"x": 9, "y": 2}, {"x": 9, "y": 3}, {"x": 9, "y": 4}})
	v.SetDefault("tiles.sell", map[string]int{"x": -2, "y": 3})

	v.SetDefault("text.font_size", 48.0)
	v.SetDefault("text.price_scale", 0.06)
	v.SetDefault("text.coin_scale", 0.08)
	v.SetDefault("text.status_scale", 0.1)

	v.SetDefault("display.title", "Purchess")
	v.SetDefault("display.width", 1280)
	v.SetDefault("display.height", 720)
	v.SetDefault("display.vsync", true)
	v.SetDefault("display.multisampling", 4)

	v.SetDefault("animation.lift", 1.0)
	v.SetDefault("animation.sink", 1.2)

	v.SetDefault("economy.starting_coins", 3)

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.color", "black")
	v.SetDefault("ai.forced_sales_min", 4)
	v.SetDefault("ai.forced_sales_max", 8)
	v.SetDefault("ai.seed", 0)

	v.SetDefault("engine.depth", 3)
	v.SetDefault("engine.uci_path", "")
	v.SetDefault("engine.threads", 1)
	v.SetDefault("engine.hash_mb", 16)
	v.SetDefault("engine.async", false)

	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.effects_volume", 0.8)
	v.SetDefault("audio.music_volume", 0.5)
	v.SetDefault("audio.fade_seconds", 3.0)

	v.SetDefault("spectator.enabled", false)
	v.SetDefault("spectator.host", "localhost")
	v.SetDefault("spectator.port", 8080)

	v.SetDefault("development.debug", false)
	v.SetDefault("development.log_level", "info")
	v.SetDefault("development.log_format", "console")
}

func (c *Config) validate() error {
	if len(c.Tiles.Shop) != 3 {
		return fmt.Errorf("tiles.shop needs 3 entries, got %d", len(c.Tiles.Shop))
	}
	seen := map[board.Pos]bool{c.Tiles.Sell: true}
	if c.Tiles.Sell.OnBoard() {
		return fmt.Errorf("sell tile %v overlaps the board", c.Tiles.Sell)
	}
	for _, p := range c.Tiles.Shop {
		if p.OnBoard() || seen[p] {
			return fmt.Errorf("shop tile %v overlaps the board or another tile", p)
		}
		seen[p] = true
	}
	if c.AI.ForcedSalesMin < 0 || c.AI.ForcedSalesMax < c.AI.ForcedSalesMin {
		return fmt.Errorf("invalid forced sale range %d-%d", c.AI.ForcedSalesMin, c.AI.ForcedSalesMax)
	}
	if _, err := c.AI.AIColor(); err != nil {
		return fmt.Errorf("ai.color: %w", err)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	return nil
}
