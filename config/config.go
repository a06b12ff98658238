// Package config loads the viewer settings: built-in defaults, then an
// optional config file, then GLOBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxFrameSize bounds the frame width and height.
const MaxFrameSize = 4096

// EnvPrefix is prepended to environment overrides, e.g. GLOBE_ADDR or
// GLOBE_TEXTURES_EARTH.
const EnvPrefix = "GLOBE"

// Textures lists the image assets. Any of them may be missing; the viewer
// falls back to solid colors.
type Textures struct {
	Earth      string `mapstructure:"earth"`
	Specular   string `mapstructure:"specular"`
	Normal     string `mapstructure:"normal"`
	Clouds     string `mapstructure:"clouds"`
	Moon       string `mapstructure:"moon"`
	Background string `mapstructure:"background"`

	// EarthMaps are extra colour maps the panel can switch the globe to.
	EarthMaps []string `mapstructure:"earthmaps"`
}

// EarthChoices lists the selectable colour maps, Earth first.
func (t Textures) EarthChoices() []string {
	return append([]string{t.Earth}, t.EarthMaps...)
}

// Config holds all viewer settings.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	LogLevel        string        `mapstructure:"loglevel"`
	LogFormat       string        `mapstructure:"logformat"`
	ShutdownTimeout time.Duration `mapstructure:"shutdowntimeout"`

	Dataset  string   `mapstructure:"dataset"`
	Textures Textures `mapstructure:"textures"`

	Width            int     `mapstructure:"width"`
	Height           int     `mapstructure:"height"`
	FPS              int     `mapstructure:"fps"`
	Workers          int     `mapstructure:"workers"`
	Supersample      int     `mapstructure:"supersample"`
	HoverMaxDistance float64 `mapstructure:"hovermaxdistance"`
	TextureCacheSize int     `mapstructure:"texturecachesize"`
}

// Load reads configuration and sets default values. path names an optional
// config file (JSON, YAML or TOML by extension); empty means defaults and
// environment only.
func Load(path string) (*Config, error) {
	viper.SetDefault("addr", ":8080")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "text")
	viper.SetDefault("shutdownTimeout", "10s")

	viper.SetDefault("dataset", "assets/UN_Capital_Cities_2014.csv")
	viper.SetDefault("textures.earth", "assets/earthmap4k.jpg")
	viper.SetDefault("textures.specular", "assets/earthspec4k.jpg")
	viper.SetDefault("textures.normal", "assets/earth_normalmap_flat4k.jpg")
	viper.SetDefault("textures.clouds", "assets/fair_clouds_4k.png")
	viper.SetDefault("textures.moon", "assets/moonmap4k.jpg")
	viper.SetDefault("textures.background", "assets/galaxy_starfield.png")

	viper.SetDefault("width", 800)
	viper.SetDefault("height", 600)
	viper.SetDefault("fps", 30)
	viper.SetDefault("workers", 0)
	viper.SetDefault("supersample", 1)
	viper.SetDefault("hoverMaxDistance", 50.0)
	viper.SetDefault("textureCacheSize", 8)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 || c.Width > MaxFrameSize || c.Height > MaxFrameSize {
		errs = append(errs, fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("invalid fps %d", c.FPS))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("invalid workers %d", c.Workers))
	}
	if c.Supersample < 1 {
		errs = append(errs, fmt.Errorf("invalid supersample %d", c.Supersample))
	}
	if c.HoverMaxDistance <= 0 {
		errs = append(errs, fmt.Errorf("invalid hoverMaxDistance %g", c.HoverMaxDistance))
	}
	if c.TextureCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid textureCacheSize %d", c.TextureCacheSize))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("invalid shutdownTimeout"))
	}
	return errors.Join(errs...)
}

// FrameInterval is the time between frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
