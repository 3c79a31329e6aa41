package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wrjanan/chladni/internal/compositor"
	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/pixel"
)

const (
	DefaultWidth          = 800
	DefaultHeight         = 600
	DefaultFPS            = 60
	DefaultResizeDebounce = 350 * time.Millisecond
	DefaultSweepInterval  = 10 * time.Second
	DefaultStatsInterval  = time.Second
	DefaultSlack          = 100.0
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("chladni: invalid config")

type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	Timing    TimingConfig    `yaml:"timing"`
	Particles ParticlesConfig `yaml:"particles"`
	Pattern   PatternConfig   `yaml:"pattern"`
	Palette   PaletteConfig   `yaml:"palette"`
	Workers   int             `yaml:"workers"`
}

type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type TimingConfig struct {
	ResizeDebounce time.Duration `yaml:"resize_debounce"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	StatsInterval  time.Duration `yaml:"stats_interval"`
}

type ParticlesConfig struct {
	Min   int     `yaml:"min"`
	Max   int     `yaml:"max"`
	Scale float64 `yaml:"scale"`
	Slack float64 `yaml:"slack"`
}

type PatternConfig struct {
	Seed         int64   `yaml:"seed"`
	MinVibration float64 `yaml:"min_vibration"`
	MaxVibration float64 `yaml:"max_vibration"`
	MinPull      float64 `yaml:"min_pull"`
	MaxPull      float64 `yaml:"max_pull"`
	MaxMode      int     `yaml:"max_mode"`
}

type PaletteConfig struct {
	Background  string   `yaml:"background"`
	NonResonant string   `yaml:"non_resonant"`
	Colors      []string `yaml:"colors"`
}

func DefaultConfig() *Config {
	r := pattern.DefaultRanges()
	c := &Config{
		Display: DisplayConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			FPS:    DefaultFPS,
		},
		Timing: TimingConfig{
			ResizeDebounce: DefaultResizeDebounce,
			SweepInterval:  DefaultSweepInterval,
			StatsInterval:  DefaultStatsInterval,
		},
		Particles: ParticlesConfig{
			Min:   r.MinParticles,
			Max:   r.MaxParticles,
			Scale: 1,
			Slack: DefaultSlack,
		},
		Pattern: PatternConfig{
			MinVibration: r.MinVibration,
			MaxVibration: r.MaxVibration,
			MinPull:      r.MinPull,
			MaxPull:      r.MaxPull,
			MaxMode:      r.MaxMode,
		},
	}
	c.ApplyPalette("amber")
	return c
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Display.Width < 0 || c.Display.Height < 0:
		return fmt.Errorf("%w: negative display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	case c.Display.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive", ErrInvalid)
	case c.Particles.Min < 0 || c.Particles.Max < c.Particles.Min:
		return fmt.Errorf("%w: particle range [%d,%d]", ErrInvalid, c.Particles.Min, c.Particles.Max)
	case c.Particles.Scale < 0:
		return fmt.Errorf("%w: negative particle scale", ErrInvalid)
	case c.Particles.Slack < 0:
		return fmt.Errorf("%w: negative slack", ErrInvalid)
	case c.Pattern.MaxVibration < c.Pattern.MinVibration:
		return fmt.Errorf("%w: vibration range", ErrInvalid)
	case c.Pattern.MaxPull < c.Pattern.MinPull:
		return fmt.Errorf("%w: pull range", ErrInvalid)
	case c.Pattern.MaxMode < 2:
		return fmt.Errorf("%w: max_mode must be at least 2", ErrInvalid)
	case c.Timing.SweepInterval <= 0 || c.Timing.StatsInterval <= 0:
		return fmt.Errorf("%w: intervals must be positive", ErrInvalid)
	}
	if _, err := c.Colors(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Ranges returns the parameter ranges patterns are derived from.
func (c *Config) Ranges() pattern.Ranges {
	return pattern.Ranges{
		MinParticles: c.Particles.Min,
		MaxParticles: c.Particles.Max,
		MinVibration: c.Pattern.MinVibration,
		MaxVibration: c.Pattern.MaxVibration,
		MinPull:      c.Pattern.MinPull,
		MaxPull:      c.Pattern.MaxPull,
		MaxMode:      c.Pattern.MaxMode,
	}
}

// Colors parses the palette hex strings.
func (c *Config) Colors() (compositor.Colors, error) {
	var out compositor.Colors
	var err error
	if out.Background, err = pixel.ParseHex(c.Palette.Background); err != nil {
		return out, fmt.Errorf("background: %w", err)
	}
	if out.NonResonant, err = pixel.ParseHex(c.Palette.NonResonant); err != nil {
		return out, fmt.Errorf("non_resonant: %w", err)
	}
	out.Palette = make([]pixel.RGB, len(c.Palette.Colors))
	for i, h := range c.Palette.Colors {
		if out.Palette[i], err = pixel.ParseHex(h); err != nil {
			return out, fmt.Errorf("colors[%d]: %w", i, err)
		}
	}
	return out, nil
}

// FrameInterval is the time between frames at the configured rate.
func (c *Config) FrameInterval() time.Duration {
	if c.Display.FPS <= 0 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(c.Display.FPS)
}
