package config

import "sort"

// Palettes are the named color schemes. Amber keeps the classic sand color
// for the non-resonant state.
var Palettes = map[string]PaletteConfig{
	"amber": {
		Background:  "#000000",
		NonResonant: "#ff9430",
		Colors:      []string{"#ff9430", "#ffd166", "#ef476f", "#06d6a0", "#118ab2"},
	},
	"ocean": {
		Background:  "#03121f",
		NonResonant: "#8ecae6",
		Colors:      []string{"#219ebc", "#8ecae6", "#48cae4", "#ade8f4", "#0077b6"},
	},
	"mono": {
		Background:  "#000000",
		NonResonant: "#808080",
		Colors:      []string{"#ffffff", "#d0d0d0", "#a0a0a0"},
	},
	"paper": {
		Background:  "#f4efe6",
		NonResonant: "#6b5b45",
		Colors:      []string{"#2b2118", "#8c3b2e", "#2f4858"},
	},
}

// Presets are whole configurations for typical runs.
var Presets = map[string]*Config{
	"classic": DefaultConfig(),
	"dense": func() *Config {
		c := DefaultConfig()
		c.Particles.Min, c.Particles.Max = 20000, 40000
		c.Pattern.MinVibration, c.Pattern.MaxVibration = 1, 3
		return c
	}(),
	"sparse": func() *Config {
		c := DefaultConfig()
		c.Particles.Min, c.Particles.Max = 2000, 4000
		c.Pattern.MaxMode = 5
		c.Palette = Palettes["ocean"]
		return c
	}(),
	"terminal": func() *Config {
		c := DefaultConfig()
		c.Display.FPS = 30
		c.Particles.Scale = 0.25
		c.Palette = Palettes["mono"]
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Palette.Colors = append([]string(nil), cfg.Palette.Colors...)
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListPalettes() []string {
	names := make([]string, 0, len(Palettes))
	for name := range Palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPalette switches to a named palette. It reports false for an
// unknown name.
func (c *Config) ApplyPalette(name string) bool {
	p, ok := Palettes[name]
	if !ok {
		return false
	}
	c.Palette = PaletteConfig{
		Background:  p.Background,
		NonResonant: p.NonResonant,
		Colors:      append([]string(nil), p.Colors...),
	}
	return true
}
