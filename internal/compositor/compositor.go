// Package compositor draws one frame of the plate into a packed pixel buffer.
package compositor

import (
	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/particle"
	"github.com/wrjanan/chladni/internal/pixel"
)

// LuminosityScale maps vibration intensity to debug overlay brightness.
const LuminosityScale = 64

// Colors are the configured colors, unpacked.
type Colors struct {
	Background  pixel.RGB
	NonResonant pixel.RGB
	Palette     []pixel.RGB
}

// Motion is the per-frame particle update. Paused skips the update entirely.
type Motion struct {
	Jitter float64
	Pull   float64
	Paused bool
}

// Compositor holds packed colors and the palette cursor. It is used only
// from the render loop.
type Compositor struct {
	codec       pixel.Codec
	background  uint32
	nonResonant uint32
	palette     []uint32
	index       int
	gray        [256]uint32
}

// New packs colors with codec.
func New(codec pixel.Codec, colors Colors) *Compositor {
	c := &Compositor{
		codec:       codec,
		background:  codec.PackRGB(colors.Background),
		nonResonant: codec.PackRGB(colors.NonResonant),
		palette:     make([]uint32, len(colors.Palette)),
	}
	for i, col := range colors.Palette {
		c.palette[i] = codec.PackRGB(col)
	}
	for l := range c.gray {
		c.gray[l] = codec.Pack(uint8(l), uint8(l), uint8(l))
	}
	return c
}

// Advance moves to the next palette color. Called once per newly bound field.
func (c *Compositor) Advance() {
	if len(c.palette) == 0 {
		return
	}
	c.index = (c.index + 1) % len(c.palette)
}

// PaletteIndex returns the current palette cursor.
func (c *Compositor) PaletteIndex() int { return c.index }

// Background returns the packed background word.
func (c *Compositor) Background() uint32 { return c.background }

// ParticleColor returns the packed color particles are drawn with.
func (c *Compositor) ParticleColor(bound bool) uint32 {
	if bound && len(c.palette) > 0 {
		return c.palette[c.index]
	}
	return c.nonResonant
}

// Codec returns the codec the colors were packed with.
func (c *Compositor) Codec() pixel.Codec { return c.codec }

// RenderFrame clears buf (or paints the vibration overlay in debug mode),
// advances the particles and writes each one at its nearest pixel.
// Particles whose nearest pixel lies outside the buffer are not drawn.
func (c *Compositor) RenderFrame(buf []uint32, width, height int, ps *particle.Set, f *field.Field, mv Motion, debug bool) {
	if width <= 0 || height <= 0 || len(buf) < width*height {
		return
	}
	buf = buf[:width*height]

	bound := f.HasGradients() && f.Matches(width, height)
	if !bound {
		f = nil
	}

	if debug && f.HasVibration() {
		c.paintVibration(buf, f.Vibration)
	} else {
		pixel.Fill(buf, c.background)
	}

	if ps == nil {
		return
	}
	if !mv.Paused {
		ps.Step(mv.Jitter, f, mv.Pull)
	}

	color := c.ParticleColor(bound)
	pos := ps.Positions()
	for i := 0; i < len(pos); i += 2 {
		x, y := particle.Round(pos[i]), particle.Round(pos[i+1])
		if x < 0 || y < 0 || x >= width || y >= height {
			continue
		}
		buf[y*width+x] = color
	}
}

func (c *Compositor) paintVibration(buf []uint32, vib []float32) {
	for i, v := range vib {
		l := v * LuminosityScale
		switch {
		case l <= 0:
			buf[i] = c.gray[0]
		case l >= 255:
			buf[i] = c.gray[255]
		default:
			buf[i] = c.gray[uint8(l)]
		}
	}
}
