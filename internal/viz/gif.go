package viz

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"

	"github.com/wrjanan/chladni/internal/compositor"
	"github.com/wrjanan/chladni/internal/pixel"
)

// MaxGIFFrames caps a recording.
const MaxGIFFrames = 600

// GIFRecorder quantizes frames to the plate's own colors plus a gray ramp
// for the vibration overlay.
type GIFRecorder struct {
	palette color.Palette
	delay   int
	frames  []*image.Paletted
	delays  []int
}

func NewGIFRecorder(colors compositor.Colors, fps int) *GIFRecorder {
	pal := color.Palette{rgba(colors.Background), rgba(colors.NonResonant)}
	for _, c := range colors.Palette {
		pal = append(pal, rgba(c))
	}
	for l := 0; l < 256; l += 17 {
		pal = append(pal, rgba(pixel.Gray(uint8(l))))
	}
	delay := 2
	if fps > 0 && 100/fps > delay {
		delay = 100 / fps
	}
	return &GIFRecorder{palette: pal, delay: delay}
}

func rgba(c pixel.RGB) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Add appends a frame and reports whether there is room for more.
func (g *GIFRecorder) Add(img image.Image) bool {
	if len(g.frames) >= MaxGIFFrames {
		return false
	}
	b := img.Bounds()
	dst := image.NewPaletted(b, g.palette)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	g.frames = append(g.frames, dst)
	g.delays = append(g.delays, g.delay)
	return len(g.frames) < MaxGIFFrames
}

func (g *GIFRecorder) Len() int { return len(g.frames) }

func (g *GIFRecorder) Animation() *gif.GIF {
	return &gif.GIF{Image: g.frames, Delay: g.delays, LoopCount: 0}
}
