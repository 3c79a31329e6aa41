package compositor

import (
	"math/rand"
	"testing"

	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/particle"
	"github.com/wrjanan/chladni/internal/pixel"
)

var testColors = Colors{
	Background:  pixel.RGB{R: 0, G: 0, B: 0},
	NonResonant: pixel.RGB{R: 0xff, G: 0x94, B: 0x30},
	Palette: []pixel.RGB{
		{R: 0xff, G: 0, B: 0},
		{R: 0, G: 0xff, B: 0},
		{R: 0, G: 0, B: 0xff},
	},
}

func boundField(w, h int) *field.Field {
	return &field.Field{
		Width:     w,
		Height:    h,
		Vibration: make([]float32, w*h),
		Gradients: make([]float32, w*h*2),
	}
}

func TestRenderFrameNoField(t *testing.T) {
	const w, h = 800, 600
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(100, rand.New(rand.NewSource(3)))
	ps.Scatter(w, h)

	buf := make([]uint32, w*h)
	c.RenderFrame(buf, w, h, ps, nil, Motion{Jitter: 0}, false)

	// Later particles overwrite earlier ones on shared pixels.
	want := make(map[int]bool)
	for i := 0; i < ps.Len(); i++ {
		x, y := ps.At(i)
		px, py := particle.Round(x), particle.Round(y)
		if px >= 0 && py >= 0 && px < w && py < h {
			want[py*w+px] = true
		}
	}

	nonResonant := c.ParticleColor(false)
	count := 0
	for i, v := range buf {
		if v == c.Background() {
			continue
		}
		count++
		if v != nonResonant {
			t.Fatalf("pixel %d = %#x, want non-resonant %#x", i, v, nonResonant)
		}
		if !want[i] {
			t.Fatalf("pixel %d drawn without a particle", i)
		}
	}
	if count != len(want) {
		t.Errorf("expected %d particle pixels, got %d", len(want), count)
	}
}

func TestRenderFrameExactCount(t *testing.T) {
	const w, h = 800, 600
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(100, nil)
	for i := 0; i < 100; i++ {
		ps.Place(i, float64(i*7%w)+0.2, float64(i*5%h)+0.3)
	}

	buf := make([]uint32, w*h)
	c.RenderFrame(buf, w, h, ps, nil, Motion{}, false)

	count := 0
	for _, v := range buf {
		if v != c.Background() {
			count++
		}
	}
	if count != 100 {
		t.Errorf("expected 100 non-background pixels, got %d", count)
	}
}

func TestRenderFrameSkipsOutOfRange(t *testing.T) {
	const w, h = 10, 10
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(5, nil)
	ps.Place(0, 9.7, 3)  // rounds to column 10
	ps.Place(1, -0.6, 3) // rounds to column -1
	ps.Place(2, 3, 9.5)  // rounds to row 10
	ps.Place(3, 50, -40) // far outside
	ps.Place(4, 9.49, 9.49)

	buf := make([]uint32, w*h)
	c.RenderFrame(buf, w, h, ps, nil, Motion{}, false)

	count := 0
	for _, v := range buf {
		if v != c.Background() {
			count++
		}
	}
	if count != 1 || buf[9*w+9] != c.ParticleColor(false) {
		t.Errorf("expected only the in-range particle drawn, got %d pixels", count)
	}
}

func TestPaletteAdvanceOnBind(t *testing.T) {
	const w, h = 20, 20
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(1, nil)
	ps.Place(0, 5, 5)
	f := boundField(w, h)
	buf := make([]uint32, w*h)

	for step := 0; step < 5; step++ {
		prev := c.PaletteIndex()
		c.Advance()
		want := c.Codec().PackRGB(testColors.Palette[(prev+1)%len(testColors.Palette)])

		c.RenderFrame(buf, w, h, ps, f, Motion{}, false)
		if got := buf[5*w+5]; got != want {
			t.Fatalf("step %d: particle color %#x, want %#x", step, got, want)
		}
	}
}

func TestStaleFieldUsesNonResonant(t *testing.T) {
	const w, h = 20, 20
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(1, nil)
	ps.Place(0, 5, 5)
	buf := make([]uint32, w*h)

	c.RenderFrame(buf, w, h, ps, boundField(30, 20), Motion{}, false)
	if got := buf[5*w+5]; got != c.ParticleColor(false) {
		t.Errorf("mismatched field should render non-resonant, got %#x", got)
	}
}

func TestDebugOverlay(t *testing.T) {
	const w, h = 4, 1
	c := New(pixel.NewCodec(), testColors)
	f := boundField(w, h)
	copy(f.Vibration, []float32{0, 1, 2, 10})

	buf := make([]uint32, w*h)
	c.RenderFrame(buf, w, h, nil, f, Motion{}, true)

	codec := c.Codec()
	want := []uint32{
		codec.Pack(0, 0, 0),
		codec.Pack(64, 64, 64),
		codec.Pack(128, 128, 128),
		codec.Pack(255, 255, 255),
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("pixel %d = %#x, want %#x", i, buf[i], want[i])
		}
	}
}

func TestDebugWithoutFieldClears(t *testing.T) {
	c := New(pixel.NewCodec(), testColors)
	buf := []uint32{1, 2, 3, 4}
	c.RenderFrame(buf, 2, 2, nil, nil, Motion{}, true)
	for i, v := range buf {
		if v != c.Background() {
			t.Errorf("pixel %d not cleared", i)
		}
	}
}

func TestPausedDoesNotMove(t *testing.T) {
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(50, rand.New(rand.NewSource(1)))
	ps.Scatter(100, 100)
	before := append([]float64(nil), ps.Positions()...)

	buf := make([]uint32, 100*100)
	c.RenderFrame(buf, 100, 100, ps, nil, Motion{Jitter: 8, Paused: true}, false)

	for i, v := range ps.Positions() {
		if v != before[i] {
			t.Fatalf("paused frame moved coordinate %d", i)
		}
	}
}

func TestDegenerateFrame(t *testing.T) {
	c := New(pixel.NewCodec(), Colors{})
	ps := particle.New(10, nil)

	c.RenderFrame(nil, 0, 0, ps, nil, Motion{Jitter: 1}, false)
	c.Advance()
	if c.PaletteIndex() != 0 {
		t.Error("empty palette must not advance")
	}
	if c.ParticleColor(true) != c.ParticleColor(false) {
		t.Error("empty palette falls back to non-resonant")
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	const w, h = 800, 600
	c := New(pixel.NewCodec(), testColors)
	ps := particle.New(10000, rand.New(rand.NewSource(1)))
	ps.Scatter(w, h)
	buf := make([]uint32, w*h)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RenderFrame(buf, w, h, ps, nil, Motion{Jitter: 4}, false)
	}
}
