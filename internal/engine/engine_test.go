package engine

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/wrjanan/chladni/internal/config"
	"github.com/wrjanan/chladni/internal/telemetry"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Display.Width, cfg.Display.Height = 160, 120
	cfg.Display.FPS = 200
	cfg.Particles.Min, cfg.Particles.Max = 500, 1000
	cfg.Timing.StatsInterval = 20 * time.Millisecond
	cfg.Pattern.Seed = 11
	return cfg
}

func startEngine(t *testing.T, cfg *config.Config, opts Options) *Engine {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	e, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(e.Shutdown)
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.FPS = 0
	if _, err := New(cfg, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestStartTwice(t *testing.T) {
	e := startEngine(t, testConfig(), Options{})
	if err := e.Start(context.Background()); err == nil {
		t.Error("second start should fail")
	}
}

func TestAwaitField(t *testing.T) {
	presented := 0
	e := startEngine(t, testConfig(), Options{
		Present: func([]uint32, int, int) { presented++ },
	})

	if err := e.AwaitField(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("await: %v", err)
	}
	st := e.Status()
	if !st.Bound || st.Width != 160 || st.Height != 120 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.PaletteIndex != 1 {
		t.Errorf("palette should advance once, got %d", st.PaletteIndex)
	}
	if presented == 0 {
		t.Error("frames should be presented while waiting")
	}
	if buf, w, h := e.Frame(); len(buf) != w*h {
		t.Errorf("buffer %d for %dx%d", len(buf), w, h)
	}
	img := e.Image()
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Errorf("unexpected image bounds %v", img.Bounds())
	}
}

func TestAwaitFieldCancelled(t *testing.T) {
	e := startEngine(t, testConfig(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.AwaitField(ctx, time.Second); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("expected nil or canceled, got %v", err)
	}
}

func TestSeedStepping(t *testing.T) {
	e := startEngine(t, testConfig(), Options{})

	e.NextSeed()
	if got := e.Params().Seed; got != 12 {
		t.Errorf("expected seed 12, got %d", got)
	}
	e.PrevSeed()
	e.PrevSeed()
	if got := e.Params().Seed; got != 10 {
		t.Errorf("expected seed 10, got %d", got)
	}
	e.SetSeed(99)
	if got := e.Params().Seed; got != 99 {
		t.Errorf("expected seed 99, got %d", got)
	}
	e.RandomSeed()
	if got := e.Params().Seed; got < 0 || got >= 1<<31 {
		t.Errorf("random seed out of range: %d", got)
	}
	if err := e.AwaitField(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("await after seed change: %v", err)
	}
	if f := e.Field(); f.ID == 0 {
		t.Error("bound field should carry its request id")
	}
}

func TestTelemetryRecorded(t *testing.T) {
	var csv bytes.Buffer
	var samples []telemetry.Sample
	e := startEngine(t, testConfig(), Options{
		Recorder: telemetry.NewRecorder(&csv),
		OnSample: func(s telemetry.Sample) { samples = append(samples, s) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = e.Run(ctx)

	if len(samples) == 0 {
		t.Fatal("expected samples")
	}
	read, err := telemetry.ReadSamples(&csv)
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != len(samples) {
		t.Errorf("recorded %d samples, delivered %d", len(read), len(samples))
	}
	if st := e.Status(); !st.HasSample {
		t.Error("status should expose the latest sample")
	}
}

func TestToggles(t *testing.T) {
	e := startEngine(t, testConfig(), Options{})
	if !e.TogglePause() || !e.Status().Paused {
		t.Error("expected paused")
	}
	if !e.ToggleDebug() || !e.Status().Debug {
		t.Error("expected debug")
	}
}

func TestNotifyResize(t *testing.T) {
	cfg := testConfig()
	cfg.Timing.ResizeDebounce = 20 * time.Millisecond
	e := startEngine(t, cfg, Options{})

	e.NotifyResize(80, 60)
	deadline := time.Now().Add(2 * time.Second)
	for e.Status().Width != 80 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		e.Advance(time.Now())
	}
	if st := e.Status(); st.Width != 80 || st.Height != 60 {
		t.Errorf("expected 80x60, got %dx%d", st.Width, st.Height)
	}
}

func TestColorsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ApplyPalette("paper")
	e, err := New(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}

	c := e.Colors()
	if c.Background.Hex() != "#f4efe6" || c.NonResonant.Hex() != "#6b5b45" {
		t.Errorf("unexpected colors %+v", c)
	}
	if len(c.Palette) != len(cfg.Palette.Colors) {
		t.Fatalf("expected %d palette colors, got %d", len(cfg.Palette.Colors), len(c.Palette))
	}

	cfg.Palette.Background = "not a color"
	if e.Colors().Background.Hex() != "#f4efe6" {
		t.Error("colors should be fixed when the engine is built")
	}
}
