// Package engine assembles a running plate from a configuration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wrjanan/chladni/internal/compositor"
	"github.com/wrjanan/chladni/internal/config"
	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/particle"
	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/pixel"
	"github.com/wrjanan/chladni/internal/scheduler"
	"github.com/wrjanan/chladni/internal/telemetry"
	"github.com/wrjanan/chladni/internal/viewport"
)

// ErrNoField is returned by AwaitField when no field bound in time.
var ErrNoField = errors.New("chladni: no field bound")

type Options struct {
	Logger   *slog.Logger
	Present  scheduler.Presenter
	Recorder *telemetry.Recorder
	// OnSample is called from the render goroutine after every stats window.
	OnSample func(telemetry.Sample)
	// CPU adds process-wide CPU utilization to samples.
	CPU  bool
	Rand *rand.Rand
}

// Engine owns the field service and the render loop state. Its methods
// must be called from the goroutine driving frames.
type Engine struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
	rng    *rand.Rand

	codec   pixel.Codec
	colors  compositor.Colors
	service *field.Service
	vp      *viewport.Manager
	comp    *compositor.Compositor
	sched   *scheduler.Scheduler
}

func New(cfg *config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	colors, err := cfg.Colors()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		cfg:    cfg,
		opts:   opts,
		logger: opts.Logger,
		rng:    opts.Rand,
		codec:  pixel.NewCodec(),
		colors: colors,
	}
	e.service = field.NewService(cfg.Workers, opts.Logger.With("component", "field"))
	e.vp = viewport.New(e.service, cfg.Pattern.Seed, viewport.Options{
		Debounce:      cfg.Timing.ResizeDebounce,
		Ranges:        cfg.Ranges(),
		ParticleScale: cfg.Particles.Scale,
		Logger:        opts.Logger.With("component", "viewport"),
		Rand:          opts.Rand,
	})
	e.comp = compositor.New(e.codec, colors)
	e.sched = scheduler.New(e.vp, e.comp, opts.Present, scheduler.Options{
		FPS:           cfg.Display.FPS,
		SweepInterval: cfg.Timing.SweepInterval,
		StatsInterval: cfg.Timing.StatsInterval,
		Slack:         cfg.Particles.Slack,
		Logger:        opts.Logger.With("component", "scheduler"),
		Sink:          e.sink,
	})
	return e, nil
}

func (e *Engine) sink(s telemetry.Sample) {
	if e.opts.CPU {
		s.CPU = telemetry.CPUPercent()
	}
	e.logger.Debug("stats", "sample", s)
	if err := e.opts.Recorder.Write(s); err != nil {
		e.logger.Warn("telemetry write failed", "err", err)
	}
	if e.opts.OnSample != nil {
		e.opts.OnSample(s)
	}
}

// Start launches the field service and sizes the viewport from the config.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.service.Start(ctx); err != nil {
		return fmt.Errorf("starting field service: %w", err)
	}
	e.vp.Resize(e.cfg.Display.Width, e.cfg.Display.Height)
	e.logger.Info("engine started",
		"width", e.cfg.Display.Width,
		"height", e.cfg.Display.Height,
		"seed", e.cfg.Pattern.Seed,
		"big_endian", e.codec.BigEndian(),
	)
	return nil
}

// Shutdown stops the debounce timer and the field service.
func (e *Engine) Shutdown() {
	e.vp.Shutdown()
	e.service.Stop()
}

// Advance renders one frame.
func (e *Engine) Advance(now time.Time) bool { return e.sched.Advance(now) }

// Run renders frames at the configured rate until ctx is done.
func (e *Engine) Run(ctx context.Context) error { return e.sched.Run(ctx) }

// AwaitField renders frames until a field is bound or timeout elapses.
func (e *Engine) AwaitField(ctx context.Context, timeout time.Duration) error {
	if e.vp.Field() != nil {
		return nil
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(e.sched.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if e.sched.Advance(now) {
				return nil
			}
			if now.After(deadline) {
				return fmt.Errorf("%w after %v", ErrNoField, timeout)
			}
		}
	}
}

// NotifyResize forwards a host resize event; bursts are debounced.
func (e *Engine) NotifyResize(width, height int) { e.vp.NotifyResize(width, height) }

// Resize applies new dimensions immediately.
func (e *Engine) Resize(width, height int) { e.vp.Resize(width, height) }

func (e *Engine) SetSeed(seed int64) { e.vp.ChangeSeed(seed) }
func (e *Engine) NextSeed()          { e.vp.ChangeSeed(e.vp.Params().Seed + 1) }
func (e *Engine) PrevSeed()          { e.vp.ChangeSeed(e.vp.Params().Seed - 1) }

// RandomSeed jumps to a seed in [0, 2^31).
func (e *Engine) RandomSeed() { e.vp.ChangeSeed(e.rng.Int63n(1 << 31)) }

func (e *Engine) TogglePause() bool { return e.sched.TogglePause() }
func (e *Engine) ToggleDebug() bool { return e.sched.ToggleDebug() }

// Frame returns the current buffer and its dimensions.
func (e *Engine) Frame() ([]uint32, int, int) {
	return e.vp.Buffer(), e.vp.Width(), e.vp.Height()
}

// Image copies the current frame into an RGBA image.
func (e *Engine) Image() *image.RGBA {
	buf, w, h := e.Frame()
	return pixel.ToImage(buf, w, h)
}

func (e *Engine) Params() pattern.Params   { return e.vp.Params() }
func (e *Engine) Field() *field.Field      { return e.vp.Field() }
func (e *Engine) Particles() *particle.Set { return e.vp.Particles() }
func (e *Engine) Codec() pixel.Codec       { return e.codec }
func (e *Engine) Config() *config.Config   { return e.cfg }

// Colors returns the palette parsed from the config when the engine was built.
func (e *Engine) Colors() compositor.Colors { return e.colors }

// ParticleColor is the packed color particles are drawn with right now.
func (e *Engine) ParticleColor() uint32 {
	return e.comp.ParticleColor(e.vp.Field() != nil)
}

// Status is a view of the engine for surfaces.
type Status struct {
	Params       pattern.Params
	Width        int
	Height       int
	Particles    int
	Bound        bool
	Paused       bool
	Debug        bool
	PaletteIndex int
	Jitter       float64
	Frames       uint64
	Sample       telemetry.Sample
	HasSample    bool
}

func (e *Engine) Status() Status {
	s := Status{
		Params:       e.vp.Params(),
		Width:        e.vp.Width(),
		Height:       e.vp.Height(),
		Particles:    e.vp.Particles().Len(),
		Bound:        e.vp.Field() != nil,
		Paused:       e.sched.Paused(),
		Debug:        e.sched.Debug(),
		PaletteIndex: e.comp.PaletteIndex(),
		Jitter:       e.vp.Jitter(),
		Frames:       e.sched.Frames(),
	}
	s.Sample, s.HasSample = e.sched.Snapshot()
	return s
}
