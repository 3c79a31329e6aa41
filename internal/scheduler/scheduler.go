// Package scheduler drives the per-frame render loop.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wrjanan/chladni/internal/compositor"
	"github.com/wrjanan/chladni/internal/telemetry"
	"github.com/wrjanan/chladni/internal/viewport"
)

// Presenter hands a finished frame to the host surface. buf is only valid
// until the call returns.
type Presenter func(buf []uint32, width, height int)

type Options struct {
	FPS           int
	SweepInterval time.Duration
	StatsInterval time.Duration
	Slack         float64
	Logger        *slog.Logger
	Sink          telemetry.Sink
}

// Scheduler renders one frame per Advance. Advance and Run must be called
// from a single goroutine; toggles and Snapshot are safe from any.
type Scheduler struct {
	vp      *viewport.Manager
	comp    *compositor.Compositor
	present Presenter
	opts    Options
	logger  *slog.Logger

	paused atomic.Bool
	debug  atomic.Bool
	total  atomic.Uint64
	last   atomic.Pointer[telemetry.Sample]

	started   bool
	frames    int
	fallen    int
	lastSweep time.Time
	lastStats time.Time
}

func New(vp *viewport.Manager, comp *compositor.Compositor, present Presenter, opts Options) *Scheduler {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Second
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		vp:      vp,
		comp:    comp,
		present: present,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// Interval is the time between frames.
func (s *Scheduler) Interval() time.Duration {
	return time.Second / time.Duration(s.opts.FPS)
}

// Advance runs one frame at time now and reports whether a new field was
// bound during it.
func (s *Scheduler) Advance(now time.Time) bool {
	if !s.started {
		s.started = true
		s.lastSweep, s.lastStats = now, now
	}

	bound := s.vp.Poll()
	if bound {
		s.comp.Advance()
		f := s.vp.Field()
		s.logger.Info("field bound",
			"id", f.ID,
			"width", f.Width,
			"height", f.Height,
			"palette", s.comp.PaletteIndex(),
		)
	}

	w, h := s.vp.Width(), s.vp.Height()
	buf := s.vp.Buffer()
	ps := s.vp.Particles()
	s.comp.RenderFrame(buf, w, h, ps, s.vp.Field(), compositor.Motion{
		Jitter: s.vp.Jitter(),
		Pull:   s.vp.Params().PullIntensity,
		Paused: s.paused.Load(),
	}, s.debug.Load())
	if s.present != nil {
		s.present(buf, w, h)
	}
	s.frames++
	s.total.Add(1)

	if now.Sub(s.lastSweep) >= s.opts.SweepInterval {
		n := ps.SweepFallen(w, h, s.opts.Slack)
		s.fallen += n
		s.lastSweep = now
		if n > 0 {
			s.logger.Debug("fallen particles respawned", "count", n)
		}
	}

	if window := now.Sub(s.lastStats); window >= s.opts.StatsInterval {
		s.emit(now, window)
	}
	return bound
}

func (s *Scheduler) emit(now time.Time, window time.Duration) {
	p := s.vp.Params()
	f := s.vp.Field()
	sample := telemetry.NewSample(now, s.frames, window)
	sample.Fallen = s.fallen
	sample.Particles = s.vp.Particles().Len()
	sample.Seed = p.Seed
	sample.ModeN, sample.ModeM = p.ModeN, p.ModeM
	sample.Width, sample.Height = s.vp.Width(), s.vp.Height()
	if f != nil {
		sample.Bound = true
		sample.FieldID = f.ID
	}
	if s.opts.Sink != nil {
		s.opts.Sink(sample)
	}
	s.last.Store(&sample)
	s.frames, s.fallen = 0, 0
	s.lastStats = now
}

// Run advances frames at the configured rate until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Advance(now)
		}
	}
}

// TogglePause stops or resumes particle motion. Frames keep rendering.
func (s *Scheduler) TogglePause() bool {
	for {
		v := s.paused.Load()
		if s.paused.CompareAndSwap(v, !v) {
			return !v
		}
	}
}

// ToggleDebug switches the vibration overlay.
func (s *Scheduler) ToggleDebug() bool {
	for {
		v := s.debug.Load()
		if s.debug.CompareAndSwap(v, !v) {
			return !v
		}
	}
}

func (s *Scheduler) Paused() bool { return s.paused.Load() }
func (s *Scheduler) Debug() bool  { return s.debug.Load() }

// Frames returns the number of frames rendered since creation.
func (s *Scheduler) Frames() uint64 { return s.total.Load() }

// Snapshot returns the last stats sample, if any.
func (s *Scheduler) Snapshot() (telemetry.Sample, bool) {
	p := s.last.Load()
	if p == nil {
		return telemetry.Sample{}, false
	}
	return *p, true
}
