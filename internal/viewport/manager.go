// Package viewport owns the pixel buffer, the particle set and the field
// bound to them, and keeps all three sized to the current viewport.
package viewport

import (
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/particle"
	"github.com/wrjanan/chladni/internal/pattern"
)

// FieldSource computes fields off the render loop.
type FieldSource interface {
	Request(width, height int, p pattern.Params) uint64
	Results() <-chan *field.Field
}

// Options tune a Manager. Zero values take defaults.
type Options struct {
	Debounce      time.Duration
	Ranges        pattern.Ranges
	ParticleScale float64
	Logger        *slog.Logger
	Rand          *rand.Rand
}

type size struct{ w, h int }

// Manager is driven from the render loop. NotifyResize and Field are the
// only methods safe to call from other goroutines.
type Manager struct {
	src    FieldSource
	ranges pattern.Ranges
	scale  float64
	logger *slog.Logger

	width, height int
	buf           []uint32
	particles     *particle.Set
	params        pattern.Params
	jitter        float64
	latest        uint64
	rebuilds      int

	current  atomic.Pointer[field.Field]
	debounce *Debouncer
	pending  chan size
}

// New creates a manager with an empty viewport for seed. Call Resize once
// the real dimensions are known.
func New(src FieldSource, seed int64, opts Options) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Ranges == (pattern.Ranges{}) {
		opts.Ranges = pattern.DefaultRanges()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Manager{
		src:      src,
		ranges:   opts.Ranges,
		scale:    opts.ParticleScale,
		logger:   opts.Logger,
		debounce: NewDebouncer(opts.Debounce),
		pending:  make(chan size, 1),
	}
	m.params = pattern.Derive(seed, m.ranges).Scaled(m.scale)
	m.jitter = m.params.VibrationIntensity
	m.particles = particle.New(m.params.ParticleCount, opts.Rand)
	return m
}

// Resize reallocates the buffer, rescatters the particles and requests a
// field for the new dimensions. The previously bound field is dropped.
func (m *Manager) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m.width, m.height = width, height
	m.buf = make([]uint32, width*height)
	m.particles.Scatter(width, height)
	m.current.Store(nil)
	m.rebuilds++
	m.request()
	m.logger.Info("viewport resized", "width", width, "height", height, "request", m.latest)
}

// NotifyResize records a resize event. Bursts collapse into one Resize
// with the last dimensions, applied by Poll after the debounce window.
func (m *Manager) NotifyResize(width, height int) {
	m.debounce.Set(func() {
		sz := size{width, height}
		for {
			select {
			case m.pending <- sz:
				return
			default:
			}
			select {
			case <-m.pending:
			default:
			}
		}
	})
}

// ChangeSeed derives new parameters, reinitializes the particles and
// requests a field for the current dimensions.
func (m *Manager) ChangeSeed(seed int64) {
	m.params = pattern.Derive(seed, m.ranges).Scaled(m.scale)
	m.jitter = m.params.VibrationIntensity
	m.particles.Initialize(m.params.ParticleCount)
	m.particles.Scatter(m.width, m.height)
	m.current.Store(nil)
	m.request()
	m.logger.Info("seed changed",
		"seed", seed,
		"particles", m.params.ParticleCount,
		"n", m.params.ModeN,
		"m", m.params.ModeM,
		"request", m.latest,
	)
}

func (m *Manager) request() {
	m.latest = m.src.Request(m.width, m.height, m.params)
}

// Poll applies a pending debounced resize and binds at most one field
// result. It reports whether a new field with gradients was bound.
func (m *Manager) Poll() bool {
	select {
	case sz := <-m.pending:
		m.Resize(sz.w, sz.h)
	default:
	}

	select {
	case f := <-m.src.Results():
		return m.bind(f)
	default:
		return false
	}
}

func (m *Manager) bind(f *field.Field) bool {
	if f == nil {
		return false
	}
	if f.ID != m.latest || !f.Matches(m.width, m.height) {
		m.logger.Debug("stale field dropped",
			"id", f.ID,
			"latest", m.latest,
			"width", f.Width,
			"height", f.Height,
		)
		return false
	}
	m.jitter = f.VibrationIntensity
	if !f.HasGradients() {
		m.current.Store(nil)
		return false
	}
	m.current.Store(f)
	return true
}

// Shutdown cancels any pending resize.
func (m *Manager) Shutdown() { m.debounce.Stop() }

func (m *Manager) Width() int  { return m.width }
func (m *Manager) Height() int { return m.height }

// Buffer returns the packed frame buffer, width*height words.
func (m *Manager) Buffer() []uint32 { return m.buf }

func (m *Manager) Particles() *particle.Set { return m.particles }
func (m *Manager) Params() pattern.Params   { return m.params }

// Jitter is the vibration intensity particles currently move with: the
// seed's raw intensity until a field arrives, then the field's derived one.
func (m *Manager) Jitter() float64 { return m.jitter }

// Field returns the bound field, or nil.
func (m *Manager) Field() *field.Field { return m.current.Load() }

// Latest returns the id of the field the manager is waiting for.
func (m *Manager) Latest() uint64 { return m.latest }

// Rebuilds counts buffer reallocations.
func (m *Manager) Rebuilds() int { return m.rebuilds }
