// Package particle holds the sand grains of the plate.
package particle

import (
	"math"
	"math/rand"

	"github.com/wrjanan/chladni/internal/field"
)

// Set stores particle positions as a flat [x0, y0, x1, y1, ...] slice.
// Particles have no identity beyond their slot and are respawned in place.
// A Set is owned by the render loop and is not safe for concurrent use.
type Set struct {
	pos []float64
	rng *rand.Rand
}

// New creates a set of count particles, all at the origin until scattered.
func New(count int, rng *rand.Rand) *Set {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	s := &Set{rng: rng}
	s.Initialize(count)
	return s
}

// Initialize reallocates the set for count particles.
func (s *Set) Initialize(count int) {
	if count < 0 {
		count = 0
	}
	s.pos = make([]float64, count*2)
}

// Len returns the number of particles.
func (s *Set) Len() int { return len(s.pos) / 2 }

// At returns the position of particle i.
func (s *Set) At(i int) (x, y float64) { return s.pos[2*i], s.pos[2*i+1] }

// Place moves particle i to (x, y).
func (s *Set) Place(i int, x, y float64) {
	s.pos[2*i] = x
	s.pos[2*i+1] = y
}

// Positions exposes the backing slice for read-only iteration.
func (s *Set) Positions() []float64 { return s.pos }

// Scatter places every particle uniformly in [0,width) × [0,height).
func (s *Set) Scatter(width, height int) {
	for i := 0; i < len(s.pos); i += 2 {
		s.respawn(i, width, height)
	}
}

func (s *Set) respawn(i, width, height int) {
	s.pos[i] = s.rng.Float64() * float64(width)
	s.pos[i+1] = s.rng.Float64() * float64(height)
}

// Step advances every particle once. With a field, the particle first
// moves by pull times the gradient at its nearest pixel, then each axis
// gets independent uniform jitter in [-jitter/2, +jitter/2]. Step does not
// allocate.
func (s *Set) Step(jitter float64, f *field.Field, pull float64) {
	half := jitter / 2
	usePull := f.HasGradients() && pull != 0
	for i := 0; i < len(s.pos); i += 2 {
		x, y := s.pos[i], s.pos[i+1]
		if usePull {
			if gx, gy, ok := f.GradientAt(Round(x), Round(y)); ok {
				x += pull * float64(gx)
				y += pull * float64(gy)
			}
		}
		if jitter != 0 {
			x += s.rng.Float64()*jitter - half
			y += s.rng.Float64()*jitter - half
		}
		s.pos[i], s.pos[i+1] = x, y
	}
}

// SweepFallen respawns every particle outside
// [-slack, width+slack) × [-slack, height+slack) and returns how many fell.
func (s *Set) SweepFallen(width, height int, slack float64) int {
	minX, minY := -slack, -slack
	maxX, maxY := float64(width)+slack, float64(height)+slack
	fallen := 0
	for i := 0; i < len(s.pos); i += 2 {
		x, y := s.pos[i], s.pos[i+1]
		if x < minX || x >= maxX || y < minY || y >= maxY || math.IsNaN(x) || math.IsNaN(y) {
			s.respawn(i, width, height)
			fallen++
		}
	}
	return fallen
}

// Round maps a coordinate to its nearest pixel, halves rounding up.
func Round(v float64) int { return int(math.Floor(v + 0.5)) }
