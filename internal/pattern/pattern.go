// Package pattern derives the parameters of a Chladni pattern from its seed.
package pattern

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Parameter indices. Each keys an independent value for the same seed.
const (
	IndexParticles = iota
	IndexVibration
	IndexPull
	IndexModeN
	IndexModeM
)

// Unit returns a deterministic value in [0,1) for (index, seed).
func Unit(index int, seed int64) float64 {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[0:8], uint64(index))
	binary.LittleEndian.PutUint64(key[8:16], uint64(seed))
	h := fnv.New64a()
	h.Write(key[:])
	return float64(h.Sum64()>>11) / (1 << 53)
}

// Ranges bound the derived values.
type Ranges struct {
	MinParticles int
	MaxParticles int
	MinVibration float64
	MaxVibration float64
	MinPull      float64
	MaxPull      float64
	MaxMode      int
}

// DefaultRanges centers on a 10000 particle, intensity 4 plate.
func DefaultRanges() Ranges {
	return Ranges{
		MinParticles: 8000,
		MaxParticles: 16000,
		MinVibration: 2,
		MaxVibration: 6,
		MinPull:      0.5,
		MaxPull:      2,
		MaxMode:      8,
	}
}

// Params are the inputs of one pattern. They never change for a seed.
type Params struct {
	Seed               int64
	ParticleCount      int
	VibrationIntensity float64
	PullIntensity      float64
	ModeN              int
	ModeM              int
}

// Derive computes the parameters for seed. Mode numbers always differ so
// the plate function is never identically zero.
func Derive(seed int64, r Ranges) Params {
	p := Params{
		Seed:               seed,
		ParticleCount:      r.MinParticles + int(Unit(IndexParticles, seed)*float64(r.MaxParticles-r.MinParticles+1)),
		VibrationIntensity: lerp(r.MinVibration, r.MaxVibration, Unit(IndexVibration, seed)),
		PullIntensity:      lerp(r.MinPull, r.MaxPull, Unit(IndexPull, seed)),
	}
	if p.ParticleCount < 0 {
		p.ParticleCount = 0
	}
	if p.ParticleCount > r.MaxParticles && r.MaxParticles >= r.MinParticles {
		p.ParticleCount = r.MaxParticles
	}

	maxMode := r.MaxMode
	if maxMode < 2 {
		maxMode = 2
	}
	p.ModeN = 1 + int(Unit(IndexModeN, seed)*float64(maxMode))
	p.ModeM = 1 + int(Unit(IndexModeM, seed)*float64(maxMode-1))
	if p.ModeM >= p.ModeN {
		p.ModeM++
	}
	return p
}

// Scaled returns a copy with the particle count multiplied by factor.
func (p Params) Scaled(factor float64) Params {
	if factor <= 0 || factor == 1 {
		return p
	}
	p.ParticleCount = int(math.Round(float64(p.ParticleCount) * factor))
	return p
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
