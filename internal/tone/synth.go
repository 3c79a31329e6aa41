// Package tone synthesizes the hum of a vibrating plate.
package tone

import (
	"math"
	"sync"

	"github.com/wrjanan/chladni/internal/pattern"
)

const (
	SampleRate = 44100
	BaseFreq   = 55.0
	MaxFreq    = 1760.0
)

// Frequencies returns the two partials for a pattern. Pitch grows with
// sqrt(n²+m²); the upper partial is a fifth above the lower.
func Frequencies(p pattern.Params) (lo, hi float64) {
	n, m := float64(p.ModeN), float64(p.ModeM)
	lo = BaseFreq * math.Sqrt((n*n+m*m)/2)
	if lo > MaxFreq {
		lo = MaxFreq
	}
	return lo, lo * 1.5
}

// Synth is a stereo two-partial triangle pad with a one-pole low pass and
// a short ping-pong delay. Fill runs on the audio thread; the setters may
// be called from any goroutine.
type Synth struct {
	mu       sync.Mutex
	targetLo float64
	targetHi float64
	level    float64
	muted    bool

	lo, hi float64
	gain   float64
	// phase[channel][partial] in [0,1)
	phase   [2][2]float64
	filter  [2]float64
	delay   [2][]float64
	head    int
	started bool
}

func NewSynth() *Synth {
	n := SampleRate * 35 / 100
	return &Synth{
		level: 0.25,
		delay: [2][]float64{make([]float64, n), make([]float64, n)},
	}
}

// SetPattern retunes the synth. The pitch glides to the new partials.
func (s *Synth) SetPattern(p pattern.Params) {
	lo, hi := Frequencies(p)
	s.mu.Lock()
	s.targetLo, s.targetHi = lo, hi
	s.mu.Unlock()
}

// SetMuted fades the output to silence or back.
func (s *Synth) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
}

// stereoDetune spreads the left and right oscillators slightly apart.
var stereoDetune = [2]float64{0.999, 1.001}

func wrap(phase float64) float64 { return phase - math.Floor(phase) }

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4.0*math.Abs(p-0.5) - 1.0
}

func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// Fill writes len(out[0]) frames into the left and right channels.
func (s *Synth) Fill(out [][]float32) {
	s.mu.Lock()
	tLo, tHi, level, muted := s.targetLo, s.targetHi, s.level, s.muted
	s.mu.Unlock()

	if !s.started && tLo > 0 {
		s.lo, s.hi = tLo, tHi
		s.started = true
	}
	target := level
	if muted || tLo == 0 {
		target = 0
	}

	dt := 1.0 / float64(SampleRate)
	cutoff := 4 * math.Max(s.hi, BaseFreq)
	for i := range out[0] {
		s.lo += (tLo - s.lo) * 0.0005
		s.hi += (tHi - s.hi) * 0.0005
		s.gain += (target - s.gain) * 0.0005

		for ch, detune := range stereoDetune {
			s.phase[ch][0] = wrap(s.phase[ch][0] + s.lo*detune*dt)
			s.phase[ch][1] = wrap(s.phase[ch][1] + s.hi*detune*dt)
		}
		l := 0.6*triangle(s.phase[0][0]) + 0.4*triangle(s.phase[0][1])
		r := 0.6*triangle(s.phase[1][0]) + 0.4*triangle(s.phase[1][1])
		s.filter[0] = lpf(l, cutoff, dt, s.filter[0])
		s.filter[1] = lpf(r, cutoff, dt, s.filter[1])

		dl, dr := s.delay[0][s.head], s.delay[1][s.head]
		mixL := s.filter[0] + dl*0.25 + dr*0.1
		mixR := s.filter[1] + dr*0.25 + dl*0.1
		s.delay[0][s.head] = mixL * 0.5
		s.delay[1][s.head] = mixR * 0.5
		s.head = (s.head + 1) % len(s.delay[0])

		out[0][i] = float32(clamp(mixL * s.gain))
		if len(out) > 1 {
			out[1][i] = float32(clamp(mixR * s.gain))
		}
	}
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
