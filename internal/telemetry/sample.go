// Package telemetry aggregates per-second render statistics.
package telemetry

import (
	"log/slog"
	"time"
)

// Sample is one stats window of the render loop.
type Sample struct {
	At        time.Time `csv:"-"`
	UnixMilli int64     `csv:"unix_ms"`
	Frames    int       `csv:"frames"`
	FPS       float64   `csv:"fps"`
	Fallen    int       `csv:"fallen"`
	Particles int       `csv:"particles"`
	Seed      int64     `csv:"seed"`
	ModeN     int       `csv:"mode_n"`
	ModeM     int       `csv:"mode_m"`
	Width     int       `csv:"width"`
	Height    int       `csv:"height"`
	Bound     bool      `csv:"bound"`
	FieldID   uint64    `csv:"field_id"`
	CPU       float64   `csv:"cpu_percent"`
}

// NewSample fills the time columns for a window of frames ending at now.
func NewSample(now time.Time, frames int, window time.Duration) Sample {
	s := Sample{At: now, UnixMilli: now.UnixMilli(), Frames: frames}
	if window > 0 {
		s.FPS = float64(frames) / window.Seconds()
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s Sample) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frames", s.Frames),
		slog.Float64("fps", s.FPS),
		slog.Int("fallen", s.Fallen),
		slog.Int("particles", s.Particles),
		slog.Int64("seed", s.Seed),
		slog.Bool("bound", s.Bound),
		slog.Float64("cpu", s.CPU),
	)
}

// Sink receives samples.
type Sink func(Sample)
