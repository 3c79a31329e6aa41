// Package audio plays the plate tone on the default output device.
package audio

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/tone"
)

const BufferSize = 1024

// Player owns a portaudio output stream fed by a tone.Synth.
type Player struct {
	synth  *tone.Synth
	stream *portaudio.Stream
	logger *slog.Logger
	active bool
}

func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Player{synth: tone.NewSynth(), logger: logger}
}

// Start opens a stereo output-only stream.
func (p *Player) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, tone.SampleRate, BufferSize, p.synth.Fill)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("audio open: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("audio start: %w", err)
	}
	p.stream = stream
	p.active = true
	p.logger.Info("audio started", "sample_rate", tone.SampleRate, "buffer", BufferSize)
	return nil
}

func (p *Player) Stop() {
	if !p.active {
		return
	}
	p.stream.Stop()
	p.stream.Close()
	portaudio.Terminate()
	p.active = false
}

func (p *Player) Active() bool { return p.active }

// SetPattern retunes the tone for a new pattern.
func (p *Player) SetPattern(params pattern.Params) {
	p.synth.SetPattern(params)
	lo, hi := tone.Frequencies(params)
	p.logger.Debug("tone retuned", "lo", lo, "hi", hi)
}

func (p *Player) SetMuted(muted bool) { p.synth.SetMuted(muted) }
