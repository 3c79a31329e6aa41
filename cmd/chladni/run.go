package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/wrjanan/chladni/internal/audio"
	"github.com/wrjanan/chladni/internal/config"
	"github.com/wrjanan/chladni/internal/engine"
	"github.com/wrjanan/chladni/internal/export"
	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/gui"
	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/viz"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The terminal belongs to Bubble Tea; only --log gets output.
	logger, closeLog, err := newLogger(nil)
	if err != nil {
		return err
	}
	defer closeLog()

	rec, err := openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	st, err := openStore()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, engine.Options{
		Logger:   logger,
		Recorder: rec,
		CPU:      true,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Shutdown()

	opts := viz.Options{
		Store:   st,
		Theme:   theme,
		Braille: braille,
		Logger:  logger.With("component", "tui"),
	}
	if playTone {
		player := audio.NewPlayer(logger.With("component", "audio"))
		if err := player.Start(); err != nil {
			logger.Warn("tone disabled", "err", err)
		} else {
			defer player.Stop()
			opts.Tone = player
		}
	}

	p := tea.NewProgram(viz.NewModel(eng, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return gui.Run(ctx, cfg, gui.Options{
		Store:  st,
		Tone:   playTone,
		Logger: logger,
	})
}

// runRender drives the engine without a surface: it waits for the field,
// renders the requested frames and stores the last one, or all of them.
func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Display.Width == 0 || cfg.Display.Height == 0 {
		return fmt.Errorf("%w: render needs a non-empty plate", config.ErrInvalid)
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	rec, err := openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	st, err := openStore()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, engine.Options{Logger: logger, Recorder: rec})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Shutdown()

	start := time.Now()
	if err := eng.AwaitField(ctx, time.Duration(timeout)*time.Second); err != nil {
		return err
	}
	logger.Info("field bound", "after", time.Since(start).Round(time.Millisecond))

	var anim *viz.GIFRecorder
	if gifOut {
		colors, err := cfg.Colors()
		if err != nil {
			return err
		}
		anim = viz.NewGIFRecorder(colors, cfg.Display.FPS)
	}

	// Simulated clock so sweeps and stats follow the frame count, not
	// wall time.
	now := time.Now()
	interval := cfg.FrameInterval()
	for i := 0; i < frames; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		now = now.Add(interval)
		eng.Advance(now)
		if anim != nil && !anim.Add(eng.Image()) {
			logger.Warn("gif frame limit reached", "frames", anim.Len())
			break
		}
	}

	status := eng.Status()
	var id string
	if anim != nil {
		id, err = st.SaveAnimation(status.Params, anim.Animation())
	} else {
		id, err = st.SaveFrame(status.Params, eng.Image(), status.Bound)
	}
	if err != nil {
		return err
	}
	if svgOut {
		fg := eng.Codec().UnpackRGB(eng.ParticleColor())
		colors, err := cfg.Colors()
		if err != nil {
			return err
		}
		svg := export.ParticlesSVG(eng.Particles(), status.Width, status.Height, colors.Background, fg, 1)
		if err := st.Attach(id, "frame.svg", []byte(svg)); err != nil {
			return err
		}
	}
	fmt.Printf("saved %s (seed %d, %dx%d, %d frames)\n", id, status.Params.Seed, status.Width, status.Height, status.Frames)
	return nil
}

var benchSizes = [][2]int{{320, 240}, {800, 600}, {1280, 720}, {1920, 1080}}

// runBench times one field computation and a run of frames per size.
func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := pattern.Derive(cfg.Pattern.Seed, cfg.Ranges()).Scaled(cfg.Particles.Scale)
	fmt.Printf("benchmarking seed %d: %d particles, modes (%d,%d)\n\n",
		p.Seed, p.ParticleCount, p.ModeN, p.ModeM)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tFIELD\tFRAMES\tTIME\tFRAMES/SEC")

	for _, sz := range benchSizes {
		start := time.Now()
		field.Compute(sz[0], sz[1], p, cfg.Workers)
		fieldTime := time.Since(start)

		c := *cfg
		c.Display.Width, c.Display.Height = sz[0], sz[1]
		eng, err := engine.New(&c, engine.Options{Logger: slog.New(slog.DiscardHandler)})
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		if err := eng.Start(ctx); err != nil {
			cancel()
			return err
		}
		if err := eng.AwaitField(ctx, time.Minute); err != nil {
			eng.Shutdown()
			cancel()
			return err
		}

		now := time.Now()
		start = now
		for i := 0; i < frames; i++ {
			now = now.Add(c.FrameInterval())
			eng.Advance(now)
		}
		elapsed := time.Since(start)
		eng.Shutdown()
		cancel()

		fmt.Fprintf(w, "%dx%d\t%v\t%d\t%v\t%.0f\n",
			sz[0], sz[1], fieldTime.Round(time.Microsecond), frames,
			elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	}
	return w.Flush()
}
