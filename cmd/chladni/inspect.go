package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/wrjanan/chladni/internal/analysis"
	"github.com/wrjanan/chladni/internal/config"
	"github.com/wrjanan/chladni/internal/export"
	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/telemetry"
	"github.com/wrjanan/chladni/internal/tone"
)

// nodalThreshold is the share of the intensity below which a pixel
// counts as nodal.
const nodalThreshold = 0.05

func showField(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w, h := cfg.Display.Width, cfg.Display.Height
	p := pattern.Derive(cfg.Pattern.Seed, cfg.Ranges()).Scaled(cfg.Particles.Scale)

	start := time.Now()
	f := field.Compute(w, h, p, cfg.Workers)
	elapsed := time.Since(start)
	if !f.HasVibration() {
		return fmt.Errorf("empty field for %dx%d", w, h)
	}

	fmt.Printf("seed %d  modes (%d,%d)  %dx%d  computed in %v\n",
		p.Seed, p.ModeN, p.ModeM, w, h, elapsed.Round(time.Microsecond))
	fmt.Printf("intensity %.3f  mean vibration %.3f  nodal %.1f%%\n\n",
		f.VibrationIntensity, f.MeanVibration(), 100*analysis.NodalFraction(f, nodalThreshold))

	row := h / 2
	profile := analysis.RowProfile(f, row)
	fmt.Println(asciigraph.Plot(profile,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("vibration along row %d", row)),
	))
	fmt.Println()
	if profileSVG != "" {
		if err := os.WriteFile(profileSVG, []byte(export.ProfileToSVG(profile, 800, 240, cfg.Palette.NonResonant)), 0644); err != nil {
			return err
		}
	}

	spectrum := analysis.PowerSpectrum(profile)
	if len(spectrum) > 1 {
		// Low bins carry the nodal structure.
		if len(spectrum) > 64 {
			spectrum = spectrum[:64]
		}
		fmt.Println(asciigraph.Plot(spectrum,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("power spectrum"),
		))
		fmt.Printf("\ndominant spatial frequency: bin %d\n", analysis.DominantBin(spectrum))
	}
	return nil
}

func showParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	seeds := []int64{cfg.Pattern.Seed}
	if len(args) > 0 {
		seeds = seeds[:0]
		for _, a := range args {
			s, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed %q: %w", a, err)
			}
			seeds = append(seeds, s)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tPARTICLES\tVIBRATION\tDERIVED\tPULL\tMODES\tTONE")
	for _, s := range seeds {
		p := pattern.Derive(s, cfg.Ranges()).Scaled(cfg.Particles.Scale)
		lo, hi := tone.Frequencies(p)
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\t%.3f\t(%d,%d)\t%.0f/%.0f Hz\n",
			p.Seed, p.ParticleCount, p.VibrationIntensity, field.DerivedIntensity(p),
			p.PullIntensity, p.ModeN, p.ModeM, lo, hi)
	}
	return w.Flush()
}

func listCaptures(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	caps, err := st.List()
	if err != nil {
		return err
	}
	if len(caps) == 0 {
		fmt.Println("no captures found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSEED\tSIZE\tMODES\tFRAMES")
	for _, c := range caps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dx%d\t(%d,%d)\t%d\n",
			c.ID,
			c.Kind,
			c.Timestamp.Format("2006-01-02 15:04:05"),
			c.Seed,
			c.Width, c.Height,
			c.ModeN, c.ModeM,
			c.Frames,
		)
	}
	return w.Flush()
}

// showStats charts a telemetry CSV written with --telemetry.
func showStats(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := telemetry.ReadSamples(f)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Println("no samples")
		return nil
	}

	fpsSeries := make([]float64, len(samples))
	total, fallen := 0, 0
	for i, s := range samples {
		fpsSeries[i] = s.FPS
		total += s.Frames
		fallen += s.Fallen
	}
	fmt.Println(asciigraph.Plot(fpsSeries,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption("frames per second"),
	))
	last := samples[len(samples)-1]
	fmt.Printf("\n%d samples, %d frames, %d particles swept, last seed %d\n",
		len(samples), total, fallen, last.Seed)
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "chladni.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
