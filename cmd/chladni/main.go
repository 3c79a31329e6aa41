package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wrjanan/chladni/internal/config"
	"github.com/wrjanan/chladni/internal/storage"
	"github.com/wrjanan/chladni/internal/telemetry"
)

var (
	configFile   string
	preset       string
	palette      string
	seed         int64
	width        int
	height       int
	fps          int
	workers      int
	logFile      string
	verbose      bool
	telemetryDir string
	capturesDir  string
	playTone     bool
	// Terminal UI
	theme   string
	braille bool
	// Headless render
	frames  int
	gifOut  bool
	svgOut  bool
	timeout int
	// Field chart
	profileSVG string
)

// main registers the commands and runs the terminal UI when no subcommand
// is given.
func main() {
	rootCmd := &cobra.Command{
		Use:          "chladni",
		Short:        "chladni plate particle simulation",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&palette, "palette", "", "color palette")
	pf.Int64Var(&seed, "seed", 0, "pattern seed")
	pf.IntVar(&width, "width", config.DefaultWidth, "plate width in pixels")
	pf.IntVar(&height, "height", config.DefaultHeight, "plate height in pixels")
	pf.IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	pf.IntVar(&workers, "workers", 0, "field workers (0 = one per CPU)")
	pf.StringVar(&logFile, "log", "", "write JSON logs to file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&telemetryDir, "telemetry", "", "record telemetry CSV into directory")
	pf.StringVar(&capturesDir, "captures", ".chladni", "capture directory")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "run in the terminal",
		RunE:  runTUI,
	}
	for _, c := range []*cobra.Command{rootCmd, tuiCmd} {
		c.Flags().StringVar(&theme, "theme", "sand", "panel theme")
		c.Flags().BoolVar(&braille, "braille", false, "braille plate instead of half blocks")
		c.Flags().BoolVar(&playTone, "tone", false, "play the plate tone")
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run in a window",
		RunE:  runGUI,
	}
	guiCmd.Flags().BoolVar(&playTone, "tone", false, "play the plate tone")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render frames headless and save a capture",
		RunE:  runRender,
	}
	renderCmd.Flags().IntVar(&frames, "frames", 180, "frames to render after the field binds")
	renderCmd.Flags().BoolVar(&gifOut, "gif", false, "save every frame as a GIF")
	renderCmd.Flags().BoolVar(&svgOut, "svg", false, "also save the particles as frame.svg")
	renderCmd.Flags().IntVar(&timeout, "timeout", 30, "seconds to wait for the field")

	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "compute a vibration field and chart it",
		RunE:  showField,
	}
	fieldCmd.Flags().StringVar(&profileSVG, "svg", "", "write the row profile as svg")

	paramsCmd := &cobra.Command{
		Use:   "params [seed...]",
		Short: "show derived parameters",
		RunE:  showParams,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets and palettes",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s particles %d-%d  modes <=%d  %dfps\n",
					name, p.Particles.Min, p.Particles.Max, p.Pattern.MaxMode, p.Display.FPS)
			}
			fmt.Println("palettes:")
			for _, name := range config.ListPalettes() {
				p := config.Palettes[name]
				fmt.Printf("  %-10s %s\n", name, strings.Join(p.Colors, " "))
			}
		},
	}

	capturesCmd := &cobra.Command{
		Use:   "captures",
		Short: "list saved captures",
		RunE:  listCaptures,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark field computation and frame rendering",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&frames, "frames", 300, "frames per size")

	statsCmd := &cobra.Command{
		Use:   "stats [telemetry.csv]",
		Short: "chart recorded telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  showStats,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(tuiCmd, guiCmd, renderCmd, fieldCmd, paramsCmd,
		presetsCmd, capturesCmd, benchCmd, statsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the config file or preset, then applies the flags
// the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if palette != "" && !cfg.ApplyPalette(palette) {
		return nil, fmt.Errorf("unknown palette %q (have %s)", palette, strings.Join(config.ListPalettes(), ", "))
	}
	if flags.Changed("seed") {
		cfg.Pattern.Seed = seed
	}
	if flags.Changed("width") {
		cfg.Display.Width = width
	}
	if flags.Changed("height") {
		cfg.Display.Height = height
	}
	if flags.Changed("fps") {
		cfg.Display.FPS = fps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a JSON logger on --log, otherwise fallback. The
// returned closer is never nil.
func newLogger(fallback io.Writer) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		return slog.New(slog.NewJSONHandler(f, opts)), f.Close, nil
	}
	if fallback == nil {
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}
	return slog.New(slog.NewTextHandler(fallback, opts)), func() error { return nil }, nil
}

func openRecorder() (*telemetry.Recorder, error) {
	if telemetryDir == "" {
		return nil, nil
	}
	return telemetry.CreateRecorder(telemetryDir)
}

func openStore() (*storage.Store, error) {
	st := storage.New(capturesDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
