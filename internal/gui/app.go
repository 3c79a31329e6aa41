// Package gui shows the plate in a resizable raylib window.
package gui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/wrjanan/chladni/internal/audio"
	"github.com/wrjanan/chladni/internal/config"
	"github.com/wrjanan/chladni/internal/engine"
	"github.com/wrjanan/chladni/internal/storage"
	"github.com/wrjanan/chladni/internal/telemetry"
)

var (
	ColPanel   = rl.NewColor(0, 0, 0, 160)
	ColText    = rl.NewColor(200, 200, 200, 255)
	ColTextDim = rl.NewColor(110, 110, 110, 255)
	ColAccent  = rl.NewColor(255, 148, 48, 255)
)

type Options struct {
	Store  *storage.Store
	Tone   bool
	Logger *slog.Logger
}

type App struct {
	eng    *engine.Engine
	store  *storage.Store
	player *audio.Player
	logger *slog.Logger

	plate    plateTexture
	fps      *telemetry.History
	showHUD  bool
	message  string
	messageT time.Time
	seed     int64
}

// Run opens the window and blocks until it is closed.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	a := &App{
		store:   opts.Store,
		logger:  opts.Logger,
		fps:     telemetry.NewHistory(120),
		showHUD: true,
	}

	eng, err := engine.New(cfg, engine.Options{
		Logger:   opts.Logger,
		Present:  a.plate.present,
		OnSample: func(s telemetry.Sample) { a.fps.Push(s.FPS) },
		CPU:      true,
	})
	if err != nil {
		return err
	}
	a.eng = eng

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Display.Width), int32(cfg.Display.Height), "chladni")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Display.FPS))
	rl.SetExitKey(0)
	defer a.plate.unload()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Shutdown()
	a.seed = eng.Params().Seed

	if opts.Tone {
		a.player = audio.NewPlayer(opts.Logger.With("component", "audio"))
		if err := a.player.Start(); err != nil {
			a.logger.Warn("tone disabled", "err", err)
			a.player = nil
		} else {
			defer a.player.Stop()
			a.player.SetPattern(eng.Params())
		}
	}

	a.loop(ctx)
	return nil
}

func (a *App) loop(ctx context.Context) {
	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			return
		}
		if !a.Update() {
			return
		}
		a.eng.Advance(time.Now())
		if p := a.eng.Params(); p.Seed != a.seed && a.player != nil {
			a.player.SetPattern(p)
		}
		a.seed = a.eng.Params().Seed
		a.Draw()
	}
}

// Update handles window and keyboard events. It returns false to quit.
func (a *App) Update() bool {
	if rl.IsWindowResized() {
		a.eng.NotifyResize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}
	switch {
	case rl.IsKeyPressed(rl.KeyQ), rl.IsKeyPressed(rl.KeyEscape):
		return false
	case rl.IsKeyPressed(rl.KeySpace):
		paused := a.eng.TogglePause()
		if a.player != nil {
			a.player.SetMuted(paused)
		}
	case rl.IsKeyPressed(rl.KeyD):
		a.eng.ToggleDebug()
	case rl.IsKeyPressed(rl.KeyN), rl.IsKeyPressed(rl.KeyRight):
		a.eng.NextSeed()
	case rl.IsKeyPressed(rl.KeyP), rl.IsKeyPressed(rl.KeyLeft):
		a.eng.PrevSeed()
	case rl.IsKeyPressed(rl.KeyR):
		a.eng.RandomSeed()
	case rl.IsKeyPressed(rl.KeyH):
		a.showHUD = !a.showHUD
	case rl.IsKeyPressed(rl.KeyS):
		a.save()
	}
	return true
}

func (a *App) save() {
	if a.store == nil {
		a.notify("no capture store")
		return
	}
	id, err := a.store.SaveFrame(a.eng.Params(), a.eng.Image(), a.eng.Field() != nil)
	if err != nil {
		a.logger.Error("capture failed", "err", err)
		a.notify("capture failed")
		return
	}
	a.notify("saved " + id)
}

func (a *App) notify(msg string) {
	a.message, a.messageT = msg, time.Now()
	a.logger.Info(msg)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	a.plate.draw()
	if a.showHUD {
		a.DrawHUD()
	}
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	st := a.eng.Status()
	p := st.Params
	rl.DrawRectangle(10, 10, 300, 150, ColPanel)

	rl.DrawText("chladni", 20, 18, 24, ColAccent)
	status, col := "RUNNING", ColText
	if st.Paused {
		status, col = "PAUSED", ColTextDim
	}
	rl.DrawText(status, 220, 24, 14, col)

	field := "computing"
	if st.Bound {
		field = fmt.Sprintf("#%d", a.eng.Field().ID)
	}
	lines := []string{
		fmt.Sprintf("seed %d   n=%d m=%d", p.Seed, p.ModeN, p.ModeM),
		fmt.Sprintf("particles %d   field %s", st.Particles, field),
		fmt.Sprintf("vibration %.2f   pull %.2f", st.Jitter, p.PullIntensity),
		fmt.Sprintf("%dx%d   %d FPS", st.Width, st.Height, rl.GetFPS()),
	}
	for i, l := range lines {
		rl.DrawText(l, 20, int32(52+i*18), 14, ColText)
	}
	a.DrawTelemetry(20, 128, 280, 24)

	if a.message != "" && time.Since(a.messageT) < 3*time.Second {
		rl.DrawText(a.message, 20, 170, 14, ColAccent)
	}
	rl.DrawText("[SPACE] PAUSE [D] OVERLAY [N/P/R] SEED [S] SAVE [H] HUD [Q] QUIT",
		10, int32(rl.GetScreenHeight()-24), 14, ColTextDim)
}

// DrawTelemetry plots the fps history as a line strip.
func (a *App) DrawTelemetry(x, y, width, height int) {
	values := a.fps.Values()
	if len(values) < 2 {
		return
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}
	points := make([]rl.Vector2, len(values))
	for i, v := range values {
		px := float32(x) + float32(i)/float32(len(values)-1)*float32(width)
		norm := (v - minVal) / (maxVal - minVal)
		py := float32(y+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColAccent)
}
