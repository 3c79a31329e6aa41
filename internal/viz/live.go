package viz

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/wrjanan/chladni/internal/analysis"
	"github.com/wrjanan/chladni/internal/compositor"
	"github.com/wrjanan/chladni/internal/engine"
	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/storage"
	"github.com/wrjanan/chladni/internal/telemetry"
)

const (
	historyCapacity = 60
	messageTTL      = 3 * time.Second
)

type TickMsg time.Time

// Tone follows the current pattern with sound.
type Tone interface {
	SetPattern(p pattern.Params)
	SetMuted(muted bool)
}

type Options struct {
	Store   *storage.Store
	Tone    Tone
	Theme   string
	Braille bool
	Logger  *slog.Logger
}

// Model drives the engine from Bubble Tea ticks, so the render loop runs
// on the program goroutine.
type Model struct {
	eng    *engine.Engine
	store  *storage.Store
	tone   Tone
	logger *slog.Logger

	colors compositor.Colors
	theme  Theme
	st     styles
	blocks *blockRenderer
	canvas *Canvas

	braille    bool
	cols, rows int
	sized      bool
	showHelp   bool

	fps        *telemetry.History
	cpu        *telemetry.History
	lastSample int64
	settled    float64
	seed       int64

	recorder  *GIFRecorder
	message   string
	messageAt time.Time
}

// NewModel wraps a started engine.
func NewModel(eng *engine.Engine, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		eng:     eng,
		store:   opts.Store,
		tone:    opts.Tone,
		logger:  opts.Logger,
		colors:  eng.Colors(),
		theme:   theme,
		st:      newStyles(theme),
		blocks:  newBlockRenderer(eng.Codec()),
		canvas:  NewCanvas(0, 0),
		braille: opts.Braille,
		fps:     telemetry.NewHistory(historyCapacity),
		cpu:     telemetry.NewHistory(historyCapacity),
		seed:    eng.Params().Seed,
	}
	if m.tone != nil {
		m.tone.SetPattern(eng.Params())
	}
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.eng.Config().FrameInterval(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// plateSize returns the plate size in pixels for the current terminal.
func (m Model) plateSize() (w, h int) {
	cols := m.cols - panelWidth
	rows := m.rows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if m.braille {
		return cols * 2, rows * 4
	}
	return cols, rows * 2
}

func (m *Model) resize(immediate bool) {
	w, h := m.plateSize()
	if m.braille {
		m.canvas.Resize(w/2, h/4)
	}
	if immediate {
		m.eng.Resize(w, h)
	} else {
		m.eng.NotifyResize(w, h)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.resize(!m.sized)
		m.sized = true
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case " ":
			paused := m.eng.TogglePause()
			if m.tone != nil {
				m.tone.SetMuted(paused)
			}
		case "d":
			m.eng.ToggleDebug()
		case "n":
			m.eng.NextSeed()
		case "p":
			m.eng.PrevSeed()
		case "r":
			m.eng.RandomSeed()
		case "b":
			m.braille = !m.braille
			m.resize(true)
		case "s":
			m.saveFrame()
		case "g":
			if m.recorder != nil {
				m.stopRecording()
			} else {
				m.recorder = NewGIFRecorder(m.colors, m.eng.Config().Display.FPS)
				m.notify("recording")
			}
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.eng.Advance(time.Time(msg))
		m.afterFrame()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) afterFrame() {
	if p := m.eng.Params(); p.Seed != m.seed {
		m.seed = p.Seed
		if m.tone != nil {
			m.tone.SetPattern(p)
		}
	}
	st := m.eng.Status()
	if st.HasSample && st.Sample.UnixMilli != m.lastSample {
		m.lastSample = st.Sample.UnixMilli
		m.fps.Push(st.Sample.FPS)
		m.cpu.Push(st.Sample.CPU)
		m.settled = analysis.Settledness(m.eng.Particles(), m.eng.Field())
	}
	if m.recorder != nil && !m.recorder.Add(m.eng.Image()) {
		m.stopRecording()
	}
}

func (m *Model) notify(msg string) {
	m.message = msg
	m.messageAt = time.Now()
	m.logger.Info(msg)
}

func (m *Model) saveFrame() {
	if m.store == nil {
		m.notify("no capture store")
		return
	}
	id, err := m.store.SaveFrame(m.eng.Params(), m.eng.Image(), m.eng.Field() != nil)
	if err != nil {
		m.logger.Error("capture failed", "err", err)
		m.notify("capture failed")
		return
	}
	m.notify("saved " + id)
}

func (m *Model) stopRecording() {
	rec := m.recorder
	m.recorder = nil
	if rec == nil || rec.Len() == 0 {
		return
	}
	if m.store == nil {
		m.notify("no capture store")
		return
	}
	id, err := m.store.SaveAnimation(m.eng.Params(), rec.Animation())
	if err != nil {
		m.logger.Error("gif save failed", "err", err)
		m.notify("gif save failed")
		return
	}
	m.notify(fmt.Sprintf("saved %s (%d frames)", id, rec.Len()))
}

func (m Model) plate() string {
	buf, w, h := m.eng.Frame()
	if m.braille {
		m.canvas.Plot(buf, w, h, m.eng.Codec().PackRGB(m.colors.Background))
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.eng.Codec().UnpackRGB(m.eng.ParticleColor()).Hex())).
			Render(m.canvas.String())
	}
	return m.blocks.Render(buf, w, h)
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

func (m Model) panel() string {
	st := m.eng.Status()
	p := st.Params
	var s strings.Builder

	s.WriteString(m.st.header.Render("CHLADNI PLATE") + "\n")
	status := m.st.running.Render("RUNNING")
	if st.Paused {
		status = m.st.paused.Render("PAUSED")
	}
	if st.Debug {
		status += m.st.value.Render("  overlay")
	}
	if m.recorder != nil {
		status += "  " + m.st.recording.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	}
	s.WriteString(status + "\n\n")

	s.WriteString(m.row("Seed", fmt.Sprintf("%d", p.Seed)))
	s.WriteString(m.row("Modes", fmt.Sprintf("n=%d m=%d", p.ModeN, p.ModeM)))
	s.WriteString(m.row("Particles", fmt.Sprintf("%d", st.Particles)))
	s.WriteString(m.row("Vibration", fmt.Sprintf("%.2f (raw %.2f)", st.Jitter, p.VibrationIntensity)))
	s.WriteString(m.row("Pull", fmt.Sprintf("%.2f", p.PullIntensity)))
	s.WriteString(m.row("Plate", fmt.Sprintf("%dx%d", st.Width, st.Height)))
	if st.Bound {
		s.WriteString(m.row("Field", fmt.Sprintf("#%d", m.eng.Field().ID)))
	} else {
		s.WriteString(m.row("Field", "computing"))
	}
	color := m.eng.Codec().UnpackRGB(m.eng.ParticleColor()).Hex()
	s.WriteString(m.row("Color", swatch(color)+" "+color))

	if st.HasSample {
		s.WriteString(m.row("FPS", fmt.Sprintf("%.1f", st.Sample.FPS)))
		s.WriteString(m.row("Fallen", fmt.Sprintf("%d", st.Sample.Fallen)))
		if m.cpu.Last() > 0 {
			s.WriteString(m.row("CPU", fmt.Sprintf("%.0f%%", m.cpu.Last())))
		}
	}
	if m.fps.Len() > 1 {
		chart := asciigraph.Plot(m.fps.Values(),
			asciigraph.Height(4),
			asciigraph.Width(panelWidth-12),
			asciigraph.Caption("fps"))
		s.WriteString("\n" + m.st.graph.Render(chart) + "\n")
	}
	if st.Bound {
		formed := 1 - m.settled
		s.WriteString("\n" + m.st.label.Render("Formed") + m.st.progressBar(formed, 14) + "\n")
	}

	if m.message != "" && time.Since(m.messageAt) < messageTTL {
		s.WriteString("\n" + m.st.value.Render(m.message) + "\n")
	}
	s.WriteString(m.st.help.Render("SP:Pause D:Overlay N/P:Seed\nR:Random S:Save G:GIF ?:Help Q:Quit"))
	return m.st.panel.Render(s.String())
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume particles   ║
║  D        - Vibration overlay        ║
║  N / P    - Next / previous seed     ║
║  R        - Random seed              ║
║  B        - Braille mode             ║
║  S        - Save PNG capture         ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle panel themes       ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`

func (m Model) View() string {
	if !m.sized {
		return "sizing plate..."
	}
	if m.showHelp {
		return helpText
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.plate(), m.panel())
}
