package ui

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/kwami-ai/kwavatar/internal/bands"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/crystal"
	"github.com/kwami-ai/kwavatar/internal/engine"
	"github.com/kwami-ai/kwavatar/internal/mesh"
	"github.com/kwami-ai/kwavatar/internal/renderer"
)

// Shape selects which variant the live session displays.
type Shape int

const (
	ShapeSphere Shape = iota
	ShapeCrystal
)

// ParseShape maps a CLI name to a shape, defaulting to the sphere.
func ParseShape(s string) Shape {
	if s == "crystal" {
		return ShapeCrystal
	}
	return ShapeSphere
}

// LiveConfig configures an interactive session.
type LiveConfig struct {
	Source    engine.FrequencySource
	Frame     *renderer.Frame
	Shape     Shape
	Pattern   crystal.Pattern
	Seed      int64
	FPS       int
	NoPreview bool
}

type frameTickMsg time.Time

type liveModel struct {
	cfg LiveConfig

	avatar    *engine.Avatar
	formation *crystal.Formation
	rng       *rand.Rand

	freq      []byte
	shape     Shape
	listening bool
	rotation  float64
	lastTick  time.Time

	bands    [4]float64
	spectrum string
	preview  string
	status   string
}

// RunLive starts the interactive session and blocks until it quits.
func RunLive(cfg LiveConfig) error {
	p := tea.NewProgram(newLiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newLiveModel(cfg LiveConfig) *liveModel {
	if cfg.FPS <= 0 {
		cfg.FPS = config.FPS
	}

	m := &liveModel{
		cfg:       cfg,
		avatar:    engine.NewAvatar(mesh.NewSphere(1.0, 48, 32), cfg.Source, cfg.Seed),
		formation: crystal.NewFormation(14, cfg.Pattern, cfg.Seed),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		freq:      make([]byte, config.FrequencyBins),
		shape:     cfg.Shape,
	}

	m.avatar.OnFrame = func(fi engine.FrameInfo) {
		m.bands = [4]float64{fi.Bands.Low, fi.Bands.Mid, fi.Bands.High, fi.Bands.Ultra}
		if m.cfg.Frame != nil {
			m.cfg.Frame.DrawMesh(fi)
		}
	}
	return m
}

func (m *liveModel) Init() tea.Cmd {
	return m.tick()
}

func (m *liveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameTickMsg:
		m.advance(time.Time(msg))
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "l":
			m.listening = !m.listening
			m.avatar.SetListening(m.listening)
			m.formation.SetListening(m.listening)
		case "t":
			now := time.Now()
			m.avatar.StartThinking(now, 0)
			m.formation.StartThinking(now, 0)
		case " ":
			m.avatar.AddTouch(m.randomSurfacePoint(), 0.6+m.rng.Float64()*0.4, time.Now())
		case "c":
			if m.shape == ShapeSphere {
				m.shape = ShapeCrystal
			} else {
				m.shape = ShapeSphere
			}
		case "s":
			if m.cfg.Frame != nil {
				name := fmt.Sprintf("kwavatar-%s.png", time.Now().Format("150405"))
				if err := renderer.SavePNG(m.cfg.Frame.GetImage(), name); err == nil {
					m.status = "saved " + name
				} else {
					m.status = err.Error()
				}
			}
		}
	}
	return m, nil
}

// advance runs one frame of whichever variant is active and refreshes
// the cached preview string.
func (m *liveModel) advance(now time.Time) {
	dt := 1.0 / float64(m.cfg.FPS)
	if !m.lastTick.IsZero() {
		if d := now.Sub(m.lastTick).Seconds(); d > 0 && d < 0.1 {
			dt = d
		}
	}
	m.lastTick = now

	switch m.shape {
	case ShapeSphere:
		m.avatar.Tick(now)
	case ShapeCrystal:
		var freq []byte
		if m.cfg.Source != nil && m.cfg.Source.Available() && m.cfg.Source.FrequencyData(m.freq) {
			freq = m.freq
			lv := bands.Extract(freq)
			m.bands = [4]float64{lv.Low, lv.Mid, lv.High, lv.Ultra}
			vals := make([]float64, len(freq))
			for i, b := range freq {
				vals[i] = float64(b) / 255
			}
			m.spectrum = renderSpectrum(vals, 48)
		}
		m.formation.Update(freq, dt)
		m.rotation += config.IdleRotationSpeed * dt
		if m.cfg.Frame != nil {
			m.cfg.Frame.DrawFormation(m.formation, m.rotation)
		}
	}

	if !m.cfg.NoPreview && m.cfg.Frame != nil {
		grid := DownsampleFrame(m.cfg.Frame.GetImage(), DefaultPreviewConfig())
		m.preview = RenderPreview(grid)
	}
}

// randomSurfacePoint picks a uniform point on the unit sphere for a
// touch impulse.
func (m *liveModel) randomSurfacePoint() mgl64.Vec3 {
	theta := m.rng.Float64() * 2 * math.Pi
	z := 2*m.rng.Float64() - 1
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(theta), z, r * math.Sin(theta)}
}

func (m *liveModel) View() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5EC5FF")).
		Render("Kwavatar")
	s.WriteString(title)
	s.WriteString("  ")

	shapeName := "sphere"
	if m.shape == ShapeCrystal {
		shapeName = "crystal"
	}
	lb, tb := m.avatar.Blends()
	if m.shape == ShapeCrystal {
		lb, tb = m.formation.Blends()
	}

	state := "idle"
	switch {
	case m.avatar.AudioDriven():
		state = "speaking"
	case lb > 0.5:
		state = "listening"
	case tb > 0.5:
		state = "thinking"
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("shape: %s  │  state: %s", shapeName, state)))
	s.WriteString("\n\n")

	labels := []string{"low", "mid", "high", "ultra"}
	for i, label := range labels {
		s.WriteString("  ")
		s.WriteString(bandMeter(label, m.bands[i], 30))
		s.WriteString("\n")
	}
	if m.shape == ShapeCrystal && m.spectrum != "" {
		s.WriteString("\n  ")
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#5EC5FF")).Render(m.spectrum))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("  listening %4.2f  │  thinking %4.2f\n", lb, tb))

	if m.preview != "" {
		s.WriteString("\n")
		s.WriteString(m.preview)
	}

	s.WriteString("\n")
	if m.status != "" {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		"l listen  t think  space touch  c shape  s snapshot  q quit"))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5EC5FF")).
		Padding(1, 2).
		Render(s.String())
}
