package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RenderProgress is sent by the render worker once per few frames.
type RenderProgress struct {
	Frame       int
	TotalFrames int // 0 when the input length is unknown up front
	Elapsed     time.Duration
	Bands       []float64   // smoothed band values, low to ultra
	FrameData   *image.RGBA // current frame for the preview (optional)
}

// RenderComplete signals the end of an offline render.
type RenderComplete struct {
	OutputDir   string
	TotalFrames int

	DecodeTime time.Duration
	DeformTime time.Duration
	DrawTime   time.Duration
	EncodeTime time.Duration
	TotalTime  time.Duration
}

// quitTimerMsg fires after the completion screen has been shown.
type quitTimerMsg struct{}

type renderModel struct {
	progress progress.Model

	lastUpdate     RenderProgress
	complete       *RenderComplete
	startTime      time.Time
	width          int
	fps            int
	noPreview      bool
	cachedPreview  string
	cachedFrameNum int

	completionDelay time.Duration
}

// NewRenderModel creates the offline render progress UI. fps is used
// for the realtime-speed readout.
func NewRenderModel(noPreview bool, fps int) tea.Model {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &renderModel{
		progress:        p,
		startTime:       time.Now(),
		fps:             fps,
		noPreview:       noPreview,
		completionDelay: 2 * time.Second,
	}
}

func (m *renderModel) Init() tea.Cmd {
	return nil
}

func (m *renderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 30
		if w > 50 {
			w = 50
		}
		if w > 0 {
			m.progress.Width = w
		}
		return m, nil

	case RenderProgress:
		m.lastUpdate = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
			return quitTimerMsg{}
		})

	case quitTimerMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		// Any key skips the completion delay; ctrl+c aborts mid-render.
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *renderModel) View() string {
	if m.complete != nil {
		return m.renderComplete()
	}
	return m.renderProgress()
}

func (m *renderModel) renderProgress() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5EC5FF")).
		Render("Kwavatar")
	subtitle := lipgloss.NewStyle().
		Faint(true).
		Render("Rendering frames")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(subtitle)
	s.WriteString("\n\n")

	elapsed := m.lastUpdate.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.startTime)
	}

	if m.lastUpdate.TotalFrames > 0 {
		percent := float64(m.lastUpdate.Frame) / float64(m.lastUpdate.TotalFrames)
		s.WriteString("Progress: ")
		s.WriteString(m.progress.ViewAs(percent))
		s.WriteString(fmt.Sprintf("  %d%%\n\n", int(percent*100)))

		var eta time.Duration
		if percent > 0 {
			eta = time.Duration(float64(elapsed)/percent) - elapsed
		}
		videoDuration := time.Duration(m.lastUpdate.Frame) * time.Second / time.Duration(m.fps)
		speed := 0.0
		if elapsed > 0 {
			speed = float64(videoDuration) / float64(elapsed)
		}
		timing := fmt.Sprintf("Time: %s  │  Speed: %.1fx realtime  │  ETA: %s",
			formatDuration(elapsed), speed, formatDuration(eta))
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(timing))
		s.WriteString("\n\n")
	} else if m.lastUpdate.Frame > 0 {
		// Input length unknown: show a frame counter instead of a bar.
		s.WriteString(fmt.Sprintf("Frame %d  │  %s elapsed\n\n",
			m.lastUpdate.Frame, formatDuration(elapsed)))
	}

	if len(m.lastUpdate.Bands) >= 4 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Bands:"))
		s.WriteString("\n")
		labels := []string{"low", "mid", "high", "ultra"}
		for i, label := range labels {
			s.WriteString("  ")
			s.WriteString(bandMeter(label, m.lastUpdate.Bands[i], 30))
			s.WriteString("\n")
		}
	}

	if !m.noPreview {
		if m.lastUpdate.FrameData != nil && m.lastUpdate.Frame != m.cachedFrameNum {
			preview := DownsampleFrame(m.lastUpdate.FrameData, DefaultPreviewConfig())
			m.cachedPreview = RenderPreview(preview)
			m.cachedFrameNum = m.lastUpdate.Frame
		}
		if m.cachedPreview != "" {
			s.WriteString("\n")
			s.WriteString(m.cachedPreview)
		}
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5EC5FF")).
		Padding(1, 2).
		Render(s.String())
}

func (m *renderModel) renderComplete() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4A9B4A")).
		Render("✓ Render Complete")
	s.WriteString(title)
	s.WriteString("\n\n")

	videoDuration := time.Duration(m.complete.TotalFrames) * time.Second / time.Duration(m.fps)
	speed := 0.0
	if m.complete.TotalTime > 0 {
		speed = float64(videoDuration) / float64(m.complete.TotalTime)
	}

	s.WriteString(fmt.Sprintf("Output:   %s\n", m.complete.OutputDir))
	s.WriteString(fmt.Sprintf("Frames:   %d (%.1fs at %d fps)\n", m.complete.TotalFrames,
		videoDuration.Seconds(), m.fps))
	s.WriteString(fmt.Sprintf("Duration: %.1fs (%.1fx realtime)\n\n",
		m.complete.TotalTime.Seconds(), speed))

	s.WriteString(lipgloss.NewStyle().Faint(true).Render("Performance Breakdown:"))
	s.WriteString("\n")

	totalMs := m.complete.TotalTime.Milliseconds()
	if totalMs == 0 {
		totalMs = 1
	}
	stages := []struct {
		name string
		d    time.Duration
	}{
		{"Audio decode + FFT:", m.complete.DecodeTime},
		{"Deformation:", m.complete.DeformTime},
		{"Rendering:", m.complete.DrawTime},
		{"PNG encoding:", m.complete.EncodeTime},
	}
	var accounted time.Duration
	for _, st := range stages {
		accounted += st.d
		s.WriteString(fmt.Sprintf("  %-20s%-6s (%2d%%)  %s\n",
			st.name,
			formatDuration(st.d),
			st.d.Milliseconds()*100/totalMs,
			makeSparkline(float64(st.d.Milliseconds())/float64(totalMs), 30)))
	}
	if other := m.complete.TotalTime - accounted; other > 0 {
		s.WriteString(fmt.Sprintf("  %-20s%-6s (%2d%%)  %s\n",
			"Overhead:",
			formatDuration(other),
			other.Milliseconds()*100/totalMs,
			makeSparkline(float64(other.Milliseconds())/float64(totalMs), 30)))
	}
	s.WriteString(fmt.Sprintf("  %-20s%s\n", "Total time:", formatDuration(m.complete.TotalTime)))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4A9B4A")).
		Padding(1, 1).
		Render(s.String()) + "\n"
}
