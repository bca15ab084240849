package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var meterBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderSpectrum creates a one-line block visualization of bin values
// in [0, 1], sampled down to the given width.
func renderSpectrum(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	stride := len(values) / width
	if stride == 0 {
		stride = 1
	}

	var sb strings.Builder
	cells := 0
	for i := 0; i < len(values) && cells < width; i, cells = i+stride, cells+1 {
		v := values[i]
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		idx := int(v * float64(len(meterBlocks)-1))
		sb.WriteRune(meterBlocks[idx])
	}
	return sb.String()
}

// bandMeter renders a labelled horizontal meter for one band value.
func bandMeter(label string, value float64, width int) string {
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	filled := int(value * float64(width))

	labelStyle := lipgloss.NewStyle().Faint(true)
	return fmt.Sprintf("%s %s%s %4.2f",
		labelStyle.Render(fmt.Sprintf("%-6s", label)),
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		value)
}

// makeSparkline renders a ratio in [0, 1] as a filled bar of the given
// width, used in the completion breakdown.
func makeSparkline(ratio float64, width int) string {
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
