package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	// risk levels
	Clear  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	Close  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffcc00"))
	Impact = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner returns one frame of a braille spinner.
func Spinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

// ProgressBar renders percent in [0,1] as a bar of width cells.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(width, filled))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case percent > 0.8:
		return Clear.Render(bar)
	case percent > 0.4:
		return Close.Render(bar)
	}
	return Impact.Render(bar)
}

// Sparkline renders a mini chart of values, sampled down to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := max(1, len(values)/width)

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / span
		idx := max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))
		b.WriteRune(chars[idx])
	}
	return Subtle.Render(b.String())
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(0, mid-3))
	right := strings.Repeat("─", max(0, width-mid-3))
	return Subtle.Render(left + " ◆ " + right)
}

func row(label, value string) string {
	return MetricLabel.Render(label+":") + " " + MetricValue.Render(value)
}
