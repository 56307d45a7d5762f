package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Terminal colours follow the first entries of the figure palette so console
// and PNG output agree on which colour means what.
var (
	blue   = lipgloss.Color("#1f77b4")
	orange = lipgloss.Color("#ff7f0e")
	green  = lipgloss.Color("#2ca02c")
	red    = lipgloss.Color("#d62728")
	grey   = lipgloss.Color("#7f7f7f")
	rule   = lipgloss.Color("#3a3a4a")
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(rule).
		Padding(0, 1)

	Header = lipgloss.NewStyle().
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(rule)

	Title    = lipgloss.NewStyle().Bold(true).Foreground(blue)
	Selected = lipgloss.NewStyle().Bold(true).Foreground(orange)
	Subtle   = lipgloss.NewStyle().Foreground(grey)
	KeyHint  = Subtle.Italic(true)

	Good = lipgloss.NewStyle().Bold(true).Foreground(green)
	Warn = lipgloss.NewStyle().Bold(true).Foreground(orange)
	Bad  = lipgloss.NewStyle().Bold(true).Foreground(red)

	MetricLabel = lipgloss.NewStyle().Foreground(grey).Width(16)
	MetricValue = lipgloss.NewStyle().Foreground(blue)
)

// Quality picks the style for a coefficient of determination: green from 0.9,
// orange from 0.5, red below.
func Quality(r2 float64) lipgloss.Style {
	switch {
	case r2 >= 0.9:
		return Good
	case r2 >= 0.5:
		return Warn
	default:
		return Bad
	}
}

// Metric renders one aligned label/value row.
func Metric(label, value string) string {
	return MetricLabel.Render(label) + " " + MetricValue.Render(value)
}
