package healthmgr

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorGood    = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorBad     = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#5C7A84")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Width(10)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	goodStyle  = lipgloss.NewStyle().Foreground(colorGood)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	badStyle   = lipgloss.NewStyle().Foreground(colorBad)
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(0, 1)

const barWidth = 20

// progressBar draws ratio (0..1) as a fixed-width bar coloured by how far
// along it is.
func progressBar(ratio float64) string {
	ratio = math.Max(0, math.Min(ratio, 1))
	filled := int(math.Round(ratio * barWidth))
	style := badStyle
	switch {
	case ratio >= 1:
		style = goodStyle
	case ratio >= 0.5:
		style = warnStyle
	}
	return style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

func gradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "A", "B":
		return goodStyle
	case "C":
		return warnStyle
	default:
		return badStyle
	}
}
