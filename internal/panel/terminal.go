package panel

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("44"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	passedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	checkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("44"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderTerminal draws the panel for a terminal. An empty view renders "".
func RenderTerminal(v View) string {
	if v.Empty() {
		return ""
	}

	filled := int(math.Round(v.Progress.Percent / 100 * barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	lines := []string{
		titleStyle.Render("On This Page"),
		fmt.Sprintf("%s %s", bar, mutedStyle.Render(fmt.Sprintf("%d%%", int(math.Round(v.Progress.Percent))))),
		mutedStyle.Render(v.Progress.Label),
		"",
	}
	for _, e := range v.Entries {
		switch e.State {
		case StateActive:
			lines = append(lines, activeStyle.Render("▸ "+e.Text))
		case StatePassed:
			lines = append(lines, checkStyle.Render("✓ ")+passedStyle.Render(e.Text))
		default:
			lines = append(lines, upcomingStyle.Render("  "+e.Text))
		}
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
