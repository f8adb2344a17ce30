package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	barFilledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	barPercentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)
)

// ProgressBar renders a fraction in [0,1] as a fixed-width bar with a
// percentage, shared by the question and presentation screens.
type ProgressBar struct {
	width int
}

// NewProgressBar creates a progress bar with a default width.
func NewProgressBar() *ProgressBar {
	return &ProgressBar{width: 40}
}

// SetWidth adjusts the bar width to the window size.
func (b *ProgressBar) SetWidth(width int) {
	if width < 10 {
		width = 10
	}
	if width > 60 {
		width = 60
	}
	b.width = width
}

// View renders the bar for the given fraction.
func (b *ProgressBar) View(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(fraction * float64(b.width))
	empty := b.width - filled

	bar := barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", empty))
	percent := barPercentStyle.Render(fmt.Sprintf("%3.0f%%", fraction*100))

	return bar + " " + percent
}
