package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Width(60)

	infoTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	infoDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	infoDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// InfoPanel shows contextual patient-facing information: a question's
// rationale, a category's explanation, or a field's help text.
type InfoPanel struct {
	title       string
	description string
	details     string
	width       int
}

// NewInfoPanel creates an empty info panel.
func NewInfoPanel() *InfoPanel {
	return &InfoPanel{width: 60}
}

// SetContent replaces the panel content.
func (p *InfoPanel) SetContent(title, description, details string) {
	p.title = title
	p.description = description
	p.details = details
}

// SetWidth adjusts the panel to the window size.
func (p *InfoPanel) SetWidth(width int) {
	if width < 30 {
		width = 30
	}
	p.width = width
}

// View renders the panel; empty content renders nothing so screens can
// always include the panel in their layout.
func (p *InfoPanel) View() string {
	if p.title == "" && p.description == "" && p.details == "" {
		return ""
	}

	style := infoPanelStyle.Width(p.width - 4)

	var sb strings.Builder
	if p.title != "" {
		sb.WriteString(infoTitleStyle.Render(p.title))
	}
	if p.description != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(infoDescStyle.Render(p.description))
	}
	if p.details != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(infoDetailStyle.Render(p.details))
	}

	return style.Render(sb.String())
}
