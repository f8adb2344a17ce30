package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/carelane/intake/cmd/intake/wizard/components"
	"github.com/carelane/intake/cmd/intake/wizard/help"
)

// TextScreen collects the free-text chief complaint and confirms the final
// submission.
type TextScreen struct {
	form      *huh.Form
	infoPanel *components.InfoPanel
	text      string
	submit    bool
	errText   string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewTextScreen creates the free-text screen. text carries the draft from a
// previous visit (a failed submission returns here with everything intact);
// errText, when non-empty, is shown above the form.
func NewTextScreen(text, errText string) *TextScreen {
	s := &TextScreen{
		infoPanel: components.NewInfoPanel(),
		text:      text,
		submit:    true,
		errText:   errText,
	}

	if t, ok := help.Texts["chief_complaint_text"]; ok {
		s.infoPanel.SetContent(t.Title, t.Description, t.Details)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Key("chief_complaint_text").
				Title("In your own words, what brings you in today?").
				Value(&s.text),

			huh.NewConfirm().
				Key("submit").
				Title("Submit your answers?").
				Affirmative("Submit").
				Negative("Keep editing").
				Value(&s.submit),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *TextScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *TextScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.infoPanel.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *TextScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("ANYTHING ELSE")

	parts := []string{title}
	if s.errText != "" {
		parts = append(parts, components.ErrorStyle.Render("Submission failed: "+s.errText), "")
	}
	parts = append(parts,
		"",
		s.form.View(),
		"",
		s.infoPanel.View(),
		"",
		components.HintStyle.Render("Tab: Next field | Enter: Confirm | Ctrl+C: Cancel"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *TextScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *TextScreen) Cancelled() bool { return s.cancelled }

// Text returns the free-text chief complaint
func (s *TextScreen) Text() string { return s.text }

// Submit returns true if the user confirmed submission
func (s *TextScreen) Submit() bool { return s.submit }
