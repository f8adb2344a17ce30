package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/carelane/intake/cmd/intake/wizard/components"
	"github.com/carelane/intake/internal/api"
)

// PresentationsScreen shows the presentations of one selected category and
// lets the patient toggle the ones that apply. Groups are presented one at
// a time.
type PresentationsScreen struct {
	form        *huh.Form
	infoPanel   *components.InfoPanel
	progressBar *components.ProgressBar
	group       api.PresentationGroup
	groupIndex  int
	groupCount  int
	progress    float64
	selected    []string
	done        bool
	cancelled   bool
	width       int
	height      int
}

// NewPresentationsScreen creates a screen for one presentation group.
// preselected carries ids already toggled for this category.
func NewPresentationsScreen(group api.PresentationGroup, groupIndex, groupCount int, progress float64, preselected []string) *PresentationsScreen {
	s := &PresentationsScreen{
		infoPanel:   components.NewInfoPanel(),
		progressBar: components.NewProgressBar(),
		group:       group,
		groupIndex:  groupIndex,
		groupCount:  groupCount,
		progress:    progress,
		selected:    append([]string(nil), preselected...),
	}

	options := make([]huh.Option[string], 0, len(group.Presentations))
	for _, p := range group.Presentations {
		label := p.PatientLabel
		if label == "" {
			label = p.Label
		}
		options = append(options, huh.NewOption(label, p.ID))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Key("presentations").
				Title(fmt.Sprintf("Which of these apply to your %s?", group.CategoryName)).
				Description("Select everything that applies, or continue with none.").
				Options(options...).
				Value(&s.selected),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *PresentationsScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *PresentationsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.infoPanel.SetWidth(msg.Width / 2)
		s.progressBar.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	s.updateInfoPanel()

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// updateInfoPanel shows the patient explanation for the most recently
// selected presentation.
func (s *PresentationsScreen) updateInfoPanel() {
	if len(s.selected) == 0 {
		s.infoPanel.SetContent("", "", "")
		return
	}
	lastID := s.selected[len(s.selected)-1]
	for _, p := range s.group.Presentations {
		if p.ID != lastID {
			continue
		}
		label := p.PatientLabel
		if label == "" {
			label = p.Label
		}
		details := p.PatientExamples
		if p.PatientAvoidIf != "" {
			if details != "" {
				details += "\n"
			}
			details += "Not this: " + p.PatientAvoidIf
		}
		s.infoPanel.SetContent(label, p.PatientExplanation, details)
		return
	}
}

// View implements tea.Model
func (s *PresentationsScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render(s.group.CategoryName)
	subtitle := components.SubtitleStyle.Render(
		fmt.Sprintf("Category %d/%d", s.groupIndex+1, s.groupCount))

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		s.progressBar.View(s.progress),
		"",
		s.form.View(),
		"",
		s.infoPanel.View(),
		"",
		components.HintStyle.Render("Space: Toggle | Enter: Continue | Esc: Cancel"),
	)

	return content
}

// Done returns true if the group was confirmed
func (s *PresentationsScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *PresentationsScreen) Cancelled() bool { return s.cancelled }

// Selected returns the toggled presentation ids in selection order
func (s *PresentationsScreen) Selected() []string { return s.selected }

// CategoryID returns the id of the rendered group's category
func (s *PresentationsScreen) CategoryID() string { return s.group.CategoryID }
