package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/carelane/intake/cmd/intake/wizard/components"
	"github.com/carelane/intake/internal/api"
)

// CategoriesScreen lets the patient pick one or more chief-complaint
// categories.
type CategoriesScreen struct {
	form       *huh.Form
	infoPanel  *components.InfoPanel
	categories []api.Category
	selected   []string
	done       bool
	cancelled  bool
	width      int
	height     int
}

// NewCategoriesScreen creates the category selection screen. preselected
// carries ids chosen on a previous visit so state survives re-entry.
func NewCategoriesScreen(categories []api.Category, preselected []string) *CategoriesScreen {
	s := &CategoriesScreen{
		infoPanel:  components.NewInfoPanel(),
		categories: categories,
		selected:   append([]string(nil), preselected...),
	}

	options := make([]huh.Option[string], 0, len(categories))
	for _, c := range categories {
		options = append(options, huh.NewOption(c.Label, c.ID))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Key("categories").
				Title("What brings you in today?").
				Description("Select everything that applies.").
				Options(options...).
				Value(&s.selected).
				Validate(func(ids []string) error {
					if len(ids) == 0 {
						return fmt.Errorf("select at least one")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *CategoriesScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *CategoriesScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

// updateInfoPanel shows the patient explanation of the first highlighted
// selection, falling back to a general hint.
func (s *CategoriesScreen) updateInfoPanel() {
	for _, c := range s.categories {
		if containsID(s.selected, c.ID) && c.PatientExplanation != "" {
			s.infoPanel.SetContent(c.Label, c.Description, c.PatientExplanation)
			return
		}
	}
	s.infoPanel.SetContent("", "", "")
}

// View implements tea.Model
func (s *CategoriesScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("CHIEF COMPLAINT")

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		s.form.View(),
		"",
		s.infoPanel.View(),
		"",
		components.HintStyle.Render("Space: Toggle | Enter: Continue | Esc: Cancel"),
	)

	return content
}

// Done returns true if the selection was confirmed
func (s *CategoriesScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *CategoriesScreen) Cancelled() bool { return s.cancelled }

// Selected returns the chosen category ids in selection order
func (s *CategoriesScreen) Selected() []string { return s.selected }

// SelectedRefs resolves the chosen ids to {id, name} selection items
func (s *CategoriesScreen) SelectedRefs() []api.CategoryRef {
	refs := make([]api.CategoryRef, 0, len(s.selected))
	for _, id := range s.selected {
		for _, c := range s.categories {
			if c.ID == id {
				refs = append(refs, api.CategoryRef{ID: c.ID, Name: c.Label})
				break
			}
		}
	}
	return refs
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
