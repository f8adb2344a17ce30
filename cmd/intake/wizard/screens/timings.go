package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/carelane/intake/cmd/intake/wizard/components"
	"github.com/carelane/intake/cmd/intake/wizard/help"
	"github.com/carelane/intake/internal/api"
	"github.com/carelane/intake/internal/flow"
)

// TimingEntry is the timing recorded for one selected presentation.
type TimingEntry struct {
	PresentationID string
	Onset          api.OnsetBucket
	Trend          api.Trend
}

// timingField binds one presentation's onset and trend to form values.
type timingField struct {
	detail flow.PresentationDetail
	onset  string
	trend  string
}

// TimingsScreen collects onset and trend for every selected presentation,
// one form group per presentation.
type TimingsScreen struct {
	form      *huh.Form
	infoPanel *components.InfoPanel
	fields    []*timingField
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewTimingsScreen creates the timing screen for the selected
// presentations. existing carries timings from a previous visit.
func NewTimingsScreen(details []flow.PresentationDetail, existing map[string]api.Timing) *TimingsScreen {
	s := &TimingsScreen{
		infoPanel: components.NewInfoPanel(),
	}

	onsetOptions := []huh.Option[string]{
		huh.NewOption("Today", string(api.OnsetToday)),
		huh.NewOption("Yesterday", string(api.OnsetYesterday)),
		huh.NewOption("2-7 days ago", string(api.OnsetTwoToSevenDays)),
		huh.NewOption("More than a week ago", string(api.OnsetMoreThanOneWeek)),
		huh.NewOption("Not sure", string(api.OnsetNotSure)),
	}
	trendOptions := []huh.Option[string]{
		huh.NewOption("Getting worse", string(api.TrendWorse)),
		huh.NewOption("About the same", string(api.TrendSame)),
		huh.NewOption("Getting better", string(api.TrendBetter)),
		huh.NewOption("Comes and goes", string(api.TrendFluctuating)),
		huh.NewOption("Not sure", string(api.TrendNotSure)),
	}

	groups := make([]*huh.Group, 0, len(details))
	for _, d := range details {
		// Default to the least assertive answer so pressing Enter without
		// moving the cursor never records an onset or trend the patient
		// didn't pick.
		f := &timingField{
			detail: d,
			onset:  string(api.OnsetNotSure),
			trend:  string(api.TrendNotSure),
		}
		if t, ok := existing[d.ID]; ok {
			if t.OnsetBucket != "" {
				f.onset = string(t.OnsetBucket)
			}
			if t.Trend != "" {
				f.trend = string(t.Trend)
			}
		}
		s.fields = append(s.fields, f)

		groups = append(groups, huh.NewGroup(
			huh.NewNote().
				Title(d.Label).
				Description(d.CategoryName),
			huh.NewSelect[string]().
				Key("onset_bucket").
				Title("When did it start?").
				Options(onsetOptions...).
				Value(&f.onset),
			huh.NewSelect[string]().
				Key("trend").
				Title("How is it changing?").
				Options(trendOptions...).
				Value(&f.trend),
		))
	}

	s.form = huh.NewForm(groups...).WithShowHelp(false)
	return s
}

// Init implements tea.Model
func (s *TimingsScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *TimingsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	if focused := s.form.GetFocusedField(); focused != nil {
		if text, ok := help.Texts[focused.GetKey()]; ok {
			s.infoPanel.SetContent(text.Title, text.Description, text.Details)
		}
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *TimingsScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("SYMPTOM TIMING")
	subtitle := components.SubtitleStyle.Render("A couple of questions about each symptom you selected.")

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		s.form.View(),
		"",
		s.infoPanel.View(),
		"",
		components.HintStyle.Render("Enter: Continue | Esc: Cancel"),
	)

	return content
}

// Done returns true if every timing was confirmed
func (s *TimingsScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *TimingsScreen) Cancelled() bool { return s.cancelled }

// Entries returns the recorded timings in presentation order
func (s *TimingsScreen) Entries() []TimingEntry {
	entries := make([]TimingEntry, 0, len(s.fields))
	for _, f := range s.fields {
		entries = append(entries, TimingEntry{
			PresentationID: f.detail.ID,
			Onset:          api.OnsetBucket(f.onset),
			Trend:          api.Trend(f.trend),
		})
	}
	return entries
}
