package screens

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/carelane/intake/cmd/intake/wizard/components"
	"github.com/carelane/intake/internal/api"
)

// QuestionScreen renders one intake question. It is shared by the
// registration and safety-screen phases; the stage string is the heading.
type QuestionScreen struct {
	form        *huh.Form
	infoPanel   *components.InfoPanel
	progressBar *components.ProgressBar
	question    api.Question
	stage       string
	index       int
	total       int
	progress    float64
	answer      string
	done        bool
	cancelled   bool
	width       int
	height      int
}

// NewQuestionScreen creates a screen for one question. index is 0-based;
// progress is the owning sub-flow's progress fraction.
func NewQuestionScreen(question api.Question, stage string, index, total int, progress float64) *QuestionScreen {
	s := &QuestionScreen{
		infoPanel:   components.NewInfoPanel(),
		progressBar: components.NewProgressBar(),
		question:    question,
		stage:       stage,
		index:       index,
		total:       total,
		progress:    progress,
	}

	if question.Rationale != "" {
		s.infoPanel.SetContent("WHY WE ASK", question.Rationale, "")
	}

	s.form = huh.NewForm(
		huh.NewGroup(s.buildField()),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// buildField maps the question's response type onto a huh field.
func (s *QuestionScreen) buildField() huh.Field {
	switch s.question.ResponseType {
	case api.ResponseChoice:
		options := make([]huh.Option[string], 0, len(s.question.ResponseOptions))
		for _, opt := range s.question.ResponseOptions {
			options = append(options, huh.NewOption(opt, opt))
		}
		return huh.NewSelect[string]().
			Key(s.question.QuestionID).
			Title(s.question.Text).
			Options(options...).
			Value(&s.answer)

	case api.ResponseDate:
		return huh.NewInput().
			Key(s.question.QuestionID).
			Title(s.question.Text).
			Description("Format: YYYY-MM-DD").
			Value(&s.answer).
			Validate(validateDate)

	default:
		return huh.NewInput().
			Key(s.question.QuestionID).
			Title(s.question.Text).
			Value(&s.answer).
			Validate(func(str string) error {
				if str == "" {
					return fmt.Errorf("an answer is required")
				}
				return nil
			})
	}
}

func validateDate(s string) error {
	if s == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// Init implements tea.Model
func (s *QuestionScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *QuestionScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *QuestionScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render(s.stage)
	subtitle := components.SubtitleStyle.Render(
		fmt.Sprintf("Question %d/%d", s.index+1, s.total))

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		s.progressBar.View(s.progress),
		"",
		s.form.View(),
		"",
		s.infoPanel.View(),
		"",
		components.HintStyle.Render("Enter: Answer | Esc: Cancel"),
	)

	return content
}

// Done returns true if the question was answered
func (s *QuestionScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *QuestionScreen) Cancelled() bool { return s.cancelled }

// Answer returns the recorded answer
func (s *QuestionScreen) Answer() string { return s.answer }

// QuestionID returns the id of the rendered question
func (s *QuestionScreen) QuestionID() string { return s.question.QuestionID }
