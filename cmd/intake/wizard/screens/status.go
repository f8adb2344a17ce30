package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carelane/intake/cmd/intake/wizard/components"
)

// LoadingScreen is shown during network-wait phases. Controls stay inert;
// only cancellation is handled.
type LoadingScreen struct {
	message   string
	cancelled bool
}

// NewLoadingScreen creates a loading screen with the given message.
func NewLoadingScreen(message string) *LoadingScreen {
	return &LoadingScreen{message: message}
}

// Init implements tea.Model
func (s *LoadingScreen) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (s *LoadingScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		s.cancelled = true
		return s, tea.Quit
	}
	return s, nil
}

// View implements tea.Model
func (s *LoadingScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("ONE MOMENT"),
		"",
		s.message,
		"",
		components.HintStyle.Render("Ctrl+C: Cancel"),
	)
}

// Cancelled returns true if the user cancelled
func (s *LoadingScreen) Cancelled() bool { return s.cancelled }

// WaitScreen is the terminal display after a failed safety screen: the
// server's message plus the reference token the patient can quote.
type WaitScreen struct {
	message string
	token   string
	done    bool
}

// NewWaitScreen creates the wait screen with the server's message and
// encounter token.
func NewWaitScreen(message, token string) *WaitScreen {
	if message == "" {
		message = "Please stay where you are. A clinician will be with you shortly."
	}
	return &WaitScreen{message: message, token: token}
}

// Init implements tea.Model
func (s *WaitScreen) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (s *WaitScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc", "enter":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *WaitScreen) View() string {
	parts := []string{
		components.TitleStyle.Render("PLEASE WAIT"),
		"",
		s.message,
	}
	if s.token != "" {
		parts = append(parts, "",
			components.SubtitleStyle.Render("Your reference: "+s.token))
	}
	parts = append(parts, "", components.HintStyle.Render("Enter: Close"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true when the patient dismissed the screen
func (s *WaitScreen) Done() bool { return s.done }

// CompleteScreen is the terminal success display.
type CompleteScreen struct {
	encounterID string
	done        bool
}

// NewCompleteScreen creates the completion screen.
func NewCompleteScreen(encounterID string) *CompleteScreen {
	return &CompleteScreen{encounterID: encounterID}
}

// Init implements tea.Model
func (s *CompleteScreen) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (s *CompleteScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc", "enter":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *CompleteScreen) View() string {
	parts := []string{
		components.TitleStyle.Render("ALL DONE"),
		"",
		"Thank you. Your answers have been sent to the clinical team.",
	}
	if s.encounterID != "" {
		parts = append(parts, "",
			components.SubtitleStyle.Render("Encounter: "+s.encounterID))
	}
	parts = append(parts, "", components.HintStyle.Render("Enter: Close"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true when the patient dismissed the screen
func (s *CompleteScreen) Done() bool { return s.done }

// ErrorScreen shows a recoverable failure and offers a retry of the step
// that failed.
type ErrorScreen struct {
	err       error
	retry     bool
	done      bool
	cancelled bool
}

// NewErrorScreen creates an error screen for a recoverable failure.
func NewErrorScreen(err error) *ErrorScreen {
	return &ErrorScreen{err: err}
}

// Init implements tea.Model
func (s *ErrorScreen) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (s *ErrorScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "r":
			s.retry = true
			s.done = true
			return s, nil
		case "ctrl+c", "esc", "q":
			s.cancelled = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *ErrorScreen) View() string {
	message := "Something went wrong."
	if s.err != nil {
		message = s.err.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("SOMETHING WENT WRONG"),
		"",
		components.ErrorStyle.Render(message),
		"",
		components.HintStyle.Render("Enter: Try again | Esc: Quit"),
	)
}

// Done returns true once the patient chose an action
func (s *ErrorScreen) Done() bool { return s.done }

// Retry returns true if the patient asked to retry the failed step
func (s *ErrorScreen) Retry() bool { return s.retry }

// Cancelled returns true if the user cancelled
func (s *ErrorScreen) Cancelled() bool { return s.cancelled }
