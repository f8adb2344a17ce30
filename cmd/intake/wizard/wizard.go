package wizard

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/carelane/intake/cmd/intake/wizard/screens"
	"github.com/carelane/intake/internal/api"
	"github.com/carelane/intake/internal/flow"
)

// Messages emitted by the background API commands.

type registrationLoadedMsg struct{ err error }

type registrationSubmittedMsg struct{ err error }

type safetyAnsweredMsg struct {
	result *flow.SafetyResult
	err    error
}

type chiefStartedMsg struct{ err error }

type presentationsLoadedMsg struct{ err error }

type chiefSubmittedMsg struct{ err error }

// Wizard is the main orchestrator for the intake interface. The flow owns
// the authoritative phase; the wizard owns which screen is on the terminal
// and reconciles the two after every milestone.
type Wizard struct {
	flow *flow.Flow
	ctx  context.Context

	// Screen instances
	questionScreen      *screens.QuestionScreen
	loadingScreen       *screens.LoadingScreen
	categoriesScreen    *screens.CategoriesScreen
	presentationsScreen *screens.PresentationsScreen
	timingsScreen       *screens.TimingsScreen
	textScreen          *screens.TextScreen
	waitScreen          *screens.WaitScreen
	completeScreen      *screens.CompleteScreen
	errorScreen         *screens.ErrorScreen

	// active names the screen currently rendered; the flow phase alone is
	// not enough because loading and error screens overlay any phase.
	active string

	// retry replays the command that produced the error screen.
	retry        func() tea.Cmd
	retryMessage string

	// Window size
	width  int
	height int

	// Final state
	cancelled bool
	finished  bool
	err       error
}

const (
	screenQuestion      = "question"
	screenLoading       = "loading"
	screenCategories    = "categories"
	screenPresentations = "presentations"
	screenTimings       = "timings"
	screenText          = "text"
	screenWait          = "wait"
	screenComplete      = "complete"
	screenError         = "error"
)

// NewWizard creates a wizard driving the given flow.
func NewWizard(f *flow.Flow) *Wizard {
	return &Wizard{
		flow: f,
		ctx:  context.Background(),
	}
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	w.showLoading("Preparing your check-in...")
	w.retry = w.loadRegistrationCmd
	w.retryMessage = "Preparing your check-in..."
	return w.loadRegistrationCmd()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = wsm.Width
		w.height = wsm.Height
	}

	switch msg := msg.(type) {
	case registrationLoadedMsg:
		return w.onRegistrationLoaded(msg)
	case registrationSubmittedMsg:
		return w.onRegistrationSubmitted(msg)
	case safetyAnsweredMsg:
		return w.onSafetyAnswered(msg)
	case chiefStartedMsg:
		return w.onChiefStarted(msg)
	case presentationsLoadedMsg:
		return w.onPresentationsLoaded(msg)
	case chiefSubmittedMsg:
		return w.onChiefSubmitted(msg)
	}

	switch w.active {
	case screenQuestion:
		return w.updateQuestion(msg)
	case screenLoading:
		return w.updateLoading(msg)
	case screenCategories:
		return w.updateCategories(msg)
	case screenPresentations:
		return w.updatePresentations(msg)
	case screenTimings:
		return w.updateTimings(msg)
	case screenText:
		return w.updateText(msg)
	case screenWait:
		return w.updateWait(msg)
	case screenComplete:
		return w.updateComplete(msg)
	case screenError:
		return w.updateError(msg)
	}

	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.active {
	case screenQuestion:
		return w.questionScreen.View()
	case screenLoading:
		return w.loadingScreen.View()
	case screenCategories:
		return w.categoriesScreen.View()
	case screenPresentations:
		return w.presentationsScreen.View()
	case screenTimings:
		return w.timingsScreen.View()
	case screenText:
		return w.textScreen.View()
	case screenWait:
		return w.waitScreen.View()
	case screenComplete:
		return w.completeScreen.View()
	case screenError:
		return w.errorScreen.View()
	}

	return ""
}

// Commands

func (w *Wizard) loadRegistrationCmd() tea.Cmd {
	return func() tea.Msg {
		return registrationLoadedMsg{err: w.flow.StartRegistration(w.ctx)}
	}
}

func (w *Wizard) submitRegistrationCmd() tea.Cmd {
	return func() tea.Msg {
		return registrationSubmittedMsg{err: w.flow.CompleteRegistration(w.ctx)}
	}
}

func (w *Wizard) answerSafetyCmd(questionID, answer string) tea.Cmd {
	return func() tea.Msg {
		result, err := w.flow.AnswerSafetyQuestion(w.ctx, questionID, answer)
		return safetyAnsweredMsg{result: result, err: err}
	}
}

func (w *Wizard) startChiefCmd() tea.Cmd {
	return func() tea.Msg {
		return chiefStartedMsg{err: w.flow.StartChiefComplaint(w.ctx)}
	}
}

func (w *Wizard) loadPresentationsCmd() tea.Cmd {
	return func() tea.Msg {
		return presentationsLoadedMsg{err: w.flow.LoadPresentations(w.ctx)}
	}
}

func (w *Wizard) submitChiefCmd() tea.Cmd {
	return func() tea.Msg {
		return chiefSubmittedMsg{err: w.flow.SubmitChiefComplaint(w.ctx)}
	}
}

// Message handlers

func (w *Wizard) onRegistrationLoaded(msg registrationLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return w.showError(msg.err, w.loadRegistrationCmd, "Preparing your check-in...")
	}
	return w.showRegistrationQuestion()
}

func (w *Wizard) onRegistrationSubmitted(msg registrationSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return w.showError(msg.err, w.submitRegistrationCmd, "Submitting your details...")
	}
	return w.showSafetyQuestion()
}

func (w *Wizard) onSafetyAnswered(msg safetyAnsweredMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return w.showError(msg.err, w.retry, w.retryMessage)
	}

	if msg.result != nil && msg.result.IsLastQuestion {
		switch w.flow.Phase() {
		case flow.PhaseChiefComplaintLoadingCategories:
			w.showLoading("Loading symptom categories...")
			w.retry = w.startChiefCmd
			w.retryMessage = "Loading symptom categories..."
			return w, w.startChiefCmd()
		case flow.PhaseFailedSafetyScreen:
			w.waitScreen = screens.NewWaitScreen(w.flow.UIMessage(), w.flow.EncounterToken())
			w.active = screenWait
			return w, w.waitScreen.Init()
		}
	}

	return w.showSafetyQuestion()
}

func (w *Wizard) onChiefStarted(msg chiefStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return w.showError(msg.err, w.startChiefCmd, "Loading symptom categories...")
	}
	// No categories to offer: skip straight to the free-text step.
	if w.flow.Phase() == flow.PhaseChiefComplaintText {
		return w.showText("")
	}
	return w.showCategories()
}

func (w *Wizard) onPresentationsLoaded(msg presentationsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return w.showError(msg.err, w.loadPresentationsCmd, "Loading symptom details...")
	}
	// No presentations for any selected category: skip straight to the
	// free-text step.
	if w.flow.Phase() == flow.PhaseChiefComplaintText {
		return w.showText("")
	}
	return w.showPresentations()
}

func (w *Wizard) onChiefSubmitted(msg chiefSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Submission failures return the patient to text entry with their
		// selections and text intact.
		w.flow.ClearErrs()
		return w.showText(msg.err.Error())
	}
	w.completeScreen = screens.NewCompleteScreen(w.flow.EncounterID())
	w.active = screenComplete
	return w, w.completeScreen.Init()
}

// Screen transitions

func (w *Wizard) showLoading(message string) {
	w.loadingScreen = screens.NewLoadingScreen(message)
	w.active = screenLoading
}

func (w *Wizard) showError(err error, retry func() tea.Cmd, retryMessage string) (tea.Model, tea.Cmd) {
	w.err = err
	w.retry = retry
	w.retryMessage = retryMessage
	w.errorScreen = screens.NewErrorScreen(err)
	w.active = screenError
	return w, w.errorScreen.Init()
}

func (w *Wizard) showRegistrationQuestion() (tea.Model, tea.Cmd) {
	question := w.flow.Registration.CurrentQuestion()
	if question == nil {
		return w.showError(fmt.Errorf("no registration questions available"), w.loadRegistrationCmd, "Preparing your check-in...")
	}
	w.questionScreen = screens.NewQuestionScreen(
		*question,
		"REGISTRATION",
		w.flow.Registration.CurrentIndex(),
		len(w.flow.Registration.Questions()),
		w.flow.Registration.Progress(),
	)
	w.active = screenQuestion
	return w, w.questionScreen.Init()
}

func (w *Wizard) showSafetyQuestion() (tea.Model, tea.Cmd) {
	question := w.flow.Safety.CurrentQuestion()
	if question == nil {
		return w.showError(fmt.Errorf("no safety questions available"), w.retry, w.retryMessage)
	}
	w.questionScreen = screens.NewQuestionScreen(
		*question,
		"SAFETY CHECK",
		w.flow.Safety.CurrentIndex(),
		len(w.flow.Safety.Questions()),
		w.flow.Safety.Progress(),
	)
	w.active = screenQuestion
	return w, w.questionScreen.Init()
}

func (w *Wizard) showCategories() (tea.Model, tea.Cmd) {
	var preselected []string
	for _, ref := range w.flow.Chief.SelectedCategories() {
		preselected = append(preselected, ref.ID)
	}
	w.categoriesScreen = screens.NewCategoriesScreen(w.flow.Chief.Categories(), preselected)
	w.active = screenCategories
	return w, w.categoriesScreen.Init()
}

func (w *Wizard) showPresentations() (tea.Model, tea.Cmd) {
	group := w.flow.Chief.CurrentGroup()
	if group == nil {
		return w.showText("")
	}
	w.presentationsScreen = screens.NewPresentationsScreen(
		*group,
		w.flow.Chief.CurrentGroupIndex(),
		w.flow.Chief.GroupCount(),
		w.flow.Chief.GroupProgress(),
		w.flow.Chief.SelectedPresentations(group.CategoryID),
	)
	w.active = screenPresentations
	return w, w.presentationsScreen.Init()
}

func (w *Wizard) showTimings() (tea.Model, tea.Cmd) {
	details := w.flow.Chief.SelectedPresentationsDetailed()
	if len(details) == 0 {
		w.flow.CompleteTimings()
		return w.showText("")
	}

	existing := make(map[string]api.Timing, len(details))
	for _, d := range details {
		existing[d.ID] = w.flow.Chief.Timing(d.ID)
	}

	w.timingsScreen = screens.NewTimingsScreen(details, existing)
	w.active = screenTimings
	return w, w.timingsScreen.Init()
}

func (w *Wizard) showText(errText string) (tea.Model, tea.Cmd) {
	w.textScreen = screens.NewTextScreen(w.flow.Chief.Text(), errText)
	w.active = screenText
	return w, w.textScreen.Init()
}

// Screen updates

func (w *Wizard) updateQuestion(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.questionScreen.Update(msg)
	if qs, ok := model.(*screens.QuestionScreen); ok {
		w.questionScreen = qs
	}

	if w.questionScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.questionScreen.Done() {
		switch w.flow.Phase() {
		case flow.PhaseRegistrationQuestions:
			w.flow.AnswerRegistrationQuestion(w.questionScreen.QuestionID(), w.questionScreen.Answer())
			if w.flow.Registration.CurrentIndex()+1 >= len(w.flow.Registration.Questions()) {
				w.showLoading("Submitting your details...")
				w.retry = w.submitRegistrationCmd
				w.retryMessage = "Submitting your details..."
				return w, w.submitRegistrationCmd()
			}
			w.flow.NextRegistrationQuestion()
			return w.showRegistrationQuestion()

		case flow.PhaseSafetyScreenQuestions:
			questionID := w.questionScreen.QuestionID()
			answer := w.questionScreen.Answer()
			w.showLoading("Checking your answer...")
			w.retry = func() tea.Cmd { return w.answerSafetyCmd(questionID, answer) }
			w.retryMessage = "Checking your answer..."
			return w, w.answerSafetyCmd(questionID, answer)
		}
	}

	return w, cmd
}

func (w *Wizard) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.loadingScreen.Update(msg)
	if ls, ok := model.(*screens.LoadingScreen); ok {
		w.loadingScreen = ls
	}

	if w.loadingScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) updateCategories(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.categoriesScreen.Update(msg)
	if cs, ok := model.(*screens.CategoriesScreen); ok {
		w.categoriesScreen = cs
	}

	if w.categoriesScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.categoriesScreen.Done() {
		w.reconcileCategories(w.categoriesScreen.SelectedRefs())
		if !w.flow.CompleteCategorySelection() {
			return w.showCategories()
		}
		w.showLoading("Loading symptom details...")
		w.retry = w.loadPresentationsCmd
		w.retryMessage = "Loading symptom details..."
		return w, w.loadPresentationsCmd()
	}

	return w, cmd
}

// reconcileCategories drives the flow's toggle API to match the screen's
// final multi-select state.
func (w *Wizard) reconcileCategories(selected []api.CategoryRef) {
	current := w.flow.Chief.SelectedCategories()

	for _, ref := range current {
		if !containsCategory(selected, ref.ID) {
			w.flow.ToggleCategory(ref.ID, ref.Name)
		}
	}
	for _, ref := range selected {
		if !containsCategory(current, ref.ID) {
			w.flow.ToggleCategory(ref.ID, ref.Name)
		}
	}
}

func containsCategory(refs []api.CategoryRef, id string) bool {
	for _, ref := range refs {
		if ref.ID == id {
			return true
		}
	}
	return false
}

func (w *Wizard) updatePresentations(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.presentationsScreen.Update(msg)
	if ps, ok := model.(*screens.PresentationsScreen); ok {
		w.presentationsScreen = ps
	}

	if w.presentationsScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.presentationsScreen.Done() {
		categoryID := w.presentationsScreen.CategoryID()
		w.reconcilePresentations(categoryID, w.presentationsScreen.Selected())
		w.flow.NextPresentationGroup()

		if w.flow.Phase() == flow.PhaseChiefComplaintTimings {
			return w.showTimings()
		}
		return w.showPresentations()
	}

	return w, cmd
}

// reconcilePresentations drives the flow's toggle API to match the screen's
// final multi-select state for one group.
func (w *Wizard) reconcilePresentations(categoryID string, selected []string) {
	current := w.flow.Chief.SelectedPresentations(categoryID)

	for _, id := range current {
		if !containsID(selected, id) {
			w.flow.TogglePresentation(categoryID, id)
		}
	}
	for _, id := range selected {
		if !containsID(current, id) {
			w.flow.TogglePresentation(categoryID, id)
		}
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (w *Wizard) updateTimings(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.timingsScreen.Update(msg)
	if ts, ok := model.(*screens.TimingsScreen); ok {
		w.timingsScreen = ts
	}

	if w.timingsScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.timingsScreen.Done() {
		for _, entry := range w.timingsScreen.Entries() {
			w.flow.SetPresentationTiming(entry.PresentationID, entry.Onset, entry.Trend)
		}
		w.flow.CompleteTimings()
		return w.showText("")
	}

	return w, cmd
}

func (w *Wizard) updateText(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.textScreen.Update(msg)
	if ts, ok := model.(*screens.TextScreen); ok {
		w.textScreen = ts
	}

	if w.textScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.textScreen.Done() {
		w.flow.SetChiefComplaintText(w.textScreen.Text())
		if !w.textScreen.Submit() {
			return w.showText("")
		}
		w.showLoading("Sending your answers to the clinical team...")
		w.retry = w.submitChiefCmd
		w.retryMessage = "Sending your answers to the clinical team..."
		return w, w.submitChiefCmd()
	}

	return w, cmd
}

func (w *Wizard) updateWait(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.waitScreen.Update(msg)
	if ws, ok := model.(*screens.WaitScreen); ok {
		w.waitScreen = ws
	}

	if w.waitScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) updateComplete(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.completeScreen.Update(msg)
	if cs, ok := model.(*screens.CompleteScreen); ok {
		w.completeScreen = cs
	}

	if w.completeScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.errorScreen.Update(msg)
	if es, ok := model.(*screens.ErrorScreen); ok {
		w.errorScreen = es
	}

	if w.errorScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.errorScreen.Done() && w.errorScreen.Retry() {
		w.flow.ClearErrs()
		w.err = nil
		retry := w.retry
		if retry == nil {
			retry = w.loadRegistrationCmd
		}
		w.showLoading(w.retryMessage)
		return w, retry()
	}

	return w, cmd
}

// Run starts the interactive intake wizard against the configured API.
func Run(cfg *Config) error {
	client := api.NewClient(cfg.API.BaseURL, cfg.HTTPClient())

	wizard := NewWizard(flow.New(client))
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if w, ok := finalModel.(*Wizard); ok {
		if w.cancelled {
			return nil // User cancelled, not an error
		}
		if w.err != nil {
			return w.err
		}
	}

	return nil
}
