package flow

import (
	"context"
	"sync"

	"github.com/carelane/intake/internal/api"
)

// Flow composes the registration, safety-screen and chief-complaint
// sub-flows into one linear phase sequence. It owns the authoritative
// top-level phase and advances it only in response to sub-flow milestones;
// the sub-flows stay independently testable and the orchestrator remains a
// thin synchronization layer.
type Flow struct {
	Registration *Registration
	Safety       *SafetyScreen
	Chief        *ChiefComplaint

	mu             sync.Mutex
	phase          Phase
	uiMessage      string
	encounterToken string
	err            error
}

// New creates a flow at the registration phase.
func New(client *api.Client) *Flow {
	return &Flow{
		Registration: NewRegistration(client),
		Safety:       NewSafetyScreen(client),
		Chief:        NewChiefComplaint(client),
		phase:        PhaseRegistrationQuestions,
	}
}

// Phase returns the authoritative top-level phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// UIMessage returns the server's wait-screen message after a failed safety
// screen.
func (f *Flow) UIMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uiMessage
}

// EncounterToken returns the server-issued token shown on the wait screen.
func (f *Flow) EncounterToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.encounterToken
}

// EncounterID returns the encounter id produced by registration, "" before
// submission succeeds.
func (f *Flow) EncounterID() string {
	return f.Registration.EncounterID()
}

// Err returns the first non-nil error among the orchestrator and its
// sub-flows. It never clears a sub-flow's error.
func (f *Flow) Err() error {
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if err := f.Registration.Err(); err != nil {
		return err
	}
	if err := f.Safety.Err(); err != nil {
		return err
	}
	return f.Chief.Err()
}

// ClearErrs clears every sub-flow error before a retry.
func (f *Flow) ClearErrs() {
	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	f.Registration.ClearErr()
	f.Safety.ClearErr()
	f.Chief.ClearErr()
}

// StartRegistration loads the registration questions.
func (f *Flow) StartRegistration(ctx context.Context) error {
	return f.Registration.LoadQuestions(ctx)
}

// AnswerRegistrationQuestion records one registration answer.
func (f *Flow) AnswerRegistrationQuestion(questionID, answer string) {
	f.Registration.AnswerQuestion(questionID, answer)
}

// NextRegistrationQuestion advances to the next registration question.
func (f *Flow) NextRegistrationQuestion() {
	f.Registration.Next()
}

// CompleteRegistration submits the registration answers. The phase moves to
// the loading variant before the call; on failure (or a missing encounter
// id in the response) it reverts to registration so the step can be
// retried, on success the safety-screen questions are loaded and the phase
// advances once they arrive. Calling it again after the submission
// succeeded but the question fetch failed re-fetches the questions rather
// than resubmitting.
func (f *Flow) CompleteRegistration(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseRegistrationQuestions {
		retryLoad := f.phase == PhaseLoadingQuestions && f.Registration.EncounterID() != ""
		f.mu.Unlock()
		if retryLoad {
			return f.LoadSafetyQuestions(ctx)
		}
		return nil
	}
	f.phase = PhaseLoadingQuestions
	f.mu.Unlock()

	encounterID, err := f.Registration.Submit(ctx)
	if err != nil || encounterID == "" {
		f.mu.Lock()
		f.phase = PhaseRegistrationQuestions
		if err == nil {
			f.err = ErrNoEncounterID
			err = ErrNoEncounterID
		}
		f.mu.Unlock()
		return err
	}

	f.Safety.SetEncounterID(encounterID)
	f.Chief.SetEncounterID(encounterID)

	return f.LoadSafetyQuestions(ctx)
}

// LoadSafetyQuestions fetches the safety-screen questions and advances the
// phase once they are available. Safe to call again after a failure.
func (f *Flow) LoadSafetyQuestions(ctx context.Context) error {
	err := f.Safety.LoadQuestions(ctx)
	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
	return err
}

// AnswerSafetyQuestion submits one safety answer and branches on the
// server's verdict after the last question: proceed to the chief-complaint
// stage, or terminate on the wait screen with the server's message and
// token.
func (f *Flow) AnswerSafetyQuestion(ctx context.Context, questionID, answer string) (*SafetyResult, error) {
	result, err := f.Safety.AnswerQuestion(ctx, questionID, answer)
	if err != nil {
		return nil, err
	}

	if result.IsLastQuestion {
		f.mu.Lock()
		if !f.phase.Terminal() {
			switch result.FinalAction {
			case api.FinalActionProceed:
				f.phase = PhaseChiefComplaintLoadingCategories
			case api.FinalActionWait:
				f.uiMessage = result.UIMessage
				f.encounterToken = result.EncounterToken
				f.phase = PhaseFailedSafetyScreen
			}
		}
		f.mu.Unlock()
	}
	return result, nil
}

// StartChiefComplaint loads the categories once the safety screen passed.
func (f *Flow) StartChiefComplaint(ctx context.Context) error {
	err := f.Chief.LoadCategories(ctx)
	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
	return err
}

// ToggleCategory toggles a chief-complaint category selection.
func (f *Flow) ToggleCategory(id, name string) {
	f.Chief.ToggleCategory(id, name)
}

// CompleteCategorySelection finishes category selection; a no-op when
// nothing is selected.
func (f *Flow) CompleteCategorySelection() bool {
	ok := f.Chief.CompleteCategorySelection()
	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
	return ok
}

// LoadPresentations fetches the presentation groups for the selected
// categories.
func (f *Flow) LoadPresentations(ctx context.Context) error {
	err := f.Chief.LoadPresentations(ctx)
	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
	return err
}

// TogglePresentation toggles one presentation within a category.
func (f *Flow) TogglePresentation(categoryID, presentationID string) {
	f.Chief.TogglePresentation(categoryID, presentationID)
}

// NextPresentationGroup advances past the current group, moving to the
// timing step after the last one.
func (f *Flow) NextPresentationGroup() {
	f.Chief.NextGroup()
	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
}

// SetPresentationTiming records onset and trend for a presentation.
func (f *Flow) SetPresentationTiming(presentationID string, onset api.OnsetBucket, trend api.Trend) {
	f.Chief.SetTiming(presentationID, onset, trend)
}

// CompleteTimings finishes the timing step.
func (f *Flow) CompleteTimings() {
	f.Chief.CompleteTimings()
	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
}

// SetChiefComplaintText stores the free-text chief complaint.
func (f *Flow) SetChiefComplaintText(text string) {
	f.Chief.SetText(text)
}

// SubmitChiefComplaint posts the final payload. The phase is set to
// submitting before the call; a failure reverts to text entry with
// selections and text intact.
func (f *Flow) SubmitChiefComplaint(ctx context.Context) error {
	f.mu.Lock()
	if f.phase.Terminal() {
		f.mu.Unlock()
		return nil
	}
	f.phase = PhaseSubmitting
	f.mu.Unlock()

	err := f.Chief.Submit(ctx)

	f.mu.Lock()
	f.syncLocked()
	f.mu.Unlock()
	return err
}

// syncLocked reconciles the top-level phase with the sub-flows' internal
// milestones. Terminal phases are sinks: nothing moves the flow out of
// complete or failed_safety_screen.
func (f *Flow) syncLocked() {
	if f.phase.Terminal() {
		return
	}

	if f.phase == PhaseLoadingQuestions && f.Safety.Loaded() && !f.Safety.Loading() {
		f.phase = PhaseSafetyScreenQuestions
		return
	}

	chiefActive := f.phase >= PhaseChiefComplaintLoadingCategories && f.phase <= PhaseSubmitting
	if !chiefActive {
		return
	}
	switch f.Chief.Phase() {
	case CCCategories:
		f.phase = PhaseChiefComplaintCategories
	case CCLoadingPresentations:
		f.phase = PhaseChiefComplaintLoadingPresentations
	case CCPresentations:
		f.phase = PhaseChiefComplaintPresentations
	case CCTimings:
		f.phase = PhaseChiefComplaintTimings
	case CCTextEntry:
		f.phase = PhaseChiefComplaintText
	case CCSubmitting:
		f.phase = PhaseSubmitting
	case CCComplete:
		f.phase = PhaseComplete
	}
}
