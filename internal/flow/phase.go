// Package flow implements the intake flow state machine: the registration,
// safety-screen and chief-complaint sub-flows plus the orchestrator that
// sequences them. It is UI-agnostic; the terminal wizard renders its state
// and feeds user intents back into it.
package flow

// Phase is the top-level phase of the intake flow. Exactly one value is
// active at a time and it is the sole discriminant for what the render
// layer shows.
type Phase int

const (
	PhaseRegistrationQuestions Phase = iota
	PhaseLoadingQuestions
	PhaseSafetyScreenQuestions
	PhaseChiefComplaintLoadingCategories
	PhaseChiefComplaintCategories
	PhaseChiefComplaintLoadingPresentations
	PhaseChiefComplaintPresentations
	PhaseChiefComplaintTimings
	PhaseChiefComplaintText
	PhaseSubmitting
	PhaseComplete
	PhaseFailedSafetyScreen
)

// String returns the wire-style name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseRegistrationQuestions:
		return "registration_questions"
	case PhaseLoadingQuestions:
		return "loading_questions"
	case PhaseSafetyScreenQuestions:
		return "safety_screen_questions"
	case PhaseChiefComplaintLoadingCategories:
		return "chief_complaint_loading_categories"
	case PhaseChiefComplaintCategories:
		return "chief_complaint_categories"
	case PhaseChiefComplaintLoadingPresentations:
		return "chief_complaint_loading_presentations"
	case PhaseChiefComplaintPresentations:
		return "chief_complaint_presentations"
	case PhaseChiefComplaintTimings:
		return "chief_complaint_presentations_details"
	case PhaseChiefComplaintText:
		return "chief_complaint_text"
	case PhaseSubmitting:
		return "submitting"
	case PhaseComplete:
		return "complete"
	case PhaseFailedSafetyScreen:
		return "failed_safety_screen"
	}
	return "unknown"
}

// Terminal reports whether no transition leaves this phase within the
// flow's lifetime.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailedSafetyScreen
}

// Loading reports whether the phase is a network-wait phase during which
// the render layer must keep controls inert.
func (p Phase) Loading() bool {
	switch p {
	case PhaseLoadingQuestions,
		PhaseChiefComplaintLoadingCategories,
		PhaseChiefComplaintLoadingPresentations,
		PhaseSubmitting:
		return true
	}
	return false
}
