package api

// Response formats a question can ask for.
const (
	ResponseChoice = "choice"
	ResponseText   = "text"
	ResponseDate   = "date"
)

// Question is a single intake question as served by the clinical API.
// Questions are immutable once fetched; the server is the source of truth.
type Question struct {
	QuestionID             string   `json:"question_id"`
	Text                   string   `json:"text"`
	ResponseType           string   `json:"response_type"`
	ResponseOptions        []string `json:"response_options"`
	SeverityIfPositive     string   `json:"severity_if_positive,omitempty"`
	TreatNotSureAsPositive bool     `json:"treat_not_sure_as_positive,omitempty"`
	Rationale              string   `json:"rationale,omitempty"`
}

// RegistrationResponse is returned after submitting the registration answers.
type RegistrationResponse struct {
	EncounterID string `json:"encounter_id"`
}

// FinalAction is the server's verdict after the last safety-screen answer.
type FinalAction string

const (
	// FinalActionProceed moves the patient on to the chief-complaint stage.
	FinalActionProceed FinalAction = "PROCEED_TO_STAGE_2"
	// FinalActionWait shows the escalation/wait screen and ends the flow.
	FinalActionWait FinalAction = "SHOW_WAIT_SCREEN"
)

// SafetyAnswerRequest submits one safety-screen answer.
type SafetyAnswerRequest struct {
	QuestionID  string `json:"question_id"`
	Answer      string `json:"answer"`
	EncounterID string `json:"encounter_id"`
}

// SafetyAnswerResponse is the server's evaluation of one safety answer.
// Risk fields are diagnostics; the client only acts on IsLastQuestion and
// FinalAction.
type SafetyAnswerResponse struct {
	Status             string      `json:"status"`
	EncounterID        string      `json:"encounter_id"`
	EncounterToken     string      `json:"encounter_token"`
	QuestionID         string      `json:"question_id"`
	OverallRiskLevel   string      `json:"overall_risk_level"`
	TriggeredQuestions []string    `json:"triggered_questions"`
	IsLastQuestion     bool        `json:"is_last_question"`
	FinalAction        FinalAction `json:"final_action"`
	UIMessage          string      `json:"ui_message"`
}

// Category is a chief-complaint top-level category.
type Category struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	Icon               string `json:"icon,omitempty"`
	PatientExplanation string `json:"patient_explanation,omitempty"`
}

// CategoryRef is the minimal category shape the presentation and submission
// endpoints expect.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Presentation is one selectable symptom presentation within a category.
type Presentation struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	Icon               string `json:"icon,omitempty"`
	SortOrder          int    `json:"sort_order"`
	PatientLabel       string `json:"patient_label"`
	PatientExplanation string `json:"patient_explanation"`
	PatientExamples    string `json:"patient_examples"`
	PatientAvoidIf     string `json:"patient_avoid_if"`
	Synonyms           string `json:"synonyms"`
}

// PresentationGroup holds the presentations of one selected category.
type PresentationGroup struct {
	CategoryID    string         `json:"category_id"`
	CategoryName  string         `json:"category_name"`
	Presentations []Presentation `json:"presentations"`
}

// PresentationsRequest asks for the presentations of the selected categories.
type PresentationsRequest struct {
	Categories []CategoryRef `json:"categories"`
}

// PresentationsResponse groups presentations per selected category.
type PresentationsResponse struct {
	NumCategories int                 `json:"num_categories"`
	Presentations []PresentationGroup `json:"presentations"`
}

// OnsetBucket is a coarse time-since-symptom-start value.
type OnsetBucket string

const (
	OnsetToday           OnsetBucket = "today"
	OnsetYesterday       OnsetBucket = "yesterday"
	OnsetTwoToSevenDays  OnsetBucket = "two_to_seven_days"
	OnsetMoreThanOneWeek OnsetBucket = "more_than_one_week"
	OnsetNotSure         OnsetBucket = "not_sure"
)

// Trend is the trajectory of a symptom.
type Trend string

const (
	TrendWorse       Trend = "worse"
	TrendSame        Trend = "same"
	TrendBetter      Trend = "better"
	TrendFluctuating Trend = "fluctuating"
	TrendNotSure     Trend = "not_sure"
)

// Timing carries onset and trend for one presentation. Empty string means
// unset.
type Timing struct {
	OnsetBucket OnsetBucket `json:"onset_bucket"`
	Trend       Trend       `json:"trend"`
}

// Complete reports whether both timing fields are set.
func (t Timing) Complete() bool {
	return t.OnsetBucket != "" && t.Trend != ""
}

// SelectedPresentation is one chosen presentation with its timing.
type SelectedPresentation struct {
	CategoryID     string `json:"category_id"`
	PresentationID string `json:"presentation_id"`
	Timing         Timing `json:"timing"`
}

// SelectedCategory groups the chosen presentations of one category for
// submission.
type SelectedCategory struct {
	CategoryName          string                 `json:"category_name"`
	CategoryID            string                 `json:"category_id"`
	SelectedPresentations []SelectedPresentation `json:"selected_presentations"`
}

// ChiefComplaintSubmission is the final chief-complaint payload.
type ChiefComplaintSubmission struct {
	EncounterID        string             `json:"encounter_id"`
	OverallText        string             `json:"overall_text"`
	SelectedCategories []SelectedCategory `json:"selected_categories"`
}

// SubmitResponse acknowledges a chief-complaint submission.
type SubmitResponse struct {
	Status string `json:"status"`
}
