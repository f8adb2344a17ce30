package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cucumber/godog"

	"github.com/carelane/intake/internal/api"
	"github.com/carelane/intake/internal/flow"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// testContext holds the scripted API server and the flow under test for a
// single scenario.
type testContext struct {
	server *httptest.Server
	flow   *flow.Flow
	ctx    context.Context

	mu         sync.Mutex
	safetyByID map[string]api.SafetyAnswerResponse
	groups     []api.PresentationGroup
	failSubmit bool
	submission *api.ChiefComplaintSubmission
}

func (tc *testContext) startServer() {
	tc.safetyByID = map[string]api.SafetyAnswerResponse{
		"chest_pain": {Status: "recorded"},
		"breathing":  {Status: "recorded", IsLastQuestion: true, FinalAction: api.FinalActionProceed},
	}
	tc.groups = []api.PresentationGroup{
		{
			CategoryID:   "cat-pain",
			CategoryName: "Pain",
			Presentations: []api.Presentation{
				{ID: "pres-headache", Label: "Headache", PatientLabel: "Head pain"},
				{ID: "pres-backache", Label: "Back pain"},
			},
		},
	}

	tc.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		switch r.URL.Path {
		case "/get-initial-questions":
			json.NewEncoder(w).Encode([]api.Question{
				{QuestionID: "full_name", Text: "What is your full name?", ResponseType: api.ResponseText},
				{QuestionID: "dob", Text: "What is your date of birth?", ResponseType: api.ResponseDate},
			})
		case "/submit-registration":
			json.NewEncoder(w).Encode(api.RegistrationResponse{EncounterID: "enc-e2e"})
		case "/get-questions":
			json.NewEncoder(w).Encode([]api.Question{
				{QuestionID: "chest_pain", Text: "Do you have chest pain right now?", ResponseType: api.ResponseChoice, ResponseOptions: []string{"Yes", "No", "Not sure"}},
				{QuestionID: "breathing", Text: "Are you struggling to breathe?", ResponseType: api.ResponseChoice, ResponseOptions: []string{"Yes", "No", "Not sure"}},
			})
		case "/submit-safety-answer":
			var req api.SafetyAnswerRequest
			json.NewDecoder(r.Body).Decode(&req)
			resp := tc.safetyByID[req.QuestionID]
			resp.QuestionID = req.QuestionID
			json.NewEncoder(w).Encode(resp)
		case "/v2/chief-complaint/categories":
			json.NewEncoder(w).Encode([]api.Category{
				{ID: "cat-pain", Label: "Pain", PatientExplanation: "Aches anywhere in the body"},
			})
		case "/v2/chief-complaint/presentations":
			json.NewEncoder(w).Encode(api.PresentationsResponse{
				NumCategories: len(tc.groups),
				Presentations: tc.groups,
			})
		case "/v2/submit-chief-complaint":
			if tc.failSubmit {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var sub api.ChiefComplaintSubmission
			json.NewDecoder(r.Body).Decode(&sub)
			tc.submission = &sub
			json.NewEncoder(w).Encode(api.SubmitResponse{Status: "ok"})
		default:
			http.NotFound(w, r)
		}
	}))

	tc.flow = flow.New(api.NewClient(tc.server.URL, nil))
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &testContext{ctx: context.Background()}

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.server != nil {
			tc.server.Close()
		}
		return ctx, nil
	})

	sc.Step(`^the intake API is available$`, tc.theIntakeAPIIsAvailable)
	sc.Step(`^the safety screen escalates with message "([^"]*)"$`, tc.theSafetyScreenEscalates)
	sc.Step(`^the API has no presentations for any category$`, tc.noPresentations)
	sc.Step(`^the chief complaint submission fails$`, tc.submissionFails)
	sc.Step(`^the chief complaint submission recovers$`, tc.submissionRecovers)
	sc.Step(`^the patient completes registration$`, tc.patientCompletesRegistration)
	sc.Step(`^the patient answers every safety question with "([^"]*)"$`, tc.patientAnswersEverySafetyQuestion)
	sc.Step(`^the patient answers the safety question "([^"]*)" with "([^"]*)"$`, tc.patientAnswersSafetyQuestion)
	sc.Step(`^the patient selects the category "([^"]*)"$`, tc.patientSelectsCategory)
	sc.Step(`^the patient loads the symptom details$`, tc.patientLoadsSymptomDetails)
	sc.Step(`^the patient selects the presentation "([^"]*)" in category "([^"]*)"$`, tc.patientSelectsPresentation)
	sc.Step(`^the patient records onset "([^"]*)" and trend "([^"]*)" for "([^"]*)"$`, tc.patientRecordsTiming)
	sc.Step(`^the patient describes the complaint as "([^"]*)"$`, tc.patientDescribesComplaint)
	sc.Step(`^the patient submits the chief complaint$`, tc.patientSubmits)
	sc.Step(`^the patient submits the chief complaint expecting failure$`, tc.patientSubmitsExpectingFailure)
	sc.Step(`^the flow phase should be "([^"]*)"$`, tc.theFlowPhaseShouldBe)
	sc.Step(`^the wait screen message should be "([^"]*)"$`, tc.theWaitScreenMessageShouldBe)
	sc.Step(`^the submitted payload should include presentation "([^"]*)" in category "([^"]*)"$`, tc.theSubmittedPayloadShouldInclude)
	sc.Step(`^the submitted overall text should be "([^"]*)"$`, tc.theSubmittedOverallTextShouldBe)
}

func (tc *testContext) theIntakeAPIIsAvailable() error {
	tc.startServer()
	return nil
}

func (tc *testContext) theSafetyScreenEscalates(message string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.safetyByID["chest_pain"] = api.SafetyAnswerResponse{
		Status:         "recorded",
		IsLastQuestion: true,
		FinalAction:    api.FinalActionWait,
		UIMessage:      message,
		EncounterToken: "tok-e2e",
	}
	return nil
}

func (tc *testContext) noPresentations() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.groups = nil
	return nil
}

func (tc *testContext) submissionFails() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.failSubmit = true
	return nil
}

func (tc *testContext) submissionRecovers() error {
	tc.mu.Lock()
	tc.failSubmit = false
	tc.mu.Unlock()
	tc.flow.ClearErrs()
	return nil
}

func (tc *testContext) patientCompletesRegistration() error {
	if err := tc.flow.StartRegistration(tc.ctx); err != nil {
		return fmt.Errorf("loading registration questions: %w", err)
	}
	questions := tc.flow.Registration.Questions()
	for i, q := range questions {
		tc.flow.AnswerRegistrationQuestion(q.QuestionID, "answer")
		if i < len(questions)-1 {
			tc.flow.NextRegistrationQuestion()
		}
	}
	if err := tc.flow.CompleteRegistration(tc.ctx); err != nil {
		return fmt.Errorf("submitting registration: %w", err)
	}
	return nil
}

func (tc *testContext) patientAnswersEverySafetyQuestion(answer string) error {
	for {
		q := tc.flow.Safety.CurrentQuestion()
		if q == nil {
			return fmt.Errorf("ran out of safety questions without a verdict")
		}
		result, err := tc.flow.AnswerSafetyQuestion(tc.ctx, q.QuestionID, answer)
		if err != nil {
			return fmt.Errorf("answering %s: %w", q.QuestionID, err)
		}
		if result.IsLastQuestion {
			return nil
		}
	}
}

func (tc *testContext) patientAnswersSafetyQuestion(questionID, answer string) error {
	_, err := tc.flow.AnswerSafetyQuestion(tc.ctx, questionID, answer)
	return err
}

func (tc *testContext) patientSelectsCategory(categoryID string) error {
	if tc.flow.Phase() == flow.PhaseChiefComplaintLoadingCategories {
		if err := tc.flow.StartChiefComplaint(tc.ctx); err != nil {
			return fmt.Errorf("loading categories: %w", err)
		}
	}
	for _, cat := range tc.flow.Chief.Categories() {
		if cat.ID == categoryID {
			tc.flow.ToggleCategory(cat.ID, cat.Label)
			return nil
		}
	}
	return fmt.Errorf("category %s not offered", categoryID)
}

func (tc *testContext) patientLoadsSymptomDetails() error {
	if !tc.flow.CompleteCategorySelection() {
		return fmt.Errorf("no category selected")
	}
	return tc.flow.LoadPresentations(tc.ctx)
}

func (tc *testContext) patientSelectsPresentation(presentationID, categoryID string) error {
	if tc.flow.Phase() == flow.PhaseChiefComplaintCategories {
		if err := tc.patientLoadsSymptomDetails(); err != nil {
			return err
		}
	}
	tc.flow.TogglePresentation(categoryID, presentationID)
	return nil
}

func (tc *testContext) patientRecordsTiming(onset, trend, presentationID string) error {
	// Step through the remaining presentation groups to reach the timing
	// phase.
	for tc.flow.Phase() == flow.PhaseChiefComplaintPresentations {
		tc.flow.NextPresentationGroup()
	}
	if tc.flow.Phase() != flow.PhaseChiefComplaintTimings {
		return fmt.Errorf("expected timing phase, got %s", tc.flow.Phase())
	}
	tc.flow.SetPresentationTiming(presentationID, api.OnsetBucket(onset), api.Trend(trend))
	return nil
}

func (tc *testContext) patientDescribesComplaint(text string) error {
	if tc.flow.Phase() == flow.PhaseChiefComplaintTimings {
		if !tc.flow.Chief.TimingsComplete() {
			return fmt.Errorf("timings incomplete")
		}
		tc.flow.CompleteTimings()
	}
	if tc.flow.Phase() != flow.PhaseChiefComplaintText {
		return fmt.Errorf("expected text phase, got %s", tc.flow.Phase())
	}
	tc.flow.SetChiefComplaintText(text)
	return nil
}

func (tc *testContext) patientSubmits() error {
	return tc.flow.SubmitChiefComplaint(tc.ctx)
}

func (tc *testContext) patientSubmitsExpectingFailure() error {
	if err := tc.flow.SubmitChiefComplaint(tc.ctx); err == nil {
		return fmt.Errorf("expected submission to fail")
	}
	return nil
}

func (tc *testContext) theFlowPhaseShouldBe(expected string) error {
	if got := tc.flow.Phase().String(); got != expected {
		return fmt.Errorf("expected phase %s, got %s", expected, got)
	}
	return nil
}

func (tc *testContext) theWaitScreenMessageShouldBe(expected string) error {
	if got := tc.flow.UIMessage(); got != expected {
		return fmt.Errorf("expected wait message %q, got %q", expected, got)
	}
	return nil
}

func (tc *testContext) theSubmittedPayloadShouldInclude(presentationID, categoryID string) error {
	tc.mu.Lock()
	sub := tc.submission
	tc.mu.Unlock()
	if sub == nil {
		return fmt.Errorf("no submission captured")
	}
	for _, sc := range sub.SelectedCategories {
		if sc.CategoryID != categoryID {
			continue
		}
		for _, sp := range sc.SelectedPresentations {
			if sp.PresentationID == presentationID {
				return nil
			}
		}
	}
	return fmt.Errorf("presentation %s in category %s not found in payload: %+v", presentationID, categoryID, sub.SelectedCategories)
}

func (tc *testContext) theSubmittedOverallTextShouldBe(expected string) error {
	tc.mu.Lock()
	sub := tc.submission
	tc.mu.Unlock()
	if sub == nil {
		return fmt.Errorf("no submission captured")
	}
	if sub.OverallText != expected {
		return fmt.Errorf("expected overall text %q, got %q", expected, sub.OverallText)
	}
	return nil
}
