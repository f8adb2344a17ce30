package flow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/carelane/intake/internal/api"
)

// intakeServer scripts the whole intake API for orchestrator tests.
type intakeServer struct {
	*httptest.Server

	mu                 sync.Mutex
	lastAnswer         api.SafetyAnswerRequest
	safetyByID         map[string]api.SafetyAnswerResponse
	groups             []api.PresentationGroup
	categories         []api.Category
	failSubmit         bool
	failRegister       bool
	failSafetyFetch    bool
	registerSubmission int
	submission         *api.ChiefComplaintSubmission
}


func newIntakeServer(t *testing.T) *intakeServer {
	t.Helper()
	s := &intakeServer{
		safetyByID: map[string]api.SafetyAnswerResponse{
			"chest_pain": {Status: "recorded"},
			"breathing":  {Status: "recorded", IsLastQuestion: true, FinalAction: api.FinalActionProceed},
		},
		groups:     testGroups,
		categories: testCategories,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch r.URL.Path {
		case "/get-initial-questions":
			json.NewEncoder(w).Encode(registrationQuestions)
		case "/submit-registration":
			if s.failRegister {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			s.registerSubmission++
			json.NewEncoder(w).Encode(api.RegistrationResponse{EncounterID: "enc-1"})
		case "/get-questions":
			if s.failSafetyFetch {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(safetyQuestions)
		case "/submit-safety-answer":
			var req api.SafetyAnswerRequest
			json.NewDecoder(r.Body).Decode(&req)
			s.lastAnswer = req
			resp := s.safetyByID[req.QuestionID]
			resp.QuestionID = req.QuestionID
			json.NewEncoder(w).Encode(resp)
		case "/v2/chief-complaint/categories":
			json.NewEncoder(w).Encode(s.categories)
		case "/v2/chief-complaint/presentations":
			json.NewEncoder(w).Encode(api.PresentationsResponse{
				NumCategories: len(s.groups),
				Presentations: s.groups,
			})
		case "/v2/submit-chief-complaint":
			if s.failSubmit {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var sub api.ChiefComplaintSubmission
			json.NewDecoder(r.Body).Decode(&sub)
			s.submission = &sub
			json.NewEncoder(w).Encode(api.SubmitResponse{Status: "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
	return s
}

func (s *intakeServer) setSafetyResponse(questionID string, resp api.SafetyAnswerResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safetyByID[questionID] = resp
}

func newTestFlow(t *testing.T, server *intakeServer) *Flow {
	t.Helper()
	return New(api.NewClient(server.URL, nil))
}

// runRegistration answers every registration question and submits.
func runRegistration(t *testing.T, f *Flow) {
	t.Helper()
	ctx := context.Background()
	if err := f.StartRegistration(ctx); err != nil {
		t.Fatalf("StartRegistration failed: %v", err)
	}
	questions := f.Registration.Questions()
	for i, q := range questions {
		f.AnswerRegistrationQuestion(q.QuestionID, "answer")
		if i < len(questions)-1 {
			f.NextRegistrationQuestion()
		}
	}
	if err := f.CompleteRegistration(ctx); err != nil {
		t.Fatalf("CompleteRegistration failed: %v", err)
	}
}

// runSafety answers every safety question with the given answer.
func runSafety(t *testing.T, f *Flow, answer string) {
	t.Helper()
	ctx := context.Background()
	for {
		q := f.Safety.CurrentQuestion()
		if q == nil {
			t.Fatal("Ran out of safety questions without a last-question verdict")
		}
		result, err := f.AnswerSafetyQuestion(ctx, q.QuestionID, answer)
		if err != nil {
			t.Fatalf("AnswerSafetyQuestion failed: %v", err)
		}
		if result.IsLastQuestion {
			return
		}
	}
}

func TestFlowStartsAtRegistration(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()

	f := newTestFlow(t, server)
	if f.Phase() != PhaseRegistrationQuestions {
		t.Errorf("Expected registration_questions, got %s", f.Phase())
	}
}

func TestFlowRegistrationToSafety(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()

	f := newTestFlow(t, server)
	runRegistration(t, f)

	if f.Phase() != PhaseSafetyScreenQuestions {
		t.Errorf("Expected safety_screen_questions, got %s", f.Phase())
	}
	if f.EncounterID() != "enc-1" {
		t.Errorf("Expected encounter id enc-1, got %s", f.EncounterID())
	}
	if len(f.Safety.Questions()) != 2 {
		t.Errorf("Expected safety questions loaded, got %d", len(f.Safety.Questions()))
	}
}

func TestFlowRegistrationFailureReverts(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()
	server.mu.Lock()
	server.failRegister = true
	server.mu.Unlock()

	f := newTestFlow(t, server)
	ctx := context.Background()
	if err := f.StartRegistration(ctx); err != nil {
		t.Fatalf("StartRegistration failed: %v", err)
	}
	if err := f.CompleteRegistration(ctx); err == nil {
		t.Fatal("Expected CompleteRegistration to fail")
	}

	if f.Phase() != PhaseRegistrationQuestions {
		t.Errorf("Expected revert to registration_questions, got %s", f.Phase())
	}
	if f.Err() == nil {
		t.Error("Expected error surfaced from the registration sub-flow")
	}

	// Retry after the server recovers.
	server.mu.Lock()
	server.failRegister = false
	server.mu.Unlock()
	f.ClearErrs()
	if err := f.CompleteRegistration(ctx); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if f.Phase() != PhaseSafetyScreenQuestions {
		t.Errorf("Expected safety_screen_questions after retry, got %s", f.Phase())
	}
}

func TestFlowSafetyFetchFailureRecoversOnRetry(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()
	server.mu.Lock()
	server.failSafetyFetch = true
	server.mu.Unlock()

	f := newTestFlow(t, server)
	ctx := context.Background()
	if err := f.StartRegistration(ctx); err != nil {
		t.Fatalf("StartRegistration failed: %v", err)
	}
	for _, q := range f.Registration.Questions() {
		f.AnswerRegistrationQuestion(q.QuestionID, "answer")
	}
	if err := f.CompleteRegistration(ctx); err == nil {
		t.Fatal("Expected CompleteRegistration to fail on the question fetch")
	}
	if f.Phase() != PhaseLoadingQuestions {
		t.Errorf("Expected loading_questions while the fetch is failing, got %s", f.Phase())
	}
	if f.EncounterID() != "enc-1" {
		t.Errorf("Expected encounter id enc-1 kept after the failed fetch, got %s", f.EncounterID())
	}

	// Retry after the server recovers: the questions are re-fetched, the
	// registration is not resubmitted.
	server.mu.Lock()
	server.failSafetyFetch = false
	server.mu.Unlock()
	f.ClearErrs()
	if err := f.CompleteRegistration(ctx); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if f.Phase() != PhaseSafetyScreenQuestions {
		t.Errorf("Expected safety_screen_questions after retry, got %s", f.Phase())
	}
	if len(f.Safety.Questions()) != 2 {
		t.Errorf("Expected safety questions loaded after retry, got %d", len(f.Safety.Questions()))
	}
	server.mu.Lock()
	submissions := server.registerSubmission
	server.mu.Unlock()
	if submissions != 1 {
		t.Errorf("Expected exactly one registration submission, got %d", submissions)
	}
}

func TestFlowSafetyProceedToChiefComplaint(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()

	f := newTestFlow(t, server)
	runRegistration(t, f)
	runSafety(t, f, "No")

	if f.Phase() != PhaseChiefComplaintLoadingCategories {
		t.Errorf("Expected chief_complaint_loading_categories, got %s", f.Phase())
	}

	if err := f.StartChiefComplaint(context.Background()); err != nil {
		t.Fatalf("StartChiefComplaint failed: %v", err)
	}
	if f.Phase() != PhaseChiefComplaintCategories {
		t.Errorf("Expected chief_complaint_categories, got %s", f.Phase())
	}
}

func TestFlowSafetyWaitScreenIsTerminal(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()
	server.setSafetyResponse("chest_pain", api.SafetyAnswerResponse{
		Status:         "recorded",
		IsLastQuestion: true,
		FinalAction:    api.FinalActionWait,
		UIMessage:      "Please alert the front desk.",
		EncounterToken: "tok-7",
	})

	f := newTestFlow(t, server)
	runRegistration(t, f)

	result, err := f.AnswerSafetyQuestion(context.Background(), "chest_pain", "Yes")
	if err != nil {
		t.Fatalf("AnswerSafetyQuestion failed: %v", err)
	}
	if !result.IsLastQuestion {
		t.Fatal("Expected last-question verdict")
	}

	if f.Phase() != PhaseFailedSafetyScreen {
		t.Errorf("Expected failed_safety_screen, got %s", f.Phase())
	}
	if f.UIMessage() != "Please alert the front desk." {
		t.Errorf("Unexpected ui message: %s", f.UIMessage())
	}
	if f.EncounterToken() != "tok-7" {
		t.Errorf("Expected token tok-7, got %s", f.EncounterToken())
	}

	// Terminal phases are sinks.
	if err := f.StartChiefComplaint(context.Background()); err != nil {
		t.Fatalf("StartChiefComplaint failed: %v", err)
	}
	if f.Phase() != PhaseFailedSafetyScreen {
		t.Errorf("Expected terminal phase to stick, got %s", f.Phase())
	}
}

func TestFlowFullHappyPath(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()

	f := newTestFlow(t, server)
	ctx := context.Background()

	runRegistration(t, f)
	runSafety(t, f, "No")

	if err := f.StartChiefComplaint(ctx); err != nil {
		t.Fatalf("StartChiefComplaint failed: %v", err)
	}

	f.ToggleCategory("cat-pain", "Pain")
	f.ToggleCategory("cat-breathing", "Breathing")
	if !f.CompleteCategorySelection() {
		t.Fatal("CompleteCategorySelection refused a non-empty selection")
	}
	if f.Phase() != PhaseChiefComplaintLoadingPresentations {
		t.Errorf("Expected chief_complaint_loading_presentations, got %s", f.Phase())
	}

	if err := f.LoadPresentations(ctx); err != nil {
		t.Fatalf("LoadPresentations failed: %v", err)
	}
	if f.Phase() != PhaseChiefComplaintPresentations {
		t.Errorf("Expected chief_complaint_presentations, got %s", f.Phase())
	}

	f.TogglePresentation("cat-pain", "pres-headache")
	f.NextPresentationGroup()
	f.TogglePresentation("cat-breathing", "pres-wheeze")
	f.NextPresentationGroup()

	if f.Phase() != PhaseChiefComplaintTimings {
		t.Errorf("Expected chief_complaint_presentations_details, got %s", f.Phase())
	}

	f.SetPresentationTiming("pres-headache", api.OnsetToday, api.TrendWorse)
	f.SetPresentationTiming("pres-wheeze", api.OnsetYesterday, api.TrendSame)
	f.CompleteTimings()

	if f.Phase() != PhaseChiefComplaintText {
		t.Errorf("Expected chief_complaint_text, got %s", f.Phase())
	}

	f.SetChiefComplaintText("Headache and wheezing since yesterday")
	if err := f.SubmitChiefComplaint(ctx); err != nil {
		t.Fatalf("SubmitChiefComplaint failed: %v", err)
	}
	if f.Phase() != PhaseComplete {
		t.Errorf("Expected complete, got %s", f.Phase())
	}

	server.mu.Lock()
	sub := server.submission
	server.mu.Unlock()
	if sub == nil {
		t.Fatal("Expected a captured submission")
	}
	if sub.EncounterID != "enc-1" {
		t.Errorf("Expected encounter id enc-1, got %s", sub.EncounterID)
	}
	if len(sub.SelectedCategories) != 2 {
		t.Fatalf("Expected 2 categories in payload, got %d", len(sub.SelectedCategories))
	}
	// Payload order follows group order, not selection order.
	if sub.SelectedCategories[0].CategoryID != "cat-pain" {
		t.Errorf("Expected cat-pain first, got %s", sub.SelectedCategories[0].CategoryID)
	}
}

func TestFlowZeroPresentationsSkipsToText(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()
	server.mu.Lock()
	server.groups = nil
	server.mu.Unlock()

	f := newTestFlow(t, server)
	ctx := context.Background()
	runRegistration(t, f)
	runSafety(t, f, "No")
	if err := f.StartChiefComplaint(ctx); err != nil {
		t.Fatalf("StartChiefComplaint failed: %v", err)
	}

	f.ToggleCategory("cat-pain", "Pain")
	f.CompleteCategorySelection()
	if err := f.LoadPresentations(ctx); err != nil {
		t.Fatalf("LoadPresentations failed: %v", err)
	}

	if f.Phase() != PhaseChiefComplaintText {
		t.Errorf("Expected skip to chief_complaint_text, got %s", f.Phase())
	}
}

func TestFlowZeroCategoriesSkipsToText(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()
	server.mu.Lock()
	server.categories = []api.Category{}
	server.mu.Unlock()

	f := newTestFlow(t, server)
	ctx := context.Background()
	runRegistration(t, f)
	runSafety(t, f, "No")

	if err := f.StartChiefComplaint(ctx); err != nil {
		t.Fatalf("StartChiefComplaint failed: %v", err)
	}
	if f.Phase() != PhaseChiefComplaintText {
		t.Errorf("Expected skip to chief_complaint_text, got %s", f.Phase())
	}

	f.SetChiefComplaintText("Something that doesn't fit the usual boxes")
	if err := f.SubmitChiefComplaint(ctx); err != nil {
		t.Fatalf("SubmitChiefComplaint failed: %v", err)
	}
	if f.Phase() != PhaseComplete {
		t.Errorf("Expected complete, got %s", f.Phase())
	}
}

func TestFlowSubmitFailureRevertsToText(t *testing.T) {
	server := newIntakeServer(t)
	defer server.Close()

	f := newTestFlow(t, server)
	ctx := context.Background()
	runRegistration(t, f)
	runSafety(t, f, "No")
	if err := f.StartChiefComplaint(ctx); err != nil {
		t.Fatalf("StartChiefComplaint failed: %v", err)
	}
	f.ToggleCategory("cat-pain", "Pain")
	f.CompleteCategorySelection()
	if err := f.LoadPresentations(ctx); err != nil {
		t.Fatalf("LoadPresentations failed: %v", err)
	}
	f.TogglePresentation("cat-pain", "pres-headache")
	f.NextPresentationGroup()
	f.NextPresentationGroup()
	f.SetPresentationTiming("pres-headache", api.OnsetToday, api.TrendWorse)
	f.CompleteTimings()
	f.SetChiefComplaintText("Headache")

	server.mu.Lock()
	server.failSubmit = true
	server.mu.Unlock()
	if err := f.SubmitChiefComplaint(ctx); err == nil {
		t.Fatal("Expected SubmitChiefComplaint to fail")
	}
	if f.Phase() != PhaseChiefComplaintText {
		t.Errorf("Expected revert to chief_complaint_text, got %s", f.Phase())
	}

	server.mu.Lock()
	server.failSubmit = false
	server.mu.Unlock()
	f.ClearErrs()
	if err := f.SubmitChiefComplaint(ctx); err != nil {
		t.Fatalf("Resubmit failed: %v", err)
	}
	if f.Phase() != PhaseComplete {
		t.Errorf("Expected complete after resubmit, got %s", f.Phase())
	}
}

func TestPhaseStrings(t *testing.T) {
	cases := map[Phase]string{
		PhaseRegistrationQuestions:              "registration_questions",
		PhaseLoadingQuestions:                   "loading_questions",
		PhaseSafetyScreenQuestions:              "safety_screen_questions",
		PhaseChiefComplaintLoadingCategories:    "chief_complaint_loading_categories",
		PhaseChiefComplaintCategories:           "chief_complaint_categories",
		PhaseChiefComplaintLoadingPresentations: "chief_complaint_loading_presentations",
		PhaseChiefComplaintPresentations:        "chief_complaint_presentations",
		PhaseChiefComplaintTimings:              "chief_complaint_presentations_details",
		PhaseChiefComplaintText:                 "chief_complaint_text",
		PhaseSubmitting:                         "submitting",
		PhaseComplete:                           "complete",
		PhaseFailedSafetyScreen:                 "failed_safety_screen",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}

	if !PhaseComplete.Terminal() || !PhaseFailedSafetyScreen.Terminal() {
		t.Error("Expected complete and failed_safety_screen to be terminal")
	}
	if PhaseChiefComplaintText.Terminal() {
		t.Error("chief_complaint_text should not be terminal")
	}
	if !PhaseSubmitting.Loading() || PhaseChiefComplaintText.Loading() {
		t.Error("Loading classification mismatch")
	}
}
