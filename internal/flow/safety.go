package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/carelane/intake/internal/api"
)

// ErrNoEncounterID is reported when a safety-screen operation runs before
// registration produced an encounter id.
var ErrNoEncounterID = errors.New("no encounter id available")

// SafetyResult is what the orchestrator branches on after the last
// safety-screen answer.
type SafetyResult struct {
	IsLastQuestion     bool
	FinalAction        api.FinalAction
	UIMessage          string
	EncounterToken     string
	OverallRiskLevel   string
	TriggeredQuestions []string
}

// SafetyScreen holds the triage sub-flow. Unlike registration, every answer
// is submitted individually and the next question is shown only after the
// round trip completes.
type SafetyScreen struct {
	client *api.Client

	mu          sync.Mutex
	encounterID string
	questions   []api.Question
	answers     map[string]string
	index       int
	loaded      bool
	loading     bool
	submitting  bool
	result      *SafetyResult
	err         error
}

// NewSafetyScreen creates an empty safety-screen sub-flow.
func NewSafetyScreen(client *api.Client) *SafetyScreen {
	return &SafetyScreen{
		client:  client,
		answers: make(map[string]string),
	}
}

// SetEncounterID stores the encounter id produced by registration.
// Write-once in practice; there is no concurrent writer.
func (s *SafetyScreen) SetEncounterID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encounterID = id
}

// LoadQuestions fetches the safety-screen questions. It is triggered by the
// orchestrator, not on construction, because it depends on registration
// having produced an encounter id.
func (s *SafetyScreen) LoadQuestions(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	if s.encounterID == "" {
		s.err = ErrNoEncounterID
		s.mu.Unlock()
		return ErrNoEncounterID
	}
	s.loading = true
	s.mu.Unlock()

	questions, err := s.client.SafetyQuestions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.questions = questions
	s.loaded = true
	s.err = nil
	return nil
}

// AnswerQuestion submits one answer and waits for the server's evaluation.
// The local answer map is updated only after a successful response. The
// index advances by one unless the server marked this as the last question;
// in that case the result is returned for the orchestrator to branch on.
// On failure the index does not advance and the same question may be
// retried.
func (s *SafetyScreen) AnswerQuestion(ctx context.Context, questionID, answer string) (*SafetyResult, error) {
	s.mu.Lock()
	if s.encounterID == "" {
		s.err = ErrNoEncounterID
		s.mu.Unlock()
		return nil, ErrNoEncounterID
	}
	req := api.SafetyAnswerRequest{
		QuestionID:  questionID,
		Answer:      answer,
		EncounterID: s.encounterID,
	}
	s.submitting = true
	s.mu.Unlock()

	resp, err := s.client.SubmitSafetyAnswer(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.err = err
		return nil, err
	}

	s.answers[questionID] = answer
	s.err = nil

	result := &SafetyResult{
		IsLastQuestion:     resp.IsLastQuestion,
		FinalAction:        resp.FinalAction,
		UIMessage:          resp.UIMessage,
		EncounterToken:     resp.EncounterToken,
		OverallRiskLevel:   resp.OverallRiskLevel,
		TriggeredQuestions: resp.TriggeredQuestions,
	}
	if resp.IsLastQuestion {
		s.result = result
	} else {
		s.index++
	}
	return result, nil
}

// CurrentQuestion returns the question at the current index, or nil.
func (s *SafetyScreen) CurrentQuestion() *api.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.questions) {
		return nil
	}
	q := s.questions[s.index]
	return &q
}

// CurrentIndex returns the current question index.
func (s *SafetyScreen) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Progress returns currentIndex/totalQuestions, 0 when no questions are
// loaded.
func (s *SafetyScreen) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return 0
	}
	return float64(s.index) / float64(len(s.questions))
}

// Questions returns a copy of the loaded question list.
func (s *SafetyScreen) Questions() []api.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Answers returns a copy of the accumulated answer map.
func (s *SafetyScreen) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Loaded reports whether the question list has been fetched.
func (s *SafetyScreen) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Loading reports whether a fetch is in flight.
func (s *SafetyScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Result returns the final-answer result, nil until the last question has
// been answered.
func (s *SafetyScreen) Result() *SafetyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Err returns the sub-flow's current error.
func (s *SafetyScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr clears the sub-flow's error before a retry.
func (s *SafetyScreen) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}
