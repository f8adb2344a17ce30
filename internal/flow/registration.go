package flow

import (
	"context"
	"sync"

	"github.com/carelane/intake/internal/api"
)

// Registration holds the registration sub-flow: an ordered question list and
// a freeform answer map, submitted as one batch at the end.
//
// All methods are safe for concurrent use; the wizard calls the blocking
// operations from command goroutines while the render goroutine reads state.
type Registration struct {
	client *api.Client

	mu          sync.Mutex
	questions   []api.Question
	answers     map[string]string
	index       int
	loaded      bool
	submitting  bool
	encounterID string
	err         error
}

// NewRegistration creates an empty registration sub-flow.
func NewRegistration(client *api.Client) *Registration {
	return &Registration{
		client:  client,
		answers: make(map[string]string),
	}
}

// LoadQuestions fetches the registration questions once. It is idempotent
// on success: a second call after a successful load does not re-fetch.
func (r *Registration) LoadQuestions(ctx context.Context) error {
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	questions, err := r.client.RegistrationQuestions(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.err = err
		return err
	}
	r.questions = questions
	r.loaded = true
	r.err = nil
	return nil
}

// AnswerQuestion records an answer for a presented question. The last write
// per question id wins. Answers for unknown question ids are ignored so the
// answer map never contains an entry for a question that was not presented.
func (r *Registration) AnswerQuestion(questionID, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.QuestionID == questionID {
			r.answers[questionID] = answer
			return
		}
	}
}

// Next advances the presented-question index, clamped to the question count.
func (r *Registration) Next() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index < len(r.questions) {
		r.index++
	}
}

// Submit sends the full accumulated answer map. On success it stores and
// returns the server-issued encounter id; on failure it records the error
// and returns "".
func (r *Registration) Submit(ctx context.Context) (string, error) {
	r.mu.Lock()
	answers := make(map[string]string, len(r.answers))
	for k, v := range r.answers {
		answers[k] = v
	}
	r.submitting = true
	r.mu.Unlock()

	resp, err := r.client.SubmitRegistration(ctx, answers)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitting = false
	if err != nil {
		r.err = err
		return "", err
	}
	r.encounterID = resp.EncounterID
	r.err = nil
	return resp.EncounterID, nil
}

// CurrentQuestion returns the question at the presented index, or nil when
// every question has been presented.
func (r *Registration) CurrentQuestion() *api.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index >= len(r.questions) {
		return nil
	}
	q := r.questions[r.index]
	return &q
}

// CurrentIndex returns the presented-question index.
func (r *Registration) CurrentIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Complete reports whether every question has been presented.
func (r *Registration) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded && r.index >= len(r.questions)
}

// Progress returns answeredCount/totalQuestions, 0 when no questions are
// loaded, clamped to [0,1].
func (r *Registration) Progress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.questions) == 0 {
		return 0
	}
	p := float64(len(r.answers)) / float64(len(r.questions))
	if p > 1 {
		p = 1
	}
	return p
}

// Questions returns a copy of the loaded question list.
func (r *Registration) Questions() []api.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]api.Question, len(r.questions))
	copy(out, r.questions)
	return out
}

// Answers returns a copy of the accumulated answer map.
func (r *Registration) Answers() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.answers))
	for k, v := range r.answers {
		out[k] = v
	}
	return out
}

// Loaded reports whether the question list has been fetched.
func (r *Registration) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// EncounterID returns the server-issued encounter id, "" before a
// successful submission.
func (r *Registration) EncounterID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encounterID
}

// Err returns the sub-flow's current error.
func (r *Registration) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ClearErr clears the sub-flow's error before a retry.
func (r *Registration) ClearErr() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = nil
}
