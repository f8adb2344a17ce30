package flow

import (
	"context"
	"sync"

	"github.com/carelane/intake/internal/api"
)

// ChiefComplaintPhase is the chief-complaint sub-flow's internal phase.
type ChiefComplaintPhase int

const (
	CCLoadingCategories ChiefComplaintPhase = iota
	CCCategories
	CCLoadingPresentations
	CCPresentations
	CCTimings
	CCTextEntry
	CCSubmitting
	CCComplete
)

// String returns the wire-style name of the sub-flow phase.
func (p ChiefComplaintPhase) String() string {
	switch p {
	case CCLoadingCategories:
		return "loading_categories"
	case CCCategories:
		return "categories"
	case CCLoadingPresentations:
		return "loading_presentations"
	case CCPresentations:
		return "presentations"
	case CCTimings:
		return "timings"
	case CCTextEntry:
		return "text_entry"
	case CCSubmitting:
		return "submitting"
	case CCComplete:
		return "complete"
	}
	return "unknown"
}

// PresentationDetail is a patient-facing view of one selected presentation,
// used by the timing step.
type PresentationDetail struct {
	ID           string
	Label        string
	Description  string
	CategoryName string
}

// ChiefComplaint manages the nested chief-complaint selection: categories,
// then per-category presentations shown one group at a time, then per-
// presentation timing, then free text, then the final submission.
type ChiefComplaint struct {
	client *api.Client

	mu                 sync.Mutex
	encounterID        string
	phase              ChiefComplaintPhase
	categories         []api.Category
	selected           []api.CategoryRef
	groups             []api.PresentationGroup
	selectedByCategory map[string][]string
	groupIndex         int
	timingByID         map[string]api.Timing
	text               string
	err                error
}

// NewChiefComplaint creates an empty chief-complaint sub-flow.
func NewChiefComplaint(client *api.Client) *ChiefComplaint {
	return &ChiefComplaint{
		client:             client,
		phase:              CCLoadingCategories,
		selectedByCategory: make(map[string][]string),
		timingByID:         make(map[string]api.Timing),
	}
}

// SetEncounterID stores the encounter id produced by registration.
func (c *ChiefComplaint) SetEncounterID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encounterID = id
}

// Phase returns the sub-flow's internal phase.
func (c *ChiefComplaint) Phase() ChiefComplaintPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LoadCategories fetches the chief-complaint categories. Triggered by the
// orchestrator once the safety screen has passed.
func (c *ChiefComplaint) LoadCategories(ctx context.Context) error {
	c.mu.Lock()
	if c.encounterID == "" {
		c.err = ErrNoEncounterID
		c.mu.Unlock()
		return ErrNoEncounterID
	}
	encounterID := c.encounterID
	c.mu.Unlock()

	categories, err := c.client.Categories(ctx, encounterID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		return err
	}
	c.categories = categories
	c.err = nil
	// Nothing to choose from: go straight to free text, same as when the
	// selected categories come back with no presentation groups.
	if len(categories) == 0 {
		c.phase = CCTextEntry
	} else {
		c.phase = CCCategories
	}
	return nil
}

// ToggleCategory adds or removes a category from the selection. Applying it
// twice with the same id returns the selection to its prior state.
func (c *ChiefComplaint) ToggleCategory(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ref := range c.selected {
		if ref.ID == id {
			next := make([]api.CategoryRef, 0, len(c.selected)-1)
			next = append(next, c.selected[:i]...)
			next = append(next, c.selected[i+1:]...)
			c.selected = next
			return
		}
	}
	c.selected = append(c.selected, api.CategoryRef{ID: id, Name: name})
}

// CompleteCategorySelection advances to presentation loading. It is a no-op
// returning false when nothing is selected.
func (c *ChiefComplaint) CompleteCategorySelection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != CCCategories || len(c.selected) == 0 {
		return false
	}
	c.phase = CCLoadingPresentations
	return true
}

// LoadPresentations fetches the per-category presentation groups for the
// selected categories and resets the group index. A response with zero
// groups skips directly to text entry instead of rendering an empty
// selection screen.
func (c *ChiefComplaint) LoadPresentations(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != CCLoadingPresentations || len(c.selected) == 0 {
		c.mu.Unlock()
		return nil
	}
	req := api.PresentationsRequest{Categories: append([]api.CategoryRef(nil), c.selected...)}
	c.mu.Unlock()

	resp, err := c.client.Presentations(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		return err
	}
	c.groups = resp.Presentations
	c.groupIndex = 0
	c.err = nil
	if len(c.groups) == 0 {
		c.phase = CCTextEntry
	} else {
		c.phase = CCPresentations
	}
	return nil
}

// TogglePresentation adds or removes a presentation id within the given
// category's ordered selection. Replace-on-write so readers never observe a
// half-mutated slice.
func (c *ChiefComplaint) TogglePresentation(categoryID, presentationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.selectedByCategory[categoryID]
	for i, id := range current {
		if id == presentationID {
			next := make([]string, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			c.selectedByCategory[categoryID] = next
			return
		}
	}
	next := make([]string, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, presentationID)
	c.selectedByCategory[categoryID] = next
}

// NextGroup advances to the next presentation group. On the last group it
// transitions to the timing phase; the index never exceeds len(groups)-1.
func (c *ChiefComplaint) NextGroup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != CCPresentations {
		return
	}
	if c.groupIndex >= len(c.groups)-1 {
		c.phase = CCTimings
		return
	}
	c.groupIndex++
}

// SetTiming records onset and trend for a presentation. Empty values leave
// the field unset; partial timings are allowed here and gated at the
// completeness check.
func (c *ChiefComplaint) SetTiming(presentationID string, onset api.OnsetBucket, trend api.Trend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timingByID[presentationID] = api.Timing{OnsetBucket: onset, Trend: trend}
}

// Timing returns the recorded timing for a presentation (zero value when
// none was recorded).
func (c *ChiefComplaint) Timing(presentationID string) api.Timing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timingByID[presentationID]
}

// TimingsComplete reports whether every selected presentation has a fully
// set timing. A partially set timing counts as incomplete.
func (c *ChiefComplaint) TimingsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ids := range c.selectedByCategory {
		for _, id := range ids {
			if !c.timingByID[id].Complete() {
				return false
			}
		}
	}
	return true
}

// CompleteTimings advances from the timing phase to free-text entry.
func (c *ChiefComplaint) CompleteTimings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == CCTimings {
		c.phase = CCTextEntry
	}
}

// SetText stores the free-text chief complaint.
func (c *ChiefComplaint) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

// Text returns the free-text chief complaint.
func (c *ChiefComplaint) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Submit builds the final payload and posts it. On success the sub-flow
// completes; on failure it reverts to text entry with the error set so the
// user can resubmit with selections and text intact.
func (c *ChiefComplaint) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.phase = CCSubmitting
	sub := c.buildSubmissionLocked()
	c.mu.Unlock()

	_, err := c.client.SubmitChiefComplaint(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		c.phase = CCTextEntry
		return err
	}
	c.phase = CCComplete
	c.err = nil
	return nil
}

// buildSubmissionLocked assembles the v2 payload in group order. Groups
// with no selected presentations are filtered out, which keeps the payload
// clean even when a category was fully deselected after its entry was
// created.
func (c *ChiefComplaint) buildSubmissionLocked() api.ChiefComplaintSubmission {
	var selectedCategories []api.SelectedCategory
	for _, group := range c.groups {
		ids := c.selectedByCategory[group.CategoryID]
		if len(ids) == 0 {
			continue
		}
		presentations := make([]api.SelectedPresentation, 0, len(ids))
		for _, id := range ids {
			presentations = append(presentations, api.SelectedPresentation{
				CategoryID:     group.CategoryID,
				PresentationID: id,
				Timing:         c.timingByID[id],
			})
		}
		selectedCategories = append(selectedCategories, api.SelectedCategory{
			CategoryName:          group.CategoryName,
			CategoryID:            group.CategoryID,
			SelectedPresentations: presentations,
		})
	}
	return api.ChiefComplaintSubmission{
		EncounterID:        c.encounterID,
		OverallText:        c.text,
		SelectedCategories: selectedCategories,
	}
}

// Categories returns a copy of the fetched categories.
func (c *ChiefComplaint) Categories() []api.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// SelectedCategories returns a copy of the current category selection in
// insertion order.
func (c *ChiefComplaint) SelectedCategories() []api.CategoryRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.CategoryRef, len(c.selected))
	copy(out, c.selected)
	return out
}

// SelectedPresentations returns a copy of the selected presentation ids for
// one category.
func (c *ChiefComplaint) SelectedPresentations(categoryID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selectedByCategory[categoryID]...)
}

// CurrentGroup returns the presentation group at the current index, or nil.
func (c *ChiefComplaint) CurrentGroup() *api.PresentationGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groupIndex >= len(c.groups) {
		return nil
	}
	g := c.groups[c.groupIndex]
	return &g
}

// CurrentGroupIndex returns the current group index.
func (c *ChiefComplaint) CurrentGroupIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupIndex
}

// GroupCount returns the number of presentation groups.
func (c *ChiefComplaint) GroupCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.groups)
}

// GroupProgress returns currentGroupIndex/groupCount, 0 with no groups.
func (c *ChiefComplaint) GroupProgress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.groups) == 0 {
		return 0
	}
	return float64(c.groupIndex) / float64(len(c.groups))
}

// IsLastGroup reports whether the current group is the final one.
func (c *ChiefComplaint) IsLastGroup() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupIndex >= len(c.groups)-1
}

// SelectedPresentationsDetailed returns patient-facing details for every
// selected presentation, in group order. Patient-facing label and
// explanation win over the clinical ones when present.
func (c *ChiefComplaint) SelectedPresentationsDetailed() []PresentationDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []PresentationDetail
	for _, group := range c.groups {
		selected := c.selectedByCategory[group.CategoryID]
		for _, p := range group.Presentations {
			if !containsString(selected, p.ID) {
				continue
			}
			label := p.PatientLabel
			if label == "" {
				label = p.Label
			}
			description := p.PatientExplanation
			if description == "" {
				description = p.Description
			}
			out = append(out, PresentationDetail{
				ID:           p.ID,
				Label:        label,
				Description:  description,
				CategoryName: group.CategoryName,
			})
		}
	}
	return out
}

// Err returns the sub-flow's current error.
func (c *ChiefComplaint) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearErr clears the sub-flow's error before a retry.
func (c *ChiefComplaint) ClearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
