package wizard

import (
	"testing"

	"github.com/carelane/intake/internal/api"
	"github.com/carelane/intake/internal/flow"
)

func TestReconcileCategories(t *testing.T) {
	f := flow.New(api.NewClient("", nil))
	w := NewWizard(f)

	f.ToggleCategory("cat-pain", "Pain")
	f.ToggleCategory("cat-skin", "Skin")

	// The screen kept pain, dropped skin, and added breathing.
	w.reconcileCategories([]api.CategoryRef{
		{ID: "cat-pain", Name: "Pain"},
		{ID: "cat-breathing", Name: "Breathing"},
	})

	got := f.Chief.SelectedCategories()
	if len(got) != 2 {
		t.Fatalf("Expected 2 selected categories, got %+v", got)
	}
	if !containsCategory(got, "cat-pain") || !containsCategory(got, "cat-breathing") {
		t.Errorf("Unexpected selection: %+v", got)
	}
	if containsCategory(got, "cat-skin") {
		t.Errorf("Expected cat-skin deselected, got %+v", got)
	}
}

func TestReconcileCategories_NoChange(t *testing.T) {
	f := flow.New(api.NewClient("", nil))
	w := NewWizard(f)

	f.ToggleCategory("cat-pain", "Pain")

	w.reconcileCategories([]api.CategoryRef{{ID: "cat-pain", Name: "Pain"}})

	if got := f.Chief.SelectedCategories(); len(got) != 1 || got[0].ID != "cat-pain" {
		t.Errorf("Expected selection unchanged, got %+v", got)
	}
}

func TestReconcilePresentations(t *testing.T) {
	f := flow.New(api.NewClient("", nil))
	w := NewWizard(f)

	f.TogglePresentation("cat-pain", "pres-headache")
	f.TogglePresentation("cat-pain", "pres-backache")

	w.reconcilePresentations("cat-pain", []string{"pres-headache", "pres-jointache"})

	got := f.Chief.SelectedPresentations("cat-pain")
	if len(got) != 2 {
		t.Fatalf("Expected 2 selected presentations, got %v", got)
	}
	if !containsID(got, "pres-headache") || !containsID(got, "pres-jointache") {
		t.Errorf("Unexpected selection: %v", got)
	}
	if containsID(got, "pres-backache") {
		t.Errorf("Expected pres-backache deselected, got %v", got)
	}
}

func TestReconcilePresentations_FullDeselection(t *testing.T) {
	f := flow.New(api.NewClient("", nil))
	w := NewWizard(f)

	f.TogglePresentation("cat-pain", "pres-headache")

	w.reconcilePresentations("cat-pain", nil)

	if got := f.Chief.SelectedPresentations("cat-pain"); len(got) != 0 {
		t.Errorf("Expected empty selection, got %v", got)
	}
}

func TestContainsHelpers(t *testing.T) {
	refs := []api.CategoryRef{{ID: "a", Name: "A"}}
	if !containsCategory(refs, "a") || containsCategory(refs, "b") {
		t.Error("containsCategory mismatch")
	}
	if !containsID([]string{"x", "y"}, "y") || containsID(nil, "x") {
		t.Error("containsID mismatch")
	}
}
