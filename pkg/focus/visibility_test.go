package focus

import (
	"testing"

	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

func TestVisibilityDefaults(t *testing.T) {
	v := NewEdgeVisibility()
	if v.Mode() != ModeBaseline {
		t.Fatalf("mode = %v, want baseline", v.Mode())
	}
	if v.ShowRecommended() || v.ShowRelated() {
		t.Fatal("baseline must hide recommended and related edges")
	}

	v.SetMode(ModeFocused)
	if !v.ShowRecommended() || !v.ShowRelated() {
		t.Fatal("focused must show recommended and related edges")
	}
}

func TestVisibilityDefaultsApplyOncePerFlip(t *testing.T) {
	v := NewEdgeVisibility()
	v.SetMode(ModeFocused)

	// User hides recommended edges while focused.
	v.ToggleRecommended()
	if v.ShowRecommended() {
		t.Fatal("toggle did not hide recommended")
	}

	// Re-asserting the same mode must not clobber the toggle.
	v.SetMode(ModeFocused)
	if v.ShowRecommended() {
		t.Fatal("re-asserting mode reapplied defaults")
	}

	// An actual flip does reapply defaults.
	v.SetMode(ModeBaseline)
	v.SetMode(ModeFocused)
	if !v.ShowRecommended() {
		t.Fatal("mode flip did not reapply defaults")
	}
}

func TestVisibilityFilter(t *testing.T) {
	v := NewEdgeVisibility()
	req := &projection.Bundle{Type: graph.EdgeRequires}
	rec := &projection.Bundle{Type: graph.EdgeRecommended}

	f := v.Filter()
	if !f(req) {
		t.Error("requires bundle hidden in baseline")
	}
	if f(rec) {
		t.Error("recommended bundle visible in baseline")
	}

	v.SetMode(ModeFocused)
	f = v.Filter()
	if !f(rec) {
		t.Error("recommended bundle hidden in focused mode")
	}
}
