package scene

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"probeplanner/internal/models"
	"probeplanner/pkg/atlas/atlastest"
)

var (
	normal    = DefaultPolicy.Normal
	highlight = DefaultPolicy.Highlight
	tipStyle  = DefaultPolicy.Tip
)

func labels(s *RenderedSet) map[string]bool {
	out := map[string]bool{}
	for _, l := range s.Labels() {
		out[l] = true
	}
	return out
}

// TestReconcileScenario covers removal, addition and the tip override
func TestReconcileScenario(t *testing.T) {
	r := NewReconciler(nil)
	prev := NewRenderedSet(Entry{"CA1", normal}, Entry{"CA3", normal})

	d := r.Reconcile(prev, []string{"CA1", "DG"}, "CA1", nil)

	if diff := cmp.Diff([]string{"CA3"}, d.Remove); diff != "" {
		t.Errorf("Remove mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Entry{{"DG", normal}}, d.Add); diff != "" {
		t.Errorf("Add mismatch (-want +got):\n%s", diff)
	}
	if d.Tip == nil || *d.Tip != (Entry{"CA1", tipStyle}) {
		t.Errorf("Expected CA1 re-added as tip, got %v", d.Tip)
	}
	if diff := cmp.Diff(map[string]bool{"CA1": true, "DG": true}, labels(d.Rendered)); diff != "" {
		t.Errorf("Rendered mismatch (-want +got):\n%s", diff)
	}
	if got, _ := d.Rendered.Display("CA1"); got != tipStyle {
		t.Errorf("Expected CA1 tip display, got %+v", got)
	}

	// The previous set is not modified
	if !prev.Contains("CA3") || prev.Len() != 2 {
		t.Errorf("Previous set was modified: %v", prev.Labels())
	}
}

// TestReconcileIdempotent verifies a second identical cycle changes nothing
func TestReconcileIdempotent(t *testing.T) {
	r := NewReconciler(atlastest.New())
	highlighted := map[string]bool{"HPF": true}

	cases := []struct {
		prev    *RenderedSet
		touched []string
		tip     string
	}{
		{NewRenderedSet(), []string{"TH", "DG", "CA1", "CA3"}, "TH"},
		{NewRenderedSet(Entry{"root", normal}, Entry{"CA3", normal}), []string{"DG", "CA1"}, "DG"},
		{NewRenderedSet(Entry{"CA1", normal}), nil, ""},
	}
	for i, c := range cases {
		first := r.Reconcile(c.prev, c.touched, c.tip, highlighted)
		second := r.Reconcile(first.Rendered, c.touched, c.tip, highlighted)

		if !second.Empty() {
			t.Errorf("Case %d: expected empty second diff, got add %v remove %v restyle %v",
				i, second.Add, second.Remove, second.Restyle)
		}
		if diff := cmp.Diff(first.Rendered.Entries(), second.Rendered.Entries()); diff != "" {
			t.Errorf("Case %d: rendered set changed (-first +second):\n%s", i, diff)
		}
	}
}

// TestReconcileKeepsRoot verifies the whole-brain wrapper is never removed
func TestReconcileKeepsRoot(t *testing.T) {
	r := NewReconciler(nil)
	rootStyle := models.Display{Opacity: 0.2}
	prev := NewRenderedSet(Entry{"root", rootStyle}, Entry{"CA1", normal})

	d := r.Reconcile(prev, nil, "", nil)

	if diff := cmp.Diff([]string{"CA1"}, d.Remove); diff != "" {
		t.Errorf("Remove mismatch (-want +got):\n%s", diff)
	}
	if got, ok := d.Rendered.Display("root"); !ok || got != rootStyle {
		t.Errorf("Expected root kept with its display, got %+v, %v", got, ok)
	}
	if d.Tip != nil {
		t.Errorf("Expected no tip, got %v", d.Tip)
	}
}

// TestReconcileHighlight verifies highlighted regions and their descendants
func TestReconcileHighlight(t *testing.T) {
	// Without lineage only direct membership counts
	d := NewReconciler(nil).Reconcile(nil, []string{"TH", "CA1", "DG"}, "TH", map[string]bool{"CA1": true, "HPF": true})
	want := []Entry{{"CA1", highlight}, {"DG", normal}}
	if diff := cmp.Diff(want, d.Add); diff != "" {
		t.Errorf("Add mismatch without lineage (-want +got):\n%s", diff)
	}

	// With lineage, DG is highlighted through HPF
	d = NewReconciler(atlastest.New()).Reconcile(nil, []string{"TH", "CA1", "DG"}, "TH", map[string]bool{"HPF": true})
	want = []Entry{{"CA1", highlight}, {"DG", highlight}}
	if diff := cmp.Diff(want, d.Add); diff != "" {
		t.Errorf("Add mismatch with lineage (-want +got):\n%s", diff)
	}

	// The tip policy wins over highlighting
	d = NewReconciler(nil).Reconcile(nil, []string{"CA1"}, "CA1", map[string]bool{"CA1": true})
	if len(d.Add) != 0 || d.Tip == nil || d.Tip.Display != tipStyle {
		t.Errorf("Expected tip display for highlighted tip, got add %v tip %v", d.Add, d.Tip)
	}
}

// TestReconcileTipMoves verifies a former tip region falls back to the ordinary policy
func TestReconcileTipMoves(t *testing.T) {
	r := NewReconciler(nil)
	first := r.Reconcile(nil, []string{"DG", "CA1"}, "DG", nil)
	second := r.Reconcile(first.Rendered, []string{"TH", "DG", "CA1"}, "TH", nil)

	if diff := cmp.Diff([]Entry{{"DG", normal}}, second.Restyle); diff != "" {
		t.Errorf("Restyle mismatch (-want +got):\n%s", diff)
	}
	if len(second.Add) != 0 || len(second.Remove) != 0 {
		t.Errorf("Expected only a restyle and the tip, got add %v remove %v", second.Add, second.Remove)
	}
	if second.Rendered.Tip() != "TH" {
		t.Errorf("Expected TH as rendered tip, got %q", second.Rendered.Tip())
	}
	want := []Entry{{"CA1", normal}, {"DG", normal}, {"TH", tipStyle}}
	if diff := cmp.Diff(want, second.Rendered.Entries()); diff != "" {
		t.Errorf("Rendered mismatch (-want +got):\n%s", diff)
	}
}

// TestReconcileDuplicates verifies repeated touched labels are added once
func TestReconcileDuplicates(t *testing.T) {
	d := NewReconciler(nil).Reconcile(nil, []string{"CA3", "CA3", "DG", "CA3"}, "", nil)
	if diff := cmp.Diff([]Entry{{"CA3", normal}, {"DG", normal}}, d.Add); diff != "" {
		t.Errorf("Add mismatch (-want +got):\n%s", diff)
	}
}
