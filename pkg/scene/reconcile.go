package scene

import (
	"slices"

	"probeplanner/internal/models"
	"probeplanner/pkg/region"
)

// Policy holds the display parameters assigned to added regions
type Policy struct {
	// Normal applies to touched regions that are not highlighted
	Normal models.Display

	// Highlight applies to highlighted regions and their descendants
	Highlight models.Display

	// Tip applies to the tip region and overrides the other two
	Tip models.Display
}

// DefaultPolicy is the policy used by NewReconciler
var DefaultPolicy = Policy{
	Normal:    models.Display{Opacity: 0.1, Outline: false},
	Highlight: models.Display{Opacity: 0.8, Outline: true},
	Tip:       models.Display{Opacity: 0.6, Outline: true},
}

// Lineage looks up the ancestors of a label, root-most first
type Lineage interface {
	Ancestors(acronym string) ([]string, error)
}

// Diff is the outcome of one reconciliation
type Diff struct {
	// Add lists regions newly rendered, in touch order. The tip region is
	// reported in Tip instead.
	Add []Entry

	// Remove lists regions no longer touched
	Remove []string

	// Restyle lists rendered regions whose display parameters changed, which
	// happens to a former tip region that is still touched
	Restyle []Entry

	// Tip is the tip region with its display parameters, nil when undefined.
	// It is re-applied on every reconciliation.
	Tip *Entry

	// Rendered is the set after applying the diff
	Rendered *RenderedSet
}

// Empty reports whether the diff adds, removes and restyles nothing
func (d Diff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Restyle) == 0
}

// Reconciler computes rendered set deltas
type Reconciler struct {
	Policy Policy

	// Lineage lets ancestors of highlighted labels count as highlighted. Nil
	// restricts highlighting to direct membership.
	Lineage Lineage
}

// NewReconciler creates a reconciler with DefaultPolicy
func NewReconciler(l Lineage) *Reconciler {
	return &Reconciler{Policy: DefaultPolicy, Lineage: l}
}

// Reconcile compares the previously rendered set with the regions touched in
// this cycle. prev is left untouched; the resulting set is in Diff.Rendered.
// The whole-brain wrapper is never removed.
func (r *Reconciler) Reconcile(prev *RenderedSet, touched []string, tip string, highlighted map[string]bool) Diff {
	var d Diff
	next := NewRenderedSet()

	for _, e := range prev.Entries() {
		if e.Label != region.Root && !slices.Contains(touched, e.Label) {
			d.Remove = append(d.Remove, e.Label)
			continue
		}
		next.put(e.Label, e.Display)
	}

	// A former tip region still on display goes back to the ordinary policy
	if old := prev.Tip(); old != "" && old != tip && old != region.Root && next.Contains(old) {
		e := Entry{Label: old, Display: r.style(old, highlighted)}
		next.put(e.Label, e.Display)
		d.Restyle = append(d.Restyle, e)
	}

	for _, label := range touched {
		if label == tip || next.Contains(label) {
			continue
		}
		e := Entry{Label: label, Display: r.style(label, highlighted)}
		next.put(e.Label, e.Display)
		d.Add = append(d.Add, e)
	}

	if tip != "" {
		e := Entry{Label: tip, Display: r.Policy.Tip}
		next.put(e.Label, e.Display)
		next.tip = tip
		d.Tip = &e
	}

	d.Rendered = next
	return d
}

// style picks the display parameters of a non-tip region
func (r *Reconciler) style(label string, highlighted map[string]bool) models.Display {
	if r.highlighted(label, highlighted) {
		return r.Policy.Highlight
	}
	return r.Policy.Normal
}

func (r *Reconciler) highlighted(label string, highlighted map[string]bool) bool {
	if highlighted[label] {
		return true
	}
	if r.Lineage == nil || len(highlighted) == 0 {
		return false
	}
	ancestors, err := r.Lineage.Ancestors(label)
	if err != nil {
		return false
	}
	for _, a := range ancestors {
		if highlighted[a] {
			return true
		}
	}
	return false
}
