// Package traversal walks the sampled points of a probe and collects the
// regions its shaft passes through.
package traversal

import (
	"slices"

	"probeplanner/internal/models"
	"probeplanner/pkg/geometry"
)

// Classifier labels a single point, ok is false for no region
type Classifier interface {
	Classify(p models.Point) (label string, ok bool)
}

// Result lists the regions touched by a probe
type Result struct {
	// Regions holds each touched label once, in the order it was first sampled
	Regions []string

	// TipRegion is the first label met scanning from the tip outward, empty
	// when no point was classified
	TipRegion string

	// Sampled is the number of points visited
	Sampled int
}

// HasTip reports whether a tip region was found
func (r Result) HasTip() bool {
	return r.TipRegion != ""
}

// Touches reports whether label is among the touched regions
func (r Result) Touches(label string) bool {
	return slices.Contains(r.Regions, label)
}

// Traverse classifies every sampled point of g. Unclassifiable points are
// skipped; ROIs that produce no points contribute nothing.
func Traverse(g geometry.ProbeGeometry, c Classifier) Result {
	var res Result
	seen := make(map[string]bool)

	for p := range g.Samples() {
		res.Sampled++

		label, ok := c.Classify(p)
		if !ok {
			continue
		}
		if res.TipRegion == "" {
			res.TipRegion = label
		}
		if !seen[label] {
			seen[label] = true
			res.Regions = append(res.Regions, label)
		}
	}
	return res
}
