// Package region maps a point along the probe to the anatomical structure it
// lies in, ignoring compartments that make no sense as recording targets.
package region

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/internal/models"
)

const (
	// Root is the whole-brain wrapper
	Root = "root"

	// FiberTracts is the white matter compartment
	FiberTracts = "fiber tracts"

	// VentricularSystem is the ventricles compartment
	VentricularSystem = "VS"
)

// Bad lists the excluded labels. Descendants of FiberTracts and
// VentricularSystem are excluded too.
var Bad = []string{Root, FiberTracts, VentricularSystem}

// Atlas is the part of the atlas the classifier queries
type Atlas interface {
	IsInside(p r3.Vec) bool
	StructureFromCoords(p r3.Vec) (string, error)
	Ancestors(acronym string) ([]string, error)
}

// Classifier labels points against an atlas. It holds no state besides the
// atlas, so identical points always get identical labels.
type Classifier struct {
	atlas Atlas
}

// NewClassifier creates a classifier over an atlas
func NewClassifier(a Atlas) *Classifier {
	return &Classifier{atlas: a}
}

// Classify returns the label of the structure containing p. ok is false when
// the point is outside the brain, unlabeled or in an excluded compartment.
func (c *Classifier) Classify(p models.Point) (label string, ok bool) {
	coords := p.Coordinates()
	if !c.atlas.IsInside(coords) {
		return "", false
	}

	name, err := c.atlas.StructureFromCoords(coords)
	if err != nil {
		return "", false
	}
	if slices.Contains(Bad, name) {
		return "", false
	}

	ancestors, err := c.atlas.Ancestors(name)
	if err != nil {
		return "", false
	}
	if slices.Contains(ancestors, FiberTracts) || slices.Contains(ancestors, VentricularSystem) {
		return "", false
	}
	return name, true
}
