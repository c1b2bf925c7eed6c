package atlas

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// ErrNoStructure is returned when a coordinate falls in unlabeled space. It is
// an expected outcome of a query, not a fault.
var ErrNoStructure = errors.New("no structure at coordinates")

// Root is the acronym of the whole-brain structure
const Root = "root"

// Hemisphere selects part of the brain for region queries
type Hemisphere int

const (
	Both Hemisphere = iota
	// Left covers ML coordinates below the midline
	Left
	// Right covers ML coordinates at or above the midline
	Right
)

// ParseHemisphere converts "left", "right" and "both" (or "") to a Hemisphere
func ParseHemisphere(s string) (Hemisphere, error) {
	switch s {
	case "", "both":
		return Both, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Both, fmt.Errorf("invalid hemisphere %q (must be left, right or both)", s)
}

// Atlas is the read-only labeled volume the planner classifies points against
type Atlas interface {
	// Region returns the structure with the given acronym
	Region(acronym string) (*Structure, error)

	// StructureFromCoords returns the acronym at a coordinate in microns, or
	// ErrNoStructure in unlabeled space
	StructureFromCoords(p r3.Vec) (string, error)

	// Ancestors lists a structure's ancestors, root-most first
	Ancestors(acronym string) ([]string, error)

	// Descendants lists every structure below acronym
	Descendants(acronym string) ([]string, error)

	// IsInside reports whether p lies inside the whole-brain volume
	IsInside(p r3.Vec) bool

	// Color returns a structure's display color
	Color(acronym string) (color.RGBA, error)

	// CenterOfMass returns the mean coordinate of a structure's voxels,
	// descendants included
	CenterOfMass(acronym string, h Hemisphere) (r3.Vec, error)
}

// VoxelAtlas is an Atlas backed by an in-memory annotation volume
type VoxelAtlas struct {
	*Ontology
	volume *Volume
}

// New creates an atlas from an ontology and an annotation volume
func New(o *Ontology, v *Volume) (*VoxelAtlas, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if _, err := o.Structure(Root); err != nil {
		return nil, fmt.Errorf("ontology has no %s structure: %w", Root, err)
	}
	return &VoxelAtlas{Ontology: o, volume: v}, nil
}

// Load reads an atlas from an ontology file and an annotation header
func Load(ontologyPath, annotationPath string) (*VoxelAtlas, error) {
	o, err := LoadOntology(ontologyPath)
	if err != nil {
		return nil, err
	}
	v, err := LoadVolume(annotationPath)
	if err != nil {
		return nil, err
	}
	return New(o, v)
}

// Volume returns the annotation volume
func (a *VoxelAtlas) Volume() *Volume {
	return a.volume
}

// Region returns the structure with the given acronym
func (a *VoxelAtlas) Region(acronym string) (*Structure, error) {
	return a.Structure(acronym)
}

func (a *VoxelAtlas) label(p r3.Vec) (uint32, bool) {
	i, j, k, ok := a.volume.Voxel(p)
	if !ok {
		return 0, false
	}
	return a.volume.At(i, j, k), true
}

// IsInside reports whether p falls on a labeled voxel
func (a *VoxelAtlas) IsInside(p r3.Vec) bool {
	l, ok := a.label(p)
	return ok && l != 0
}

// StructureFromCoords returns the acronym of the structure at p
func (a *VoxelAtlas) StructureFromCoords(p r3.Vec) (string, error) {
	l, ok := a.label(p)
	if !ok || l == 0 {
		return "", ErrNoStructure
	}
	s, err := a.StructureByID(int(l))
	if err != nil {
		return "", fmt.Errorf("%w: label %d not in ontology", ErrNoStructure, l)
	}
	return s.Acronym, nil
}

// CenterOfMass returns the mean voxel center of a structure and its
// descendants, optionally restricted to one hemisphere
func (a *VoxelAtlas) CenterOfMass(acronym string, h Hemisphere) (r3.Vec, error) {
	s, err := a.Structure(acronym)
	if err != nil {
		return r3.Vec{}, err
	}
	ids := a.subtree(s.ID)

	// Accumulate one mean per AP plane, weighted by its voxel count
	v := a.volume
	midline := v.Shape[2] / 2
	var xs, ys, zs, counts []float64
	for i := 0; i < v.Shape[0]; i++ {
		var sum r3.Vec
		n := 0
		for j := 0; j < v.Shape[1]; j++ {
			for k := 0; k < v.Shape[2]; k++ {
				if (h == Left && k >= midline) || (h == Right && k < midline) {
					continue
				}
				if !ids[int(v.At(i, j, k))] {
					continue
				}
				sum = r3.Add(sum, v.Center(i, j, k))
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := r3.Scale(1/float64(n), sum)
		xs = append(xs, mean.X)
		ys = append(ys, mean.Y)
		zs = append(zs, mean.Z)
		counts = append(counts, float64(n))
	}

	if len(counts) == 0 {
		return r3.Vec{}, fmt.Errorf("structure %s has no voxels in the selected hemisphere", acronym)
	}
	return r3.Vec{X: stat.Mean(xs, counts), Y: stat.Mean(ys, counts), Z: stat.Mean(zs, counts)}, nil
}
