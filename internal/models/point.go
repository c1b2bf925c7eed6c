package models

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// TipROI is the ROI index carried by the point that re-exposes the probe tip.
// Sampled points always carry a non-negative ROI index.
const TipROI = -1

// Point is a single coordinate along the probe shaft in the atlas axis system
type Point struct {
	// AP is the position on the anterior-posterior axis in microns
	AP float64

	// DV is the position on the dorsal-ventral axis in microns
	DV float64

	// ML is the position on the medial-lateral axis in microns
	ML float64

	// ROI is the index of the ROI segment that produced this point
	ROI int
}

// NewPoint creates a point from an atlas coordinate vector
func NewPoint(v r3.Vec, roi int) Point {
	return Point{AP: v.X, DV: v.Y, ML: v.Z, ROI: roi}
}

// Coordinates returns the point as an (AP, DV, ML) vector
func (p Point) Coordinates() r3.Vec {
	return r3.Vec{X: p.AP, Y: p.DV, Z: p.ML}
}

// ROI is a contiguous range along the shaft, in microns measured from the tip
type ROI struct {
	Start float64
	End   float64
}

// Span returns the length of the segment. Degenerate segments have a span <= 0.
func (r ROI) Span() float64 {
	return r.End - r.Start
}

// Display holds the rendering parameters of one region
type Display struct {
	// Opacity is the region mesh alpha in [0, 1]
	Opacity float64

	// Outline enables the silhouette around the region mesh
	Outline bool
}
