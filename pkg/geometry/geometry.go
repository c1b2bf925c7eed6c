// Package geometry models the shape of a rigid linear probe inside the atlas
// volume: where its top lies given a tip, two tilt angles and a length, and
// which points along its shaft are sampled for region classification.
//
// Coordinates follow the atlas axis order (AP, DV, ML), stored in an r3.Vec as
// X=AP, Y=DV, Z=ML, all in microns.
package geometry

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/internal/models"
)

// Bregma is the approximate position of bregma in the atlas (Shamash et al. 2018).
// Good enough for planning, not for surgery.
var Bregma = r3.Vec{X: 5400, Y: 0, Z: 5700}

const (
	// DefaultLength is the shaft length of a new probe in microns
	DefaultLength = 10000.0

	// DefaultRadius is the shaft radius of a new probe in microns
	DefaultRadius = 70.0

	// DefaultColor is the render color of a new probe
	DefaultColor = "k"

	// PointSpacing is the approximate distance between sampled points in microns
	PointSpacing = 100.0

	// MaxPointsPerROI bounds the number of points a single ROI segment can produce
	MaxPointsPerROI = 1000
)

// ProbeGeometry is the geometric description of a probe. It is a value type:
// the With* methods return modified copies and never touch the receiver.
type ProbeGeometry struct {
	// Tip is the insertion point of the probe
	Tip r3.Vec

	// TiltAP is the rotation around the AP axis in degrees
	TiltAP float64

	// TiltML is the rotation around the ML axis in degrees
	TiltML float64

	// Length is the shaft length in microns
	Length float64

	// Radius is the shaft radius in microns
	Radius float64

	// ROIs are the shaft segments that get sampled, in search priority order
	ROIs []models.ROI

	// Color is the render color
	Color string
}

// New creates a probe with default length, radius and a single ROI spanning the
// whole shaft.
func New(tip r3.Vec) ProbeGeometry {
	return ProbeGeometry{
		Tip:    tip,
		Length: DefaultLength,
		Radius: DefaultRadius,
		ROIs:   []models.ROI{{Start: 0, End: DefaultLength}},
		Color:  DefaultColor,
	}
}

// Clone returns a deep copy of the geometry
func (g ProbeGeometry) Clone() ProbeGeometry {
	g.ROIs = slices.Clone(g.ROIs)
	return g
}

// WithTip returns a copy of the geometry with a new tip
func (g ProbeGeometry) WithTip(tip r3.Vec) ProbeGeometry {
	c := g.Clone()
	c.Tip = tip
	return c
}

// WithTilt returns a copy of the geometry with new tilt angles
func (g ProbeGeometry) WithTilt(tiltAP, tiltML float64) ProbeGeometry {
	c := g.Clone()
	c.TiltAP = tiltAP
	c.TiltML = tiltML
	return c
}

// WithROIs returns a copy of the geometry with new ROI segments
func (g ProbeGeometry) WithROIs(rois ...models.ROI) ProbeGeometry {
	c := g
	c.ROIs = slices.Clone(rois)
	return c
}

// PointAt moves the probe so that its tip lies on target, keeping angles and length
func (g ProbeGeometry) PointAt(target r3.Vec) ProbeGeometry {
	return g.WithTip(target)
}

// Validate checks the geometry invariants. Degenerate ROIs (start >= end) are
// allowed, they simply produce no points.
func (g ProbeGeometry) Validate() error {
	for _, v := range []float64{g.Tip.X, g.Tip.Y, g.Tip.Z, g.TiltAP, g.TiltML, g.Length, g.Radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite probe parameter %v", v)
		}
	}
	if g.Length <= 0 {
		return fmt.Errorf("probe length must be positive, got %g", g.Length)
	}
	if g.Radius < 0 {
		return fmt.Errorf("probe radius must be non-negative, got %g", g.Radius)
	}
	for i, roi := range g.ROIs {
		if roi.Start < 0 || roi.End > g.Length {
			return fmt.Errorf("ROI %d [%g, %g] outside shaft [0, %g]", i, roi.Start, roi.End, g.Length)
		}
	}
	return nil
}

// Rotation returns R = R_AP · R_ML for the given tilts in degrees. R_AP rotates
// around the AP axis (mixing DV and ML), R_ML rotates around the ML axis
// (mixing AP and DV).
func Rotation(tiltAP, tiltML float64) *mat.Dense {
	sa, ca := math.Sincos(tiltAP * math.Pi / 180)
	sm, cm := math.Sincos(tiltML * math.Pi / 180)

	rAP := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, ca, -sa,
		0, sa, ca,
	})
	rML := mat.NewDense(3, 3, []float64{
		cm, -sm, 0,
		sm, cm, 0,
		0, 0, 1,
	})

	var r mat.Dense
	r.Mul(rAP, rML)
	return &r
}

// Top computes the end of the shaft opposite to the tip
func Top(tip r3.Vec, tiltAP, tiltML, length float64) r3.Vec {
	shaft := mat.NewVecDense(3, []float64{0, -length, 0})

	var d mat.VecDense
	d.MulVec(Rotation(tiltAP, tiltML), shaft)

	return r3.Add(tip, r3.Vec{X: d.AtVec(0), Y: d.AtVec(1), Z: d.AtVec(2)})
}

// Top is the end of the shaft opposite to the tip. It is derived, never stored.
func (g ProbeGeometry) Top() r3.Vec {
	return Top(g.Tip, g.TiltAP, g.TiltML, g.Length)
}

// Samples yields the points along the shaft for every ROI, in ROI declaration
// order. The sequence is finite and can be iterated more than once.
func (g ProbeGeometry) Samples() iter.Seq[models.Point] {
	return func(yield func(models.Point) bool) {
		if g.Length <= 0 {
			return
		}
		top := g.Top()

		for n, roi := range g.ROIs {
			for _, u := range steps(roi.Start/g.Length, roi.End/g.Length, segmentPoints(roi)) {
				p := r3.Add(r3.Scale(1-u, g.Tip), r3.Scale(u, top))
				if !yield(models.NewPoint(p, n)) {
					return
				}
			}
		}
	}
}

// Points collects Samples into a slice
func (g ProbeGeometry) Points() []models.Point {
	return slices.Collect(g.Samples())
}

// segmentPoints is the number of samples for one ROI, about one every PointSpacing microns
func segmentPoints(roi models.ROI) int {
	n := int(math.Floor(roi.Span() / PointSpacing))
	if n < 0 {
		return 0
	}
	return min(n, MaxPointsPerROI)
}

// steps returns n evenly spaced values in [start, end], both ends included.
// A single step sits at start.
func steps(start, end float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, end)
}

// SkullPoint returns the sampled point whose depth is closest to the skull
// surface (the DV of bregma). Ties go to the earliest point. ok is false when
// the geometry samples no points.
func (g ProbeGeometry) SkullPoint() (p models.Point, ok bool) {
	best := math.Inf(1)
	for s := range g.Samples() {
		if d := math.Abs(s.DV - Bregma.Y); d < best {
			best, p, ok = d, s, true
		}
	}
	return p, ok
}

// LengthInSkull is the distance between the tip and the skull point, the
// amount of shaft inside the skull. Zero when no points are sampled.
func (g ProbeGeometry) LengthInSkull() float64 {
	p, ok := g.SkullPoint()
	if !ok {
		return 0
	}
	return r3.Norm(r3.Sub(g.Tip, p.Coordinates()))
}

// TipPoint re-exposes the tip as a point tagged with models.TipROI
func (g ProbeGeometry) TipPoint() models.Point {
	return models.NewPoint(g.Tip, models.TipROI)
}

// RelativeToBregma converts an atlas coordinate to millimetres from bregma
func RelativeToBregma(v r3.Vec) r3.Vec {
	return r3.Scale(-1.0/1000, r3.Sub(Bregma, v))
}

func (g ProbeGeometry) String() string {
	return fmt.Sprintf("tip:[%.0f %.0f %.0f] tilt_AP:%.2f tilt_ML:%.2f length:%.0f",
		g.Tip.X, g.Tip.Y, g.Tip.Z, g.TiltAP, g.TiltML, g.Length)
}
