package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/internal/models"
)

const tolerance = 1e-9

func closeTo(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < tolerance
}

// TestTopUntilted verifies that an untilted probe extends straight up the DV axis
func TestTopUntilted(t *testing.T) {
	tips := []r3.Vec{
		{X: 5000, Y: 0, Z: 5000},
		{X: 0, Y: 0, Z: 0},
		{X: 123.5, Y: 4567.25, Z: -89},
	}
	lengths := []float64{10000, 3840, 1}

	for _, tip := range tips {
		for _, length := range lengths {
			top := Top(tip, 0, 0, length)
			expected := r3.Vec{X: tip.X, Y: tip.Y - length, Z: tip.Z}
			if top != expected {
				t.Errorf("Expected top %v for tip %v and length %g, got %v", expected, tip, length, top)
			}
		}
	}
}

// TestTopDeterministic verifies that top only depends on tip, angles and length
func TestTopDeterministic(t *testing.T) {
	g := New(r3.Vec{X: 5000, Y: 1000, Z: 4000}).WithTilt(12.5, -30)
	first := g.Top()

	g.Radius = 250
	g.Color = "red"
	second := g.Top()

	if first != second {
		t.Errorf("Expected identical top after radius change, got %v and %v", first, second)
	}
}

// TestTopTilted verifies the rotation composition on simple angles
func TestTopTilted(t *testing.T) {
	tip := r3.Vec{X: 1000, Y: 2000, Z: 3000}
	length := 1000.0

	// A 90 degree tilt around ML swings the shaft onto the AP axis
	top := Top(tip, 0, 90, length)
	if !closeTo(top, r3.Vec{X: 2000, Y: 2000, Z: 3000}) {
		t.Errorf("Expected shaft along +AP for tilt_ML=90, got top %v", top)
	}

	// A 90 degree tilt around AP swings the shaft onto the ML axis
	top = Top(tip, 90, 0, length)
	if !closeTo(top, r3.Vec{X: 1000, Y: 2000, Z: 2000}) {
		t.Errorf("Expected shaft along -ML for tilt_AP=90, got top %v", top)
	}

	// Rotations preserve the shaft length
	for _, angles := range [][2]float64{{10, 20}, {-45, 30}, {60, -60}} {
		top := Top(tip, angles[0], angles[1], length)
		if d := r3.Norm(r3.Sub(top, tip)); math.Abs(d-length) > 1e-6 {
			t.Errorf("Expected shaft length %g for angles %v, got %g", length, angles, d)
		}
	}
}

// TestRotationComposition checks R = R_AP * R_ML is not commutative for the
// probe angles, so the order is fixed
func TestRotationComposition(t *testing.T) {
	r := Rotation(30, 45)
	var rev mat.Dense
	rev.Mul(Rotation(0, 45), Rotation(30, 0))

	same := true
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(r.At(i, j)-rev.At(i, j)) > tolerance {
				same = false
			}
		}
	}
	if same {
		t.Error("Expected R_AP*R_ML to differ from R_ML*R_AP for non-zero angles")
	}
}

// TestSamplesSingleROI reproduces the straight probe with one full-length ROI
func TestSamplesSingleROI(t *testing.T) {
	g := New(r3.Vec{X: 5000, Y: 0, Z: 5000})
	points := g.Points()

	if len(points) != 100 {
		t.Fatalf("Expected 100 points, got %d", len(points))
	}

	first, last := points[0], points[len(points)-1]
	if !closeTo(first.Coordinates(), r3.Vec{X: 5000, Y: 0, Z: 5000}) {
		t.Errorf("Expected first point at the tip, got %v", first)
	}
	if !closeTo(last.Coordinates(), r3.Vec{X: 5000, Y: -10000, Z: 5000}) {
		t.Errorf("Expected last point at the top, got %v", last)
	}

	for i, p := range points {
		if p.ROI != 0 {
			t.Errorf("Expected ROI 0 for point %d, got %d", i, p.ROI)
		}
		if i > 0 && p.DV >= points[i-1].DV {
			t.Errorf("Expected DV to decrease monotonically at point %d", i)
		}
	}
}

// TestSamplesMultipleROIs verifies ordering, tagging and degenerate segments
func TestSamplesMultipleROIs(t *testing.T) {
	g := New(r3.Vec{}).WithROIs(
		models.ROI{Start: 0, End: 1000},
		models.ROI{Start: 5000, End: 5000}, // degenerate
		models.ROI{Start: 3000, End: 3050}, // shorter than the spacing
		models.ROI{Start: 8000, End: 8150}, // a single point
		models.ROI{Start: 500, End: 1500},  // overlaps the first
	)
	points := g.Points()

	counts := map[int]int{}
	for _, p := range points {
		counts[p.ROI]++
	}
	expected := map[int]int{0: 10, 3: 1, 4: 10}
	for roi, n := range expected {
		if counts[roi] != n {
			t.Errorf("Expected %d points for ROI %d, got %d", n, roi, counts[roi])
		}
	}
	if counts[1] != 0 || counts[2] != 0 {
		t.Errorf("Expected no points for degenerate ROIs, got %d and %d", counts[1], counts[2])
	}

	// ROI order is preserved
	last := -1
	for _, p := range points {
		if p.ROI < last {
			t.Fatalf("Expected points in ROI declaration order, got ROI %d after %d", p.ROI, last)
		}
		last = p.ROI
	}

	// The single point ROI sits at its start
	for _, p := range points {
		if p.ROI == 3 && math.Abs(p.DV-(-8000)) > tolerance {
			t.Errorf("Expected single ROI point at DV -8000, got %g", p.DV)
		}
	}
}

// TestSamplesRestartable verifies the sequence can be consumed twice and stopped early
func TestSamplesRestartable(t *testing.T) {
	g := New(r3.Vec{X: 1, Y: 2, Z: 3}).WithTilt(5, 7)

	var a, b []models.Point
	for p := range g.Samples() {
		a = append(a, p)
	}
	for p := range g.Samples() {
		b = append(b, p)
	}
	if len(a) != len(b) {
		t.Fatalf("Expected same length on second pass, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Point %d differs between passes: %v vs %v", i, a[i], b[i])
		}
	}

	n := 0
	for range g.Samples() {
		n++
		if n == 5 {
			break
		}
	}
	if n != 5 {
		t.Errorf("Expected early stop after 5 points, got %d", n)
	}
}

// TestSamplesBounded verifies huge ROIs are capped
func TestSamplesBounded(t *testing.T) {
	g := New(r3.Vec{})
	g.Length = 1e9
	g.ROIs = []models.ROI{{Start: 0, End: 1e9}}

	if n := len(g.Points()); n != MaxPointsPerROI {
		t.Errorf("Expected %d points, got %d", MaxPointsPerROI, n)
	}
}

// TestSkullPoint verifies the skull point is the sample closest to the bregma depth
func TestSkullPoint(t *testing.T) {
	g := New(r3.Vec{X: 5000, Y: 0, Z: 5000})
	p, ok := g.SkullPoint()
	if !ok {
		t.Fatal("Expected a skull point")
	}
	if p != g.Points()[0] {
		t.Errorf("Expected the first sample as skull point, got %v", p)
	}
	if g.LengthInSkull() != 0 {
		t.Errorf("Expected zero length in skull, got %g", g.LengthInSkull())
	}

	// Deep tip: the skull point is where the shaft crosses DV 0
	g = New(r3.Vec{X: 5000, Y: 4000, Z: 5000})
	p, _ = g.SkullPoint()
	for _, s := range g.Points() {
		if math.Abs(s.DV) < math.Abs(p.DV) {
			t.Errorf("Found sample %v closer to the skull than %v", s, p)
		}
	}
	if d := g.LengthInSkull(); math.Abs(d-4000) > 60 {
		t.Errorf("Expected about 4000 microns in skull, got %g", d)
	}
}

// TestSkullPointTie verifies ties resolve to the earliest sample
func TestSkullPointTie(t *testing.T) {
	// Two identical ROIs produce the same depths twice
	g := New(r3.Vec{Y: 500}).WithROIs(
		models.ROI{Start: 0, End: 1000},
		models.ROI{Start: 0, End: 1000},
	)
	p, _ := g.SkullPoint()
	if p.ROI != 0 {
		t.Errorf("Expected tie to resolve to ROI 0, got ROI %d", p.ROI)
	}
}

// TestSkullPointEmpty verifies the empty geometry
func TestSkullPointEmpty(t *testing.T) {
	g := New(r3.Vec{}).WithROIs()
	if _, ok := g.SkullPoint(); ok {
		t.Error("Expected no skull point without ROIs")
	}
	if g.LengthInSkull() != 0 {
		t.Errorf("Expected zero length in skull, got %g", g.LengthInSkull())
	}
}

// TestTipPoint verifies the tip is exposed with the sentinel ROI
func TestTipPoint(t *testing.T) {
	g := New(r3.Vec{X: 1, Y: 2, Z: 3})
	p := g.TipPoint()
	if p.ROI != models.TipROI || p.AP != 1 || p.DV != 2 || p.ML != 3 {
		t.Errorf("Unexpected tip point %v", p)
	}
}

// TestWithDoesNotMutate verifies the copy-on-write setters
func TestWithDoesNotMutate(t *testing.T) {
	g := New(r3.Vec{X: 1})
	moved := g.PointAt(r3.Vec{X: 2}).WithTilt(10, 20)
	moved.ROIs[0].End = 50

	if g.Tip.X != 1 || g.TiltAP != 0 || g.TiltML != 0 {
		t.Errorf("Original geometry changed: %v", g)
	}
	if g.ROIs[0].End != DefaultLength {
		t.Errorf("Original ROIs changed: %v", g.ROIs)
	}
}

// TestRelativeToBregma verifies the conversion to millimetres from bregma
func TestRelativeToBregma(t *testing.T) {
	rel := RelativeToBregma(r3.Vec{X: 6400, Y: 2000, Z: 5700})
	if !closeTo(rel, r3.Vec{X: 1, Y: 2, Z: 0}) {
		t.Errorf("Expected (1, 2, 0) mm, got %v", rel)
	}
}

// TestValidate verifies the geometry invariants
func TestValidate(t *testing.T) {
	good := New(r3.Vec{})
	if err := good.Validate(); err != nil {
		t.Errorf("Expected default geometry to be valid, got %v", err)
	}

	bad := []ProbeGeometry{
		func() ProbeGeometry { g := good.Clone(); g.Length = 0; return g }(),
		func() ProbeGeometry { g := good.Clone(); g.Radius = -1; return g }(),
		func() ProbeGeometry { g := good.Clone(); g.TiltAP = math.NaN(); return g }(),
		good.WithROIs(models.ROI{Start: -10, End: 100}),
		good.WithROIs(models.ROI{Start: 0, End: DefaultLength + 1}),
	}
	for i, g := range bad {
		if err := g.Validate(); err == nil {
			t.Errorf("Expected case %d to be invalid", i)
		}
	}

	if err := good.WithROIs(models.ROI{Start: 500, End: 100}).Validate(); err != nil {
		t.Errorf("Expected degenerate ROI to be accepted, got %v", err)
	}
}
