// Package atlastest builds a small synthetic atlas for tests.
//
// The volume is 2 x 4 x 2 mm at 100 micron resolution. Structures are layered
// along DV, so a vertical probe crosses them in a known order:
//
//	DV    0- 500  unlabeled
//	DV  500-1000  CA3
//	DV 1000-1500  cc   (fiber tracts)
//	DV 1500-2000  CA1
//	DV 2000-2500  VL   (ventricular system)
//	DV 2500-3000  DG
//	DV 3000-3500  TH   (left hemisphere only, root on the right)
//	DV 3500-4000  unlabeled
package atlastest

import (
	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/pkg/atlas"
)

// Structure ids of the fixture ontology
const (
	RootID        = 997
	GreyID        = 8
	HPFID         = 1089
	CA1ID         = 382
	CA3ID         = 463
	DGID          = 726
	THID          = 549
	FiberTractsID = 1009
	CCID          = 776
	VSID          = 73
	VLID          = 81
)

// Structures returns the fixture ontology entries
func Structures() []atlas.Structure {
	return []atlas.Structure{
		{ID: RootID, Acronym: "root", Name: "root", Path: []int{RootID}, RGB: []uint8{255, 255, 255}},
		{ID: GreyID, Acronym: "grey", Name: "Basic cell groups and regions", Path: []int{RootID, GreyID}, RGB: []uint8{191, 218, 227}},
		{ID: HPFID, Acronym: "HPF", Name: "Hippocampal formation", Path: []int{RootID, GreyID, HPFID}, RGB: []uint8{126, 208, 75}},
		{ID: CA1ID, Acronym: "CA1", Name: "Field CA1", Path: []int{RootID, GreyID, HPFID, CA1ID}, RGB: []uint8{126, 208, 75}},
		{ID: CA3ID, Acronym: "CA3", Name: "Field CA3", Path: []int{RootID, GreyID, HPFID, CA3ID}, RGB: []uint8{126, 208, 75}},
		{ID: DGID, Acronym: "DG", Name: "Dentate gyrus", Path: []int{RootID, GreyID, HPFID, DGID}, RGB: []uint8{126, 208, 75}},
		{ID: THID, Acronym: "TH", Name: "Thalamus", Path: []int{RootID, GreyID, THID}, RGB: []uint8{255, 112, 128}},
		{ID: FiberTractsID, Acronym: "fiber tracts", Name: "fiber tracts", Path: []int{RootID, FiberTractsID}, RGB: []uint8{204, 204, 204}},
		{ID: CCID, Acronym: "cc", Name: "corpus callosum", Path: []int{RootID, FiberTractsID, CCID}, RGB: []uint8{204, 204, 204}},
		{ID: VSID, Acronym: "VS", Name: "ventricular systems", Path: []int{RootID, VSID}, RGB: []uint8{170, 170, 170}},
		{ID: VLID, Acronym: "VL", Name: "lateral ventricle", Path: []int{RootID, VSID, VLID}, RGB: []uint8{170, 170, 170}},
	}
}

// Volume returns the layered fixture annotation
func Volume() *atlas.Volume {
	v := &atlas.Volume{
		Shape:      [3]int{20, 40, 20},
		Resolution: [3]float64{100, 100, 100},
	}
	v.Labels = make([]uint32, v.Shape[0]*v.Shape[1]*v.Shape[2])

	layer := func(j, k int) uint32 {
		switch {
		case j < 5:
			return 0
		case j < 10:
			return CA3ID
		case j < 15:
			return CCID
		case j < 20:
			return CA1ID
		case j < 25:
			return VLID
		case j < 30:
			return DGID
		case j < 35:
			if k < v.Shape[2]/2 {
				return THID
			}
			return RootID
		}
		return 0
	}

	for i := 0; i < v.Shape[0]; i++ {
		for j := 0; j < v.Shape[1]; j++ {
			for k := 0; k < v.Shape[2]; k++ {
				v.Labels[v.Index(i, j, k)] = layer(j, k)
			}
		}
	}
	return v
}

// New returns the fixture atlas
func New() *atlas.VoxelAtlas {
	o, err := atlas.NewOntology(Structures())
	if err != nil {
		panic(err)
	}
	a, err := atlas.New(o, Volume())
	if err != nil {
		panic(err)
	}
	return a
}

// Tip is a probe tip inside DG, mid-volume in AP and ML on the left side
var Tip = r3.Vec{X: 1050, Y: 2750, Z: 550}
