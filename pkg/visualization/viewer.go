package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/pkg/atlas"
	"probeplanner/pkg/geometry"
)

var (
	shaftColor = color.RGBA{A: 255}
	tipColor   = color.RGBA{R: 255, A: 255}
)

// Viewer draws 2D sections of the annotation volume colored by structure,
// with a probe trajectory projected on top
type Viewer struct {
	atlas  *atlas.VoxelAtlas
	volume *atlas.Volume

	// colors caches structure colors by label id
	colors map[uint32]color.RGBA
}

// NewViewer creates a viewer over an atlas
func NewViewer(a *atlas.VoxelAtlas) *Viewer {
	return &Viewer{
		atlas:  a,
		volume: a.Volume(),
		colors: map[uint32]color.RGBA{0: {A: 255}},
	}
}

func (v *Viewer) color(label uint32) color.RGBA {
	if c, ok := v.colors[label]; ok {
		return c
	}
	c := color.RGBA{A: 255}
	if s, err := v.atlas.StructureByID(int(label)); err == nil {
		if rgb, err := v.atlas.Color(s.Acronym); err == nil {
			c = rgb
		}
	}
	v.colors[label] = c
	return c
}

// axisIndex maps an axis name to its volume dimension
func axisIndex(axis string) (int, error) {
	switch axis {
	case "ap", "AP", "x", "X":
		return 0, nil
	case "dv", "DV", "y", "Y":
		return 1, nil
	case "ml", "ML", "z", "Z":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid axis: %s (must be ap, dv or ml)", axis)
}

// plane returns the two volume dimensions drawn as image columns and rows
// for a section normal to dim
func plane(dim int) (cols, rows int) {
	switch dim {
	case 0:
		return 2, 1 // coronal: ML across, DV down
	case 1:
		return 2, 0 // horizontal: ML across, AP down
	}
	return 0, 1 // sagittal: AP across, DV down
}

// ExtractSlice extracts the section at a voxel position along axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	dim, err := axisIndex(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	if position >= v.volume.Shape[dim] {
		return nil, fmt.Errorf("position %d exceeds size %d along %s", position, v.volume.Shape[dim], axis)
	}

	cols, rows := plane(dim)
	img := image.NewRGBA(image.Rect(0, 0, v.volume.Shape[cols], v.volume.Shape[rows]))

	var idx [3]int
	idx[dim] = position
	for y := 0; y < v.volume.Shape[rows]; y++ {
		for x := 0; x < v.volume.Shape[cols]; x++ {
			idx[cols], idx[rows] = x, y
			img.SetRGBA(x, y, v.color(v.volume.At(idx[0], idx[1], idx[2])))
		}
	}
	return img, nil
}

// ProbeSlice extracts the section through the probe tip along axis and marks
// the projected sample points
func (v *Viewer) ProbeSlice(g geometry.ProbeGeometry, axis string) (image.Image, error) {
	dim, err := axisIndex(axis)
	if err != nil {
		return nil, err
	}

	i, j, k, ok := v.volume.Voxel(g.Tip)
	if !ok {
		return nil, fmt.Errorf("probe tip %v is outside the volume", g.Tip)
	}
	tip := [3]int{i, j, k}

	base, err := v.ExtractSlice(axis, tip[dim])
	if err != nil {
		return nil, err
	}
	img := base.(*image.RGBA)

	cols, rows := plane(dim)
	mark := func(p r3.Vec, c color.RGBA) {
		i, j, k, ok := v.volume.Voxel(p)
		if !ok {
			return
		}
		idx := [3]int{i, j, k}
		img.SetRGBA(idx[cols], idx[rows], c)
	}

	for p := range g.Samples() {
		mark(p.Coordinates(), shaftColor)
	}
	mark(g.Tip, tipColor)
	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveProbeSnapshots writes the coronal, horizontal and sagittal sections
// through the probe tip to outputDir
func (v *Viewer) SaveProbeSnapshots(g geometry.ProbeGeometry, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for _, axis := range []string{"ap", "dv", "ml"} {
		img, err := v.ProbeSlice(g, axis)
		if err != nil {
			return files, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("probe_%s.jpg", axis))
		if err := v.SaveSlice(img, filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}
	return files, nil
}
