package atlas

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Volume is an annotation volume: one structure id per voxel, stored in
// C order over (AP, DV, ML). Id 0 marks unlabeled space.
type Volume struct {
	// Shape is the number of voxels along AP, DV and ML
	Shape [3]int

	// Resolution is the voxel size along AP, DV and ML in microns
	Resolution [3]float64

	// Labels holds Shape[0]*Shape[1]*Shape[2] structure ids
	Labels []uint32
}

// annotationHeader describes a raw annotation file on disk
type annotationHeader struct {
	Shape      [3]int     `yaml:"shape"`
	Resolution [3]float64 `yaml:"resolution"`

	// Data is the raw little-endian label file, relative to the header
	Data string `yaml:"data"`

	// DType is uint16 or uint32 (default)
	DType string `yaml:"dtype"`
}

// Validate checks that the label buffer matches the shape
func (v *Volume) Validate() error {
	n := 1
	for axis, s := range v.Shape {
		if s <= 0 {
			return fmt.Errorf("volume axis %d has non-positive size %d", axis, s)
		}
		if v.Resolution[axis] <= 0 {
			return fmt.Errorf("volume axis %d has non-positive resolution %g", axis, v.Resolution[axis])
		}
		n *= s
	}
	if len(v.Labels) != n {
		return fmt.Errorf("volume has %d labels, shape %v needs %d", len(v.Labels), v.Shape, n)
	}
	return nil
}

// Voxel converts a coordinate in microns to voxel indices. ok is false
// outside the volume.
func (v *Volume) Voxel(p r3.Vec) (i, j, k int, ok bool) {
	i = int(math.Floor(p.X / v.Resolution[0]))
	j = int(math.Floor(p.Y / v.Resolution[1]))
	k = int(math.Floor(p.Z / v.Resolution[2]))
	ok = i >= 0 && i < v.Shape[0] && j >= 0 && j < v.Shape[1] && k >= 0 && k < v.Shape[2]
	return i, j, k, ok
}

// Index returns the position of voxel (i, j, k) in Labels
func (v *Volume) Index(i, j, k int) int {
	return (i*v.Shape[1]+j)*v.Shape[2] + k
}

// At returns the label of voxel (i, j, k)
func (v *Volume) At(i, j, k int) uint32 {
	return v.Labels[v.Index(i, j, k)]
}

// Center returns the coordinate in microns of the center of voxel (i, j, k)
func (v *Volume) Center(i, j, k int) r3.Vec {
	return r3.Vec{
		X: (float64(i) + 0.5) * v.Resolution[0],
		Y: (float64(j) + 0.5) * v.Resolution[1],
		Z: (float64(k) + 0.5) * v.Resolution[2],
	}
}

// Extent returns the size of the volume in microns
func (v *Volume) Extent() r3.Vec {
	return r3.Vec{
		X: float64(v.Shape[0]) * v.Resolution[0],
		Y: float64(v.Shape[1]) * v.Resolution[1],
		Z: float64(v.Shape[2]) * v.Resolution[2],
	}
}

// LoadVolume reads an annotation header (YAML) and the raw label file it points to
func LoadVolume(headerPath string) (*Volume, error) {
	data, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("error reading annotation header: %w", err)
	}

	var h annotationHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("error parsing annotation header: %w", err)
	}
	if h.Data == "" {
		return nil, fmt.Errorf("annotation header %s has no data file", headerPath)
	}

	dataPath := h.Data
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(filepath.Dir(headerPath), dataPath)
	}

	v := &Volume{Shape: h.Shape, Resolution: h.Resolution}
	n := h.Shape[0] * h.Shape[1] * h.Shape[2]
	if n <= 0 {
		return nil, fmt.Errorf("annotation header %s has invalid shape %v", headerPath, h.Shape)
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("error opening annotation data: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	switch h.DType {
	case "", "uint32":
		v.Labels = make([]uint32, n)
		if err := binary.Read(r, binary.LittleEndian, v.Labels); err != nil {
			return nil, fmt.Errorf("error reading annotation data: %w", err)
		}
	case "uint16":
		raw := make([]uint16, n)
		if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("error reading annotation data: %w", err)
		}
		v.Labels = make([]uint32, n)
		for i, l := range raw {
			v.Labels[i] = uint32(l)
		}
	default:
		return nil, fmt.Errorf("unsupported annotation dtype %q", h.DType)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// SaveVolume writes the volume as a YAML header plus a raw uint32 data file
// named after the header.
func SaveVolume(v *Volume, headerPath string) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(headerPath), 0755); err != nil {
		return fmt.Errorf("error creating annotation directory: %w", err)
	}

	base := filepath.Base(headerPath)
	dataName := base[:len(base)-len(filepath.Ext(base))] + ".raw"
	h := annotationHeader{Shape: v.Shape, Resolution: v.Resolution, Data: dataName, DType: "uint32"}

	header, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("error marshaling annotation header: %w", err)
	}
	if err := os.WriteFile(headerPath, header, 0644); err != nil {
		return fmt.Errorf("error writing annotation header: %w", err)
	}

	f, err := os.Create(filepath.Join(filepath.Dir(headerPath), dataName))
	if err != nil {
		return fmt.Errorf("error creating annotation data: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, v.Labels); err != nil {
		f.Close()
		return fmt.Errorf("error writing annotation data: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("error writing annotation data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing annotation data: %w", err)
	}
	return nil
}
