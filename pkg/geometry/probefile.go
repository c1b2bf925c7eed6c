package geometry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"probeplanner/internal/models"
)

var (
	// ErrMissingKey reports a required key absent from a probe file
	ErrMissingKey = errors.New("missing required key")

	// ErrInvalidKey reports a key whose value is malformed or out of range
	ErrInvalidKey = errors.New("invalid key value")
)

// LoadError is returned by Load for any failure reading a probe file.
// Key is empty when the failure is not tied to a single key.
type LoadError struct {
	Path string
	Key  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("loading probe %s: key %q: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("loading probe %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// probeFile is the on-disk layout of the probe parameters. Pointers tell a
// missing key apart from a zero value.
type probeFile struct {
	Tip    *[]float64   `yaml:"tip"`
	TiltAP *float64     `yaml:"tilt_AP"`
	TiltML *float64     `yaml:"tilt_ML"`
	Length *float64     `yaml:"length"`
	Radius *float64     `yaml:"radius"`
	ROIs   *[][]float64 `yaml:"ROIs,omitempty"`
	Color  *string      `yaml:"color,omitempty"`
}

// Load reads probe parameters from a YAML file. The geometric keys tip,
// tilt_AP, tilt_ML, length and radius are required; ROIs defaults to the whole
// shaft and color to DefaultColor.
func Load(path string) (ProbeGeometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProbeGeometry{}, &LoadError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes probe parameters from YAML data. path is only used in errors.
func Parse(path string, data []byte) (ProbeGeometry, error) {
	var f probeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ProbeGeometry{}, &LoadError{Path: path, Err: err}
	}

	missing := func(key string) error {
		return &LoadError{Path: path, Key: key, Err: ErrMissingKey}
	}
	invalid := func(key, format string, args ...any) error {
		return &LoadError{Path: path, Key: key, Err: fmt.Errorf("%w: %s", ErrInvalidKey, fmt.Sprintf(format, args...))}
	}

	switch {
	case f.Tip == nil:
		return ProbeGeometry{}, missing("tip")
	case f.TiltAP == nil:
		return ProbeGeometry{}, missing("tilt_AP")
	case f.TiltML == nil:
		return ProbeGeometry{}, missing("tilt_ML")
	case f.Length == nil:
		return ProbeGeometry{}, missing("length")
	case f.Radius == nil:
		return ProbeGeometry{}, missing("radius")
	}

	tip := *f.Tip
	if len(tip) != 3 {
		return ProbeGeometry{}, invalid("tip", "expected 3 coordinates, got %d", len(tip))
	}
	if *f.Length <= 0 {
		return ProbeGeometry{}, invalid("length", "must be positive, got %g", *f.Length)
	}
	if *f.Radius < 0 {
		return ProbeGeometry{}, invalid("radius", "must be non-negative, got %g", *f.Radius)
	}

	g := ProbeGeometry{
		Tip:    r3.Vec{X: tip[0], Y: tip[1], Z: tip[2]},
		TiltAP: *f.TiltAP,
		TiltML: *f.TiltML,
		Length: *f.Length,
		Radius: *f.Radius,
		ROIs:   []models.ROI{{Start: 0, End: *f.Length}},
		Color:  DefaultColor,
	}
	if f.Color != nil {
		g.Color = *f.Color
	}
	if f.ROIs != nil {
		g.ROIs = make([]models.ROI, 0, len(*f.ROIs))
		for i, pair := range *f.ROIs {
			if len(pair) != 2 {
				return ProbeGeometry{}, invalid("ROIs", "segment %d: expected [start, end], got %v", i, pair)
			}
			g.ROIs = append(g.ROIs, models.ROI{Start: pair[0], End: pair[1]})
		}
	}

	if err := g.Validate(); err != nil {
		return ProbeGeometry{}, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidKey, err)}
	}
	return g, nil
}

// Save writes the probe parameters to a YAML file, creating parent directories
func Save(g ProbeGeometry, path string) error {
	tip := []float64{g.Tip.X, g.Tip.Y, g.Tip.Z}
	rois := make([][]float64, 0, len(g.ROIs))
	for _, roi := range g.ROIs {
		rois = append(rois, []float64{roi.Start, roi.End})
	}
	f := probeFile{
		Tip:    &tip,
		TiltAP: &g.TiltAP,
		TiltML: &g.TiltML,
		Length: &g.Length,
		Radius: &g.Radius,
		ROIs:   &rois,
		Color:  &g.Color,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating probe directory: %w", err)
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("error marshaling probe: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing probe file: %w", err)
	}
	return nil
}
