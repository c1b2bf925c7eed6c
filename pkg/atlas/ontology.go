// Package atlas provides the labeled brain volume the planner queries: a
// structure ontology (acronyms, ancestry, colors) and an annotation volume
// mapping voxels to structure ids.
package atlas

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrUnknownStructure is returned for acronyms or ids missing from the ontology
var ErrUnknownStructure = errors.New("unknown structure")

// Structure is one entry of the atlas ontology. The yaml tags match the
// structures.json layout of brainglobe atlases, which yaml.v3 reads directly.
type Structure struct {
	ID      int    `yaml:"id"`
	Acronym string `yaml:"acronym"`
	Name    string `yaml:"name"`

	// Path lists structure ids from the ontology root down to this structure
	Path []int `yaml:"structure_id_path"`

	// RGB is the display color triplet
	RGB []uint8 `yaml:"rgb_triplet"`
}

// Ontology indexes structures by id and acronym
type Ontology struct {
	structures []*Structure
	byID       map[int]*Structure
	byAcronym  map[string]*Structure
}

// NewOntology builds an ontology, checking that every structure's path ends
// with its own id and only references known structures.
func NewOntology(structures []Structure) (*Ontology, error) {
	o := &Ontology{
		structures: make([]*Structure, 0, len(structures)),
		byID:       make(map[int]*Structure, len(structures)),
		byAcronym:  make(map[string]*Structure, len(structures)),
	}

	for i := range structures {
		s := structures[i]
		if s.Acronym == "" {
			return nil, fmt.Errorf("structure %d has no acronym", s.ID)
		}
		if len(s.Path) == 0 {
			s.Path = []int{s.ID}
		}
		if s.Path[len(s.Path)-1] != s.ID {
			return nil, fmt.Errorf("structure %s: path %v does not end with id %d", s.Acronym, s.Path, s.ID)
		}
		if _, dup := o.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate structure id %d", s.ID)
		}
		if _, dup := o.byAcronym[s.Acronym]; dup {
			return nil, fmt.Errorf("duplicate structure acronym %s", s.Acronym)
		}
		o.structures = append(o.structures, &s)
		o.byID[s.ID] = &s
		o.byAcronym[s.Acronym] = &s
	}

	for _, s := range o.structures {
		for _, id := range s.Path {
			if _, ok := o.byID[id]; !ok {
				return nil, fmt.Errorf("structure %s: path references %w id %d", s.Acronym, ErrUnknownStructure, id)
			}
		}
	}
	return o, nil
}

// LoadOntology reads a list of structures from a YAML or JSON file
func LoadOntology(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading ontology file: %w", err)
	}

	var structures []Structure
	if err := yaml.Unmarshal(data, &structures); err != nil {
		return nil, fmt.Errorf("error parsing ontology file: %w", err)
	}

	return NewOntology(structures)
}

// Structure returns the structure with the given acronym
func (o *Ontology) Structure(acronym string) (*Structure, error) {
	s, ok := o.byAcronym[acronym]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStructure, acronym)
	}
	return s, nil
}

// StructureByID returns the structure with the given id
func (o *Ontology) StructureByID(id int) (*Structure, error) {
	s, ok := o.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownStructure, id)
	}
	return s, nil
}

// Ancestors returns the acronyms of a structure's ancestors, root-most first.
// The structure itself is not included.
func (o *Ontology) Ancestors(acronym string) ([]string, error) {
	s, err := o.Structure(acronym)
	if err != nil {
		return nil, err
	}

	ancestors := make([]string, 0, len(s.Path)-1)
	for _, id := range s.Path[:len(s.Path)-1] {
		ancestors = append(ancestors, o.byID[id].Acronym)
	}
	return ancestors, nil
}

// Descendants returns the acronyms of every structure below acronym, in
// ontology order. The structure itself is not included.
func (o *Ontology) Descendants(acronym string) ([]string, error) {
	s, err := o.Structure(acronym)
	if err != nil {
		return nil, err
	}

	var descendants []string
	for _, other := range o.structures {
		if other.ID != s.ID && slices.Contains(other.Path, s.ID) {
			descendants = append(descendants, other.Acronym)
		}
	}
	return descendants, nil
}

// Color returns the display color of a structure. Structures without a
// triplet are white.
func (o *Ontology) Color(acronym string) (color.RGBA, error) {
	s, err := o.Structure(acronym)
	if err != nil {
		return color.RGBA{}, err
	}
	if len(s.RGB) != 3 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	return color.RGBA{R: s.RGB[0], G: s.RGB[1], B: s.RGB[2], A: 255}, nil
}

// subtree returns the ids of a structure and all its descendants
func (o *Ontology) subtree(id int) map[int]bool {
	ids := map[int]bool{id: true}
	for _, s := range o.structures {
		if slices.Contains(s.Path, id) {
			ids[s.ID] = true
		}
	}
	return ids
}
