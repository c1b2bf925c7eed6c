// Package hierarchy builds the display tree of the rendered regions, nesting
// each region under its chain of ancestors.
package hierarchy

import (
	"fmt"
	"image/color"
	"io"
	"slices"
	"strings"

	"probeplanner/pkg/region"
)

// RootLabel is the label of the synthetic tree root
const RootLabel = "Targeted structures"

// Atlas supplies ancestry and colors
type Atlas interface {
	Ancestors(acronym string) ([]string, error)
	Color(acronym string) (color.RGBA, error)
}

// Node is one structure in the tree
type Node struct {
	Label string

	// Color is the structure color as #rrggbb, empty when unknown
	Color string

	// Tip marks the tip region
	Tip bool

	Children []*Node
}

// Child returns the direct child with the given label, or nil
func (n *Node) Child(label string) *Node {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}

// Tree is the hierarchy of targeted structures
type Tree struct {
	Root *Node
}

// Build creates the tree for the rendered labels. Each label is attached below
// its ancestors, reusing nodes already created for a shared prefix. The
// whole-brain wrapper label is skipped.
func Build(rendered []string, tip string, a Atlas) (*Tree, error) {
	t := &Tree{Root: &Node{Label: RootLabel}}

	for _, label := range rendered {
		if label == region.Root {
			continue
		}

		ancestors, err := a.Ancestors(label)
		if err != nil {
			return nil, fmt.Errorf("building tree for %s: %w", label, err)
		}

		node := t.Root
		for _, structure := range append(slices.Clip(ancestors), label) {
			child := node.Child(structure)
			if child == nil {
				child = &Node{Label: structure, Color: hexColor(a, structure), Tip: structure == tip}
				node.Children = append(node.Children, child)
			}
			node = child
		}
	}
	return t, nil
}

func hexColor(a Atlas, acronym string) string {
	c, err := a.Color(acronym)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Find returns the first node with the given label in depth-first order
func (t *Tree) Find(label string) *Node {
	var find func(n *Node) *Node
	find = func(n *Node) *Node {
		if n.Label == label {
			return n
		}
		for _, c := range n.Children {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return find(t.Root)
}

// Count returns the number of nodes below the root
func (t *Tree) Count() int {
	var count func(n *Node) int
	count = func(n *Node) int {
		total := len(n.Children)
		for _, c := range n.Children {
			total += count(c)
		}
		return total
	}
	return count(t.Root)
}

// Render writes the tree with box-drawing guides. The tip region is
// suffixed with "(tip)".
func (t *Tree) Render(w io.Writer) error {
	if _, err := fmt.Fprintln(w, t.Root.Label); err != nil {
		return err
	}
	return render(w, t.Root.Children, "")
}

func render(w io.Writer, nodes []*Node, prefix string) error {
	for i, n := range nodes {
		guide, next := "├── ", "│   "
		if i == len(nodes)-1 {
			guide, next = "└── ", "    "
		}

		line := prefix + guide + n.Label
		if n.Tip {
			line += " (tip)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if err := render(w, n.Children, prefix+next); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) String() string {
	var b strings.Builder
	_ = t.Render(&b)
	return b.String()
}
