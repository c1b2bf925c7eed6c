package visualization

import (
	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/internal/models"
	"probeplanner/pkg/geometry"
)

// TipPadding is how much wider than the shaft the tip sphere is drawn, in microns
const TipPadding = 20.0

// Cylinder is a capped cylinder between two points
type Cylinder struct {
	Start  r3.Vec
	End    r3.Vec
	Radius float64
}

// Sphere is a sphere around a center
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// ProbeMesh is the drawable description of a probe: its shaft from top to
// tip and a sphere marking the tip
type ProbeMesh struct {
	Shaft Cylinder
	Tip   Sphere
	Color string
}

// RenderableProbe pairs a probe geometry with its mesh. The mesh is only
// rebuilt by an explicit call to Rebuild after the geometry changes.
type RenderableProbe struct {
	geometry geometry.ProbeGeometry
	mesh     ProbeMesh
	dirty    bool
}

// NewRenderableProbe creates a renderable probe with its mesh built
func NewRenderableProbe(g geometry.ProbeGeometry) *RenderableProbe {
	p := &RenderableProbe{geometry: g.Clone()}
	p.Rebuild()
	return p
}

// Geometry returns a copy of the probe geometry
func (p *RenderableProbe) Geometry() geometry.ProbeGeometry {
	return p.geometry.Clone()
}

// SetGeometry replaces the geometry and marks the mesh stale
func (p *RenderableProbe) SetGeometry(g geometry.ProbeGeometry) {
	p.geometry = g.Clone()
	p.dirty = true
}

// Dirty reports whether the mesh lags behind the geometry
func (p *RenderableProbe) Dirty() bool {
	return p.dirty
}

// Rebuild recomputes the mesh from the current geometry
func (p *RenderableProbe) Rebuild() ProbeMesh {
	g := p.geometry
	p.mesh = ProbeMesh{
		Shaft: Cylinder{Start: g.Top(), End: g.Tip, Radius: g.Radius},
		Tip:   Sphere{Center: g.Tip, Radius: g.Radius + TipPadding},
		Color: g.Color,
	}
	p.dirty = false
	return p.mesh
}

// Mesh returns the last built mesh. ok is false when it is stale.
func (p *RenderableProbe) Mesh() (mesh ProbeMesh, ok bool) {
	return p.mesh, !p.dirty
}

// Top delegates to the geometry
func (p *RenderableProbe) Top() r3.Vec {
	return p.geometry.Top()
}

// Points delegates to the geometry
func (p *RenderableProbe) Points() []models.Point {
	return p.geometry.Points()
}
