// Package planner drives the refresh cycle of a probe planning session:
// geometry, region traversal, scene reconciliation and the hierarchy tree.
//
// A Session is single-threaded. Each edit runs one full cycle to completion
// and the state it commits always comes from that same cycle.
package planner

import (
	"fmt"
	"log/slog"
	"math"

	"probeplanner/internal/models"
	"probeplanner/pkg/atlas"
	"probeplanner/pkg/config"
	"probeplanner/pkg/geometry"
	"probeplanner/pkg/hierarchy"
	"probeplanner/pkg/region"
	"probeplanner/pkg/scene"
	"probeplanner/pkg/traversal"
	"probeplanner/pkg/visualization"
)

// Axis names a coordinate axis of the atlas
type Axis int

const (
	AP Axis = iota
	DV
	ML
)

func (a Axis) String() string {
	switch a {
	case AP:
		return "AP"
	case DV:
		return "DV"
	case ML:
		return "ML"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Options configures a session
type Options struct {
	// Highlight lists regions drawn with emphasis; their descendants are added
	Highlight []string

	// MoveThreshold and TiltThreshold filter out tiny control changes
	MoveThreshold float64
	TiltThreshold float64

	// ShowRoot seeds the rendered set with the whole-brain outline
	ShowRoot    bool
	RootDisplay models.Display

	Logger *slog.Logger
}

// OptionsFromConfig maps the planner section of a config to session options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Highlight:     cfg.Planner.Highlight,
		MoveThreshold: cfg.Planner.MoveThreshold,
		TiltThreshold: cfg.Planner.TiltThreshold,
		ShowRoot:      cfg.Planner.ShowRoot,
		RootDisplay:   models.Display{Opacity: cfg.Planner.RootOpacity},
	}
}

// Update is the outcome of one refresh cycle, handed to the display layer
type Update struct {
	Probe   geometry.ProbeGeometry
	Touched traversal.Result
	Diff    scene.Diff
	Tree    *hierarchy.Tree
	Mesh    visualization.ProbeMesh
}

// Session owns a probe and the derived display state
type Session struct {
	atlas      atlas.Atlas
	classifier *region.Classifier
	reconciler *scene.Reconciler
	highlight  map[string]bool
	opts       Options
	logger     *slog.Logger

	probe    geometry.ProbeGeometry
	initial  geometry.ProbeGeometry
	rendered *scene.RenderedSet
	view     *visualization.RenderableProbe
	last     Update
}

// NewSession starts a session for probe and runs the first refresh
func NewSession(a atlas.Atlas, probe geometry.ProbeGeometry, opts Options) (*Session, error) {
	if err := probe.Validate(); err != nil {
		return nil, fmt.Errorf("invalid probe: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	highlight, err := expandHighlight(a, opts.Highlight)
	if err != nil {
		return nil, err
	}

	s := &Session{
		atlas:      a,
		classifier: region.NewClassifier(a),
		reconciler: scene.NewReconciler(a),
		highlight:  highlight,
		opts:       opts,
		logger:     logger,
		initial:    probe.Clone(),
		rendered:   scene.NewRenderedSet(),
		view:       visualization.NewRenderableProbe(probe),
	}
	if opts.ShowRoot {
		s.rendered = scene.NewRenderedSet(scene.Entry{Label: region.Root, Display: opts.RootDisplay})
	}

	logger.Debug("creating probe", "probe", probe.String())
	if _, err := s.Refresh(probe); err != nil {
		return nil, err
	}
	return s, nil
}

// expandHighlight adds every descendant of the highlighted regions
func expandHighlight(a atlas.Atlas, regions []string) (map[string]bool, error) {
	highlight := make(map[string]bool)
	for _, r := range regions {
		descendants, err := a.Descendants(r)
		if err != nil {
			return nil, fmt.Errorf("highlighted region %s: %w", r, err)
		}
		highlight[r] = true
		for _, d := range descendants {
			highlight[d] = true
		}
	}
	return highlight, nil
}

// Refresh replaces the probe and recomputes touched regions, the rendered set
// and the tree. On error the session keeps its previous state.
func (s *Session) Refresh(next geometry.ProbeGeometry) (Update, error) {
	if err := next.Validate(); err != nil {
		return Update{}, fmt.Errorf("invalid probe: %w", err)
	}
	next = next.Clone()

	touched := traversal.Traverse(next, s.classifier)
	s.logger.Debug("regions touched by probe", "regions", touched.Regions, "tip", touched.TipRegion)

	diff := s.reconciler.Reconcile(s.rendered, touched.Regions, touched.TipRegion, s.highlight)
	s.logger.Debug("updating region actors",
		"add", len(diff.Add), "remove", len(diff.Remove), "restyle", len(diff.Restyle))

	tree, err := hierarchy.Build(diff.Rendered.Labels(), touched.TipRegion, s.atlas)
	if err != nil {
		return Update{}, err
	}

	s.probe = next
	s.rendered = diff.Rendered
	s.view.SetGeometry(next)
	s.last = Update{Probe: next, Touched: touched, Diff: diff, Tree: tree, Mesh: s.view.Rebuild()}
	return s.last, nil
}

// MoveTip sets one tip coordinate. Moves within MoveThreshold are ignored and
// report false.
func (s *Session) MoveTip(axis Axis, value float64) (Update, bool, error) {
	tip := s.probe.Tip
	var current *float64
	switch axis {
	case AP:
		current = &tip.X
	case DV:
		current = &tip.Y
	case ML:
		current = &tip.Z
	default:
		return Update{}, false, fmt.Errorf("invalid axis %v", axis)
	}

	if math.Abs(value-*current) <= s.opts.MoveThreshold {
		return s.last, false, nil
	}
	s.logger.Debug("move tip", "axis", axis.String(), "value", value)

	*current = value
	u, err := s.Refresh(s.probe.WithTip(tip))
	return u, err == nil, err
}

// Tilt sets the angle around the AP or ML axis. Changes within TiltThreshold
// are ignored and report false.
func (s *Session) Tilt(axis Axis, degrees float64) (Update, bool, error) {
	tiltAP, tiltML := s.probe.TiltAP, s.probe.TiltML
	var current *float64
	switch axis {
	case AP:
		current = &tiltAP
	case ML:
		current = &tiltML
	default:
		return Update{}, false, fmt.Errorf("cannot tilt around %v", axis)
	}

	if math.Abs(degrees-*current) <= s.opts.TiltThreshold {
		return s.last, false, nil
	}
	s.logger.Debug("tilt", "axis", axis.String(), "degrees", degrees)

	*current = degrees
	u, err := s.Refresh(s.probe.WithTilt(tiltAP, tiltML))
	return u, err == nil, err
}

// Reset restores the probe the session started with
func (s *Session) Reset() (Update, error) {
	return s.Refresh(s.initial)
}

// Save writes the current probe parameters to path
func (s *Session) Save(path string) error {
	s.logger.Debug("saving probe", "path", path)
	return geometry.Save(s.probe, path)
}

// Probe returns a copy of the current probe
func (s *Session) Probe() geometry.ProbeGeometry {
	return s.probe.Clone()
}

// Mesh returns the probe mesh built by the last refresh
func (s *Session) Mesh() visualization.ProbeMesh {
	return s.last.Mesh
}

// Rendered returns the rendered region set of the last refresh
func (s *Session) Rendered() *scene.RenderedSet {
	return s.rendered
}

// Tree returns the hierarchy tree of the last refresh
func (s *Session) Tree() *hierarchy.Tree {
	return s.last.Tree
}

// TipRegion returns the tip region of the last refresh, or ""
func (s *Session) TipRegion() string {
	return s.last.Touched.TipRegion
}

// Last returns the outcome of the last refresh
func (s *Session) Last() Update {
	return s.last
}

// AimAt moves base so its tip lies at the center of mass of target, optionally
// restricted to one hemisphere. An empty target aims at the whole brain.
func AimAt(a atlas.Atlas, base geometry.ProbeGeometry, target string, h atlas.Hemisphere) (geometry.ProbeGeometry, error) {
	if target == "" {
		target = region.Root
	}
	com, err := a.CenterOfMass(target, h)
	if err != nil {
		return geometry.ProbeGeometry{}, fmt.Errorf("aiming at %s: %w", target, err)
	}
	return base.PointAt(com), nil
}
