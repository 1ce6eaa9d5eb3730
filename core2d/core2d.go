// Package core2d provides the 2D render sub-graph: the transparent 2D
// phase, the 2D camera settings and the main pass node that draws them.
package core2d

import (
	"fmt"

	"github.com/gogpu/framegraph/clearcolor"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/phase"
	"github.com/gogpu/framegraph/view"
	"github.com/gogpu/framegraph/world"
)

// Graph and node names.
const (
	GraphName        = "core2d"
	MainPassNodeName = "main_pass"
	MainPassNodeType = "core2d.main_pass"
)

func init() {
	graph.RegisterNodeType(MainPassNodeType, func(w *world.World) (graph.Node, error) {
		return NewMainPassNode(w), nil
	})
}

// Transparent2d is the 2D draw category. Items are sorted by ascending z so
// that later items blend over earlier ones.
type Transparent2d struct{}

func (Transparent2d) Name() string       { return "transparent_2d" }
func (Transparent2d) Order() phase.Order { return phase.Ascending }

// Phase is the per-view 2D phase component.
type Phase = phase.Phase[Transparent2d]

// Camera2d holds the settings specific to 2D cameras.
type Camera2d struct {
	ClearColor clearcolor.Config
}

// Camera bundles the components a 2D view entity carries.
type Camera struct {
	View     view.ExtractedView
	Camera   view.ExtractedCamera
	Target   view.Target
	Settings Camera2d
}

// SpawnCamera creates a 2D view entity with an empty phase.
func SpawnCamera(w *world.World, c Camera) world.Entity {
	e := w.Spawn()
	world.Insert(w, e, c.View)
	world.Insert(w, e, c.Camera)
	world.Insert(w, e, c.Target)
	world.Insert(w, e, c.Settings)
	world.Insert(w, e, Phase{})
	return e
}

// NewGraph returns the 2D sub-graph: the graph input "view" feeds the main
// pass node.
func NewGraph(w *world.World) (*graph.Graph, error) {
	g := graph.New(GraphName)
	g.SetInput(graph.SlotInfo{Name: InView, Type: graph.SlotEntity})
	if err := g.AddNode(MainPassNodeName, NewMainPassNode(w)); err != nil {
		return nil, err
	}
	if err := g.AddSlotEdge(graph.GraphInput, InView, MainPassNodeName, InView); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("core2d: %w", err)
	}
	return g, nil
}

// SortPhases sorts and batches every 2D phase. It runs once per frame after
// queueing and before the graph.
func SortPhases(w *world.World) error {
	var err error
	world.Each(w, func(e world.Entity, p *Phase) {
		if err != nil {
			return
		}
		p.Sort()
		if _, berr := p.Batch(); berr != nil {
			err = fmt.Errorf("core2d: batch %v: %w", e, berr)
		}
	})
	return err
}

// ClearPhases empties every 2D phase for the next frame.
func ClearPhases(w *world.World) {
	world.Each(w, func(_ world.Entity, p *Phase) { p.Clear() })
}
