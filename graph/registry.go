package graph

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/config"
	"github.com/gogpu/framegraph/world"
)

// NodeFactory constructs a node, typically caching world queries.
type NodeFactory func(w *world.World) (Node, error)

var (
	registryMu sync.RWMutex
	nodeTypes  = make(map[string]NodeFactory)
)

// RegisterNodeType makes a node type available to Build under name.
// It is usually called from init in the package defining the node:
//
//	func init() {
//	    graph.RegisterNodeType("core2d.main_pass", func(w *world.World) (graph.Node, error) {
//	        return NewMainPassNode(w), nil
//	    })
//	}
//
// RegisterNodeType panics if factory is nil or name is already registered.
func RegisterNodeType(name string, factory NodeFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("graph: RegisterNodeType factory is nil")
	}
	if _, dup := nodeTypes[name]; dup {
		panic("graph: RegisterNodeType called twice for " + name)
	}
	nodeTypes[name] = factory
}

// UnregisterNodeType removes a node type. It is intended for tests.
func UnregisterNodeType(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(nodeTypes, name)
}

// NewNode constructs a node of the named type.
func NewNode(typeName string, w *world.World) (Node, error) {
	registryMu.RLock()
	factory, ok := nodeTypes[typeName]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownNodeType, typeName)
	}
	return factory(w)
}

// NodeTypes returns the registered node type names, sorted.
func NodeTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return slices.Sorted(maps.Keys(nodeTypes))
}

// Build assembles and validates a graph from its configuration.
func Build(cfg config.Graph, w *world.World) (*Graph, error) {
	g := New(cfg.Name)

	inputs := make([]SlotInfo, len(cfg.Inputs))
	for i, s := range cfg.Inputs {
		t, err := ParseSlotType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("graph %q input %q: %w", cfg.Name, s.Name, err)
		}
		inputs[i] = SlotInfo{Name: s.Name, Type: t}
	}
	g.SetInput(inputs...)

	for _, nc := range cfg.Nodes {
		n, err := NewNode(nc.Type, w)
		if err != nil {
			return nil, fmt.Errorf("graph %q node %q: %w", cfg.Name, nc.Name, err)
		}
		if err := g.AddNode(nc.Name, n); err != nil {
			return nil, fmt.Errorf("graph %q: %w", cfg.Name, err)
		}
	}

	for _, e := range cfg.Edges {
		var err error
		if e.IsSlotEdge() {
			err = g.AddSlotEdge(e.From, e.FromSlot, e.To, e.ToSlot)
		} else {
			err = g.AddNodeEdge(e.From, e.To)
		}
		if err != nil {
			return nil, fmt.Errorf("graph %q: %w", cfg.Name, err)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph %q: %w", cfg.Name, err)
	}
	framegraph.Logger().Info("graph: assembled", "graph", cfg.Name, "nodes", len(cfg.Nodes), "edges", len(cfg.Edges))
	return g, nil
}

// FromConfig builds the configured graph and a driver for it, and returns
// the capability flags nodes should run with.
func FromConfig(cfg config.Config, w *world.World) (*Driver, Capabilities, error) {
	policy, err := ParseFailurePolicy(cfg.Driver.FailurePolicy)
	if err != nil {
		return nil, Capabilities{}, err
	}
	g, err := Build(cfg.Graph, w)
	if err != nil {
		return nil, Capabilities{}, err
	}
	d, err := NewDriver(g, WithFailurePolicy(policy), WithParallelism(cfg.Driver.Parallelism))
	if err != nil {
		return nil, Capabilities{}, err
	}
	caps := Capabilities{ResetViewportAfterPass: cfg.Capabilities.ResetViewportAfterPass}
	return d, caps, nil
}
