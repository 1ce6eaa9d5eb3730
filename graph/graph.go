package graph

import (
	"fmt"
	"strings"
)

// GraphInput is the pseudo-node whose output slots are the graph inputs.
const GraphInput = "input"

// Edge orders To after From. A slot edge also feeds From's output slot
// FromSlot into To's input slot ToSlot.
type Edge struct {
	From, FromSlot string
	To, ToSlot     string
}

// IsSlotEdge reports whether e carries a slot value.
func (e Edge) IsSlotEdge() bool { return e.ToSlot != "" }

func (e Edge) String() string {
	if e.IsSlotEdge() {
		return e.From + "." + e.FromSlot + " -> " + e.To + "." + e.ToSlot
	}
	return e.From + " -> " + e.To
}

type slotKey struct {
	node, slot string
}

type nodeEntry struct {
	name    string
	node    Node
	index   int
	inputs  []SlotInfo
	outputs []SlotInfo
	deps    []string
}

func (n *nodeEntry) dependsOn(name string) bool {
	for _, d := range n.deps {
		if d == name {
			return true
		}
	}
	return false
}

// Graph is a directed acyclic graph of named nodes.
//
// A Graph is assembled once when the pipeline is built and is read-only
// afterwards; it is not safe for concurrent modification.
type Graph struct {
	name   string
	inputs []SlotInfo
	nodes  map[string]*nodeEntry
	names  []string
	edges  []Edge
	feeds  map[slotKey]Edge
}

// New returns an empty graph.
func New(name string) *Graph {
	return &Graph{
		name:  name,
		nodes: make(map[string]*nodeEntry),
		feeds: make(map[slotKey]Edge),
	}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// SetInput declares the graph's input slots, replacing any previous ones.
// Values for them are passed positionally to Driver.Run.
func (g *Graph) SetInput(slots ...SlotInfo) {
	g.inputs = append([]SlotInfo(nil), slots...)
}

// Inputs returns the graph input slots.
func (g *Graph) Inputs() []SlotInfo { return g.inputs }

// AddNode adds n under name.
func (g *Graph) AddNode(name string, n Node) error {
	switch {
	case name == GraphInput:
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	case g.nodes[name] != nil:
		return fmt.Errorf("%w: %q", ErrDuplicateNode, name)
	}
	g.nodes[name] = &nodeEntry{
		name:    name,
		node:    n,
		index:   len(g.names),
		inputs:  n.Input(),
		outputs: outputsOf(n),
	}
	g.names = append(g.names, name)
	return nil
}

// Node returns the node named name.
func (g *Graph) Node(name string) (Node, bool) {
	e, ok := g.nodes[name]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// Nodes returns the node names in insertion order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.names...) }

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

func (g *Graph) entry(name string) (*nodeEntry, error) {
	e, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return e, nil
}

// AddNodeEdge makes to run after from.
func (g *Graph) AddNodeEdge(from, to string) error {
	if from == GraphInput {
		return fmt.Errorf("%w: %q cannot order nodes", ErrReservedName, GraphInput)
	}
	if _, err := g.entry(from); err != nil {
		return err
	}
	dst, err := g.entry(to)
	if err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, from, to)
	}
	if dst.dependsOn(from) {
		return nil
	}
	dst.deps = append(dst.deps, from)
	g.edges = append(g.edges, Edge{From: from, To: to})
	return nil
}

// AddSlotEdge feeds output slot fromSlot of from (or graph input fromSlot
// when from is GraphInput) into input slot toSlot of to. Each input slot
// is fed by at most one edge and both slots must have the same type.
func (g *Graph) AddSlotEdge(from, fromSlot, to, toSlot string) error {
	var outputs []SlotInfo
	if from == GraphInput {
		outputs = g.inputs
	} else {
		src, err := g.entry(from)
		if err != nil {
			return err
		}
		outputs = src.outputs
	}
	dst, err := g.entry(to)
	if err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, from, to)
	}

	oi := indexOf(outputs, fromSlot)
	if oi < 0 {
		return &SlotError{Node: from, Slot: fromSlot, Err: ErrUnknownSlot}
	}
	ii := indexOf(dst.inputs, toSlot)
	if ii < 0 {
		return &SlotError{Node: to, Slot: toSlot, Err: ErrUnknownSlot}
	}
	if want, got := dst.inputs[ii].Type, outputs[oi].Type; want != got {
		return &SlotError{Node: to, Slot: toSlot, Want: want, Got: got, Err: ErrSlotTypeMismatch}
	}
	key := slotKey{to, toSlot}
	if prev, dup := g.feeds[key]; dup {
		return &SlotError{Node: to, Slot: toSlot, Err: fmt.Errorf("%w by %s", ErrInputAlreadyBound, prev)}
	}

	e := Edge{From: from, FromSlot: fromSlot, To: to, ToSlot: toSlot}
	g.feeds[key] = e
	g.edges = append(g.edges, e)
	if from != GraphInput && !dst.dependsOn(from) {
		dst.deps = append(dst.deps, from)
	}
	return nil
}

// Validate checks that every node input is fed by a slot edge of the right
// type and that the graph is acyclic.
func (g *Graph) Validate() error {
	for _, name := range g.names {
		n := g.nodes[name]
		for _, s := range n.inputs {
			e, ok := g.feeds[slotKey{name, s.Name}]
			if !ok {
				return &SlotError{Node: name, Slot: s.Name, Err: ErrMissingInput}
			}
			if e.From != GraphInput {
				continue
			}
			i := indexOf(g.inputs, e.FromSlot)
			if i < 0 {
				return &SlotError{Node: GraphInput, Slot: e.FromSlot, Err: ErrUnknownSlot}
			}
			if got := g.inputs[i].Type; got != s.Type {
				return &SlotError{Node: name, Slot: s.Name, Want: s.Type, Got: got, Err: ErrSlotTypeMismatch}
			}
		}
	}
	_, err := g.Order()
	return err
}

// Order returns the node names in a deterministic topological order.
// Among nodes whose dependencies are satisfied, the one added first runs
// first.
func (g *Graph) Order() ([]string, error) {
	done := make(map[string]bool, len(g.names))
	order := make([]string, 0, len(g.names))
	for len(order) < len(g.names) {
		progressed := false
		for _, name := range g.names {
			if done[name] || !g.ready(g.nodes[name], done) {
				continue
			}
			done[name] = true
			order = append(order, name)
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for _, name := range g.names {
				if !done[name] {
					stuck = append(stuck, name)
				}
			}
			return nil, fmt.Errorf("%w among %s", ErrCycle, strings.Join(stuck, ", "))
		}
	}
	return order, nil
}

func (g *Graph) ready(n *nodeEntry, done map[string]bool) bool {
	for _, d := range n.deps {
		if !done[d] {
			return false
		}
	}
	return true
}

// successors maps each node to the nodes that depend on it directly.
func (g *Graph) successors() map[string][]string {
	out := make(map[string][]string, len(g.names))
	for _, name := range g.names {
		for _, d := range g.nodes[name].deps {
			out[d] = append(out[d], name)
		}
	}
	return out
}
