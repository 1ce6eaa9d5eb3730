package graph

import (
	"context"
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/world"
)

// FailurePolicy decides what the driver does when a node's Run fails with
// a non-structural error.
type FailurePolicy uint8

const (
	// AbortFrame stops the frame at the first failing node and returns its
	// error. Nodes already run keep the work they recorded; the caller
	// decides whether to submit or discard the encoder.
	AbortFrame FailurePolicy = iota

	// SkipFailedNode logs the failure, skips every node that depends on the
	// failed one and runs the rest. Run returns nil.
	SkipFailedNode
)

// String returns the configuration name of p.
func (p FailurePolicy) String() string {
	switch p {
	case AbortFrame:
		return "abort"
	case SkipFailedNode:
		return "skip"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy parses "abort" or "skip".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "abort":
		return AbortFrame, nil
	case "skip":
		return SkipFailedNode, nil
	default:
		return AbortFrame, fmt.Errorf("graph: unknown failure policy %q", s)
	}
}

type driverOptions struct {
	policy      FailurePolicy
	parallelism int
	onSkip      func(node string, err error)
}

// Option configures a Driver.
type Option func(*driverOptions)

// WithFailurePolicy sets the node failure policy. The default is AbortFrame.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *driverOptions) { o.policy = p }
}

// WithParallelism bounds how many render targets a ViewRunner renders at
// once. Zero or less means GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *driverOptions) { o.parallelism = n }
}

// WithSkipHandler registers fn to be called for every node skipped under
// SkipFailedNode. err is nil for nodes skipped because a dependency failed.
func WithSkipHandler(fn func(node string, err error)) Option {
	return func(o *driverOptions) { o.onSkip = fn }
}

// Driver runs a validated graph.
//
// Update and Run must not overlap. Run may be called concurrently from
// several goroutines with different encoders.
type Driver struct {
	graph      *Graph
	order      []*nodeEntry
	successors map[string][]string
	opts       driverOptions
}

// NewDriver validates g and fixes its execution order.
func NewDriver(g *Graph, opts ...Option) (*Driver, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph %q: %w", g.Name(), err)
	}
	names, err := g.Order()
	if err != nil {
		return nil, fmt.Errorf("graph %q: %w", g.Name(), err)
	}
	d := &Driver{
		graph:      g,
		order:      make([]*nodeEntry, len(names)),
		successors: g.successors(),
	}
	for i, name := range names {
		d.order[i] = g.nodes[name]
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d, nil
}

// Graph returns the driven graph.
func (d *Driver) Graph() *Graph { return d.graph }

// Policy returns the failure policy.
func (d *Driver) Policy() FailurePolicy { return d.opts.policy }

// Order returns the node names in execution order.
func (d *Driver) Order() []string {
	out := make([]string, len(d.order))
	for i, n := range d.order {
		out[i] = n.name
	}
	return out
}

// Update calls every node's Update in execution order.
func (d *Driver) Update(w *world.World) {
	for _, n := range d.order {
		n.node.Update(w)
	}
}

// Run runs every node once. inputs bind the graph input slots in
// declaration order; slots without a value stay unbound, and a node that
// reads one fails with ErrMissingInput.
//
// ctx is checked between nodes.
func (d *Driver) Run(ctx context.Context, rc *RenderContext, w *world.World, inputs ...SlotValue) error {
	g := d.graph
	if len(inputs) > len(g.inputs) {
		return fmt.Errorf("%w: graph %q takes %d, got %d", ErrTooManyInputs, g.name, len(g.inputs), len(inputs))
	}
	for i, v := range inputs {
		if v.IsBound() && v.typ != g.inputs[i].Type {
			return &SlotError{Node: GraphInput, Slot: g.inputs[i].Name, Want: g.inputs[i].Type, Got: v.typ, Err: ErrSlotTypeMismatch}
		}
	}

	log := framegraph.Logger()
	ran := make(map[string]*Context, len(d.order))
	var skipped map[string]bool

	for _, n := range d.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if skipped[n.name] {
			continue
		}

		gc := d.context(n, ran, inputs)
		err := n.node.Run(gc, rc, w)
		if err == nil {
			ran[n.name] = gc
			continue
		}

		err = &NodeRunError{Node: n.name, Err: err}
		if d.opts.policy == AbortFrame || IsStructural(err) {
			return err
		}
		if skipped == nil {
			skipped = make(map[string]bool)
		}
		log.Warn("graph: node failed, skipping dependents", "graph", g.name, "node", n.name, "err", err)
		d.skip(n.name, err)
		d.skipDependents(n.name, skipped)
	}
	return nil
}

func (d *Driver) context(n *nodeEntry, ran map[string]*Context, inputs []SlotValue) *Context {
	gc := &Context{
		node:       n.name,
		inputInfo:  n.inputs,
		inputs:     make([]SlotValue, len(n.inputs)),
		outputInfo: n.outputs,
		outputs:    make([]SlotValue, len(n.outputs)),
	}
	for i, s := range n.inputs {
		e := d.graph.feeds[slotKey{n.name, s.Name}]
		if e.From == GraphInput {
			if j := indexOf(d.graph.inputs, e.FromSlot); j >= 0 && j < len(inputs) {
				gc.inputs[i] = inputs[j]
			}
			continue
		}
		if src := ran[e.From]; src != nil {
			gc.inputs[i], _ = src.Output(e.FromSlot)
		}
	}
	return gc
}

func (d *Driver) skip(node string, err error) {
	if d.opts.onSkip != nil {
		d.opts.onSkip(node, err)
	}
}

func (d *Driver) skipDependents(failed string, skipped map[string]bool) {
	queue := append([]string(nil), d.successors[failed]...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if skipped[name] {
			continue
		}
		skipped[name] = true
		framegraph.Logger().Warn("graph: skipping node", "graph", d.graph.name, "node", name, "after", failed)
		d.skip(name, nil)
		queue = append(queue, d.successors[name]...)
	}
}
