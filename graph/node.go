package graph

import (
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/world"
)

// Node is one unit of per-frame GPU work.
//
// Input is called once when the node is added to a graph. Update runs with
// exclusive world access before any Run of the frame and must not touch the
// GPU. Run may be called concurrently for different views and must treat
// the world as read-only.
type Node interface {
	Input() []SlotInfo
	Update(w *world.World)
	Run(gc *Context, rc *RenderContext, w *world.World) error
}

// OutputNode is a Node that produces slot values for downstream nodes.
type OutputNode interface {
	Node
	Output() []SlotInfo
}

func outputsOf(n Node) []SlotInfo {
	if o, ok := n.(OutputNode); ok {
		return o.Output()
	}
	return nil
}

// Context carries one node invocation's resolved inputs and collects its
// outputs.
type Context struct {
	node       string
	inputInfo  []SlotInfo
	inputs     []SlotValue
	outputInfo []SlotInfo
	outputs    []SlotValue
}

// NewContext builds a context for running a node outside a driver.
// Inputs missing from values are unbound.
func NewContext(node string, n Node, values map[string]SlotValue) *Context {
	info := n.Input()
	c := &Context{
		node:       node,
		inputInfo:  info,
		inputs:     make([]SlotValue, len(info)),
		outputInfo: outputsOf(n),
	}
	for i, s := range info {
		c.inputs[i] = values[s.Name]
	}
	c.outputs = make([]SlotValue, len(c.outputInfo))
	return c
}

// Node returns the name of the node being run.
func (c *Context) Node() string { return c.node }

// Input returns the value bound to the named input slot.
func (c *Context) Input(name string) (SlotValue, error) {
	i := indexOf(c.inputInfo, name)
	if i < 0 {
		return SlotValue{}, &SlotError{Node: c.node, Slot: name, Err: ErrUnknownSlot}
	}
	v := c.inputs[i]
	if !v.IsBound() {
		return SlotValue{}, &SlotError{Node: c.node, Slot: name, Err: ErrMissingInput}
	}
	if v.typ != c.inputInfo[i].Type {
		return SlotValue{}, &SlotError{
			Node: c.node, Slot: name,
			Want: c.inputInfo[i].Type, Got: v.typ,
			Err: ErrSlotTypeMismatch,
		}
	}
	return v, nil
}

// InputEntity returns the entity bound to the named input slot.
func (c *Context) InputEntity(name string) (world.Entity, error) {
	v, err := c.Input(name)
	if err != nil {
		return 0, err
	}
	e, ok := v.Entity()
	if !ok {
		return 0, &SlotError{Node: c.node, Slot: name, Want: SlotEntity, Got: v.typ, Err: ErrSlotTypeMismatch}
	}
	return e, nil
}

// SetOutput binds the named output slot.
func (c *Context) SetOutput(name string, v SlotValue) error {
	i := indexOf(c.outputInfo, name)
	if i < 0 {
		return &SlotError{Node: c.node, Slot: name, Err: ErrUnknownSlot}
	}
	if v.typ != c.outputInfo[i].Type {
		return &SlotError{
			Node: c.node, Slot: name,
			Want: c.outputInfo[i].Type, Got: v.typ,
			Err: ErrSlotTypeMismatch,
		}
	}
	c.outputs[i] = v
	return nil
}

// Output returns the value the node bound to the named output slot.
func (c *Context) Output(name string) (SlotValue, bool) {
	i := indexOf(c.outputInfo, name)
	if i < 0 || !c.outputs[i].IsBound() {
		return SlotValue{}, false
	}
	return c.outputs[i], true
}

// Capabilities are backend quirk flags resolved when the pipeline is built.
type Capabilities struct {
	// ResetViewportAfterPass makes viewport-scoped nodes issue an empty
	// full-target pass afterwards, for backends that keep viewport state
	// across passes.
	ResetViewportAfterPass bool
}

// RenderContext gives a node exclusive access to a command encoder.
type RenderContext struct {
	encoder encoding.CommandEncoder
	caps    Capabilities
}

// NewRenderContext wraps encoder.
func NewRenderContext(encoder encoding.CommandEncoder, caps Capabilities) *RenderContext {
	return &RenderContext{encoder: encoder, caps: caps}
}

// Encoder returns the command encoder.
func (rc *RenderContext) Encoder() encoding.CommandEncoder { return rc.encoder }

// Capabilities returns the backend capability flags.
func (rc *RenderContext) Capabilities() Capabilities { return rc.caps }

// BeginRenderPass opens a pass on the encoder.
func (rc *RenderContext) BeginRenderPass(desc *encoding.RenderPassDescriptor) (encoding.RenderPass, error) {
	return rc.encoder.BeginRenderPass(desc)
}
