package graph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/world"
)

// runLog records node runs across goroutines.
type runLog struct {
	mu   sync.Mutex
	runs []string
}

func (l *runLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, s)
}

func (l *runLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.runs...)
}

// testNode records its runs and optionally forwards its entity input.
type testNode struct {
	name    string
	log     *runLog
	inputs  []SlotInfo
	outputs []SlotInfo
	err     error
	updates int
}

func (n *testNode) Input() []SlotInfo     { return n.inputs }
func (n *testNode) Output() []SlotInfo    { return n.outputs }
func (n *testNode) Update(_ *world.World) { n.updates++ }

func (n *testNode) Run(gc *Context, _ *RenderContext, _ *world.World) error {
	entry := n.name
	for _, s := range n.inputs {
		v, err := gc.Input(s.Name)
		if err != nil {
			return err
		}
		entry += fmt.Sprintf(" %s=%v", s.Name, v)
		if len(n.outputs) > 0 {
			if err := gc.SetOutput(n.outputs[0].Name, v); err != nil {
				return err
			}
		}
	}
	n.log.add(entry)
	return n.err
}

// passNode opens and ends one labeled pass per run.
type passNode struct {
	log *runLog
}

func (passNode) Input() []SlotInfo     { return []SlotInfo{{Name: "view", Type: SlotEntity}} }
func (passNode) Update(_ *world.World) {}

func (n passNode) Run(gc *Context, rc *RenderContext, _ *world.World) error {
	e, err := gc.InputEntity("view")
	if err != nil {
		return err
	}
	rp, err := rc.BeginRenderPass(&encoding.RenderPassDescriptor{
		Label: e.String(),
		ColorAttachments: []encoding.ColorAttachment{{
			View: resource.NewTextureView(nil, nil),
			Ops:  encoding.LoadOps(),
		}},
	})
	if err != nil {
		return err
	}
	if n.log != nil {
		n.log.add(e.String())
	}
	return rp.End()
}

func entityIn() []SlotInfo  { return []SlotInfo{{Name: "in", Type: SlotEntity}} }
func entityOut() []SlotInfo { return []SlotInfo{{Name: "out", Type: SlotEntity}} }

func mustAdd(t *testing.T, g *Graph, name string, n Node) {
	t.Helper()
	if err := g.AddNode(name, n); err != nil {
		t.Fatalf("AddNode(%q): %v", name, err)
	}
}

func newRC() (*encoding.Recorder, *RenderContext) {
	rec := encoding.NewRecorder("test")
	return rec, NewRenderContext(rec, Capabilities{})
}

func resourceBuffer() resource.Buffer { return resource.NewBuffer(nil, nil) }
