package phase

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/world"
)

var (
	// ErrMissingRenderData is returned by a draw function when the item's
	// entity has no render data. Render skips such items.
	ErrMissingRenderData = errors.New("phase: entity has no render data")

	// ErrUnknownDrawKind is returned for a draw kind with no function.
	ErrUnknownDrawKind = errors.New("phase: unknown draw kind")
)

// DrawKind selects how an item is drawn. The set is closed.
type DrawKind uint8

const (
	// DrawOpaque draws a single instance of the entity's mesh.
	DrawOpaque DrawKind = iota

	// DrawBatched draws the item's Batch instance range from a shared
	// instance buffer.
	DrawBatched

	// DrawInstanced draws every instance in the mesh's instance buffer.
	DrawInstanced

	drawKindCount
)

// String returns the string representation of DrawKind.
func (k DrawKind) String() string {
	switch k {
	case DrawOpaque:
		return "Opaque"
	case DrawBatched:
		return "Batched"
	case DrawInstanced:
		return "Instanced"
	default:
		return fmt.Sprintf("DrawKind(%d)", int(k))
	}
}

// Mesh is the render data a draw function reads from an item's entity.
type Mesh struct {
	VertexBuffer resource.Buffer
	VertexCount  uint32

	// IndexBuffer is optional. When valid the mesh is drawn indexed.
	IndexBuffer resource.Buffer
	IndexFormat gputypes.IndexFormat
	IndexCount  uint32

	// InstanceBuffer is bound at vertex slot 1 for batched and instanced draws.
	InstanceBuffer resource.Buffer
	InstanceCount  uint32
}

// DrawFunction issues the draw calls for one item. The item's pipeline and
// bind groups are already bound when Draw is called.
type DrawFunction interface {
	Draw(w *world.World, pass *TrackedPass, view world.Entity, item *Item) error
}

// DataChecker is implemented by draw functions that can tell, before
// anything is bound, whether an item still has render data. CheckData
// returns an error wrapping ErrMissingRenderData for a stale item.
type DataChecker interface {
	CheckData(w *world.World, view world.Entity, item *Item) error
}

// DrawFunc adapts a function to DrawFunction.
type DrawFunc func(w *world.World, pass *TrackedPass, view world.Entity, item *Item) error

// Draw calls f.
func (f DrawFunc) Draw(w *world.World, pass *TrackedPass, view world.Entity, item *Item) error {
	return f(w, pass, view, item)
}

// DrawFunctions maps each DrawKind to its function.
type DrawFunctions struct {
	fns [drawKindCount]DrawFunction
}

var defaultDrawFunctions = NewDrawFunctions()

// NewDrawFunctions returns a table with the built-in mesh draw functions.
func NewDrawFunctions() *DrawFunctions {
	d := &DrawFunctions{}
	d.fns[DrawOpaque] = meshDraw{draw: drawMesh}
	d.fns[DrawBatched] = meshDraw{draw: drawBatch, instanced: true}
	d.fns[DrawInstanced] = meshDraw{draw: drawInstances, instanced: true}
	return d
}

// Set replaces the function for kind. It panics if kind is unknown or fn is nil.
func (d *DrawFunctions) Set(kind DrawKind, fn DrawFunction) {
	if kind >= drawKindCount {
		panic("phase: Set for unknown " + kind.String())
	}
	if fn == nil {
		panic("phase: Set with nil DrawFunction")
	}
	d.fns[kind] = fn
}

// Get returns the function for kind, or nil.
func (d *DrawFunctions) Get(kind DrawKind) DrawFunction {
	if kind >= drawKindCount {
		return nil
	}
	return d.fns[kind]
}

// meshDraw is a built-in draw function over the entity's Mesh.
type meshDraw struct {
	draw      DrawFunc
	instanced bool
}

func (d meshDraw) Draw(w *world.World, pass *TrackedPass, view world.Entity, item *Item) error {
	return d.draw(w, pass, view, item)
}

func (d meshDraw) CheckData(w *world.World, _ world.Entity, item *Item) error {
	m, err := meshOf(w, item.Entity)
	if err != nil {
		return err
	}
	if d.instanced && !m.InstanceBuffer.IsValid() {
		return fmt.Errorf("%v: instance buffer: %w", item.Entity, ErrMissingRenderData)
	}
	return nil
}

func meshOf(w *world.World, e world.Entity) (*Mesh, error) {
	if w == nil || !w.Alive(e) {
		return nil, fmt.Errorf("%v: %w", e, ErrMissingRenderData)
	}
	m, ok := world.Get[Mesh](w, e)
	if !ok || !m.VertexBuffer.IsValid() {
		return nil, fmt.Errorf("%v: %w", e, ErrMissingRenderData)
	}
	return m, nil
}

func drawMesh(w *world.World, pass *TrackedPass, _ world.Entity, item *Item) error {
	m, err := meshOf(w, item.Entity)
	if err != nil {
		return err
	}
	pass.SetVertexBuffer(0, m.VertexBuffer, 0)
	emit(pass, m, Range{Start: 0, End: 1})
	return nil
}

func drawBatch(w *world.World, pass *TrackedPass, _ world.Entity, item *Item) error {
	m, err := meshOf(w, item.Entity)
	if err != nil {
		return err
	}
	if !m.InstanceBuffer.IsValid() {
		return fmt.Errorf("%v: instance buffer: %w", item.Entity, ErrMissingRenderData)
	}
	if item.Batch.Len() == 0 {
		return nil
	}
	pass.SetVertexBuffer(0, m.VertexBuffer, 0)
	pass.SetVertexBuffer(1, m.InstanceBuffer, 0)
	emit(pass, m, item.Batch)
	return nil
}

func drawInstances(w *world.World, pass *TrackedPass, _ world.Entity, item *Item) error {
	m, err := meshOf(w, item.Entity)
	if err != nil {
		return err
	}
	if !m.InstanceBuffer.IsValid() {
		return fmt.Errorf("%v: instance buffer: %w", item.Entity, ErrMissingRenderData)
	}
	if m.InstanceCount == 0 {
		return nil
	}
	pass.SetVertexBuffer(0, m.VertexBuffer, 0)
	pass.SetVertexBuffer(1, m.InstanceBuffer, 0)
	emit(pass, m, Range{Start: 0, End: m.InstanceCount})
	return nil
}

func emit(pass *TrackedPass, m *Mesh, instances Range) {
	if m.IndexBuffer.IsValid() {
		pass.SetIndexBuffer(m.IndexBuffer, m.IndexFormat, 0)
		pass.DrawIndexed(m.IndexCount, instances.Len(), 0, 0, instances.Start)
		return
	}
	pass.Draw(m.VertexCount, instances.Len(), 0, instances.Start)
}
