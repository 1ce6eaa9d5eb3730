package phase

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/resource"
)

// Binding slot limits tracked by TrackedPass.
const (
	MaxBindGroups    = 4
	MaxVertexBuffers = 8
)

type boundGroup struct {
	id      resource.ID
	offsets []uint32
}

type boundBuffer struct {
	id     resource.ID
	offset uint64
}

// TrackedPass wraps an open render pass and drops binds that would not
// change the currently bound state. Resources are compared by identity.
//
// Set methods report whether the bind was issued to the underlying pass.
type TrackedPass struct {
	pass encoding.RenderPass

	pipeline      resource.ID
	bindGroups    [MaxBindGroups]boundGroup
	vertexBuffers [MaxVertexBuffers]boundBuffer
	indexBuffer   boundBuffer
	indexFormat   gputypes.IndexFormat

	issued int
	elided int
}

// NewTrackedPass wraps pass. Nothing is considered bound initially.
func NewTrackedPass(pass encoding.RenderPass) *TrackedPass {
	return &TrackedPass{pass: pass}
}

// Pass returns the wrapped pass.
func (t *TrackedPass) Pass() encoding.RenderPass { return t.pass }

// Issued returns the number of binds forwarded to the pass.
func (t *TrackedPass) Issued() int { return t.issued }

// Elided returns the number of binds dropped as redundant.
func (t *TrackedPass) Elided() int { return t.elided }

func (t *TrackedPass) skip() bool {
	t.elided++
	return false
}

// SetPipeline binds pipeline unless it is already bound.
func (t *TrackedPass) SetPipeline(pipeline resource.RenderPipeline) bool {
	if t.pipeline != 0 && t.pipeline == pipeline.ID() {
		return t.skip()
	}
	t.pipeline = pipeline.ID()
	t.pass.SetPipeline(pipeline)
	t.issued++
	return true
}

// SetBindGroup binds group at index unless the same group with the same
// dynamic offsets is already bound there.
func (t *TrackedPass) SetBindGroup(index uint32, group resource.BindGroup, dynamicOffsets []uint32) bool {
	if index < MaxBindGroups {
		b := &t.bindGroups[index]
		if b.id != 0 && b.id == group.ID() && slices.Equal(b.offsets, dynamicOffsets) {
			return t.skip()
		}
		b.id = group.ID()
		b.offsets = append(b.offsets[:0], dynamicOffsets...)
	}
	t.pass.SetBindGroup(index, group, dynamicOffsets)
	t.issued++
	return true
}

// SetVertexBuffer binds buffer at slot unless it is already bound at offset.
func (t *TrackedPass) SetVertexBuffer(slot uint32, buffer resource.Buffer, offset uint64) bool {
	if slot < MaxVertexBuffers {
		b := &t.vertexBuffers[slot]
		if b.id != 0 && b.id == buffer.ID() && b.offset == offset {
			return t.skip()
		}
		*b = boundBuffer{id: buffer.ID(), offset: offset}
	}
	t.pass.SetVertexBuffer(slot, buffer, offset)
	t.issued++
	return true
}

// SetIndexBuffer binds buffer unless it is already bound with format and offset.
func (t *TrackedPass) SetIndexBuffer(buffer resource.Buffer, format gputypes.IndexFormat, offset uint64) bool {
	b := &t.indexBuffer
	if b.id != 0 && b.id == buffer.ID() && b.offset == offset && t.indexFormat == format {
		return t.skip()
	}
	*b = boundBuffer{id: buffer.ID(), offset: offset}
	t.indexFormat = format
	t.pass.SetIndexBuffer(buffer, format, offset)
	t.issued++
	return true
}

// SetViewport is always forwarded.
func (t *TrackedPass) SetViewport(v encoding.Viewport) {
	t.pass.SetViewport(v)
}

// Draw forwards a non-indexed draw.
func (t *TrackedPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	t.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed forwards an indexed draw.
func (t *TrackedPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	t.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

// End ends the wrapped pass.
func (t *TrackedPass) End() error {
	return t.pass.End()
}
