package encoding

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
)

// Descriptor validation errors.
var (
	// ErrNoAttachments is returned when a pass has neither color nor
	// depth/stencil attachments.
	ErrNoAttachments = errors.New("encoding: render pass has no attachments")

	// ErrInvalidAttachment is returned when an attachment view is not a valid handle.
	ErrInvalidAttachment = errors.New("encoding: attachment view is invalid")
)

// Operations describes how one attachment is initialised when a pass begins
// and finalised when it ends.
type Operations struct {
	// Load is the load operation: LoadOpClear or LoadOpLoad.
	Load gputypes.LoadOp

	// ClearValue is used when Load is LoadOpClear.
	ClearValue gputypes.Color

	// Store is the store operation: StoreOpStore or StoreOpDiscard.
	Store gputypes.StoreOp
}

// ClearOps returns operations that clear to c and store the result.
func ClearOps(c gputypes.Color) Operations {
	return Operations{Load: gputypes.LoadOpClear, ClearValue: c, Store: gputypes.StoreOpStore}
}

// LoadOps returns operations that preserve the existing contents and store the result.
func LoadOps() Operations {
	return Operations{Load: gputypes.LoadOpLoad, Store: gputypes.StoreOpStore}
}

// IsClear reports whether the operations clear the attachment.
func (o Operations) IsClear() bool { return o.Load == gputypes.LoadOpClear }

// String returns a short description such as "clear(1,0,0,1)/store".
func (o Operations) String() string {
	load := "load"
	if o.IsClear() {
		c := o.ClearValue
		load = fmt.Sprintf("clear(%g,%g,%g,%g)", c.R, c.G, c.B, c.A)
	}
	store := "store"
	if o.Store == gputypes.StoreOpDiscard {
		store = "discard"
	}
	return load + "/" + store
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	// View is the texture view rendered into.
	View resource.TextureView

	// ResolveTarget receives the MSAA resolve. Optional.
	ResolveTarget resource.TextureView

	// Ops are the load/store operations for this attachment.
	Ops Operations
}

// DepthStencilAttachment is the optional depth/stencil target of a render pass.
type DepthStencilAttachment struct {
	View resource.TextureView

	// DepthOps are nil when the depth aspect is not touched.
	DepthOps *Operations

	// DepthClearValue is used when DepthOps clears.
	DepthClearValue float32

	// StencilOps are nil when the stencil aspect is not touched.
	StencilOps *Operations

	StencilClearValue uint32
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	// Label is an optional debug name.
	Label string

	ColorAttachments []ColorAttachment

	// DepthStencilAttachment is optional.
	DepthStencilAttachment *DepthStencilAttachment
}

// Validate checks that the descriptor can open a pass.
func (d *RenderPassDescriptor) Validate() error {
	if len(d.ColorAttachments) == 0 && d.DepthStencilAttachment == nil {
		return fmt.Errorf("%w: %q", ErrNoAttachments, d.Label)
	}
	for i, ca := range d.ColorAttachments {
		if !ca.View.IsValid() {
			return fmt.Errorf("%w: %q color attachment %d", ErrInvalidAttachment, d.Label, i)
		}
	}
	if ds := d.DepthStencilAttachment; ds != nil && !ds.View.IsValid() {
		return fmt.Errorf("%w: %q depth/stencil attachment", ErrInvalidAttachment, d.Label)
	}
	return nil
}

// Viewport is the rasterization rectangle and depth range of a pass.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport returns a viewport covering width×height with depth [0, 1].
func FullViewport(width, height uint32) Viewport {
	return Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1}
}

// CommandEncoder opens render passes.
//
// CommandEncoder is NOT safe for concurrent use: each encoder belongs to the
// single node (or view group) recording into it.
type CommandEncoder interface {
	// BeginRenderPass opens a pass. Only one pass may be open at a time.
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error)
}

// RenderPass records draw commands inside one open pass.
//
// State-setting and draw methods do not return errors, matching the GPU
// HAL: invalid usage is reported by the backend when the pass ends.
type RenderPass interface {
	SetPipeline(pipeline resource.RenderPipeline)
	SetBindGroup(index uint32, group resource.BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer resource.Buffer, offset uint64)
	SetIndexBuffer(buffer resource.Buffer, format gputypes.IndexFormat, offset uint64)
	SetViewport(v Viewport)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// End closes the pass. Ending a pass twice returns ErrPassEnded.
	End() error
}
