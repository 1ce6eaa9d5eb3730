package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/resource"
)

// NewEncoder creates a command encoder and begins recording.
func (b *Backend) NewEncoder(label string) (*Encoder, error) {
	enc, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder %q: %w", label, err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding %q: %w", label, err)
	}
	return &Encoder{enc: enc, label: label}, nil
}

// Encoder is an encoding.CommandEncoder backed by a HAL command encoder.
//
// Like the HAL encoder it wraps, Encoder is not safe for concurrent use.
type Encoder struct {
	enc      hal.CommandEncoder
	label    string
	open     *renderPass
	finished bool
}

var _ encoding.CommandEncoder = (*Encoder)(nil)

// Label returns the encoder label.
func (e *Encoder) Label() string { return e.label }

// BeginRenderPass validates desc, translates it and opens a HAL pass.
func (e *Encoder) BeginRenderPass(desc *encoding.RenderPassDescriptor) (encoding.RenderPass, error) {
	if e.finished {
		return nil, encoding.ErrEncoderFinished
	}
	if e.open != nil {
		return nil, fmt.Errorf("begin %q: %w", desc.Label, encoding.ErrEncoderLocked)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	hd, err := passDescriptor(desc)
	if err != nil {
		return nil, err
	}
	e.open = &renderPass{encoder: e, label: desc.Label, rp: e.enc.BeginRenderPass(hd)}
	return e.open, nil
}

// Finish ends recording and returns the command buffer for Backend.Submit.
func (e *Encoder) Finish() (hal.CommandBuffer, error) {
	if e.finished {
		return nil, encoding.ErrEncoderFinished
	}
	if e.open != nil {
		return nil, fmt.Errorf("finish %q: %w: %q", e.label, encoding.ErrPassOpen, e.open.label)
	}
	e.finished = true
	cb, err := e.enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding %q: %w", e.label, err)
	}
	return cb, nil
}

// Discard abandons the recorded commands.
func (e *Encoder) Discard() {
	if e.finished {
		return
	}
	if e.open != nil {
		e.open.rp.End()
		e.open.ended = true
		e.open = nil
	}
	e.finished = true
	e.enc.DiscardEncoding()
}

func passDescriptor(desc *encoding.RenderPassDescriptor) (*hal.RenderPassDescriptor, error) {
	hd := &hal.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: make([]hal.RenderPassColorAttachment, len(desc.ColorAttachments)),
	}
	for i, ca := range desc.ColorAttachments {
		view, err := nativeView(ca.View)
		if err != nil {
			return nil, fmt.Errorf("%q color attachment %d: %w", desc.Label, i, err)
		}
		var resolve hal.TextureView
		if ca.ResolveTarget.IsValid() {
			if resolve, err = nativeView(ca.ResolveTarget); err != nil {
				return nil, fmt.Errorf("%q resolve target %d: %w", desc.Label, i, err)
			}
		}
		hd.ColorAttachments[i] = hal.RenderPassColorAttachment{
			View:          view,
			ResolveTarget: resolve,
			LoadOp:        ca.Ops.Load,
			StoreOp:       ca.Ops.Store,
			ClearValue:    ca.Ops.ClearValue,
		}
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		view, err := nativeView(ds.View)
		if err != nil {
			return nil, fmt.Errorf("%q depth/stencil attachment: %w", desc.Label, err)
		}
		hds := &hal.RenderPassDepthStencilAttachment{
			View:              view,
			DepthClearValue:   ds.DepthClearValue,
			StencilClearValue: ds.StencilClearValue,
		}
		// Untouched aspects are loaded and stored so their contents survive.
		hds.DepthLoadOp, hds.DepthStoreOp = aspectOps(ds.DepthOps)
		hds.StencilLoadOp, hds.StencilStoreOp = aspectOps(ds.StencilOps)
		hd.DepthStencilAttachment = hds
	}
	return hd, nil
}

func aspectOps(ops *encoding.Operations) (gputypes.LoadOp, gputypes.StoreOp) {
	if ops == nil {
		return gputypes.LoadOpLoad, gputypes.StoreOpStore
	}
	return ops.Load, ops.Store
}

func nativeView(h resource.TextureView) (hal.TextureView, error) {
	v, ok := h.Native().(hal.TextureView)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrForeignResource, h)
	}
	return v, nil
}

// renderPass adapts a HAL render pass encoder to encoding.RenderPass.
// Commands with foreign resources are dropped and reported by End.
type renderPass struct {
	encoder *Encoder
	label   string
	rp      hal.RenderPassEncoder
	errs    []error
	ended   bool
}

var _ encoding.RenderPass = (*renderPass)(nil)

func (p *renderPass) fail(what string, h fmt.Stringer) {
	p.errs = append(p.errs, fmt.Errorf("%s %s: %w", what, h, ErrForeignResource))
}

func (p *renderPass) SetPipeline(pipeline resource.RenderPipeline) {
	if p.ended {
		return
	}
	native, ok := pipeline.Native().(hal.RenderPipeline)
	if !ok {
		p.fail("set pipeline", pipeline)
		return
	}
	p.rp.SetPipeline(native)
}

func (p *renderPass) SetBindGroup(index uint32, group resource.BindGroup, dynamicOffsets []uint32) {
	if p.ended {
		return
	}
	native, ok := group.Native().(hal.BindGroup)
	if !ok {
		p.fail("set bind group", group)
		return
	}
	p.rp.SetBindGroup(index, native, dynamicOffsets)
}

func (p *renderPass) SetVertexBuffer(slot uint32, buffer resource.Buffer, offset uint64) {
	if p.ended {
		return
	}
	native, ok := buffer.Native().(hal.Buffer)
	if !ok {
		p.fail("set vertex buffer", buffer)
		return
	}
	p.rp.SetVertexBuffer(slot, native, offset)
}

func (p *renderPass) SetIndexBuffer(buffer resource.Buffer, format gputypes.IndexFormat, offset uint64) {
	if p.ended {
		return
	}
	native, ok := buffer.Native().(hal.Buffer)
	if !ok {
		p.fail("set index buffer", buffer)
		return
	}
	p.rp.SetIndexBuffer(native, format, offset)
}

func (p *renderPass) SetViewport(v encoding.Viewport) {
	if p.ended {
		return
	}
	p.rp.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if p.ended {
		return
	}
	p.rp.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if p.ended {
		return
	}
	p.rp.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

// End ends the HAL pass and unlocks the encoder. It reports every command
// dropped for a foreign resource.
func (p *renderPass) End() error {
	if p.ended {
		return encoding.ErrPassEnded
	}
	p.ended = true
	p.rp.End()
	if p.encoder.open == p {
		p.encoder.open = nil
	}
	if len(p.errs) > 0 {
		return fmt.Errorf("pass %q: %w", p.label, errors.Join(p.errs...))
	}
	return nil
}
