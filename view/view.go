// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package view defines the per-view components a render graph node looks
// up for its view entity: the extracted view, the camera and the render
// target.
package view

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
)

// ExtractedView marks an entity as a view and carries its projection data.
type ExtractedView struct {
	// Position is the camera position in world space.
	Position [3]float32

	// HDR selects a floating point intermediate target.
	HDR bool
}

// Viewport is a camera sub-rectangle of its render target, in physical pixels.
type Viewport struct {
	PhysicalPosition [2]uint32
	PhysicalSize     [2]uint32

	// Depth is the [min, max] depth range. The zero value means [0, 1].
	Depth [2]float32
}

// Encoding converts v to the encoder's viewport representation.
func (v Viewport) Encoding() encoding.Viewport {
	minDepth, maxDepth := v.Depth[0], v.Depth[1]
	if minDepth == 0 && maxDepth == 0 {
		maxDepth = 1
	}
	return encoding.Viewport{
		X:        float32(v.PhysicalPosition[0]),
		Y:        float32(v.PhysicalPosition[1]),
		Width:    float32(v.PhysicalSize[0]),
		Height:   float32(v.PhysicalSize[1]),
		MinDepth: minDepth,
		MaxDepth: maxDepth,
	}
}

// ClampTo returns v restricted to a width×height target.
func (v Viewport) ClampTo(width, height uint32) Viewport {
	x := min(v.PhysicalPosition[0], width)
	y := min(v.PhysicalPosition[1], height)
	v.PhysicalPosition = [2]uint32{x, y}
	v.PhysicalSize = [2]uint32{
		min(v.PhysicalSize[0], width-x),
		min(v.PhysicalSize[1], height-y),
	}
	return v
}

// AspectRatio returns width/height, or 1 for an empty viewport.
func (v Viewport) AspectRatio() float32 {
	if v.PhysicalSize[1] == 0 {
		return 1
	}
	r := float32(v.PhysicalSize[0]) / float32(v.PhysicalSize[1])
	if math32.IsNaN(r) || math32.IsInf(r, 0) {
		return 1
	}
	return r
}

// ExtractedCamera is the render-side copy of a camera.
type ExtractedCamera struct {
	// Viewport is nil when the camera covers its whole target.
	Viewport *Viewport

	// Order sorts cameras that share a render target; lower runs first.
	Order int

	// TargetSize is the physical size of the render target.
	TargetSize [2]uint32
}

// Target is the color target a view renders into.
type Target struct {
	View   resource.TextureView
	Format gputypes.TextureFormat

	// Sampled is the multisampled view, if MSAA is enabled. The resolve
	// then goes to View.
	Sampled resource.TextureView
}

// ColorAttachment returns the color attachment for this target with ops.
// With MSAA the sampled view is rendered into and resolved into View.
func (t *Target) ColorAttachment(ops encoding.Operations) encoding.ColorAttachment {
	if t.Sampled.IsValid() {
		return encoding.ColorAttachment{View: t.Sampled, ResolveTarget: t.View, Ops: ops}
	}
	return encoding.ColorAttachment{View: t.View, Ops: ops}
}

// ID returns the identity of the texture rendered into. Views sharing an
// ID write the same attachment and must not run concurrently.
func (t *Target) ID() resource.ID { return t.View.ID() }

// Distance returns the euclidean distance from the view to p.
func (v *ExtractedView) Distance(p [3]float32) float32 {
	dx := p[0] - v.Position[0]
	dy := p[1] - v.Position[1]
	dz := p[2] - v.Position[2]
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}
