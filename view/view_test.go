// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package view

import (
	"testing"

	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/resource"
)

func TestViewport_Encoding(t *testing.T) {
	tests := []struct {
		name string
		vp   Viewport
		want encoding.Viewport
	}{
		{
			name: "default depth",
			vp:   Viewport{PhysicalPosition: [2]uint32{10, 20}, PhysicalSize: [2]uint32{100, 50}},
			want: encoding.Viewport{X: 10, Y: 20, Width: 100, Height: 50, MinDepth: 0, MaxDepth: 1},
		},
		{
			name: "explicit depth",
			vp:   Viewport{PhysicalSize: [2]uint32{1, 1}, Depth: [2]float32{0.25, 0.75}},
			want: encoding.Viewport{Width: 1, Height: 1, MinDepth: 0.25, MaxDepth: 0.75},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vp.Encoding(); got != tt.want {
				t.Errorf("Encoding() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestViewport_ClampTo(t *testing.T) {
	vp := Viewport{PhysicalPosition: [2]uint32{700, 500}, PhysicalSize: [2]uint32{200, 200}}
	got := vp.ClampTo(800, 600)
	if got.PhysicalSize != [2]uint32{100, 100} {
		t.Errorf("ClampTo size = %v, want [100 100]", got.PhysicalSize)
	}
	outside := Viewport{PhysicalPosition: [2]uint32{900, 900}, PhysicalSize: [2]uint32{10, 10}}.ClampTo(800, 600)
	if outside.PhysicalSize != [2]uint32{0, 0} {
		t.Errorf("ClampTo outside size = %v", outside.PhysicalSize)
	}
}

func TestViewport_AspectRatio(t *testing.T) {
	if got := (Viewport{PhysicalSize: [2]uint32{1600, 800}}).AspectRatio(); got != 2 {
		t.Errorf("AspectRatio() = %v, want 2", got)
	}
	if got := (Viewport{}).AspectRatio(); got != 1 {
		t.Errorf("empty AspectRatio() = %v, want 1", got)
	}
}

func TestTarget_ColorAttachment(t *testing.T) {
	view := resource.NewTextureView("swapchain", nil)
	tgt := &Target{View: view}
	ca := tgt.ColorAttachment(encoding.LoadOps())
	if !ca.View.Equal(view) || ca.ResolveTarget.IsValid() {
		t.Errorf("single-sample attachment = %+v", ca)
	}

	msaa := resource.NewTextureView("msaa", nil)
	tgt.Sampled = msaa
	ca = tgt.ColorAttachment(encoding.LoadOps())
	if !ca.View.Equal(msaa) || !ca.ResolveTarget.Equal(view) {
		t.Errorf("msaa attachment = %+v", ca)
	}
	if tgt.ID() != view.ID() {
		t.Error("ID() is not the resolve view identity")
	}
}

func TestExtractedView_Distance(t *testing.T) {
	v := &ExtractedView{Position: [3]float32{0, 0, 0}}
	if got := v.Distance([3]float32{3, 4, 0}); got != 5 {
		t.Errorf("Distance() = %v, want 5", got)
	}
}
