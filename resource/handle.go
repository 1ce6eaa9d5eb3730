// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ID identifies a GPU object for the lifetime of the process.
// The zero ID means "no resource".
type ID uint64

// lastID is the most recently issued ID.
var lastID atomic.Uint64

// NewID returns a fresh process-unique ID. It is safe for concurrent use.
func NewID() ID {
	return ID(lastID.Add(1))
}

// Kind distinguishes handle types at compile time.
type Kind interface {
	kindName() string
}

type (
	bindGroupKind      struct{}
	renderPipelineKind struct{}
	bufferKind         struct{}
	textureViewKind    struct{}
	samplerKind        struct{}
)

func (bindGroupKind) kindName() string      { return "BindGroup" }
func (renderPipelineKind) kindName() string { return "RenderPipeline" }
func (bufferKind) kindName() string         { return "Buffer" }
func (textureViewKind) kindName() string    { return "TextureView" }
func (samplerKind) kindName() string        { return "Sampler" }

// Handle types.
type (
	// BindGroup is a set of GPU-bound resources consumed by a pipeline as a unit.
	BindGroup = Handle[bindGroupKind]

	// RenderPipeline is a compiled render pipeline.
	RenderPipeline = Handle[renderPipelineKind]

	// Buffer is a GPU buffer (vertex, index, uniform or storage).
	Buffer = Handle[bufferKind]

	// TextureView is a view into a texture, used as an attachment or binding.
	TextureView = Handle[textureViewKind]

	// Sampler is a texture sampler.
	Sampler = Handle[samplerKind]
)

// shared is the reference-counted cell behind every copy of a handle.
type shared struct {
	native  any
	destroy func(any)
	refs    atomic.Int64
	once    sync.Once
}

// Handle is a reference-counted handle to a native GPU object.
// The zero value is an invalid handle with ID 0.
type Handle[K Kind] struct {
	id  ID
	ref *shared
}

func newHandle[K Kind](native any, destroy func(any)) Handle[K] {
	s := &shared{native: native, destroy: destroy}
	s.refs.Store(1)
	return Handle[K]{id: NewID(), ref: s}
}

// NewBindGroup wraps a native bind group. destroy may be nil.
func NewBindGroup(native any, destroy func(any)) BindGroup {
	return newHandle[bindGroupKind](native, destroy)
}

// NewRenderPipeline wraps a native render pipeline. destroy may be nil.
func NewRenderPipeline(native any, destroy func(any)) RenderPipeline {
	return newHandle[renderPipelineKind](native, destroy)
}

// NewBuffer wraps a native buffer. destroy may be nil.
func NewBuffer(native any, destroy func(any)) Buffer {
	return newHandle[bufferKind](native, destroy)
}

// NewTextureView wraps a native texture view. destroy may be nil.
func NewTextureView(native any, destroy func(any)) TextureView {
	return newHandle[textureViewKind](native, destroy)
}

// NewSampler wraps a native sampler. destroy may be nil.
func NewSampler(native any, destroy func(any)) Sampler {
	return newHandle[samplerKind](native, destroy)
}

// ID returns the handle identity.
func (h Handle[K]) ID() ID { return h.id }

// IsValid reports whether the handle refers to an object.
func (h Handle[K]) IsValid() bool { return h.ref != nil }

// Native returns the underlying native object, or nil for an invalid handle.
func (h Handle[K]) Native() any {
	if h.ref == nil {
		return nil
	}
	return h.ref.native
}

// Equal reports whether both handles refer to the same object.
func (h Handle[K]) Equal(other Handle[K]) bool { return h.id == other.id }

// Clone registers a new owner and returns a handle with the same identity.
// Cloning an invalid handle returns an invalid handle.
func (h Handle[K]) Clone() Handle[K] {
	if h.ref != nil {
		h.ref.refs.Add(1)
	}
	return h
}

// Release drops one owner. When the last owner releases, the destroy
// callback runs exactly once and Release returns true.
// Releasing more times than the handle was owned is a no-op.
func (h Handle[K]) Release() bool {
	if h.ref == nil {
		return false
	}
	n := h.ref.refs.Add(-1)
	if n > 0 {
		return false
	}
	if n < 0 {
		h.ref.refs.Store(0)
		return false
	}
	destroyed := false
	h.ref.once.Do(func() {
		destroyed = true
		if h.ref.destroy != nil {
			h.ref.destroy(h.ref.native)
		}
	})
	return destroyed
}

// RefCount returns the number of live owners.
func (h Handle[K]) RefCount() int64 {
	if h.ref == nil {
		return 0
	}
	return h.ref.refs.Load()
}

// String returns e.g. "BindGroup(42)".
func (h Handle[K]) String() string {
	var k K
	return fmt.Sprintf("%s(%d)", k.kindName(), uint64(h.id))
}
