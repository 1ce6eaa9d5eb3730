// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package resource provides opaque, cheaply copyable handles for GPU
// objects (bind groups, pipelines, buffers, texture views, samplers).
//
// Each handle couples a process-unique [ID] with shared ownership of the
// native object. Copying a Handle value does not add an owner; call
// [Handle.Clone] to take a new reference and [Handle.Release] to drop it.
// The native object is destroyed exactly once, when the last owner releases.
//
// Equality and hashing use the ID. Two handles with equal IDs always refer
// to the same native object, independent of where that object lives:
//
//	bg := resource.NewBindGroup(native, func(n any) { device.DestroyBindGroup(n.(hal.BindGroup)) })
//	other := bg.Clone()
//	bg.ID() == other.ID() // true
//	bg.Release()          // native still alive
//	other.Release()       // destroy callback runs here
//
// Handles are immutable after construction and safe to read from multiple
// goroutines. A changed binding set requires a new handle.
package resource
