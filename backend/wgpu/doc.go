// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu executes recorded frames on a gogpu/wgpu HAL device.
//
// [Backend] wraps a hal.Device and hal.Queue. It creates the GPU objects
// render graph nodes bind (targets, buffers, bind groups, samplers and
// uploaded textures) as reference-counted resource handles whose last
// release destroys the HAL object.
//
// [Encoder] implements encoding.CommandEncoder on a HAL command encoder, so
// the same graph that records into an encoding.Recorder in tests runs on
// the GPU unchanged:
//
//	b, err := wgpu.FromProvider(provider)
//	runner, err := graph.NewViewRunner(driver, b.EncoderFactory(), caps)
//	frames, err := runner.Run(ctx, w)
//	err = b.SubmitFrames(frames)
//
// Resource handles passed to an Encoder must have been created by a Backend;
// foreign handles are reported when the pass ends.
package wgpu
