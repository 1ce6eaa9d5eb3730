// Package encoding defines the GPU command-encoding surface that render
// graph nodes write into.
//
// A node opens a render pass through a [CommandEncoder] with a
// [RenderPassDescriptor]: N color attachments, each with a load operation
// (clear to a color, or load the existing contents) and a store operation
// (store or discard), plus an optional depth/stencil attachment. Within the
// open [RenderPass] it binds pipelines, bind groups, buffers and a viewport
// and issues draws, then ends the pass.
//
// Two implementations exist:
//   - [Recorder] records every command in memory. It backs tests, the demo
//     command and any tooling that wants to inspect a frame.
//   - backend/wgpu translates the same calls to a wgpu HAL command encoder.
//
// Only one pass may be open on an encoder at a time. Every pass must be
// ended before the encoder is finished; [Recorder.Finish] reports
// [ErrPassOpen] otherwise.
package encoding
