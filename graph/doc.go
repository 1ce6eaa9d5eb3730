// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package graph implements the render graph: the node contract, typed
// slots, graph assembly and the driver that runs a graph once per view.
//
// # Node lifecycle
//
// A [Node] is constructed once when the pipeline is built and usually
// caches a [world.Query] for the view data it needs. Every frame the
// driver calls Update on every node (exclusive world access, no GPU work)
// and then Run on every node in topological order (shared world access,
// exclusive access to the command encoder in the [RenderContext]).
//
// # Errors
//
// Errors fall into three groups:
//
//   - Structural: a [*SlotError] or a graph assembly error. These are
//     wiring mistakes and always abort the frame. See [IsStructural].
//   - Transient data: a view without render data, a stale phase item.
//     These are not errors; nodes return nil.
//   - Node failures: anything else a node returns, wrapped in
//     [*NodeRunError]. The driver's [FailurePolicy] decides whether the
//     frame aborts or the node and its dependents are skipped.
//
// # Views
//
// [ViewRunner] runs the graph once per view entity. Views that share a
// render target run in camera order on one encoder; different targets may
// run concurrently, each with its own encoder.
package graph
