// Package phase implements render phases: per-view, per-category queues of
// draw candidates that are sorted once and emitted once per frame.
//
// # Lifecycle
//
// A [Phase] lives on its view entity as a world component. Every frame it
// goes through the same states:
//
//	Queueing -> Sort -> Sorted -> Render -> Emitted -> Clear -> Queueing
//
// Items may be added in any order while queueing. [Phase.Sort] orders them
// by sort key using the policy fixed by the phase kind (ascending for
// front-to-back and 2D z-order, descending for back-to-front blending);
// ties keep their insertion order. [Phase.Render] emits the sorted items
// into an open pass and fails with [ErrNotSorted] if Sort was not called.
//
// # Binding diffing
//
// Items are emitted through a [TrackedPass], which remembers the pipeline,
// bind groups and buffers currently bound and drops a bind whose resource
// identity and offsets equal the bound one. Consecutive items that share a
// pipeline and bind groups therefore cost a single bind.
//
// # Stale entities
//
// Queueing and render-data extraction are decoupled. An item whose entity
// no longer has render data is skipped with one debug log line rather than
// failing the pass.
package phase
