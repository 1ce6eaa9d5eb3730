// Package framegraph is the frame-graph execution core of a real-time
// rendering pipeline.
//
// # Overview
//
// A frame is described as a directed graph of render graph nodes. Each node
// declares typed input slots, refreshes its cached view lookup in Update and
// records GPU work in Run. Nodes draw by handing a sorted render phase to an
// open render pass; the phase binds pipelines and bind groups only when they
// differ from the previous draw.
//
// # Packages
//
//   - resource: reference-counted GPU object handles with stable identity
//   - encoding: the command-encoding surface (render pass descriptors,
//     load/store operations) and an in-memory Recorder
//   - world: entities, components, resources and cached queries
//   - view: per-view camera and render target components
//   - clearcolor: per-camera clear policy and its resolution
//   - phase: render phase queues, draw strategies and binding diffing
//   - graph: node contract, slots, graph assembly, driver and view runner
//   - core2d: the 2D main pass node and its sub-graph
//   - texture: image asset loader producing GPU-uploadable images
//   - config: TOML pipeline configuration
//   - backend/wgpu: the wgpu HAL implementation of the encoding surface
//
// # Quick Start
//
//	w := world.New()
//	world.SetResource(w, clearcolor.ClearColor{Color: clearcolor.Gray})
//
//	g, _ := core2d.NewGraph(w)
//	driver, _ := graph.NewDriver(g)
//
//	rec := encoding.NewRecorder("frame")
//	driver.Update(w)
//	err := driver.Run(ctx, graph.NewRenderContext(rec, graph.Capabilities{}), w,
//	    graph.EntityValue(camera))
//
// # Logging
//
// framegraph is silent by default. Call [SetLogger] to route diagnostics to
// any [log/slog] handler.
package framegraph
