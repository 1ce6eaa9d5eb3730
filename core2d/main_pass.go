package core2d

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/clearcolor"
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/phase"
	"github.com/gogpu/framegraph/view"
	"github.com/gogpu/framegraph/world"
)

// InView is the main pass node's input slot.
const InView = "view"

// Pass labels.
const (
	MainPassLabel          = "main_pass_2d"
	ResetViewportPassLabel = "reset_viewport_pass_2d"
)

// MainPassNode draws a view's Transparent2d phase into its render target.
type MainPassNode struct {
	views *world.Query
	draws *phase.DrawFunctions
}

var _ graph.Node = (*MainPassNode)(nil)

// NewMainPassNode creates the node and builds its view query against w.
func NewMainPassNode(w *world.World) *MainPassNode {
	return &MainPassNode{
		views: world.NewQuery(w,
			world.With[view.ExtractedView](),
			world.With[view.ExtractedCamera](),
			world.With[Phase](),
			world.With[view.Target](),
			world.With[Camera2d](),
		),
		draws: phase.NewDrawFunctions(),
	}
}

// DrawFunctions returns the node's draw function table.
func (n *MainPassNode) DrawFunctions() *phase.DrawFunctions { return n.draws }

// Input declares the view entity slot.
func (n *MainPassNode) Input() []graph.SlotInfo {
	return []graph.SlotInfo{{Name: InView, Type: graph.SlotEntity}}
}

// Update refreshes the cached view query.
func (n *MainPassNode) Update(w *world.World) {
	n.views.Update(w)
}

// Run records the main 2D pass for the view bound to InView. A view that
// has no camera, phase, target or 2D settings is skipped without error.
func (n *MainPassNode) Run(gc *graph.Context, rc *graph.RenderContext, w *world.World) error {
	v, err := gc.InputEntity(InView)
	if err != nil {
		return err
	}

	log := framegraph.Logger()
	if !n.views.Contains(v) {
		log.Debug("core2d: nothing to draw", "view", v)
		return nil
	}
	camera, ok1 := world.Get[view.ExtractedCamera](w, v)
	transparent, ok2 := world.Get[Phase](w, v)
	target, ok3 := world.Get[view.Target](w, v)
	settings, ok4 := world.Get[Camera2d](w, v)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		log.Debug("core2d: view data removed since update", "view", v)
		return nil
	}

	global := world.ResourceOr(w, clearcolor.DefaultClearColor())
	ops := clearcolor.Resolve(settings.ClearColor, global)

	rp, err := rc.BeginRenderPass(&encoding.RenderPassDescriptor{
		Label:            MainPassLabel,
		ColorAttachments: []encoding.ColorAttachment{target.ColorAttachment(ops)},
	})
	if err != nil {
		return fmt.Errorf("core2d: %w", err)
	}

	pass := phase.NewTrackedPass(rp)
	viewport := camera.Viewport
	if viewport != nil {
		vp := *viewport
		if camera.TargetSize != [2]uint32{} {
			vp = vp.ClampTo(camera.TargetSize[0], camera.TargetSize[1])
		}
		pass.SetViewport(vp.Encoding())
	}

	stats, drawErr := transparent.Render(pass, w, v, n.draws)
	passErr := errors.Join(drawErr, pass.End())
	if passErr == nil {
		log.Debug("core2d: main pass",
			"view", v, "items", stats.Items, "drawn", stats.Drawn,
			"skipped", stats.Skipped, "binds", stats.Binds, "elided", stats.ElidedBinds)
	} else {
		passErr = fmt.Errorf("core2d: %w", passErr)
	}

	// The viewport is reset even when drawing failed.
	if viewport != nil && rc.Capabilities().ResetViewportAfterPass {
		return errors.Join(passErr, resetViewport(rc, target))
	}
	return passErr
}

// resetViewport records an empty pass with the default viewport so that
// backends which keep viewport state across passes start the next pass
// from the full target.
func resetViewport(rc *graph.RenderContext, target *view.Target) error {
	rp, err := rc.BeginRenderPass(&encoding.RenderPassDescriptor{
		Label:            ResetViewportPassLabel,
		ColorAttachments: []encoding.ColorAttachment{target.ColorAttachment(encoding.LoadOps())},
	})
	if err != nil {
		return fmt.Errorf("core2d: %w", err)
	}
	if err := rp.End(); err != nil {
		return fmt.Errorf("core2d: %w", err)
	}
	return nil
}
