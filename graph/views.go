package graph

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/view"
	"github.com/gogpu/framegraph/world"
)

// EncoderFactory creates a command encoder for one render target.
type EncoderFactory func(label string) (encoding.CommandEncoder, error)

// TargetFrame is the work recorded for one render target.
type TargetFrame struct {
	Target  resource.ID
	Views   []world.Entity
	Encoder encoding.CommandEncoder
}

type viewEntry struct {
	entity world.Entity
	order  int
}

type targetGroup struct {
	target resource.ID
	views  []viewEntry
}

// ViewRunner runs a driver's graph once per view entity.
//
// Views are entities with view.ExtractedView, view.ExtractedCamera and
// view.Target. Views sharing a target run sequentially in camera order on
// one encoder, since they write the same attachment. Distinct targets run
// concurrently, bounded by WithParallelism, each on its own encoder.
type ViewRunner struct {
	driver     *Driver
	newEncoder EncoderFactory
	caps       Capabilities
	views      *world.Query
}

// NewViewRunner creates a runner. The graph's first input must be an
// entity slot.
func NewViewRunner(d *Driver, newEncoder EncoderFactory, caps Capabilities) (*ViewRunner, error) {
	in := d.graph.Inputs()
	if len(in) == 0 || in[0].Type != SlotEntity {
		return nil, &SlotError{Node: GraphInput, Slot: "view", Want: SlotEntity, Err: ErrSlotTypeMismatch}
	}
	return &ViewRunner{driver: d, newEncoder: newEncoder, caps: caps}, nil
}

// Update refreshes the view set and updates every node.
func (r *ViewRunner) Update(w *world.World) {
	if r.views == nil {
		r.views = world.NewQuery(w,
			world.With[view.ExtractedView](),
			world.With[view.ExtractedCamera](),
			world.With[view.Target](),
		)
	} else {
		r.views.Update(w)
	}
	r.driver.Update(w)
}

// Run renders every view. It returns one TargetFrame per target, ordered by
// the lowest camera order on that target. On error the frames created so
// far are returned too, so the caller can discard their encoders.
func (r *ViewRunner) Run(ctx context.Context, w *world.World) ([]TargetFrame, error) {
	if r.views == nil {
		r.Update(w)
	}
	groups := r.groups(w)
	frames := make([]TargetFrame, len(groups))

	limit := r.driver.opts.parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, grp := range groups {
		eg.Go(func() error {
			enc, err := r.newEncoder(fmt.Sprintf("target-%d", grp.target))
			if err != nil {
				return fmt.Errorf("graph: encoder for target %d: %w", grp.target, err)
			}
			views := make([]world.Entity, len(grp.views))
			for j, v := range grp.views {
				views[j] = v.entity
			}
			frames[i] = TargetFrame{Target: grp.target, Views: views, Encoder: enc}

			rc := NewRenderContext(enc, r.caps)
			for _, v := range grp.views {
				if err := r.driver.Run(egctx, rc, w, EntityValue(v.entity)); err != nil {
					return fmt.Errorf("view %v: %w", v.entity, err)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return frames, err
	}
	framegraph.Logger().Debug("graph: views rendered", "graph", r.driver.graph.name, "targets", len(frames))
	return frames, nil
}

func (r *ViewRunner) groups(w *world.World) []targetGroup {
	byTarget := make(map[resource.ID]int)
	var groups []targetGroup
	for _, e := range r.views.Entities() {
		t, ok := world.Get[view.Target](w, e)
		if !ok || !t.View.IsValid() {
			continue
		}
		cam, ok := world.Get[view.ExtractedCamera](w, e)
		if !ok {
			continue
		}
		i, seen := byTarget[t.ID()]
		if !seen {
			i = len(groups)
			byTarget[t.ID()] = i
			groups = append(groups, targetGroup{target: t.ID()})
		}
		groups[i].views = append(groups[i].views, viewEntry{entity: e, order: cam.Order})
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].views, func(a, b viewEntry) int {
			return cmp.Or(cmp.Compare(a.order, b.order), cmp.Compare(a.entity, b.entity))
		})
	}
	slices.SortStableFunc(groups, func(a, b targetGroup) int {
		return cmp.Or(cmp.Compare(a.views[0].order, b.views[0].order), cmp.Compare(a.target, b.target))
	})
	return groups
}
