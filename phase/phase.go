package phase

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/chewxy/math32"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/world"
)

// Phase errors.
var (
	// ErrNotSorted is returned by Render and Batch when items were added
	// after the last Sort.
	ErrNotSorted = errors.New("phase: render called before sort")

	// ErrAlreadyEmitted is returned when a phase is rendered twice in one frame.
	ErrAlreadyEmitted = errors.New("phase: already emitted this frame")

	// ErrRenderInProgress is returned when Render is re-entered.
	ErrRenderInProgress = errors.New("phase: render is not re-entrant")

	// ErrTooManyBindGroups is returned for an item with more than MaxBindGroups groups.
	ErrTooManyBindGroups = errors.New("phase: too many bind groups")
)

// Order is a sort direction.
type Order uint8

const (
	// Ascending sorts smaller keys first (front-to-back, 2D z-order).
	Ascending Order = iota

	// Descending sorts larger keys first (back-to-front for blending).
	Descending
)

// String returns the string representation of Order.
func (o Order) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Kind is a draw category. Each kind is a distinct Go type, so a view can
// carry one Phase per kind as separate components. The kind fixes the sort
// order; callers cannot override it.
type Kind interface {
	Name() string
	Order() Order
}

// Built-in 3D kinds.
type (
	// Opaque3d draws opaque geometry front-to-back for early depth rejection.
	Opaque3d struct{}

	// AlphaMask3d draws alpha-tested geometry front-to-back.
	AlphaMask3d struct{}

	// Transparent3d draws blended geometry back-to-front.
	Transparent3d struct{}
)

func (Opaque3d) Name() string      { return "opaque_3d" }
func (Opaque3d) Order() Order      { return Ascending }
func (AlphaMask3d) Name() string   { return "alpha_mask_3d" }
func (AlphaMask3d) Order() Order   { return Ascending }
func (Transparent3d) Name() string { return "transparent_3d" }
func (Transparent3d) Order() Order { return Descending }

// SortKey orders items within a phase. Comparison uses cmp.Compare, which
// is a total order even for NaN.
type SortKey float32

// Range is a half-open instance range [Start, End).
type Range struct {
	Start, End uint32
}

// Len returns the number of instances in r.
func (r Range) Len() uint32 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Item is one candidate draw. It references, but does not own, its entity
// and GPU resources.
type Item struct {
	Entity  world.Entity
	SortKey SortKey

	// Pipeline must be valid for the item to be drawn.
	Pipeline resource.RenderPipeline

	// BindGroups are bound at indices 0..len-1.
	BindGroups []resource.BindGroup

	// Draw selects the draw strategy.
	Draw DrawKind

	// Batch is the instance range for DrawBatched items.
	Batch Range
}

// sameBindings reports whether a and b bind identical resources.
func (a *Item) sameBindings(b *Item) bool {
	if !a.Pipeline.Equal(b.Pipeline) || len(a.BindGroups) != len(b.BindGroups) {
		return false
	}
	for i := range a.BindGroups {
		if !a.BindGroups[i].Equal(b.BindGroups[i]) {
			return false
		}
	}
	return true
}

type state uint8

const (
	stateQueueing state = iota
	stateSorted
	stateEmitting
	stateEmitted
)

// Phase is an ordered sequence of items for one (view, kind) pair.
// The zero value is an empty phase ready for use.
//
// A Phase is owned by its view for the frame: it has no internal locking
// and its sort and render steps are not re-entrant.
type Phase[K Kind] struct {
	items []Item
	state state
}

// New returns an empty phase with room for capacity items.
func New[K Kind](capacity int) Phase[K] {
	return Phase[K]{items: make([]Item, 0, capacity)}
}

// Kind returns the phase kind.
func (p *Phase[K]) Kind() K {
	var k K
	return k
}

// Add appends item. Adding after emission has begun panics; call Clear first.
func (p *Phase[K]) Add(item Item) {
	if p.state >= stateEmitting {
		var k K
		panic("phase: Add to " + k.Name() + " after emission began")
	}
	p.items = append(p.items, item)
	p.state = stateQueueing
}

// Len returns the number of queued items.
func (p *Phase[K]) Len() int { return len(p.items) }

// Items returns the queued items. The slice is owned by the phase.
func (p *Phase[K]) Items() []Item { return p.items }

// Sorted reports whether the items are in emission order.
func (p *Phase[K]) Sorted() bool {
	return p.state != stateQueueing || len(p.items) == 0
}

// Sort orders the items by key using the kind's policy. The sort is stable
// and calling it again without new items does not reorder anything.
func (p *Phase[K]) Sort() {
	if p.state != stateQueueing {
		return
	}
	var k K
	if k.Order() == Descending {
		slices.SortStableFunc(p.items, func(a, b Item) int { return cmp.Compare(b.SortKey, a.SortKey) })
	} else {
		slices.SortStableFunc(p.items, func(a, b Item) int { return cmp.Compare(a.SortKey, b.SortKey) })
	}
	p.state = stateSorted
}

// Batch merges runs of adjacent DrawBatched items of the same entity that
// bind the same pipeline and bind groups and whose instance ranges are
// contiguous.
// It must be called after Sort and returns the number of items removed.
func (p *Phase[K]) Batch() (int, error) {
	if !p.Sorted() {
		return 0, ErrNotSorted
	}
	if p.state >= stateEmitting {
		return 0, ErrAlreadyEmitted
	}
	if len(p.items) < 2 {
		return 0, nil
	}
	out := p.items[:1]
	for i := 1; i < len(p.items); i++ {
		prev := &out[len(out)-1]
		cur := p.items[i]
		if prev.Draw == DrawBatched && cur.Draw == DrawBatched && prev.Entity == cur.Entity &&
			prev.Batch.End == cur.Batch.Start && prev.sameBindings(&cur) {
			prev.Batch.End = cur.Batch.End
			continue
		}
		out = append(out, cur)
	}
	merged := len(p.items) - len(out)
	clear(p.items[len(out):])
	p.items = out
	return merged, nil
}

// Clear empties the phase for the next frame, keeping its capacity.
func (p *Phase[K]) Clear() {
	clear(p.items)
	p.items = p.items[:0]
	p.state = stateQueueing
}

// Stats summarises one Render call.
type Stats struct {
	Items   int
	Drawn   int
	Skipped int

	// Binds and ElidedBinds count pipeline, bind group and buffer binds
	// issued to and dropped before the pass.
	Binds       int
	ElidedBinds int
}

// Render emits every item, in order, into pass. For each item it binds the
// pipeline and bind groups (the tracked pass drops redundant binds) and
// invokes the item's draw function. Draw functions implementing
// DataChecker are consulted first, so a stale item binds nothing.
//
// Items with an invalid pipeline or without render data are skipped.
// Any other draw error aborts the render and is returned.
func (p *Phase[K]) Render(pass *TrackedPass, w *world.World, view world.Entity, fns *DrawFunctions) (Stats, error) {
	var k K
	switch {
	case !p.Sorted():
		return Stats{}, fmt.Errorf("%s: %w", k.Name(), ErrNotSorted)
	case p.state == stateEmitting:
		return Stats{}, fmt.Errorf("%s: %w", k.Name(), ErrRenderInProgress)
	case p.state == stateEmitted:
		return Stats{}, fmt.Errorf("%s: %w", k.Name(), ErrAlreadyEmitted)
	}
	if fns == nil {
		fns = defaultDrawFunctions
	}

	p.state = stateEmitting
	defer func() { p.state = stateEmitted }()

	issued, elided := pass.Issued(), pass.Elided()
	stats := Stats{Items: len(p.items)}
	log := framegraph.Logger()

	for i := range p.items {
		item := &p.items[i]
		if !item.Pipeline.IsValid() {
			stats.Skipped++
			log.Debug("phase: skipping item without pipeline", "phase", k.Name(), "entity", item.Entity)
			continue
		}
		if len(item.BindGroups) > MaxBindGroups {
			return stats, fmt.Errorf("%s: %v: %w (%d)", k.Name(), item.Entity, ErrTooManyBindGroups, len(item.BindGroups))
		}

		fn := fns.Get(item.Draw)
		if fn == nil {
			return stats, fmt.Errorf("%s: %v: %w", k.Name(), item.Entity, ErrUnknownDrawKind)
		}
		if c, ok := fn.(DataChecker); ok {
			if err := c.CheckData(w, view, item); err != nil {
				if errors.Is(err, ErrMissingRenderData) {
					stats.Skipped++
					log.Debug("phase: skipping stale item", "phase", k.Name(), "entity", item.Entity, "err", err)
					continue
				}
				return stats, fmt.Errorf("%s: check %v: %w", k.Name(), item.Entity, err)
			}
		}

		pass.SetPipeline(item.Pipeline)
		for idx, bg := range item.BindGroups {
			pass.SetBindGroup(uint32(idx), bg, nil)
		}
		if err := fn.Draw(w, pass, view, item); err != nil {
			if errors.Is(err, ErrMissingRenderData) {
				stats.Skipped++
				log.Debug("phase: skipping stale item", "phase", k.Name(), "entity", item.Entity, "err", err)
				continue
			}
			return stats, fmt.Errorf("%s: draw %v: %w", k.Name(), item.Entity, err)
		}
		stats.Drawn++
	}

	stats.Binds = pass.Issued() - issued
	stats.ElidedBinds = pass.Elided() - elided
	return stats, nil
}

// DepthKey returns the eye-to-point distance as a sort key.
func DepthKey(eye, p [3]float32) SortKey {
	dx, dy, dz := p[0]-eye[0], p[1]-eye[1], p[2]-eye[2]
	return SortKey(math32.Sqrt(dx*dx + dy*dy + dz*dz))
}
