package core2d

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/framegraph/clearcolor"
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/phase"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/view"
	"github.com/gogpu/framegraph/world"
)

type scene struct {
	w      *world.World
	target view.Target
	node   *MainPassNode
}

func newScene(t *testing.T) *scene {
	t.Helper()
	w := world.New()
	world.SetResource(w, clearcolor.ClearColor{Color: clearcolor.Gray})
	return &scene{
		w:      w,
		target: view.Target{View: resource.NewTextureView(nil, nil)},
	}
}

func (s *scene) camera(clear clearcolor.Config, vp *view.Viewport) world.Entity {
	return SpawnCamera(s.w, Camera{
		Camera:   view.ExtractedCamera{Viewport: vp, TargetSize: [2]uint32{800, 600}},
		Target:   s.target,
		Settings: Camera2d{ClearColor: clear},
	})
}

// run updates a fresh node and runs it once for v.
func (s *scene) run(t *testing.T, v world.Entity, caps graph.Capabilities) (*encoding.Recorder, error) {
	t.Helper()
	if s.node == nil {
		s.node = NewMainPassNode(s.w)
	}
	s.node.Update(s.w)
	rec := encoding.NewRecorder("frame")
	gc := graph.NewContext(MainPassNodeName, s.node, map[string]graph.SlotValue{InView: graph.EntityValue(v)})
	err := s.node.Run(gc, graph.NewRenderContext(rec, caps), s.w)
	if rec.HasOpenPass() {
		t.Fatal("node left a render pass open")
	}
	return rec, err
}

func onlyPass(t *testing.T, rec *encoding.Recorder) encoding.RecordedPass {
	t.Helper()
	passes := rec.Passes()
	if len(passes) != 1 {
		t.Fatalf("passes = %d, want 1", len(passes))
	}
	return passes[0]
}

func TestMissingInputIsStructural(t *testing.T) {
	s := newScene(t)
	node := NewMainPassNode(s.w)
	rec := encoding.NewRecorder("frame")
	gc := graph.NewContext(MainPassNodeName, node, nil)

	err := node.Run(gc, graph.NewRenderContext(rec, graph.Capabilities{}), s.w)
	if !errors.Is(err, graph.ErrMissingInput) {
		t.Fatalf("Run = %v, want ErrMissingInput", err)
	}
	if !graph.IsStructural(err) {
		t.Error("missing input not structural")
	}
	if len(rec.Passes()) != 0 {
		t.Error("pass recorded without input")
	}
}

func TestNoViewDataIsNoop(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *world.World) world.Entity
	}{
		{"bare entity", func(w *world.World) world.Entity { return w.Spawn() }},
		{"view without phase", func(w *world.World) world.Entity {
			e := w.Spawn()
			world.Insert(w, e, view.ExtractedView{})
			world.Insert(w, e, view.ExtractedCamera{})
			world.Insert(w, e, Camera2d{})
			return e
		}},
		{"despawned", func(w *world.World) world.Entity {
			e := SpawnCamera(w, Camera{Target: view.Target{View: resource.NewTextureView(nil, nil)}})
			w.Despawn(e)
			return e
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScene(t)
			v := tt.setup(s.w)
			rec, err := s.run(t, v, graph.Capabilities{ResetViewportAfterPass: true})
			if err != nil {
				t.Fatalf("Run = %v, want nil", err)
			}
			if n := len(rec.Passes()); n != 0 {
				t.Errorf("passes = %d, want 0", n)
			}
		})
	}
}

func TestClearPolicy(t *testing.T) {
	tests := []struct {
		name   string
		clear  clearcolor.Config
		global clearcolor.ClearColor
		want   encoding.Operations
	}{
		{"default", clearcolor.Default(), clearcolor.ClearColor{Color: clearcolor.Black}, encoding.ClearOps(clearcolor.Black)},
		{"custom red", clearcolor.Custom(clearcolor.Red), clearcolor.ClearColor{Color: clearcolor.Gray}, encoding.ClearOps(clearcolor.Red)},
		{"none", clearcolor.None(), clearcolor.ClearColor{Color: clearcolor.Red}, encoding.LoadOps()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScene(t)
			world.SetResource(s.w, tt.global)
			v := s.camera(tt.clear, nil)
			rec, err := s.run(t, v, graph.Capabilities{})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			p := onlyPass(t, rec)
			if p.Label() != MainPassLabel {
				t.Errorf("label = %q", p.Label())
			}
			if p.Descriptor.DepthStencilAttachment != nil {
				t.Error("main pass has a depth attachment")
			}
			if got := p.Descriptor.ColorAttachments[0].Ops; got != tt.want {
				t.Errorf("ops = %v, want %v", got, tt.want)
			}
			if !p.Ended {
				t.Error("pass not ended")
			}
		})
	}
}

func TestViewportScoping(t *testing.T) {
	vp := &view.Viewport{PhysicalPosition: [2]uint32{700, 0}, PhysicalSize: [2]uint32{400, 300}}

	tests := []struct {
		name       string
		viewport   *view.Viewport
		caps       graph.Capabilities
		wantPasses []string
	}{
		{"full target", nil, graph.Capabilities{}, []string{MainPassLabel}},
		{"full target with reset capability", nil, graph.Capabilities{ResetViewportAfterPass: true}, []string{MainPassLabel}},
		{"viewport", vp, graph.Capabilities{}, []string{MainPassLabel}},
		{"viewport with reset capability", vp, graph.Capabilities{ResetViewportAfterPass: true}, []string{MainPassLabel, ResetViewportPassLabel}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScene(t)
			v := s.camera(clearcolor.Custom(clearcolor.Red), tt.viewport)
			rec, err := s.run(t, v, tt.caps)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			passes := rec.Passes()
			var labels []string
			for _, p := range passes {
				labels = append(labels, p.Label())
			}
			if !slices.Equal(labels, tt.wantPasses) {
				t.Fatalf("passes = %v, want %v", labels, tt.wantPasses)
			}

			main := passes[0]
			if tt.viewport == nil {
				if main.Count(encoding.CmdSetViewport) != 0 {
					t.Error("viewport set for full-target camera")
				}
				return
			}
			if len(main.Commands) == 0 || main.Commands[0].Kind != encoding.CmdSetViewport {
				t.Fatalf("first command = %+v, want SetViewport", main.Commands)
			}
			got := main.Commands[0].Viewport
			want := encoding.Viewport{X: 700, Y: 0, Width: 100, Height: 300, MinDepth: 0, MaxDepth: 1}
			if got != want {
				t.Errorf("viewport = %+v, want %+v (clamped)", got, want)
			}
			if len(passes) == 2 {
				reset := passes[1]
				if len(reset.Commands) != 0 {
					t.Errorf("reset pass has commands: %+v", reset.Commands)
				}
				if reset.Descriptor.ColorAttachments[0].Ops != encoding.LoadOps() {
					t.Errorf("reset pass ops = %v, want load", reset.Descriptor.ColorAttachments[0].Ops)
				}
			}
		})
	}
}

func TestDrawsSortedPhase(t *testing.T) {
	s := newScene(t)
	v := s.camera(clearcolor.Default(), nil)

	pipeline := resource.NewRenderPipeline(nil, nil)
	group := resource.NewBindGroup(nil, nil)
	ph, _ := world.Get[Phase](s.w, v)
	for _, z := range []phase.SortKey{3, 1, 2} {
		e := s.w.Spawn()
		world.Insert(s.w, e, phase.Mesh{VertexBuffer: resource.NewBuffer(nil, nil), VertexCount: uint32(z) * 3})
		ph.Add(phase.Item{Entity: e, SortKey: z, Pipeline: pipeline, BindGroups: []resource.BindGroup{group}})
	}
	if err := SortPhases(s.w); err != nil {
		t.Fatalf("SortPhases: %v", err)
	}

	rec, err := s.run(t, v, graph.Capabilities{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	p := onlyPass(t, rec)
	var counts []uint32
	for _, c := range p.Commands {
		if c.Kind == encoding.CmdDraw {
			counts = append(counts, c.Count)
		}
	}
	if !slices.Equal(counts, []uint32{3, 6, 9}) {
		t.Errorf("draw vertex counts = %v, want ascending z order [3 6 9]", counts)
	}
	if p.Count(encoding.CmdSetPipeline) != 1 || p.Count(encoding.CmdSetBindGroup) != 1 {
		t.Errorf("redundant binds: %d pipelines, %d bind groups",
			p.Count(encoding.CmdSetPipeline), p.Count(encoding.CmdSetBindGroup))
	}

	ClearPhases(s.w)
	if ph.Len() != 0 {
		t.Errorf("phase len after ClearPhases = %d", ph.Len())
	}
}

func TestUnsortedPhaseEndsPass(t *testing.T) {
	s := newScene(t)
	v := s.camera(clearcolor.Default(), nil)
	ph, _ := world.Get[Phase](s.w, v)
	ph.Add(phase.Item{Entity: v, Pipeline: resource.NewRenderPipeline(nil, nil)})

	rec, err := s.run(t, v, graph.Capabilities{})
	if !errors.Is(err, phase.ErrNotSorted) {
		t.Fatalf("Run = %v, want ErrNotSorted", err)
	}
	if graph.IsStructural(err) {
		t.Error("unsorted phase reported as structural")
	}
	if p := onlyPass(t, rec); !p.Ended {
		t.Error("pass left open after draw error")
	}
}

func TestViewportResetAfterDrawError(t *testing.T) {
	s := newScene(t)
	vp := &view.Viewport{PhysicalSize: [2]uint32{400, 300}}
	v := s.camera(clearcolor.Default(), vp)
	ph, _ := world.Get[Phase](s.w, v)
	ph.Add(phase.Item{Entity: v, Pipeline: resource.NewRenderPipeline(nil, nil)})

	rec, err := s.run(t, v, graph.Capabilities{ResetViewportAfterPass: true})
	if !errors.Is(err, phase.ErrNotSorted) {
		t.Fatalf("Run = %v, want ErrNotSorted", err)
	}
	var labels []string
	for _, p := range rec.Passes() {
		if !p.Ended {
			t.Errorf("pass %q left open", p.Label())
		}
		labels = append(labels, p.Label())
	}
	if want := []string{MainPassLabel, ResetViewportPassLabel}; !slices.Equal(labels, want) {
		t.Errorf("passes = %v, want %v", labels, want)
	}
}

func TestQueryCacheRefreshedByUpdate(t *testing.T) {
	s := newScene(t)
	s.node = NewMainPassNode(s.w)

	v := s.camera(clearcolor.Default(), nil)
	rec := encoding.NewRecorder("frame")
	gc := graph.NewContext(MainPassNodeName, s.node, map[string]graph.SlotValue{InView: graph.EntityValue(v)})
	if err := s.node.Run(gc, graph.NewRenderContext(rec, graph.Capabilities{}), s.w); err != nil {
		t.Fatal(err)
	}
	if len(rec.Passes()) != 0 {
		t.Error("view spawned after construction drawn before Update")
	}

	rec, err := s.run(t, v, graph.Capabilities{})
	if err != nil {
		t.Fatal(err)
	}
	onlyPass(t, rec)
}

func TestMSAATargetResolves(t *testing.T) {
	s := newScene(t)
	s.target.Sampled = resource.NewTextureView(nil, nil)
	v := s.camera(clearcolor.Default(), nil)

	rec, err := s.run(t, v, graph.Capabilities{})
	if err != nil {
		t.Fatal(err)
	}
	att := onlyPass(t, rec).Descriptor.ColorAttachments[0]
	if !att.View.Equal(s.target.Sampled) || !att.ResolveTarget.Equal(s.target.View) {
		t.Errorf("attachment = %+v, want sampled view resolving into target", att)
	}
}

func TestGraphThroughDriver(t *testing.T) {
	s := newScene(t)
	v := s.camera(clearcolor.None(), nil)

	g, err := NewGraph(s.w)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	d, err := graph.NewDriver(g)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	rec := encoding.NewRecorder("frame")
	d.Update(s.w)
	if err := d.Run(context.Background(), graph.NewRenderContext(rec, graph.Capabilities{}), s.w, graph.EntityValue(v)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p := onlyPass(t, rec); p.Descriptor.ColorAttachments[0].Ops != encoding.LoadOps() {
		t.Errorf("ops = %v", p.Descriptor.ColorAttachments[0].Ops)
	}

	err = d.Run(context.Background(), graph.NewRenderContext(encoding.NewRecorder("frame"), graph.Capabilities{}), s.w)
	if !errors.Is(err, graph.ErrMissingInput) {
		t.Errorf("Run without view = %v, want ErrMissingInput", err)
	}
}

func TestRegisteredNodeType(t *testing.T) {
	n, err := graph.NewNode(MainPassNodeType, world.New())
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if _, ok := n.(*MainPassNode); !ok {
		t.Errorf("NewNode returned %T", n)
	}
}
