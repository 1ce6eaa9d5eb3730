package graph

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/framegraph/world"
)

// chain builds input.view -> a -> b -> c, plus an independent node d fed
// from the graph input.
func chain(t *testing.T, log *runLog, failing string) *Graph {
	t.Helper()
	g := New("chain")
	g.SetInput(SlotInfo{Name: "view", Type: SlotEntity})
	for _, name := range []string{"a", "b", "c", "d"} {
		n := &testNode{name: name, log: log, inputs: entityIn(), outputs: entityOut()}
		if name == failing {
			n.err = errors.New(name + " failed")
		}
		mustAdd(t, g, name, n)
	}
	edges := [][4]string{
		{GraphInput, "view", "a", "in"},
		{"a", "out", "b", "in"},
		{"b", "out", "c", "in"},
		{GraphInput, "view", "d", "in"},
	}
	for _, e := range edges {
		if err := g.AddSlotEdge(e[0], e[1], e[2], e[3]); err != nil {
			t.Fatalf("AddSlotEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestDriverRunsInOrderAndForwardsSlots(t *testing.T) {
	log := &runLog{}
	d, err := NewDriver(chain(t, log, ""))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if got := d.Order(); !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Order = %v", got)
	}

	_, rc := newRC()
	w := world.New()
	d.Update(w)
	if err := d.Run(context.Background(), rc, w, EntityValue(5)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"a in=Entity(5)", "b in=Entity(5)", "c in=Entity(5)", "d in=Entity(5)"}
	if got := log.get(); !slices.Equal(got, want) {
		t.Errorf("runs = %q, want %q", got, want)
	}
}

func TestDriverUpdateCallsEveryNode(t *testing.T) {
	g := New("g")
	a := &testNode{name: "a", log: &runLog{}}
	b := &testNode{name: "b", log: &runLog{}}
	mustAdd(t, g, "a", a)
	mustAdd(t, g, "b", b)
	d, err := NewDriver(g)
	if err != nil {
		t.Fatal(err)
	}
	d.Update(world.New())
	d.Update(world.New())
	if a.updates != 2 || b.updates != 2 {
		t.Errorf("updates = %d, %d", a.updates, b.updates)
	}
}

func TestDriverMissingGraphInput(t *testing.T) {
	log := &runLog{}
	d, err := NewDriver(chain(t, log, ""), WithFailurePolicy(SkipFailedNode))
	if err != nil {
		t.Fatal(err)
	}
	_, rc := newRC()
	err = d.Run(context.Background(), rc, world.New())
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("Run = %v, want ErrMissingInput", err)
	}
	if !IsStructural(err) {
		t.Error("missing input not structural")
	}
	var nre *NodeRunError
	if !errors.As(err, &nre) || nre.Node != "a" {
		t.Errorf("NodeRunError = %+v", nre)
	}
	if len(log.get()) != 0 {
		t.Errorf("nodes ran: %v", log.get())
	}
}

func TestDriverInputValidation(t *testing.T) {
	d, err := NewDriver(chain(t, &runLog{}, ""))
	if err != nil {
		t.Fatal(err)
	}
	_, rc := newRC()
	w := world.New()

	if err := d.Run(context.Background(), rc, w, EntityValue(1), EntityValue(2)); !errors.Is(err, ErrTooManyInputs) {
		t.Errorf("too many inputs = %v", err)
	}
	if err := d.Run(context.Background(), rc, w, BufferValue(resourceBuffer())); !errors.Is(err, ErrSlotTypeMismatch) {
		t.Errorf("wrong input type = %v", err)
	}
}

func TestDriverAbortFrame(t *testing.T) {
	log := &runLog{}
	d, err := NewDriver(chain(t, log, "b"))
	if err != nil {
		t.Fatal(err)
	}
	_, rc := newRC()
	err = d.Run(context.Background(), rc, world.New(), EntityValue(1))
	var nre *NodeRunError
	if !errors.As(err, &nre) || nre.Node != "b" {
		t.Fatalf("Run = %v, want NodeRunError for b", err)
	}
	if IsStructural(err) {
		t.Error("node failure reported as structural")
	}
	if got := log.get(); len(got) != 2 {
		t.Errorf("runs = %q, want a and b only", got)
	}
}

func TestDriverSkipFailedNode(t *testing.T) {
	log := &runLog{}
	var skipped []string
	d, err := NewDriver(chain(t, log, "b"),
		WithFailurePolicy(SkipFailedNode),
		WithSkipHandler(func(node string, _ error) { skipped = append(skipped, node) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	_, rc := newRC()
	if err := d.Run(context.Background(), rc, world.New(), EntityValue(1)); err != nil {
		t.Fatalf("Run = %v, want nil under skip policy", err)
	}
	want := []string{"a in=Entity(1)", "b in=Entity(1)", "d in=Entity(1)"}
	if got := log.get(); !slices.Equal(got, want) {
		t.Errorf("runs = %q, want %q", got, want)
	}
	if !slices.Equal(skipped, []string{"b", "c"}) {
		t.Errorf("skipped = %v, want [b c]", skipped)
	}
}

func TestDriverStructuralAbortsUnderSkip(t *testing.T) {
	g := New("g")
	g.SetInput(SlotInfo{Name: "view", Type: SlotEntity})
	bad := &testNode{name: "bad", log: &runLog{}, err: &SlotError{Node: "bad", Slot: "x", Err: ErrUnknownSlot}}
	mustAdd(t, g, "bad", bad)
	d, err := NewDriver(g, WithFailurePolicy(SkipFailedNode))
	if err != nil {
		t.Fatal(err)
	}
	_, rc := newRC()
	if err := d.Run(context.Background(), rc, world.New(), EntityValue(1)); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("Run = %v, want ErrUnknownSlot", err)
	}
}

func TestDriverContextCanceled(t *testing.T) {
	log := &runLog{}
	d, err := NewDriver(chain(t, log, ""))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, rc := newRC()
	if err := d.Run(ctx, rc, world.New(), EntityValue(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if len(log.get()) != 0 {
		t.Errorf("nodes ran after cancel: %v", log.get())
	}
}

func TestFailurePolicyParse(t *testing.T) {
	for _, p := range []FailurePolicy{AbortFrame, SkipFailedNode} {
		got, err := ParseFailurePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseFailurePolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseFailurePolicy("retry"); err == nil {
		t.Error("ParseFailurePolicy(retry) succeeded")
	}
}
