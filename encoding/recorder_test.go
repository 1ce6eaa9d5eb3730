package encoding

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
)

func testTarget(t *testing.T) resource.TextureView {
	t.Helper()
	return resource.NewTextureView("target", nil)
}

func TestRecorder_BeginEndFinish(t *testing.T) {
	rec := NewRecorder("frame")
	view := testTarget(t)

	pass, err := rec.BeginRenderPass(&RenderPassDescriptor{
		Label:            "main",
		ColorAttachments: []ColorAttachment{{View: view, Ops: ClearOps(gputypes.Color{R: 1, A: 1})}},
	})
	if err != nil {
		t.Fatalf("BeginRenderPass() error = %v", err)
	}
	if !rec.HasOpenPass() {
		t.Error("HasOpenPass() = false while a pass is open")
	}

	pipe := resource.NewRenderPipeline("pipe", nil)
	pass.SetPipeline(pipe)
	pass.Draw(6, 1, 0, 0)
	if err := pass.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	passes, err := rec.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	got := passes[0]
	if got.Label() != "main" || !got.Ended {
		t.Errorf("pass = %q ended=%v", got.Label(), got.Ended)
	}
	if got.Count(CmdSetPipeline) != 1 || got.Count(CmdDraw) != 1 {
		t.Errorf("commands = %+v", got.Commands)
	}
	if got.Commands[0].Resource != pipe.ID() {
		t.Errorf("pipeline id = %d, want %d", got.Commands[0].Resource, pipe.ID())
	}
}

func TestRecorder_StateErrors(t *testing.T) {
	view := resource.NewTextureView("target", nil)
	desc := &RenderPassDescriptor{
		Label:            "p",
		ColorAttachments: []ColorAttachment{{View: view, Ops: LoadOps()}},
	}

	tests := []struct {
		name string
		run  func(r *Recorder) error
		want error
	}{
		{
			name: "begin while locked",
			run: func(r *Recorder) error {
				if _, err := r.BeginRenderPass(desc); err != nil {
					return err
				}
				_, err := r.BeginRenderPass(desc)
				return err
			},
			want: ErrEncoderLocked,
		},
		{
			name: "finish with open pass",
			run: func(r *Recorder) error {
				if _, err := r.BeginRenderPass(desc); err != nil {
					return err
				}
				_, err := r.Finish()
				return err
			},
			want: ErrPassOpen,
		},
		{
			name: "begin after finish",
			run: func(r *Recorder) error {
				if _, err := r.Finish(); err != nil {
					return err
				}
				_, err := r.BeginRenderPass(desc)
				return err
			},
			want: ErrEncoderFinished,
		},
		{
			name: "end twice",
			run: func(r *Recorder) error {
				p, err := r.BeginRenderPass(desc)
				if err != nil {
					return err
				}
				if err := p.End(); err != nil {
					return err
				}
				return p.End()
			},
			want: ErrPassEnded,
		},
		{
			name: "no attachments",
			run: func(r *Recorder) error {
				_, err := r.BeginRenderPass(&RenderPassDescriptor{Label: "empty"})
				return err
			},
			want: ErrNoAttachments,
		},
		{
			name: "invalid attachment view",
			run: func(r *Recorder) error {
				_, err := r.BeginRenderPass(&RenderPassDescriptor{
					Label:            "bad",
					ColorAttachments: []ColorAttachment{{Ops: LoadOps()}},
				})
				return err
			},
			want: ErrInvalidAttachment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(NewRecorder("test"))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecorder_CommandsAfterEndDropped(t *testing.T) {
	rec := NewRecorder("frame")
	pass, err := rec.BeginRenderPass(&RenderPassDescriptor{
		Label:            "p",
		ColorAttachments: []ColorAttachment{{View: testTarget(t), Ops: LoadOps()}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pass.Draw(3, 1, 0, 0)
	_ = pass.End()
	pass.Draw(3, 1, 0, 0)

	if got := rec.Passes()[0].Count(CmdDraw); got != 1 {
		t.Errorf("Count(Draw) = %d, want 1", got)
	}
}

func TestRecorder_Reset(t *testing.T) {
	rec := NewRecorder("frame")
	if _, err := rec.Finish(); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	if len(rec.Passes()) != 0 {
		t.Error("Reset() kept passes")
	}
	if _, err := rec.BeginRenderPass(&RenderPassDescriptor{
		Label:            "again",
		ColorAttachments: []ColorAttachment{{View: testTarget(t), Ops: LoadOps()}},
	}); err != nil {
		t.Errorf("BeginRenderPass() after Reset error = %v", err)
	}
}

func TestOperations(t *testing.T) {
	red := gputypes.Color{R: 1, A: 1}
	tests := []struct {
		name      string
		ops       Operations
		wantClear bool
		wantStr   string
	}{
		{"clear", ClearOps(red), true, "clear(1,0,0,1)/store"},
		{"load", LoadOps(), false, "load/store"},
		{"discard", Operations{Load: gputypes.LoadOpLoad, Store: gputypes.StoreOpDiscard}, false, "load/discard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ops.IsClear(); got != tt.wantClear {
				t.Errorf("IsClear() = %v, want %v", got, tt.wantClear)
			}
			if got := tt.ops.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestCommandKindString(t *testing.T) {
	if got := CmdDrawIndexed.String(); got != "DrawIndexed" {
		t.Errorf("String() = %q", got)
	}
	if got := CommandKind(99).String(); got != "Unknown(99)" {
		t.Errorf("String() = %q", got)
	}
}
