package encoding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
)

// Recorder errors.
var (
	// ErrPassEnded is returned when a pass is ended twice.
	ErrPassEnded = errors.New("encoding: render pass has already ended")

	// ErrEncoderLocked is returned when a pass is begun while another is open.
	ErrEncoderLocked = errors.New("encoding: encoder is locked (pass in progress)")

	// ErrEncoderFinished is returned when the encoder is used after Finish.
	ErrEncoderFinished = errors.New("encoding: encoder already finished")

	// ErrPassOpen is returned by Finish when a pass was never ended.
	ErrPassOpen = errors.New("encoding: render pass left open")
)

// CommandKind identifies a recorded command.
type CommandKind int

const (
	CmdSetPipeline CommandKind = iota
	CmdSetBindGroup
	CmdSetVertexBuffer
	CmdSetIndexBuffer
	CmdSetViewport
	CmdDraw
	CmdDrawIndexed
)

// String returns the string representation of CommandKind.
func (k CommandKind) String() string {
	switch k {
	case CmdSetPipeline:
		return "SetPipeline"
	case CmdSetBindGroup:
		return "SetBindGroup"
	case CmdSetVertexBuffer:
		return "SetVertexBuffer"
	case CmdSetIndexBuffer:
		return "SetIndexBuffer"
	case CmdSetViewport:
		return "SetViewport"
	case CmdDraw:
		return "Draw"
	case CmdDrawIndexed:
		return "DrawIndexed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Command is one recorded render pass command. Only the fields relevant to
// Kind are set.
type Command struct {
	Kind CommandKind

	// Slot is the bind group index or vertex buffer slot.
	Slot uint32

	// Resource is the bound pipeline, bind group or buffer.
	Resource resource.ID

	Offsets     []uint32
	Offset      uint64
	IndexFormat gputypes.IndexFormat
	Viewport    Viewport

	// Count is the vertex or index count, Instances the instance count.
	Count         uint32
	Instances     uint32
	First         uint32
	BaseVertex    int32
	FirstInstance uint32
}

// RecordedPass is a render pass captured by a Recorder.
type RecordedPass struct {
	Descriptor RenderPassDescriptor
	Commands   []Command
	Ended      bool
}

// Label returns the pass label.
func (p *RecordedPass) Label() string { return p.Descriptor.Label }

// Count returns how many commands of kind k were recorded.
func (p *RecordedPass) Count(k CommandKind) int {
	n := 0
	for _, c := range p.Commands {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Recorder is an in-memory CommandEncoder.
//
// State machine:
//
//	Recording -> BeginRenderPass -> Locked
//	Locked    -> RenderPass.End  -> Recording
//	Recording -> Finish          -> Finished
//
// Recorder is safe for concurrent inspection but, like any encoder, must be
// recorded into from a single goroutine.
type Recorder struct {
	mu       sync.Mutex
	label    string
	passes   []*RecordedPass
	open     *PassRecorder
	finished bool
}

// NewRecorder creates a recorder in the Recording state.
func NewRecorder(label string) *Recorder {
	return &Recorder{label: label}
}

// Label returns the encoder label.
func (r *Recorder) Label() string { return r.label }

// BeginRenderPass validates desc and opens a recorded pass.
func (r *Recorder) BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return nil, ErrEncoderFinished
	}
	if r.open != nil {
		return nil, fmt.Errorf("begin %q: %w", desc.Label, ErrEncoderLocked)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	rp := &RecordedPass{Descriptor: *desc}
	rp.Descriptor.ColorAttachments = append([]ColorAttachment(nil), desc.ColorAttachments...)
	r.passes = append(r.passes, rp)
	r.open = &PassRecorder{encoder: r, pass: rp}
	return r.open, nil
}

// Finish closes the encoder. It fails with ErrPassOpen if a pass was
// never ended.
func (r *Recorder) Finish() ([]RecordedPass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return nil, ErrEncoderFinished
	}
	if r.open != nil {
		return nil, fmt.Errorf("finish %q: %w: %q", r.label, ErrPassOpen, r.open.pass.Label())
	}
	r.finished = true
	return r.snapshot(), nil
}

// Passes returns a copy of every pass recorded so far.
func (r *Recorder) Passes() []RecordedPass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// HasOpenPass reports whether a pass is currently open.
func (r *Recorder) HasOpenPass() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open != nil
}

// Reset discards all recorded passes and returns to the Recording state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = r.passes[:0]
	r.open = nil
	r.finished = false
}

func (r *Recorder) snapshot() []RecordedPass {
	out := make([]RecordedPass, len(r.passes))
	for i, p := range r.passes {
		out[i] = *p
		out[i].Commands = append([]Command(nil), p.Commands...)
	}
	return out
}

// PassRecorder is the RenderPass returned by Recorder.BeginRenderPass.
// Commands issued after End are dropped.
type PassRecorder struct {
	encoder *Recorder
	pass    *RecordedPass
	ended   bool
}

var _ RenderPass = (*PassRecorder)(nil)

func (p *PassRecorder) record(c Command) {
	p.encoder.mu.Lock()
	defer p.encoder.mu.Unlock()
	if p.ended {
		return
	}
	p.pass.Commands = append(p.pass.Commands, c)
}

func (p *PassRecorder) SetPipeline(pipeline resource.RenderPipeline) {
	p.record(Command{Kind: CmdSetPipeline, Resource: pipeline.ID()})
}

func (p *PassRecorder) SetBindGroup(index uint32, group resource.BindGroup, dynamicOffsets []uint32) {
	p.record(Command{
		Kind:     CmdSetBindGroup,
		Slot:     index,
		Resource: group.ID(),
		Offsets:  append([]uint32(nil), dynamicOffsets...),
	})
}

func (p *PassRecorder) SetVertexBuffer(slot uint32, buffer resource.Buffer, offset uint64) {
	p.record(Command{Kind: CmdSetVertexBuffer, Slot: slot, Resource: buffer.ID(), Offset: offset})
}

func (p *PassRecorder) SetIndexBuffer(buffer resource.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.record(Command{Kind: CmdSetIndexBuffer, Resource: buffer.ID(), IndexFormat: format, Offset: offset})
}

func (p *PassRecorder) SetViewport(v Viewport) {
	p.record(Command{Kind: CmdSetViewport, Viewport: v})
}

func (p *PassRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.record(Command{
		Kind:          CmdDraw,
		Count:         vertexCount,
		Instances:     instanceCount,
		First:         firstVertex,
		FirstInstance: firstInstance,
	})
}

func (p *PassRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.record(Command{
		Kind:          CmdDrawIndexed,
		Count:         indexCount,
		Instances:     instanceCount,
		First:         firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

// End closes the pass and unlocks the encoder.
func (p *PassRecorder) End() error {
	p.encoder.mu.Lock()
	defer p.encoder.mu.Unlock()

	if p.ended {
		return ErrPassEnded
	}
	p.ended = true
	p.pass.Ended = true
	if p.encoder.open == p {
		p.encoder.open = nil
	}
	return nil
}
