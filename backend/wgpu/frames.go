package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/graph"
)

// EncoderFactory returns a graph.EncoderFactory creating HAL encoders.
func (b *Backend) EncoderFactory() graph.EncoderFactory {
	return func(label string) (encoding.CommandEncoder, error) {
		return b.NewEncoder(label)
	}
}

// SubmitFrames finishes the encoder of every frame and submits them in
// order as one batch. If any encoder fails to finish, all are discarded and
// nothing is submitted.
func (b *Backend) SubmitFrames(frames []graph.TargetFrame) error {
	buffers := make([]hal.CommandBuffer, 0, len(frames))
	var errs []error
	for _, f := range frames {
		enc, ok := f.Encoder.(*Encoder)
		if !ok {
			errs = append(errs, fmt.Errorf("target %d: encoder %T: %w", f.Target, f.Encoder, ErrForeignResource))
			continue
		}
		if len(errs) > 0 {
			enc.Discard()
			continue
		}
		cb, err := enc.Finish()
		if err != nil {
			enc.Discard()
			errs = append(errs, fmt.Errorf("target %d: %w", f.Target, err))
			continue
		}
		buffers = append(buffers, cb)
	}
	if len(errs) > 0 {
		for _, cb := range buffers {
			b.device.FreeCommandBuffer(cb)
		}
		return errors.Join(errs...)
	}
	framegraph.Logger().Debug("wgpu: submitting frame", "targets", len(frames))
	return b.Submit(buffers...)
}

// DiscardFrames abandons the encoders of frames, e.g. after a failed run.
func DiscardFrames(frames []graph.TargetFrame) {
	for _, f := range frames {
		if enc, ok := f.Encoder.(*Encoder); ok {
			enc.Discard()
		}
	}
}
