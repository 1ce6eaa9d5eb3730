package wgpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
)

// Backend errors.
var (
	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL device and queue")

	// ErrForeignResource is returned when a handle does not wrap a HAL object.
	ErrForeignResource = errors.New("wgpu: resource was not created by a HAL backend")

	// ErrSubmitTimeout is returned when the GPU does not signal the frame fence.
	ErrSubmitTimeout = errors.New("wgpu: timed out waiting for GPU")
)

// DefaultSubmitTimeout bounds how long Submit waits for the GPU.
const DefaultSubmitTimeout = 5 * time.Second

// Backend creates GPU resources and submits frames on one HAL device.
type Backend struct {
	device  hal.Device
	queue   hal.Queue
	timeout time.Duration
}

// New returns a backend over device and queue. The caller keeps ownership
// of both.
func New(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{device: device, queue: queue, timeout: DefaultSubmitTimeout}
}

// FromProvider returns a backend sharing the device of a gpucontext
// provider. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	framegraph.Logger().Info("wgpu: using shared device")
	return New(device, queue), nil
}

// SetSubmitTimeout changes how long Submit waits for the GPU.
func (b *Backend) SetSubmitTimeout(d time.Duration) { b.timeout = d }

// Device returns the HAL device.
func (b *Backend) Device() hal.Device { return b.device }

// Queue returns the HAL queue.
func (b *Backend) Queue() hal.Queue { return b.queue }

// Submit submits command buffers, waits for the GPU to finish them and
// frees them. The buffers are freed even on error.
func (b *Backend) Submit(buffers ...hal.CommandBuffer) error {
	defer func() {
		for _, cb := range buffers {
			b.device.FreeCommandBuffer(cb)
		}
	}()
	if len(buffers) == 0 {
		return nil
	}

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit(buffers, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := b.device.Wait(fence, 1, b.timeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !ok {
		return ErrSubmitTimeout
	}
	return nil
}
