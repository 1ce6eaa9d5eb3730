package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/texture"
	"github.com/gogpu/framegraph/view"
)

// Resource errors.
var (
	// ErrInvalidSize is returned for zero-sized textures and buffers.
	ErrInvalidSize = errors.New("wgpu: invalid size")

	// ErrNotRenderAsset is returned when uploading an image whose asset
	// usage excludes the render world.
	ErrNotRenderAsset = errors.New("wgpu: image is not a render asset")

	// ErrNoPixels is returned when uploading an image whose CPU data was
	// already released.
	ErrNoPixels = errors.New("wgpu: image has no CPU data")
)

// TargetDescriptor describes a render target created by CreateTarget.
type TargetDescriptor struct {
	Label         string
	Width, Height uint32
	Format        gputypes.TextureFormat

	// SampleCount above 1 adds a multisampled texture that resolves into
	// the target.
	SampleCount uint32
}

// CreateTarget creates a render target texture and its view.
func (b *Backend) CreateTarget(desc TargetDescriptor) (view.Target, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return view.Target{}, fmt.Errorf("%w: target %q is %dx%d", ErrInvalidSize, desc.Label, desc.Width, desc.Height)
	}
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc
	main, err := b.textureView(desc.Label, desc.Width, desc.Height, 1, desc.Format, usage)
	if err != nil {
		return view.Target{}, err
	}
	t := view.Target{View: main, Format: desc.Format}
	if desc.SampleCount > 1 {
		msaa, err := b.textureView(desc.Label+"_msaa", desc.Width, desc.Height, desc.SampleCount,
			desc.Format, gputypes.TextureUsageRenderAttachment)
		if err != nil {
			main.Release()
			return view.Target{}, err
		}
		t.Sampled = msaa
	}
	return t, nil
}

func (b *Backend) textureView(label string, w, h, samples uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (resource.TextureView, error) {
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return resource.TextureView{}, fmt.Errorf("wgpu: create texture %q: %w", label, err)
	}
	return b.wrapView(label, tex)
}

// wrapView creates a view of tex. The returned handle owns both.
func (b *Backend) wrapView(label string, tex hal.Texture) (resource.TextureView, error) {
	v, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		b.device.DestroyTexture(tex)
		return resource.TextureView{}, fmt.Errorf("wgpu: create texture view %q: %w", label, err)
	}
	return resource.NewTextureView(v, func(native any) {
		b.device.DestroyTextureView(native.(hal.TextureView))
		b.device.DestroyTexture(tex)
	}), nil
}

// CreateBuffer creates a buffer holding data. The size is rounded up to
// a multiple of four bytes.
func (b *Backend) CreateBuffer(label string, usage gputypes.BufferUsage, data []byte) (resource.Buffer, error) {
	if len(data) == 0 {
		return resource.Buffer{}, fmt.Errorf("%w: buffer %q is empty", ErrInvalidSize, label)
	}
	size := (uint64(len(data)) + 3) &^ 3
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return resource.Buffer{}, fmt.Errorf("wgpu: create buffer %q: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return resource.NewBuffer(buf, func(native any) {
		b.device.DestroyBuffer(native.(hal.Buffer))
	}), nil
}

// CreateBindGroup creates a bind group for layout.
func (b *Backend) CreateBindGroup(label string, layout hal.BindGroupLayout, entries []gputypes.BindGroupEntry) (resource.BindGroup, error) {
	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return resource.BindGroup{}, fmt.Errorf("wgpu: create bind group %q: %w", label, err)
	}
	return resource.NewBindGroup(bg, func(native any) {
		b.device.DestroyBindGroup(native.(hal.BindGroup))
	}), nil
}

// CreateSampler creates a sampler from an image's sampler settings.
func (b *Backend) CreateSampler(label string, desc texture.SamplerDescriptor) (resource.Sampler, error) {
	s, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: desc.AddressModeW,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MipmapFilter,
	})
	if err != nil {
		return resource.Sampler{}, fmt.Errorf("wgpu: create sampler %q: %w", label, err)
	}
	return resource.NewSampler(s, func(native any) {
		b.device.DestroySampler(native.(hal.Sampler))
	}), nil
}

// WrapPipeline adopts a render pipeline created on the backend's device.
// The last release of the handle destroys it.
func (b *Backend) WrapPipeline(p hal.RenderPipeline) resource.RenderPipeline {
	return resource.NewRenderPipeline(p, func(native any) {
		b.device.DestroyRenderPipeline(native.(hal.RenderPipeline))
	})
}

// Texture is an uploaded image: a sampled view and its sampler.
type Texture struct {
	View    resource.TextureView
	Sampler resource.Sampler
}

// Release drops the view and sampler.
func (t Texture) Release() {
	t.View.Release()
	t.Sampler.Release()
}

// UploadImage creates a texture for img, writes every mip level and creates
// its sampler. Unless the image is used in the main world its CPU pixels
// are released after the upload.
func (b *Backend) UploadImage(img *texture.Image) (Texture, error) {
	d := img.Descriptor
	switch {
	case d.Width == 0 || d.Height == 0:
		return Texture{}, fmt.Errorf("%w: image %q is %dx%d", ErrInvalidSize, d.Label, d.Width, d.Height)
	case !img.Usage.Has(texture.UsageRenderWorld):
		return Texture{}, fmt.Errorf("%w: %q", ErrNotRenderAsset, d.Label)
	case img.Data == nil:
		return Texture{}, fmt.Errorf("%w: %q", ErrNoPixels, d.Label)
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         d.Label,
		Size:          hal.Extent3D{Width: d.Width, Height: d.Height, DepthOrArrayLayers: max(1, d.DepthOrArrayLayers)},
		MipLevelCount: max(1, d.MipLevelCount),
		SampleCount:   max(1, d.SampleCount),
		Dimension:     d.Dimension,
		Format:        d.Format,
		Usage:         d.Usage | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return Texture{}, fmt.Errorf("wgpu: create texture %q: %w", d.Label, err)
	}

	for level := range int(max(1, d.MipLevelCount)) {
		data := img.Level(level)
		if data == nil {
			break
		}
		w, h := img.LevelSize(level)
		b.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: tex, MipLevel: uint32(level)},
			data,
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: img.BytesPerRow(level), RowsPerImage: h},
			&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		)
	}

	v, err := b.wrapView(d.Label, tex)
	if err != nil {
		return Texture{}, err
	}
	s, err := b.CreateSampler(d.Label+"_sampler", img.Sampler)
	if err != nil {
		v.Release()
		return Texture{}, err
	}
	if img.ReleaseCPUData() {
		framegraph.Logger().Debug("wgpu: released CPU pixels", "image", d.Label)
	}
	return Texture{View: v, Sampler: s}, nil
}
