package texture

import (
	"image"
	"math/bits"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one texel in Image data (RGBA8).
const BytesPerPixel = 4

// Descriptor describes the GPU texture an Image uploads to.
type Descriptor struct {
	Label              string
	Width, Height      uint32
	DepthOrArrayLayers uint32
	MipLevelCount      uint32
	SampleCount        uint32
	Dimension          gputypes.TextureDimension
	Format             gputypes.TextureFormat
	Usage              gputypes.TextureUsage
}

// SamplerDescriptor describes the sampler an Image is drawn with.
type SamplerDescriptor struct {
	AddressModeU, AddressModeV, AddressModeW gputypes.AddressMode
	MagFilter, MinFilter, MipmapFilter       gputypes.FilterMode
}

// Image is a decoded image ready for upload. Data holds mip level 0 as
// tightly packed, non-premultiplied RGBA8 rows; Mips holds levels 1 and up.
type Image struct {
	Descriptor Descriptor
	Sampler    SamplerDescriptor
	Source     Format
	Data       []byte
	Mips       [][]byte

	// Usage says whether the image may be uploaded and whether its pixels
	// are kept once it is. The loader sets it from Settings.
	Usage AssetUsage
}

// ReleaseCPUData drops the pixels unless the image is used in the main
// world. It reports whether anything was dropped.
func (img *Image) ReleaseCPUData() bool {
	if img.Usage.Has(UsageMainWorld) || img.Data == nil {
		return false
	}
	img.Data, img.Mips = nil, nil
	return true
}

// Level returns the pixels of mip level n, or nil.
func (img *Image) Level(n int) []byte {
	switch {
	case n == 0:
		return img.Data
	case n > 0 && n <= len(img.Mips):
		return img.Mips[n-1]
	default:
		return nil
	}
}

// LevelSize returns the width and height of mip level n.
func (img *Image) LevelSize(n int) (width, height uint32) {
	return max(1, img.Descriptor.Width>>n), max(1, img.Descriptor.Height>>n)
}

// BytesPerRow returns the row pitch of mip level n.
func (img *Image) BytesPerRow(n int) uint32 {
	w, _ := img.LevelSize(n)
	return w * BytesPerPixel
}

// mipLevels returns the length of a full mip chain for a w×h image.
func mipLevels(w, h int) int {
	return bits.Len(uint(max(w, h, 1)))
}

// toNRGBA returns img as a tightly packed *image.NRGBA at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == b.Dx()*BytesPerPixel {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// generateMips downsamples src until both sides reach one pixel.
func generateMips(src *image.NRGBA) [][]byte {
	b := src.Bounds()
	n := mipLevels(b.Dx(), b.Dy())
	mips := make([][]byte, 0, n-1)
	prev := src
	for range n - 1 {
		pb := prev.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, max(1, pb.Dx()/2), max(1, pb.Dy()/2)))
		draw.BiLinear.Scale(dst, dst.Bounds(), prev, pb, draw.Src, nil)
		mips = append(mips, dst.Pix)
		prev = dst
	}
	return mips
}
