package texture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"
)

// FormatSetting selects how the image format is resolved. The zero value
// resolves from the file extension.
type FormatSetting struct {
	format Format
}

// FromExtension resolves the format from the file extension.
func FromExtension() FormatSetting { return FormatSetting{} }

// Explicit forces format f and ignores the file extension.
func Explicit(f Format) FormatSetting { return FormatSetting{format: f} }

// Format returns the explicit format and whether one is set.
func (s FormatSetting) Format() (Format, bool) { return s.format, s.format != FormatUnknown }

// String returns "from_extension" or the format name.
func (s FormatSetting) String() string {
	if f, ok := s.Format(); ok {
		return f.String()
	}
	return "from_extension"
}

// MarshalYAML implements yaml.Marshaler.
func (s FormatSetting) MarshalYAML() (any, error) { return s.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *FormatSetting) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	if name == "" || name == "from_extension" {
		*s = FromExtension()
		return nil
	}
	f, err := ParseFormat(name)
	if err != nil {
		return err
	}
	*s = Explicit(f)
	return nil
}

// AddressMode names a sampler address mode.
type AddressMode string

const (
	AddressClampToEdge  AddressMode = "clamp_to_edge"
	AddressRepeat       AddressMode = "repeat"
	AddressMirrorRepeat AddressMode = "mirror_repeat"
)

// FilterMode names a sampler filter.
type FilterMode string

const (
	FilterLinear  FilterMode = "linear"
	FilterNearest FilterMode = "nearest"
)

// SamplerSettings configure the sampler stored with the image.
type SamplerSettings struct {
	AddressMode  AddressMode `yaml:"address_mode"`
	Filter       FilterMode  `yaml:"filter"`
	MipmapFilter FilterMode  `yaml:"mipmap_filter"`
}

// Descriptor converts the settings to a sampler descriptor.
func (s SamplerSettings) Descriptor() (SamplerDescriptor, error) {
	var addr gputypes.AddressMode
	switch s.AddressMode {
	case AddressClampToEdge, "":
		addr = gputypes.AddressModeClampToEdge
	case AddressRepeat:
		addr = gputypes.AddressModeRepeat
	case AddressMirrorRepeat:
		addr = gputypes.AddressModeMirrorRepeat
	default:
		return SamplerDescriptor{}, fmt.Errorf("%w: address_mode %q", ErrInvalidSettings, s.AddressMode)
	}
	filter, err := filterMode("filter", s.Filter)
	if err != nil {
		return SamplerDescriptor{}, err
	}
	mip, err := filterMode("mipmap_filter", s.MipmapFilter)
	if err != nil {
		return SamplerDescriptor{}, err
	}
	return SamplerDescriptor{
		AddressModeU: addr,
		AddressModeV: addr,
		AddressModeW: addr,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: mip,
	}, nil
}

func filterMode(field string, m FilterMode) (gputypes.FilterMode, error) {
	switch m {
	case FilterLinear, "":
		return gputypes.FilterModeLinear, nil
	case FilterNearest:
		return gputypes.FilterModeNearest, nil
	default:
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidSettings, field, m)
	}
}

// AssetUsage says where a loaded image is needed.
type AssetUsage uint8

const (
	// UsageMainWorld keeps the CPU pixels after the image is uploaded.
	UsageMainWorld AssetUsage = 1 << iota

	// UsageRenderWorld allows the image to be uploaded to the GPU.
	UsageRenderWorld

	// UsageAll is the default: upload and keep the CPU copy.
	UsageAll = UsageMainWorld | UsageRenderWorld
)

var assetUsages = map[string]AssetUsage{
	"main_world":   UsageMainWorld,
	"render_world": UsageRenderWorld,
}

// Has reports whether u includes every flag in f.
func (u AssetUsage) Has(f AssetUsage) bool { return u&f == f }

// Settings control how an image is decoded and described.
type Settings struct {
	Format FormatSetting `yaml:"format"`

	// IsSRGB selects an sRGB texture format. Default true.
	IsSRGB bool `yaml:"is_srgb"`

	Sampler SamplerSettings `yaml:"sampler"`

	// GenerateMips fills the full mip chain.
	GenerateMips bool `yaml:"generate_mips"`

	// AssetUsage lists "main_world" and/or "render_world". Empty means both.
	AssetUsage []string `yaml:"asset_usage,omitempty"`

	// Overrides applied to the descriptor after decoding. Zero values
	// leave the decoded descriptor unchanged.
	SampleCount   uint32   `yaml:"sample_count,omitempty"`
	Dimension     string   `yaml:"dimension,omitempty"`
	TextureFormat string   `yaml:"texture_format,omitempty"`
	Usage         []string `yaml:"usage,omitempty"`
}

// DefaultSettings returns settings that resolve the format from the
// extension and produce an sRGB, linearly filtered texture.
func DefaultSettings() Settings {
	return Settings{IsSRGB: true}
}

var dimensions = map[string]gputypes.TextureDimension{
	"1d": gputypes.TextureDimension1D,
	"2d": gputypes.TextureDimension2D,
	"3d": gputypes.TextureDimension3D,
}

var textureFormats = map[string]gputypes.TextureFormat{
	"rgba8unorm":      gputypes.TextureFormatRGBA8Unorm,
	"rgba8unorm_srgb": gputypes.TextureFormatRGBA8UnormSrgb,
}

var usages = map[string]gputypes.TextureUsage{
	"copy_src":          gputypes.TextureUsageCopySrc,
	"copy_dst":          gputypes.TextureUsageCopyDst,
	"texture_binding":   gputypes.TextureUsageTextureBinding,
	"render_attachment": gputypes.TextureUsageRenderAttachment,
}

// Validate checks every named value.
func (s Settings) Validate() error {
	if _, err := s.Sampler.Descriptor(); err != nil {
		return err
	}
	switch s.SampleCount {
	case 0, 1, 2, 4, 8:
	default:
		return fmt.Errorf("%w: sample_count %d", ErrInvalidSettings, s.SampleCount)
	}
	if _, ok := dimensions[s.Dimension]; s.Dimension != "" && !ok {
		return fmt.Errorf("%w: dimension %q", ErrInvalidSettings, s.Dimension)
	}
	if _, ok := textureFormats[s.TextureFormat]; s.TextureFormat != "" && !ok {
		return fmt.Errorf("%w: texture_format %q", ErrInvalidSettings, s.TextureFormat)
	}
	for _, u := range s.Usage {
		if _, ok := usages[u]; !ok {
			return fmt.Errorf("%w: usage %q", ErrInvalidSettings, u)
		}
	}
	for _, u := range s.AssetUsage {
		if _, ok := assetUsages[u]; !ok {
			return fmt.Errorf("%w: asset_usage %q", ErrInvalidSettings, u)
		}
	}
	return nil
}

// AssetFlags returns the asset usage flags. s must be valid.
func (s Settings) AssetFlags() AssetUsage {
	if len(s.AssetUsage) == 0 {
		return UsageAll
	}
	var u AssetUsage
	for _, name := range s.AssetUsage {
		u |= assetUsages[name]
	}
	return u
}

// ApplyTo overwrites the descriptor fields the settings override.
// s must be valid.
func (s Settings) ApplyTo(d *Descriptor) {
	if s.SampleCount != 0 {
		d.SampleCount = s.SampleCount
	}
	if dim, ok := dimensions[s.Dimension]; ok {
		d.Dimension = dim
	}
	if f, ok := textureFormats[s.TextureFormat]; ok {
		d.Format = f
	}
	if len(s.Usage) > 0 {
		var u gputypes.TextureUsage
		for _, name := range s.Usage {
			u |= usages[name]
		}
		d.Usage = u
	}
}

// ParseSettings decodes YAML settings over DefaultSettings.
// Unknown keys are rejected.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile reads YAML settings from path.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, &IOError{Path: path, Err: err}
	}
	s, err := ParseSettings(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// MarshalSettings encodes s as YAML.
func MarshalSettings(s Settings) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MetaPath returns the side-car settings path for an image path.
func MetaPath(path string) string { return path + ".meta" }
