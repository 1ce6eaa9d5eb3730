package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

// Loader decodes image files into Images.
type Loader struct {
	formats  []Format
	defaults Settings
}

// Option configures a Loader.
type Option func(*Loader)

// WithFormats restricts the loader to formats. Formats without a compiled-in
// decoder are ignored.
func WithFormats(formats ...Format) Option {
	return func(l *Loader) {
		l.formats = l.formats[:0]
		for _, f := range formats {
			if _, ok := codecs[f]; ok && !slices.Contains(l.formats, f) {
				l.formats = append(l.formats, f)
			}
		}
	}
}

// WithDefaultSettings sets the settings used when none are supplied.
func WithDefaultSettings(s Settings) Option {
	return func(l *Loader) { l.defaults = s }
}

// NewLoader returns a loader for every compiled-in format.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{formats: Compiled(), defaults: DefaultSettings()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Formats returns the formats the loader accepts.
func (l *Loader) Formats() []Format { return slices.Clone(l.formats) }

// Extensions returns the recognised file extensions, sorted.
func (l *Loader) Extensions() []string {
	var out []string
	for _, f := range l.formats {
		out = append(out, codecs[f].extensions...)
	}
	slices.Sort(out)
	return out
}

// Resolve picks the format for path. An explicit format in s wins over the
// extension.
func (l *Loader) Resolve(path string, s FormatSetting) (Format, error) {
	if f, ok := s.Format(); ok {
		if !slices.Contains(l.formats, f) {
			return f, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
		}
		return f, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, ok := formatForExtension(ext)
	if !ok || !slices.Contains(l.formats, f) {
		return FormatUnknown, fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Load decodes the image read from r. path names the source for format
// resolution and errors. A nil s uses the loader's default settings.
func (l *Loader) Load(r io.Reader, path string, s *Settings) (*Image, error) {
	settings := l.defaults
	if s != nil {
		settings = *s
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	format, err := l.Resolve(path, settings.Format)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: format, Detected: sniff(data), Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Path: path, Format: format, Err: ErrEmptyData}
	}

	decoded, err := codecs[format].decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Path: path, Format: format, Detected: sniff(data), Err: err}
	}
	img, err := newImage(path, format, decoded, settings)
	if err != nil {
		return nil, err
	}
	framegraph.Logger().Debug("texture: loaded", "path", path, "format", format,
		"width", img.Descriptor.Width, "height", img.Descriptor.Height, "mips", img.Descriptor.MipLevelCount)
	return img, nil
}

// LoadFile loads the image at path. When s is nil, settings are read from
// the side-car file MetaPath(path) if it exists, else the defaults apply.
func (l *Loader) LoadFile(path string, s *Settings) (*Image, error) {
	if s == nil {
		meta, err := LoadSettingsFile(MetaPath(path))
		switch {
		case err == nil:
			s = &meta
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return l.Load(f, path, s)
}

func newImage(path string, format Format, decoded image.Image, s Settings) (*Image, error) {
	nrgba := toNRGBA(decoded)
	b := nrgba.Bounds()
	if b.Empty() {
		return nil, &DecodeError{Path: path, Format: format, Err: ErrEmptyData}
	}
	sampler, err := s.Sampler.Descriptor()
	if err != nil {
		return nil, err
	}

	texFormat := gputypes.TextureFormatRGBA8Unorm
	if s.IsSRGB {
		texFormat = gputypes.TextureFormatRGBA8UnormSrgb
	}
	img := &Image{
		Descriptor: Descriptor{
			Label:              filepath.Base(path),
			Width:              uint32(b.Dx()),
			Height:             uint32(b.Dy()),
			DepthOrArrayLayers: 1,
			MipLevelCount:      1,
			SampleCount:        1,
			Dimension:          gputypes.TextureDimension2D,
			Format:             texFormat,
			Usage:              gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		},
		Sampler: sampler,
		Source:  format,
		Data:    nrgba.Pix,
		Usage:   s.AssetFlags(),
	}
	if s.GenerateMips {
		img.Mips = generateMips(nrgba)
		img.Descriptor.MipLevelCount = uint32(1 + len(img.Mips))
	}
	s.ApplyTo(&img.Descriptor)
	return img, nil
}
