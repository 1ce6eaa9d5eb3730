package texture

import (
	"fmt"
	"image"
	"io"
	"slices"
	"strings"
)

// Format is an image file format.
type Format uint8

// Supported formats. A format is only usable when its decoder was compiled in.
const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatBMP
	FormatWebP
	FormatTIFF
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatPNG:     "png",
	FormatJPEG:    "jpeg",
	FormatGIF:     "gif",
	FormatBMP:     "bmp",
	FormatWebP:    "webp",
	FormatTIFF:    "tiff",
}

// String returns the lower-case format name.
func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name such as "png" or "jpeg".
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(s)
	if s == "jpg" {
		return FormatJPEG, nil
	}
	for f, name := range formatNames {
		if f != int(FormatUnknown) && name == s {
			return Format(f), nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

type codec struct {
	extensions []string
	decode     func(io.Reader) (image.Image, error)
}

// codecs is filled by the build-tagged format_*.go files.
var codecs = make(map[Format]codec)

func register(f Format, decode func(io.Reader) (image.Image, error), extensions ...string) {
	codecs[f] = codec{extensions: extensions, decode: decode}
}

// Compiled returns the formats whose decoders are compiled in.
func Compiled() []Format {
	out := make([]Format, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// formatForExtension maps a file extension (without dot, any case) to the
// compiled-in format that claims it.
func formatForExtension(ext string) (Format, bool) {
	ext = strings.ToLower(ext)
	for f, c := range codecs {
		if slices.Contains(c.extensions, ext) {
			return f, true
		}
	}
	return FormatUnknown, false
}
