package texture

import (
	"errors"
	"fmt"

	"github.com/h2non/filetype"
)

// Loader errors.
var (
	// ErrUnsupportedFormat is returned for a format or extension with no
	// compiled-in decoder.
	ErrUnsupportedFormat = errors.New("texture: unsupported format")

	// ErrEmptyData is returned when the image source is empty.
	ErrEmptyData = errors.New("texture: empty data")

	// ErrInvalidSettings is wrapped by settings validation failures.
	ErrInvalidSettings = errors.New("texture: invalid settings")
)

// IOError reports a failure to read an image source.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("texture: read %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// DecodeError reports a source that could not be decoded as Format.
type DecodeError struct {
	Path   string
	Format Format

	// Detected is the file type sniffed from the content, if recognised.
	Detected string

	Err error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("texture: decode %s as %s: %v", e.Path, e.Format, e.Err)
	if e.Detected != "" && e.Detected != e.Format.String() {
		msg += " (content looks like " + e.Detected + ")"
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// sniff names the file type of data for diagnostics, or returns "".
func sniff(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	if kind.Extension == "jpg" {
		return FormatJPEG.String()
	}
	if kind.Extension == "tif" {
		return FormatTIFF.String()
	}
	return kind.Extension
}
