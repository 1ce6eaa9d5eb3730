// Package clearcolor resolves a per-camera clear policy against the
// process-wide default clear color.
//
// The policy is one of:
//   - Default: clear to the process-wide [ClearColor]
//   - Custom: clear to a color supplied by the camera
//   - None: keep the attachment's existing contents (a load, not a clear)
//
// [Resolve] is a pure function of the policy and the default color.
package clearcolor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/gputypes"
)

// ErrInvalidConfig is returned when a textual clear policy cannot be parsed.
var ErrInvalidConfig = errors.New("clearcolor: invalid clear config")

// Common colors.
var (
	Gray  = gputypes.Color{R: 0.4, G: 0.4, B: 0.4, A: 1}
	Black = gputypes.Color{A: 1}
	Red   = gputypes.Color{R: 1, A: 1}
)

// ClearColor is the process-wide default clear color, stored as a world
// resource. It may change between frames.
type ClearColor struct {
	Color gputypes.Color
}

// DefaultClearColor returns the clear color used when none is configured.
func DefaultClearColor() ClearColor { return ClearColor{Color: Gray} }

// Mode is the kind of clear policy.
type Mode uint8

const (
	ModeDefault Mode = iota
	ModeCustom
	ModeNone
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeCustom:
		return "custom"
	case ModeNone:
		return "none"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config is a per-camera clear policy. The zero value is Default.
type Config struct {
	mode  Mode
	color gputypes.Color
}

// Default returns the policy that clears to the process-wide color.
func Default() Config { return Config{mode: ModeDefault} }

// Custom returns the policy that clears to c.
func Custom(c gputypes.Color) Config { return Config{mode: ModeCustom, color: c} }

// None returns the policy that preserves existing contents.
func None() Config { return Config{mode: ModeNone} }

// Mode returns the policy kind.
func (c Config) Mode() Mode { return c.mode }

// Color returns the custom color and true for a Custom policy.
func (c Config) Color() (gputypes.Color, bool) {
	return c.color, c.mode == ModeCustom
}

// Resolve returns the attachment operations for cfg. The store operation is
// always StoreOpStore.
func Resolve(cfg Config, global ClearColor) encoding.Operations {
	switch cfg.mode {
	case ModeCustom:
		return encoding.ClearOps(cfg.color)
	case ModeNone:
		return encoding.LoadOps()
	default:
		return encoding.ClearOps(global.Color)
	}
}

// String returns "default", "none" or the custom color as "#rrggbbaa".
func (c Config) String() string {
	if c.mode == ModeCustom {
		return FormatHex(c.color)
	}
	return c.mode.String()
}

// MarshalText implements encoding.TextMarshaler.
func (c Config) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts
// "default", "none" and "#rrggbb" or "#rrggbbaa".
func (c *Config) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	switch s {
	case "", "default":
		*c = Default()
		return nil
	case "none":
		*c = None()
		return nil
	}
	col, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = Custom(col)
	return nil
}

// ParseHex parses "#rrggbb" or "#rrggbbaa" into a color.
func ParseHex(s string) (gputypes.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return gputypes.Color{}, fmt.Errorf("%w: %q", ErrInvalidConfig, s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return gputypes.Color{}, fmt.Errorf("%w: %q: %w", ErrInvalidConfig, s, err)
	}
	channel := func(shift uint) float64 { return float64((v>>shift)&0xff) / 255 }
	return gputypes.Color{R: channel(24), G: channel(16), B: channel(8), A: channel(0)}, nil
}

// FormatHex formats c as "#rrggbbaa", clamping channels to [0, 1].
func FormatHex(c gputypes.Color) string {
	b := func(f float64) uint8 {
		f = min(max(f, 0), 1)
		return uint8(f*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", b(c.R), b(c.G), b(c.B), b(c.A))
}
