package clearcolor

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestResolve(t *testing.T) {
	blue := ClearColor{Color: gputypes.Color{B: 1, A: 1}}
	green := ClearColor{Color: gputypes.Color{G: 1, A: 1}}

	tests := []struct {
		name      string
		cfg       Config
		global    ClearColor
		wantLoad  gputypes.LoadOp
		wantColor gputypes.Color
	}{
		{"default uses global", Default(), blue, gputypes.LoadOpClear, blue.Color},
		{"default follows global change", Default(), green, gputypes.LoadOpClear, green.Color},
		{"custom ignores global", Custom(Red), blue, gputypes.LoadOpClear, Red},
		{"custom ignores other global", Custom(Red), green, gputypes.LoadOpClear, Red},
		{"none loads", None(), blue, gputypes.LoadOpLoad, gputypes.Color{}},
		{"none loads regardless of global", None(), green, gputypes.LoadOpLoad, gputypes.Color{}},
		{"zero config is default", Config{}, blue, gputypes.LoadOpClear, blue.Color},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := Resolve(tt.cfg, tt.global)
			if ops.Load != tt.wantLoad {
				t.Errorf("Load = %v, want %v", ops.Load, tt.wantLoad)
			}
			if ops.Store != gputypes.StoreOpStore {
				t.Errorf("Store = %v, want StoreOpStore", ops.Store)
			}
			if tt.wantLoad == gputypes.LoadOpClear && ops.ClearValue != tt.wantColor {
				t.Errorf("ClearValue = %+v, want %+v", ops.ClearValue, tt.wantColor)
			}
		})
	}
}

func TestConfigAccessors(t *testing.T) {
	if c, ok := Custom(Red).Color(); !ok || c != Red {
		t.Errorf("Custom.Color() = %v, %v", c, ok)
	}
	if _, ok := None().Color(); ok {
		t.Error("None.Color() reported a color")
	}
	if Default().Mode() != ModeDefault || None().Mode() != ModeNone {
		t.Error("Mode() mismatch")
	}
}

func TestConfigText(t *testing.T) {
	tests := []struct {
		in       string
		wantMode Mode
		wantHex  string
	}{
		{"default", ModeDefault, ""},
		{"", ModeDefault, ""},
		{"NONE", ModeNone, ""},
		{"#ff0000", ModeCustom, "#ff0000ff"},
		{"#00ff0080", ModeCustom, "#00ff0080"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c Config
			if err := c.UnmarshalText([]byte(tt.in)); err != nil {
				t.Fatalf("UnmarshalText(%q) error = %v", tt.in, err)
			}
			if c.Mode() != tt.wantMode {
				t.Errorf("Mode() = %v, want %v", c.Mode(), tt.wantMode)
			}
			if tt.wantHex != "" {
				out, _ := c.MarshalText()
				if string(out) != tt.wantHex {
					t.Errorf("MarshalText() = %q, want %q", out, tt.wantHex)
				}
			}
		})
	}

	var c Config
	for _, bad := range []string{"red", "#12345", "#gggggg"} {
		if err := c.UnmarshalText([]byte(bad)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("UnmarshalText(%q) error = %v, want ErrInvalidConfig", bad, err)
		}
	}
}

func TestFormatHexClamps(t *testing.T) {
	if got := FormatHex(gputypes.Color{R: 2, G: -1, B: 0.5, A: 1}); got != "#ff0080ff" {
		t.Errorf("FormatHex() = %q", got)
	}
}
