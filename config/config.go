// Package config loads the TOML pipeline configuration: the default clear
// color, backend capability flags, driver policy and the declarative render
// graph.
//
// A minimal file:
//
//	[clear]
//	color = "#1a1a1aff"
//
//	[capabilities]
//	reset_viewport_after_pass = true
//
//	[driver]
//	failure_policy = "skip"
//	parallelism = 4
//
// Fields absent from the file take their Default values. A file that
// declares any graph node replaces the default graph entirely.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/framegraph/clearcolor"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// GraphInput names the graph's input pseudo-node in edge lists.
const GraphInput = "input"

// Failure policy names accepted in [driver].
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Config is the pipeline configuration.
type Config struct {
	Clear        Clear        `toml:"clear"`
	Capabilities Capabilities `toml:"capabilities"`
	Driver       Driver       `toml:"driver"`
	Graph        Graph        `toml:"graph"`
}

// Clear holds the process-wide default clear color.
type Clear struct {
	// Color is "#rrggbb" or "#rrggbbaa".
	Color string `toml:"color"`
}

// Capabilities are backend quirk flags resolved when the pipeline is built.
type Capabilities struct {
	// ResetViewportAfterPass issues an empty pass after a viewport-scoped
	// pass, for backends that leak viewport state across passes.
	ResetViewportAfterPass bool `toml:"reset_viewport_after_pass"`
}

// Driver configures graph execution.
type Driver struct {
	// FailurePolicy is "abort" or "skip".
	FailurePolicy string `toml:"failure_policy"`

	// Parallelism bounds concurrently rendered targets. Zero means GOMAXPROCS.
	Parallelism int `toml:"parallelism"`
}

// Graph is a declarative render graph.
type Graph struct {
	Name   string `toml:"name"`
	Inputs []Slot `toml:"inputs"`
	Nodes  []Node `toml:"nodes"`
	Edges  []Edge `toml:"edges"`
}

// Slot declares a graph input.
type Slot struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Node instantiates a registered node type under a unique name.
type Node struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Edge orders To after From. When both slot names are set it also feeds
// From's output slot into To's input slot. From may be GraphInput.
type Edge struct {
	From     string `toml:"from"`
	FromSlot string `toml:"from_slot,omitempty"`
	To       string `toml:"to"`
	ToSlot   string `toml:"to_slot,omitempty"`
}

// IsSlotEdge reports whether e carries a slot value.
func (e Edge) IsSlotEdge() bool { return e.FromSlot != "" || e.ToSlot != "" }

// Default returns the built-in configuration: a gray clear color, abort on
// node failure and the core 2D graph.
func Default() Config {
	return Config{
		Clear:  Clear{Color: clearcolor.FormatHex(clearcolor.Gray)},
		Driver: Driver{FailurePolicy: PolicyAbort},
		Graph: Graph{
			Name:   "core2d",
			Inputs: []Slot{{Name: "view", Type: "entity"}},
			Nodes:  []Node{{Name: "main_pass", Type: "core2d.main_pass"}},
			Edges: []Edge{{
				From: GraphInput, FromSlot: "view",
				To: "main_pass", ToSlot: "view",
			}},
		},
	}
}

// Parse decodes TOML, fills unset fields from Default and validates the
// result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Clear.Color == "" {
		c.Clear.Color = def.Clear.Color
	}
	if c.Driver.FailurePolicy == "" {
		c.Driver.FailurePolicy = def.Driver.FailurePolicy
	}
	if len(c.Graph.Nodes) == 0 {
		name := c.Graph.Name
		c.Graph = def.Graph
		if name != "" {
			c.Graph.Name = name
		}
	}
}

// Decode decodes TOML from r into cfg without validating.
func Decode(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config: %s", strict.String())
		}
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// ClearColor parses the configured clear color.
func (c Config) ClearColor() (gputypes.Color, error) {
	return clearcolor.ParseHex(c.Clear.Color)
}

// Validate checks the values that can be checked without the node registry.
func (c Config) Validate() error {
	if _, err := c.ClearColor(); err != nil {
		return fmt.Errorf("%w: clear.color: %v", ErrInvalid, err)
	}
	switch c.Driver.FailurePolicy {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("%w: driver.failure_policy %q (want %q or %q)",
			ErrInvalid, c.Driver.FailurePolicy, PolicyAbort, PolicySkip)
	}
	if c.Driver.Parallelism < 0 {
		return fmt.Errorf("%w: driver.parallelism %d", ErrInvalid, c.Driver.Parallelism)
	}
	return c.Graph.Validate()
}

// Validate checks names and edge endpoints.
func (g Graph) Validate() error {
	inputs := make(map[string]bool, len(g.Inputs))
	for _, s := range g.Inputs {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("%w: graph input needs name and type", ErrInvalid)
		}
		if inputs[s.Name] {
			return fmt.Errorf("%w: duplicate graph input %q", ErrInvalid, s.Name)
		}
		inputs[s.Name] = true
	}

	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		switch {
		case n.Name == "" || n.Type == "":
			return fmt.Errorf("%w: graph node needs name and type", ErrInvalid)
		case n.Name == GraphInput:
			return fmt.Errorf("%w: node name %q is reserved", ErrInvalid, GraphInput)
		case nodes[n.Name]:
			return fmt.Errorf("%w: duplicate graph node %q", ErrInvalid, n.Name)
		}
		nodes[n.Name] = true
	}

	for _, e := range g.Edges {
		if e.From != GraphInput && !nodes[e.From] {
			return fmt.Errorf("%w: edge from unknown node %q", ErrInvalid, e.From)
		}
		if !nodes[e.To] {
			return fmt.Errorf("%w: edge to unknown node %q", ErrInvalid, e.To)
		}
		if e.IsSlotEdge() && (e.FromSlot == "" || e.ToSlot == "") {
			return fmt.Errorf("%w: slot edge %s -> %s needs from_slot and to_slot", ErrInvalid, e.From, e.To)
		}
		if e.From == GraphInput && !e.IsSlotEdge() {
			return fmt.Errorf("%w: edge from %q must name slots", ErrInvalid, GraphInput)
		}
		if e.From == GraphInput && !inputs[e.FromSlot] {
			return fmt.Errorf("%w: unknown graph input %q", ErrInvalid, e.FromSlot)
		}
	}
	return nil
}
