package graph

import (
	"fmt"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/world"
)

// SlotType is the type of value a slot carries.
type SlotType uint8

const (
	slotUnset SlotType = iota

	// SlotEntity carries a world entity, typically a view.
	SlotEntity

	// SlotBuffer carries a GPU buffer handle.
	SlotBuffer

	// SlotTextureView carries a texture view handle.
	SlotTextureView

	// SlotSampler carries a sampler handle.
	SlotSampler
)

var slotTypeNames = [...]string{
	slotUnset:       "unset",
	SlotEntity:      "entity",
	SlotBuffer:      "buffer",
	SlotTextureView: "texture_view",
	SlotSampler:     "sampler",
}

// String returns the configuration name of t.
func (t SlotType) String() string {
	if int(t) < len(slotTypeNames) {
		return slotTypeNames[t]
	}
	return fmt.Sprintf("SlotType(%d)", int(t))
}

// ParseSlotType parses a configuration name such as "entity".
func ParseSlotType(s string) (SlotType, error) {
	for t, name := range slotTypeNames {
		if t != int(slotUnset) && name == s {
			return SlotType(t), nil
		}
	}
	return slotUnset, fmt.Errorf("graph: unknown slot type %q", s)
}

// SlotInfo declares a named, typed slot.
type SlotInfo struct {
	Name string
	Type SlotType
}

// String returns "name:type".
func (s SlotInfo) String() string { return s.Name + ":" + s.Type.String() }

// SlotValue is a value bound to a slot. The zero value is unbound.
type SlotValue struct {
	typ     SlotType
	entity  world.Entity
	buffer  resource.Buffer
	view    resource.TextureView
	sampler resource.Sampler
}

// EntityValue binds an entity.
func EntityValue(e world.Entity) SlotValue { return SlotValue{typ: SlotEntity, entity: e} }

// BufferValue binds a buffer.
func BufferValue(b resource.Buffer) SlotValue { return SlotValue{typ: SlotBuffer, buffer: b} }

// TextureViewValue binds a texture view.
func TextureViewValue(v resource.TextureView) SlotValue {
	return SlotValue{typ: SlotTextureView, view: v}
}

// SamplerValue binds a sampler.
func SamplerValue(s resource.Sampler) SlotValue { return SlotValue{typ: SlotSampler, sampler: s} }

// Type returns the value's slot type.
func (v SlotValue) Type() SlotType { return v.typ }

// IsBound reports whether v holds a value.
func (v SlotValue) IsBound() bool { return v.typ != slotUnset }

// Entity returns the entity and whether v is an entity value.
func (v SlotValue) Entity() (world.Entity, bool) { return v.entity, v.typ == SlotEntity }

// Buffer returns the buffer and whether v is a buffer value.
func (v SlotValue) Buffer() (resource.Buffer, bool) { return v.buffer, v.typ == SlotBuffer }

// TextureView returns the view and whether v is a texture view value.
func (v SlotValue) TextureView() (resource.TextureView, bool) {
	return v.view, v.typ == SlotTextureView
}

// Sampler returns the sampler and whether v is a sampler value.
func (v SlotValue) Sampler() (resource.Sampler, bool) { return v.sampler, v.typ == SlotSampler }

// String formats the value for diagnostics.
func (v SlotValue) String() string {
	switch v.typ {
	case SlotEntity:
		return v.entity.String()
	case SlotBuffer:
		return v.buffer.String()
	case SlotTextureView:
		return v.view.String()
	case SlotSampler:
		return v.sampler.String()
	default:
		return "unbound"
	}
}

func indexOf(slots []SlotInfo, name string) int {
	for i, s := range slots {
		if s.Name == name {
			return i
		}
	}
	return -1
}
