package graph

import (
	"errors"
	"fmt"
)

// Structural errors. Each indicates a wiring mistake, not a data condition.
var (
	ErrMissingInput      = errors.New("graph: missing input")
	ErrSlotTypeMismatch  = errors.New("graph: slot type mismatch")
	ErrUnknownSlot       = errors.New("graph: unknown slot")
	ErrUnknownNode       = errors.New("graph: unknown node")
	ErrDuplicateNode     = errors.New("graph: duplicate node")
	ErrReservedName      = errors.New("graph: reserved node name")
	ErrInputAlreadyBound = errors.New("graph: input slot already bound")
	ErrCycle             = errors.New("graph: cycle")
	ErrUnknownNodeType   = errors.New("graph: unknown node type")
	ErrTooManyInputs     = errors.New("graph: too many inputs")
)

var structural = []error{
	ErrMissingInput, ErrSlotTypeMismatch, ErrUnknownSlot, ErrUnknownNode,
	ErrDuplicateNode, ErrReservedName, ErrInputAlreadyBound, ErrCycle,
	ErrUnknownNodeType, ErrTooManyInputs,
}

// SlotError reports a slot that could not be resolved.
type SlotError struct {
	Node string
	Slot string

	// Want and Got are set for ErrSlotTypeMismatch.
	Want, Got SlotType

	Err error
}

func (e *SlotError) Error() string {
	if errors.Is(e.Err, ErrSlotTypeMismatch) {
		return fmt.Sprintf("node %q slot %q: %v: want %s, got %s", e.Node, e.Slot, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("node %q slot %q: %v", e.Node, e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// NodeRunError wraps an error returned by a node's Run.
type NodeRunError struct {
	Node string
	Err  error
}

func (e *NodeRunError) Error() string { return fmt.Sprintf("graph: run %q: %v", e.Node, e.Err) }
func (e *NodeRunError) Unwrap() error { return e.Err }

// IsStructural reports whether err (or any error in its chain) is a wiring
// error. Structural errors abort the frame under every failure policy.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	var se *SlotError
	if errors.As(err, &se) {
		return true
	}
	for _, s := range structural {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
