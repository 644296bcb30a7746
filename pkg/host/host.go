// Package host defines the primitive operations of a live UI tree and an
// in-memory implementation of them.
//
// The applier is the only code that calls a Host. Everything else in the
// engine works on VNodes.
package host

import "github.com/vango-dev/reconcile/internal/errors"

// Node is a handle to a live node. Handles are compared with ==, so the
// same live node must always be represented by the same handle.
type Node any

// Listener receives an event dispatched to a live node.
type Listener func(arg any)

// Host is a retained-mode UI tree.
type Host interface {
	// CreateElement creates a detached element.
	CreateElement(tag string) (Node, error)

	// CreateText creates a detached text node.
	CreateText(text string) (Node, error)

	SetAttribute(n Node, key string, value any) error
	RemoveAttribute(n Node, key string) error

	// SetListener installs fn for event, replacing any previous listener
	// for that event.
	SetListener(n Node, event string, fn Listener) error
	RemoveListener(n Node, event string) error

	// InsertChild inserts a detached child at index. An index past the end
	// appends.
	InsertChild(parent, child Node, index int) error

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node) error

	// MoveChild moves an attached child to index without recreating it.
	// Host state attached to the child is kept.
	MoveChild(parent, child Node, index int) error

	SetText(n Node, text string) error

	// Clone returns a detached deep copy of n without listeners or
	// transient state.
	Clone(n Node) (Node, error)

	// Children returns the current children of n in order.
	Children(n Node) []Node
}

// ErrHostFailure is returned when the host rejects an operation.
var ErrHostFailure = errors.New(errors.CodeHostFailure)

func hostError(format string, args ...any) error {
	return errors.New(errors.CodeHostFailure).WithDetailf(format, args...)
}

// IndexOf returns the position of child among the children of parent, or
// -1.
func IndexOf(h Host, parent, child Node) int {
	for i, c := range h.Children(parent) {
		if c == child {
			return i
		}
	}
	return -1
}
