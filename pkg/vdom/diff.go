package vdom

import (
	"slices"
	"strings"
)

// Options selects the child reconciliation strategies of a Differ.
type Options struct {
	// Keyed matches children by Key whenever at least one child in the old
	// or new list has one.
	Keyed bool

	// LCS keeps the longest common subsequence of deeply equal unkeyed
	// children in place.
	LCS bool

	// MatchGaps pairs children removed and created between the same two
	// LCS anchors when they have the same kind and tag, and diffs them
	// instead of recreating them. Without it every child outside the LCS is
	// removed or created. A paired node keeps the live node of the child it
	// replaces, so turn it on only for lists whose items carry no host state.
	MatchGaps bool

	// CoalesceMoves gathers the Move patches of one children list into a
	// single Reorder patch.
	CoalesceMoves bool
}

// DefaultOptions returns the options used by Diff.
func DefaultOptions() Options {
	return Options{
		Keyed: true,
		LCS:   true,
	}
}

// Differ computes patches between two trees.
type Differ struct {
	opts Options
}

// NewDiffer creates a Differ with the given options.
func NewDiffer(opts Options) *Differ {
	return &Differ{opts: opts}
}

// Options returns the differ's options.
func (d *Differ) Options() Options {
	return d.opts
}

var defaultDiffer = NewDiffer(DefaultOptions())

// Diff compares two VNode trees with the default options and returns the
// patches needed to transform old into next. Either tree may be nil.
func Diff(old, next *VNode) ([]Patch, error) {
	return defaultDiffer.Diff(old, next)
}

// Diff compares two VNode trees and returns the patches needed to
// transform old into next. Either tree may be nil.
//
// Matched nodes of next receive the HID of their old counterpart. A
// duplicate sibling key in next returns ErrDuplicateKey and an unbuildable
// node ErrInvalidNode; no patches are returned with an error.
func (d *Differ) Diff(old, next *VNode) ([]Patch, error) {
	switch {
	case old == nil && next == nil:
		return nil, nil

	case old == nil:
		if err := Validate(next); err != nil {
			return nil, err
		}
		return []Patch{{Op: OpCreate, Node: next}}, nil

	case next == nil:
		return []Patch{{Op: OpRemove, Old: old}}, nil
	}

	p, err := d.pair(old, next)
	if err != nil || p == nil {
		return nil, err
	}
	return []Patch{*p}, nil
}

// pair diffs two matched nodes. It returns nil when nothing changed.
func (d *Differ) pair(old, next *VNode) (*Patch, error) {
	if old.Kind != next.Kind || old.Tag != next.Tag || old.Key != next.Key {
		if err := Validate(next); err != nil {
			return nil, err
		}
		return &Patch{Op: OpReplace, Old: old, Node: next}, nil
	}

	if old.Static && next.Static && Hash(old) == Hash(next) {
		carryHIDs(old, next)
		return nil, nil
	}

	next.HID = old.HID

	switch next.Kind {
	case KindText:
		if len(next.Children) > 0 {
			return nil, invalidNode(next, "text node with children")
		}
		if old.Text == next.Text {
			return nil, nil
		}
		return &Patch{Op: OpText, Old: old, Node: next, Text: next.Text}, nil

	case KindElement:
		if next.Tag == "" {
			return nil, invalidNode(next, "element without tag")
		}
		props := diffProps(old.Props, next.Props)
		children, err := d.children(old, next)
		if err != nil {
			return nil, err
		}
		if len(props) == 0 && len(children) == 0 {
			return nil, nil
		}
		return &Patch{Op: OpUpdate, Old: old, Node: next, Props: props, Children: children}, nil
	}

	return nil, invalidNode(next, "unknown kind")
}

// diffProps computes prop changes over the union of keys, in key order.
func diffProps(old, next Props) []PropPatch {
	var patches []PropPatch

	for key, oldVal := range old {
		nextVal, exists := next[key]
		if !exists {
			patches = append(patches, PropPatch{Op: RemoveProp, Key: key})
		} else if !propEqual(oldVal, nextVal) {
			patches = append(patches, PropPatch{Op: UpdateProp, Key: key, Value: nextVal})
		}
	}

	for key, nextVal := range next {
		if _, exists := old[key]; !exists {
			patches = append(patches, PropPatch{Op: AddProp, Key: key, Value: nextVal})
		}
	}

	slices.SortFunc(patches, func(a, b PropPatch) int {
		return strings.Compare(a.Key, b.Key)
	})
	return patches
}

// carryHIDs copies the HIDs of old onto next. Both trees must be equal.
func carryHIDs(old, next *VNode) {
	next.HID = old.HID
	for i := range next.Children {
		if i < len(old.Children) {
			carryHIDs(old.Children[i], next.Children[i])
		}
	}
}
