package vdom

import (
	"iter"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is one node of a virtual tree.
//
// A VNode must not be modified once it has been passed to Diff, except for
// HID which the differ and the applier maintain.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes and event handlers
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText
	Static   bool     // Subtree never changes for the same structural hash

	// HID identifies the live node built for this VNode. It is assigned by
	// the applier on create and carried from old to new by Diff.
	HID string

	hash   uint64
	hashed bool
}

// Props holds attributes and event handlers. Event handler keys start with
// "on" followed by the event name, e.g. "onclick".
type Props map[string]any

// IsInteractive returns true if this node has event handlers.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key := range v.Props {
		if IsEventProp(key) {
			return true
		}
	}
	return false
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // Function to call
}

// IsEventProp reports whether a prop key names an event handler.
// The check is case-insensitive, so onclick, onClick and ONCLICK all match.
func IsEventProp(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// EventName returns the event name of an event prop key: "onclick" becomes
// "click".
func EventName(key string) string {
	if !IsEventProp(key) {
		return ""
	}
	return strings.ToLower(key[2:])
}

// EventKeys yields the event prop keys of p in map order.
func EventKeys(p Props) iter.Seq[string] {
	return func(yield func(string) bool) {
		for key := range p {
			if IsEventProp(key) && !yield(key) {
				return
			}
		}
	}
}

// Walk calls fn for v and every descendant, parents first. Returning false
// from fn skips the node's children.
func Walk(v *VNode, fn func(*VNode) bool) {
	if v == nil {
		return
	}
	if !fn(v) {
		return
	}
	for _, child := range v.Children {
		Walk(child, fn)
	}
}

// Count returns the number of nodes in the tree rooted at v.
func Count(v *VNode) int {
	n := 0
	Walk(v, func(*VNode) bool {
		n++
		return true
	})
	return n
}

// Clone returns a deep copy of v. Props maps are copied, prop values are
// shared. HIDs are copied as well.
func Clone(v *VNode) *VNode {
	if v == nil {
		return nil
	}
	c := &VNode{
		Kind:   v.Kind,
		Tag:    v.Tag,
		Key:    v.Key,
		Text:   v.Text,
		Static: v.Static,
		HID:    v.HID,
	}
	if v.Props != nil {
		c.Props = make(Props, len(v.Props))
		for k, val := range v.Props {
			c.Props[k] = val
		}
	}
	if len(v.Children) > 0 {
		c.Children = make([]*VNode, len(v.Children))
		for i, child := range v.Children {
			c.Children[i] = Clone(child)
		}
	}
	return c
}

// ClearHIDs removes every HID in the tree, so it can be mounted again as a
// fresh tree.
func ClearHIDs(v *VNode) {
	Walk(v, func(n *VNode) bool {
		n.HID = ""
		return true
	})
}
