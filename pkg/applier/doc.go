// Package applier applies vdom patches to a host tree.
//
// The Applier owns the identity cache: a table from element ID (the VNode
// HID) to the live node built for it. Nodes matched by the differ keep
// their HID, so updates and moves always reuse the same live node and any
// host state attached to it.
//
// # Patch Semantics
//
// The child patches of one parent are applied in phases: removals, then
// replacements and in-place updates, then creates and moves. The final
// child order is computed once and realized with the fewest host moves the
// simple left-to-right placement allows. The result is the same as
// applying the patches one by one in list order.
//
// A patch that references an element ID missing from the cache returns
// ErrStaleNode. The live tree is then in an unknown state and must be
// rebuilt.
//
// # Static Subtrees
//
// The first time a Static VNode is created its live subtree is cloned into
// a template keyed by the structural hash. Later creates of an equal
// static subtree clone the template instead of building it node by node.
// A template is dropped when its last live instance is removed.
package applier
