// Package vdom provides the virtual tree model and the differ.
//
// A VNode is an immutable description of one UI node for a render pass.
// Diff compares two VNode trees and returns the Patch list that turns the
// live tree built from the old one into the new one.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    Ul(Range(items, func(it Item, _ int) *VNode {
//	        return Li(Key(it.ID), Text(it.Name))
//	    })),
//	    OnClick(handler),
//	)
//
// H and CreateElement build elements with an arbitrary tag.
//
// # Diffing
//
// Children are reconciled by key when at least one of them has a Key,
// otherwise by a longest common subsequence of deeply equal nodes, and
// positionally when both strategies are turned off in Options.
//
// Diff copies the HID of every matched old node onto its new counterpart.
// The HID is the handle the applier uses to find the live node, so a
// matched node always keeps its live node.
//
// Nodes marked Static whose structural Hash is unchanged are skipped
// without descending into them.
package vdom
