// Package vtest provides testing helpers for trees rendered with the
// reconcile engine.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t)
//	    count := reactive.NewSignal(0)
//	    h.Render(func() *vdom.VNode {
//	        return vdom.Button(
//	            vdom.OnClick(func() { count.Set(count.Peek() + 1) }),
//	            vdom.Textf("%d", count.Get()),
//	        )
//	    })
//	    h.Dispatch(h.Current(), "click", nil)
//	    vtest.ExpectContains(t, h.Current(), "1")
//	    h.AssertConsistent()
//	}
//
// # Tree Comparison
//
// Normalize strips what a live tree cannot show (keys, element IDs, handler
// identities) so that a virtual tree can be compared with a snapshot of
// the host:
//
//	vtest.AssertTreeEqual(t, mem.Snapshot(node), want)
//
// # Render Assertions
//
// ExpectContains and friends render a tree into a fresh in-memory host and
// search the markup.
package vtest
