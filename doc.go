// Package reconcile keeps a retained-mode UI tree in sync with program
// state.
//
// A Root binds a host tree container to a sequence of virtual trees. Each
// Update diffs the new tree against the last one and applies the patches,
// so live nodes matched by the differ are reused with their host state:
//
//	mem := host.NewMemory()
//	root := reconcile.New(mem, mem.NewContainer("body"))
//
//	count := reactive.NewSignal(0)
//	err := root.Render(func() *vdom.VNode {
//	    return vdom.Button(
//	        vdom.OnClick(func() { count.Update(func(n int) int { return n + 1 }) }),
//	        vdom.Textf("Count: %d", count.Get()),
//	    )
//	})
//
// Render runs the view inside an effect: writing any signal the view read
// re-renders and patches the tree before the write returns.
//
// The engine itself lives in sub-packages: pkg/reactive for signals and
// effects, pkg/vdom for virtual nodes and the differ, pkg/applier for
// patch application and pkg/host for the live tree primitives.
package reconcile
