// Package reactive provides the fine-grained reactive core of reconcile.
//
// Dependencies are tracked automatically at runtime: reading a Signal or a
// Computed while an Effect (or a Computed) is executing subscribes that
// listener to the value. Writing a new value notifies exactly the listeners
// that read it during their last run.
//
// # Core Types
//
// Signal[T] is a versioned value cell:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Computed[T] is a lazily recomputed derived value:
//
//	doubled := NewComputed(func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if a dependency changed
//
// Effect re-runs side effects when dependencies change:
//
//	e := NewEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//	defer e.Dispose()
//
// # Batching
//
// Writes inside Batch are applied immediately but effects are deferred and
// deduplicated until the outermost Batch returns:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})  // Each affected effect runs once
//
// A write outside Batch behaves like a one-write batch: every Computed is
// invalidated before any Effect runs, and all scheduled effects have run by
// the time Set returns.
//
// # Errors
//
// A panicking effect never leaves the tracking state unbalanced. During a
// plain write the first effect panic is re-raised to the writer (as an
// *EffectError) after the other scheduled effects have run. During an
// explicit Batch flush each failure is isolated and reported to the handler
// installed with SetErrorHandler.
//
// # Goroutines
//
// The tracking context is per goroutine. Only the synchronous part of an
// effect body is tracked: reads made by goroutines the body starts are not
// dependencies of the effect. Use WithOwner to create effects from another
// goroutine under an existing scope.
package reactive
