package reactive

import "testing"

func TestOwnerDisposeOrder(t *testing.T) {
	root := NewOwner(nil)
	var order []string

	root.OnCleanup(func() { order = append(order, "root-1") })
	root.OnCleanup(func() { order = append(order, "root-2") })

	a := NewOwner(root)
	a.OnCleanup(func() { order = append(order, "a") })
	b := NewOwner(root)
	b.OnCleanup(func() { order = append(order, "b") })

	root.Dispose()

	want := []string{"b", "a", "root-2", "root-1"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !a.IsDisposed() || !b.IsDisposed() {
		t.Error("children not disposed")
	}
}

func TestOwnerDisposeIdempotent(t *testing.T) {
	o := NewOwner(nil)
	n := 0
	o.OnCleanup(func() { n++ })
	o.Dispose()
	o.Dispose()
	if n != 1 {
		t.Errorf("cleanup ran %d times, want 1", n)
	}
}

func TestOwnerCleanupAfterDisposeRunsImmediately(t *testing.T) {
	o := NewOwner(nil)
	o.Dispose()
	ran := false
	o.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup on disposed owner did not run")
	}
}

func TestChildDisposeDetachesFromParent(t *testing.T) {
	root := NewOwner(nil)
	child := NewOwner(root)
	child.Dispose()

	ran := false
	child.OnCleanup(func() { ran = true })
	root.Dispose()
	if !ran {
		t.Error("late cleanup on disposed child did not run")
	}
	if child.Parent() != root {
		t.Error("Parent() changed after dispose")
	}
}

func TestEffectUnderDisposedOwnerNeverRuns(t *testing.T) {
	o := NewOwner(nil)
	o.Dispose()

	runs := 0
	WithOwner(o, func() {
		CreateEffect(func() { runs++ })
	})
	if runs != 0 {
		t.Errorf("effect under disposed owner ran %d times", runs)
	}
}

func TestTrackingContextReleased(t *testing.T) {
	s := NewSignal(0)
	e := CreateEffect(func() { _ = s.Get() })
	s.Set(1)
	e.Dispose()

	if ctx := lookupTrackingContext(); ctx != nil {
		t.Errorf("tracking context still registered: %+v", ctx)
	}
}

func TestCurrentOwner(t *testing.T) {
	if CurrentOwner() != nil {
		t.Fatal("CurrentOwner() outside any scope should be nil")
	}
	o := NewOwner(nil)
	defer o.Dispose()
	WithOwner(o, func() {
		if CurrentOwner() != o {
			t.Error("CurrentOwner() did not return the scope")
		}
	})
}
