package reactive

import (
	"errors"
	"testing"
)

func TestComputedLazyRecompute(t *testing.T) {
	s := NewSignal(1)
	calls := 0
	doubled := NewComputed(func() int {
		calls++
		return s.Get() * 2
	})

	if calls != 0 {
		t.Fatal("computed must not evaluate before the first read")
	}
	if got := doubled.Get(); got != 2 {
		t.Fatalf("Get() = %d, want 2", got)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	s.Set(5)
	if !doubled.Dirty() {
		t.Error("computed should be dirty after a dependency write")
	}
	if calls != 1 {
		t.Errorf("write recomputed eagerly, calls = %d", calls)
	}

	if got := doubled.Get(); got != 10 {
		t.Errorf("Get() = %d, want 10", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	_ = doubled.Get()
	if calls != 2 {
		t.Errorf("clean read recomputed, calls = %d", calls)
	}
}

func TestComputedCoalescesWrites(t *testing.T) {
	s := NewSignal(0)
	calls := 0
	c := NewComputed(func() int {
		calls++
		return s.Get()
	})
	_ = c.Get()

	for i := 1; i <= 10; i++ {
		s.Set(i)
	}
	if got := c.Get(); got != 10 {
		t.Fatalf("Get() = %d, want 10", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestComputedDynamicDependencies(t *testing.T) {
	useA := NewSignal(true)
	a := NewSignal("a")
	b := NewSignal("b")
	calls := 0
	c := NewComputed(func() string {
		calls++
		if useA.Get() {
			return a.Get()
		}
		return b.Get()
	})
	_ = c.Get()

	b.Set("b2")
	if c.Dirty() {
		t.Error("write to unread signal dirtied the computed")
	}

	useA.Set(false)
	if got := c.Get(); got != "b2" {
		t.Fatalf("Get() = %q, want b2", got)
	}

	a.Set("a2")
	if c.Dirty() {
		t.Error("computed still depends on the branch it no longer reads")
	}
}

func TestComputedChain(t *testing.T) {
	s := NewSignal(2)
	sq := NewComputed(func() int { return s.Get() * s.Get() })
	plus := NewComputed(func() int { return sq.Get() + 1 })

	if plus.Get() != 5 {
		t.Fatalf("plus = %d, want 5", plus.Get())
	}
	s.Set(3)
	if !plus.Dirty() {
		t.Error("dirtiness should propagate through the chain")
	}
	if plus.Get() != 10 {
		t.Errorf("plus = %d, want 10", plus.Get())
	}
}

func TestComputedVersion(t *testing.T) {
	s := NewSignal(1)
	parity := NewComputed(func() int { return s.Get() % 2 })
	_ = parity.Get()
	if parity.Version() != 1 {
		t.Fatalf("version = %d, want 1", parity.Version())
	}
	s.Set(3)
	_ = parity.Get()
	if parity.Version() != 1 {
		t.Errorf("same result bumped the version to %d", parity.Version())
	}
	s.Set(4)
	_ = parity.Get()
	if parity.Version() != 2 {
		t.Errorf("version = %d, want 2", parity.Version())
	}
}

func TestComputedCircularDependencyPanics(t *testing.T) {
	var c *Computed[int]
	c = NewComputed(func() int { return c.Get() + 1 })

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrCircularDependency) {
			t.Fatalf("recovered %v, want ErrCircularDependency", r)
		}
		if getCurrentListener() != nil {
			t.Error("tracking listener leaked after panic")
		}
	}()
	_ = c.Get()
}

func TestComputedPanicKeepsDirty(t *testing.T) {
	fail := NewSignal(true)
	c := NewComputed(func() int {
		if fail.Get() {
			panic("not yet")
		}
		return 42
	})

	func() {
		defer func() { _ = recover() }()
		_ = c.Get()
	}()
	if !c.Dirty() {
		t.Fatal("computed should stay dirty after a failed evaluation")
	}

	fail.Set(false)
	if c.Get() != 42 {
		t.Errorf("Get() = %d, want 42", c.Get())
	}
}

func TestComputedReadByEffect(t *testing.T) {
	s := NewSignal(1)
	c := NewComputed(func() int { return s.Get() + 100 })

	var seen []int
	e := CreateEffect(func() {
		seen = append(seen, c.Get())
	})
	defer e.Dispose()

	s.Set(2)
	s.Set(3)

	want := []int{101, 102, 103}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen = %v, want %v", seen, want)
		}
	}
}

func TestComputedDiamondIsGlitchFree(t *testing.T) {
	s := NewSignal(1)
	plusOne := NewComputed(func() int { return s.Get() + 1 })
	twice := NewComputed(func() int { return s.Get() * 2 })

	var sums []int
	e := CreateEffect(func() {
		sums = append(sums, plusOne.Get()+twice.Get())
	})
	defer e.Dispose()

	s.Set(2)

	if len(sums) != 2 {
		t.Fatalf("effect ran %d times, want 2: %v", len(sums), sums)
	}
	if sums[1] != 3+4 {
		t.Errorf("effect saw %d, want 7 (no stale intermediate)", sums[1])
	}
}
