package reactive

import (
	"sync"
	"testing"
)

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(1)
	if s.Get() != 1 {
		t.Fatalf("Get() = %d, want 1", s.Get())
	}
	s.Set(2)
	if s.Peek() != 2 {
		t.Fatalf("Peek() = %d, want 2", s.Peek())
	}
	s.Update(func(n int) int { return n * 10 })
	if s.Get() != 20 {
		t.Fatalf("Get() after Update = %d, want 20", s.Get())
	}
}

func TestSignalVersion(t *testing.T) {
	s := NewSignal("a")
	if s.Version() != 0 {
		t.Fatalf("initial version = %d, want 0", s.Version())
	}
	s.Set("b")
	s.Set("b")
	s.Update(func(v string) string { return v })
	if s.Version() != 1 {
		t.Errorf("version = %d, want 1 (no-op writes must not count)", s.Version())
	}
	s.Set("c")
	if s.Version() != 2 {
		t.Errorf("version = %d, want 2", s.Version())
	}
}

func TestSignalNoOpWriteDoesNotNotify(t *testing.T) {
	s := NewSignal(7)
	runs := 0
	e := CreateEffect(func() {
		_ = s.Get()
		runs++
	})
	defer e.Dispose()

	s.Set(s.Peek())
	s.Set(7)

	if runs != 1 {
		t.Errorf("effect ran %d times, want 1", runs)
	}
}

func TestSignalDeepEquality(t *testing.T) {
	s := NewSignal([]string{"a", "b"})
	runs := 0
	e := CreateEffect(func() {
		_ = s.Get()
		runs++
	})
	defer e.Dispose()

	s.Set([]string{"a", "b"})
	if runs != 1 {
		t.Errorf("equal slice write re-ran effect, runs = %d", runs)
	}
	s.Set([]string{"a"})
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestSignalAnyWithDifferentDynamicTypes(t *testing.T) {
	s := NewSignal[any](1)
	s.Set("one")
	if s.Peek() != "one" {
		t.Errorf("Peek() = %v, want one", s.Peek())
	}
	s.Set([]int{1})
	s.Set(1)
	if s.Version() != 3 {
		t.Errorf("version = %d, want 3", s.Version())
	}
}

func TestSignalWithEquals(t *testing.T) {
	type user struct {
		ID   int
		Name string
	}
	s := NewSignal(user{ID: 1, Name: "a"}).WithEquals(func(a, b user) bool {
		return a.ID == b.ID
	})
	s.Set(user{ID: 1, Name: "renamed"})
	if s.Version() != 0 {
		t.Error("custom equality should treat same ID as unchanged")
	}
	s.Set(user{ID: 2})
	if s.Version() != 1 {
		t.Error("different ID should be a change")
	}
}

func TestSignalSubscribersClearedOnNotify(t *testing.T) {
	s := NewSignal(0)
	l := &countingListener{id: nextID()}
	WithListener(l, func() {
		_ = s.Get()
	})
	if s.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", s.SubscriberCount())
	}

	s.Set(1)
	s.Set(2)

	if l.dirty != 1 {
		t.Errorf("listener notified %d times, want 1 (must re-subscribe on its next read)", l.dirty)
	}
	if s.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0 after notify", s.SubscriberCount())
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	s := NewSignal(0)
	runs := 0
	e := CreateEffect(func() {
		_ = s.Peek()
		runs++
	})
	defer e.Dispose()

	s.Set(1)
	if runs != 1 {
		t.Errorf("Peek created a dependency, runs = %d", runs)
	}
}

func TestSignalConcurrentReads(t *testing.T) {
	s := NewSignal(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Get()
			}
		}()
	}
	for i := 0; i < 100; i++ {
		s.Set(i)
	}
	wg.Wait()
}

// countingListener records MarkDirty calls.
type countingListener struct {
	id    uint64
	dirty int
}

func (l *countingListener) MarkDirty() { l.dirty++ }
func (l *countingListener) ID() uint64 { return l.id }
