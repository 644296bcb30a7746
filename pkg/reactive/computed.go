package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Computed is a derived value that is recomputed lazily.
//
// A write to one of its dependencies only marks it dirty and notifies its
// own subscribers; the computation runs again on the next Get or Peek.
// Computeds can be read by effects and by other computeds, forming chains.
type Computed[T any] struct {
	base signalBase

	compute func() T

	value   T
	version uint64
	valueMu sync.RWMutex

	// dirty means the cached value is stale. Starts true so the first read
	// evaluates.
	dirty atomic.Bool

	// sources are the signals and computeds read during the last evaluation.
	sources   []*signalBase
	sourcesMu sync.Mutex

	equal func(T, T) bool

	// evaluating holds the goroutine ID running compute, 0 when idle. A read
	// from that goroutine while compute runs is a dependency cycle.
	evaluating atomic.Uint64
}

// NewComputed creates a computed value. compute does not run until the
// first read.
func NewComputed[T any](compute func() T) *Computed[T] {
	c := &Computed[T]{
		base:    signalBase{id: nextID()},
		compute: compute,
	}
	c.dirty.Store(true)
	return c
}

// Get returns the value, recomputing it if a dependency changed, and
// subscribes the current listener.
func (c *Computed[T]) Get() T {
	track(&c.base)
	return c.Peek()
}

// Peek returns the value without subscribing. It still recomputes a dirty
// value.
func (c *Computed[T]) Peek() T {
	if gid := c.evaluating.Load(); gid != 0 && gid == getGoroutineID() {
		panic(fmt.Errorf("%w: computed %d read itself", ErrCircularDependency, c.base.id))
	}
	if c.dirty.Load() {
		c.recompute()
	}
	c.valueMu.RLock()
	defer c.valueMu.RUnlock()
	return c.value
}

// Dirty reports whether the next read will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty.Load()
}

// Version counts evaluations that produced a different value.
func (c *Computed[T]) Version() uint64 {
	c.valueMu.RLock()
	defer c.valueMu.RUnlock()
	return c.version
}

// MarkDirty invalidates the cached value and notifies subscribers.
// Implements the Listener interface.
func (c *Computed[T]) MarkDirty() {
	if c.dirty.CompareAndSwap(false, true) {
		c.base.notifySubscribers()
	}
}

// ID returns the unique identifier for this computed.
// Implements the Listener interface.
func (c *Computed[T]) ID() uint64 {
	return c.base.id
}

// WithEquals configures the equality used to decide whether an evaluation
// produced a new version.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.equal = fn
	return c
}

func (c *Computed[T]) addSource(source *signalBase) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	for _, s := range c.sources {
		if s == source {
			return
		}
	}
	c.sources = append(c.sources, source)
}

func (c *Computed[T]) clearSources() {
	c.sourcesMu.Lock()
	sources := c.sources
	c.sources = nil
	c.sourcesMu.Unlock()

	for _, source := range sources {
		source.unsubscribe(c)
	}
}

// recompute evaluates compute with c as the tracking listener. If compute
// panics the value stays dirty and the previous listener is restored.
func (c *Computed[T]) recompute() {
	c.evaluating.Store(getGoroutineID())
	defer c.evaluating.Store(0)

	c.clearSources()

	// Cleared before evaluating so that a dependency written during the
	// evaluation leaves the computed dirty.
	c.dirty.Store(false)
	ok := false
	defer func() {
		if !ok {
			c.dirty.Store(true)
		}
	}()

	old := setCurrentListener(c)
	defer setCurrentListener(old)

	newValue := c.compute()

	c.valueMu.Lock()
	if c.version == 0 || !c.equals(c.value, newValue) {
		c.version++
	}
	c.value = newValue
	c.valueMu.Unlock()
	ok = true
}

func (c *Computed[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

var _ sourceTracker = (*Computed[int])(nil)
