package reactive

import (
	"reflect"
	"sync"
)

// signalBase provides type-erased subscriber management.
// It is embedded in Signal[T] and Computed[T].
type signalBase struct {
	id uint64

	// subs are the listeners that read this value during their last run,
	// in subscription order.
	subs  []Listener
	subMu sync.Mutex
}

// subscribe adds a listener. Deduplicates by listener ID.
func (s *signalBase) subscribe(l Listener) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}
	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener, keeping the order of the others.
func (s *signalBase) unsubscribe(l Listener) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// takeSubscribers returns the subscriber set and clears it. Listeners
// re-register when they next read this value.
func (s *signalBase) takeSubscribers() []Listener {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	subs := s.subs
	s.subs = nil
	return subs
}

// subscriberCount returns the number of current subscribers.
func (s *signalBase) subscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// notifySubscribers marks every current subscriber dirty. The notification
// runs as a batch so that all computeds are invalidated before any effect
// executes; effect panics are re-raised to the writer.
func (s *signalBase) notifySubscribers() {
	subs := s.takeSubscribers()
	if len(subs) == 0 {
		return
	}
	batch(func() {
		for _, sub := range subs {
			sub.MarkDirty()
		}
	}, true)
}

// Signal is a versioned, observable value cell.
// Reading it with Get inside an effect or computed subscribes that listener.
type Signal[T any] struct {
	base signalBase

	value   T
	version uint64
	mu      sync.RWMutex

	// equal decides whether a write changes the value. nil uses defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  signalBase{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Track after releasing the value lock.
	track(&s.base)
	return value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value. Writing a value equal to the current one is a no-op;
// otherwise the version is incremented and subscribers are notified.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
		s.version++
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Update replaces the value with fn applied to the current value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	newValue := fn(s.value)
	changed := !s.equals(s.value, newValue)
	if changed {
		s.value = newValue
		s.version++
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Version returns the number of real writes this signal has seen.
func (s *Signal[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// WithEquals configures a custom equality function, used when == or
// reflect.DeepEqual has the wrong semantics for T.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// SubscriberCount returns how many listeners currently depend on s.
func (s *Signal[T]) SubscriberCount() int {
	return s.base.subscriberCount()
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for scalar types and reflect.DeepEqual for others.
// Comparing through any keeps Signal[any] safe when the dynamic types differ.
func defaultEquals[T any](a, b T) bool {
	switch any(a).(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128,
		string, bool:
		return any(a) == any(b)
	default:
		return reflect.DeepEqual(a, b)
	}
}
