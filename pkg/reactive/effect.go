package reactive

import (
	"sync"
	"sync/atomic"
	"time"
)

// Effect is a re-runnable unit of work subscribed to every signal or
// computed it read during its last run.
//
// After each run the effect's sources are exactly the values read during
// that run: sources are cleared and re-subscribed at the start of every run,
// so a branch that was not taken leaves no stale dependency behind.
type Effect struct {
	id uint64

	fn func() Cleanup

	// cleanup is the cleanup returned by the last run.
	cleanup Cleanup

	sources   []*signalBase
	sourcesMu sync.Mutex

	// owner is the scope that disposes this effect.
	owner *Owner

	// scope owns effects created during the last run. It is disposed before
	// the next run so nested effects never outlive the run that created them.
	scope *Owner

	pending  atomic.Bool
	disposed atomic.Bool

	runs atomic.Uint64

	name string
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// EffectName names the effect in error reports and logs.
func EffectName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// NewEffect creates an effect in the current owner scope and runs it
// immediately. A panic in that first run propagates to the caller with the
// tracking state already restored.
//
// Example:
//
//	e := NewEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	})
//	defer e.Dispose()
func NewEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	owner := getCurrentOwner()

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: owner,
	}
	for _, opt := range opts {
		opt(e)
	}

	if owner != nil {
		owner.registerEffect(e)
	}

	// Writes made by the first run are flushed after it returns.
	batch(e.run, true)
	return e
}

// CreateEffect is NewEffect for bodies that need no cleanup.
func CreateEffect(fn func(), opts ...EffectOption) *Effect {
	return NewEffect(func() Cleanup {
		fn()
		return nil
	}, opts...)
}

// MarkDirty schedules the effect to re-run.
// Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if e.pending.CompareAndSwap(false, true) {
		schedule(e)
	}
}

// ID returns the unique identifier for this effect.
// Implements the Listener interface.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the name given with EffectName, if any.
func (e *Effect) Name() string {
	return e.name
}

// Runs returns how many times the effect body has started.
func (e *Effect) Runs() uint64 {
	return e.runs.Load()
}

// Disposed reports whether Dispose was called.
func (e *Effect) Disposed() bool {
	return e.disposed.Load()
}

// Dispose unsubscribes the effect from all sources, disposes effects it
// created and runs the last cleanup. A queued re-run is dropped.
// Dispose is idempotent.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.pending.Store(false)
	e.clearSources()
	e.runCleanup()
}

// run executes the effect body with e as the tracking listener.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.pending.Store(false)

	// Cleanup of the previous run happens first, also when this run panics.
	e.runCleanup()
	e.clearSources()

	scope := NewOwner(e.owner)
	e.scope = scope

	prevListener := setCurrentListener(e)
	prevOwner := setCurrentOwner(scope)
	defer func() {
		setCurrentOwner(prevOwner)
		setCurrentListener(prevListener)
	}()

	e.runs.Add(1)
	start := time.Now()
	cleanup := e.fn()
	currentObserver().EffectRan(e, time.Since(start))

	// Disposed by its own body: nothing will run the cleanup later.
	if e.disposed.Load() {
		e.clearSources()
		if cleanup != nil {
			cleanup()
		}
		return
	}
	e.cleanup = cleanup
}

// runSafe runs the effect and converts a panic into an *EffectError.
func (e *Effect) runSafe() (err *EffectError) {
	defer func() {
		if r := recover(); r != nil {
			err = newEffectError(e, r)
			currentObserver().EffectFailed(err)
		}
	}()
	e.run()
	return nil
}

func (e *Effect) runCleanup() {
	if e.scope != nil {
		scope := e.scope
		e.scope = nil
		scope.Dispose()
	}
	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}
}

func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

func (e *Effect) clearSources() {
	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = nil
	e.sourcesMu.Unlock()

	for _, source := range sources {
		source.unsubscribe(e)
	}
}

// SourceCount returns the number of distinct values read in the last run.
func (e *Effect) SourceCount() int {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	return len(e.sources)
}

// OnCleanup registers fn with the current owner scope. Inside an effect
// body fn runs before the effect's next run and on dispose.
func OnCleanup(fn func()) {
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

var _ sourceTracker = (*Effect)(nil)
