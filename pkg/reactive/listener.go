package reactive

// Listener is anything that can be notified when a dependency changes.
// Effects and computeds implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	// A computed invalidates its cached value; an effect schedules a re-run.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	ID() uint64
}

// sourceTracker is a listener that records the sources it read so it can
// unsubscribe from all of them before its next run.
type sourceTracker interface {
	Listener
	addSource(source *signalBase)
}

// Cleanup is a function returned by effects to release resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// disposable is a listener that can stop listening for good.
type disposable interface {
	Disposed() bool
}

// track subscribes the current listener, if any, to source. A disposed
// listener is not subscribed.
func track(source *signalBase) {
	listener := getCurrentListener()
	if listener == nil {
		return
	}
	if d, ok := listener.(disposable); ok && d.Disposed() {
		return
	}
	source.subscribe(listener)
	if st, ok := listener.(sourceTracker); ok {
		st.addSource(source)
	}
}
