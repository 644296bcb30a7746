package reactive

import (
	"runtime"
	"sync"
)

// TrackingContext holds the reactive state of one goroutine.
type TrackingContext struct {
	// currentOwner owns effects created while it is set.
	currentOwner *Owner

	// currentListener is what is currently tracking dependencies.
	// nil means reads do not subscribe anything.
	currentListener Listener

	// batchDepth counts nested Batch calls.
	batchDepth int

	// flushing is true while pending effects are being run. Writes made by
	// those effects are queued for a later pass of the same flush.
	flushing bool

	// pending holds scheduled effects in first-scheduled order.
	pending []*Effect
}

// idle reports whether the context carries no state worth keeping.
func (c *TrackingContext) idle() bool {
	return c.currentOwner == nil && c.currentListener == nil &&
		c.batchDepth == 0 && !c.flushing && len(c.pending) == 0
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns the ID of the calling goroutine, parsed from the
// "goroutine <id> " prefix of its stack header.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// lookupTrackingContext returns the context of the current goroutine
// without creating one.
func lookupTrackingContext() *TrackingContext {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		return ctx.(*TrackingContext)
	}
	return nil
}

// getTrackingContext returns the tracking context for the current goroutine,
// creating it on first use.
func getTrackingContext() *TrackingContext {
	gid := getGoroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}
	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// releaseIfIdle drops the goroutine's context once it holds no state, so
// short-lived goroutines do not leak entries.
func releaseIfIdle(ctx *TrackingContext) {
	if ctx != nil && ctx.idle() {
		trackingContexts.Delete(getGoroutineID())
	}
}

// getCurrentListener returns the listener being tracked, or nil.
func getCurrentListener() Listener {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.currentListener
	}
	return nil
}

// setCurrentListener sets the current listener and returns the previous one
// so the caller can restore it.
func setCurrentListener(l Listener) Listener {
	ctx := getTrackingContext()
	old := ctx.currentListener
	ctx.currentListener = l
	if l == nil {
		releaseIfIdle(ctx)
	}
	return old
}

// getCurrentOwner returns the owner for newly created effects, or nil.
func getCurrentOwner() *Owner {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.currentOwner
	}
	return nil
}

// setCurrentOwner sets the current owner and returns the previous one.
func setCurrentOwner(o *Owner) *Owner {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	if o == nil {
		releaseIfIdle(ctx)
	}
	return old
}

// getBatchDepth returns the current batch nesting depth.
func getBatchDepth() int {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.batchDepth
	}
	return 0
}

// WithOwner runs fn with owner as the current owner. Effects created inside
// fn are disposed together with owner. It is the way to hand a scope to a
// goroutine started from an effect body:
//
//	go func() {
//	    WithOwner(scope, func() {
//	        NewEffect(func() Cleanup { ... })
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l as the tracking listener.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// CurrentOwner returns the owner effects created right now would belong to.
func CurrentOwner() *Owner {
	return getCurrentOwner()
}
