package reactive

import (
	"sync/atomic"
	"time"
)

// Observer receives scheduling events, typically to export metrics.
// Implementations must be cheap and must not touch signals.
type Observer interface {
	EffectRan(e *Effect, d time.Duration)
	EffectFailed(err *EffectError)
	BatchFlushed(effects, passes int)
}

type nopObserver struct{}

func (nopObserver) EffectRan(*Effect, time.Duration) {}
func (nopObserver) EffectFailed(*EffectError)        {}
func (nopObserver) BatchFlushed(int, int)            {}

type observerHolder struct{ o Observer }

var observer atomic.Pointer[observerHolder]

// SetObserver installs o as the global observer. nil removes it.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerHolder{o: o})
}

func currentObserver() Observer {
	if h := observer.Load(); h != nil {
		return h.o
	}
	return nopObserver{}
}
