package reactive

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// DefaultMaxFlushPasses bounds how many times a flush re-runs effects that
// were scheduled by other effects before it gives up with ErrFlushLimit.
const DefaultMaxFlushPasses = 100

var maxFlushPasses atomic.Int64

func init() {
	maxFlushPasses.Store(DefaultMaxFlushPasses)
}

// SetMaxFlushPasses changes the flush pass limit. Values below 1 restore
// the default.
func SetMaxFlushPasses(n int) {
	if n < 1 {
		n = DefaultMaxFlushPasses
	}
	maxFlushPasses.Store(int64(n))
}

// Batch runs fn and defers effect execution until the outermost Batch
// returns. Writes inside fn take effect immediately and computeds are
// invalidated immediately; each scheduled effect then runs once, in the
// order it was first scheduled.
//
// Batches can be nested. Only the outermost one flushes.
//
// An effect that panics during the flush is reported to the error handler
// and the remaining effects still run.
//
// Example:
//
//	Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
//	// Effects reading both names run once
func Batch(fn func()) {
	batch(fn, false)
}

// Tx is an alias for Batch.
func Tx(fn func()) {
	batch(fn, false)
}

// TxNamed runs fn as a named batch. The boundaries are logged at debug level.
func TxNamed(name string, fn func()) {
	slog.Debug("reactive: tx start", "tx", name)
	defer slog.Debug("reactive: tx end", "tx", name)
	batch(fn, false)
}

// batch implements Batch. With propagate set, the first effect panic of the
// flush is re-raised to the caller once the flush is complete.
func batch(fn func(), propagate bool) {
	ctx := getTrackingContext()
	ctx.batchDepth++

	done := false
	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth > 0 || ctx.flushing {
			return
		}
		if !done {
			// fn is panicking; flush without re-raising so the original
			// panic keeps unwinding.
			flush(ctx, false)
			return
		}
		flush(ctx, propagate)
	}()

	fn()
	done = true
}

// schedule queues an effect. Outside of any batch or flush the queue is
// flushed right away.
func schedule(e *Effect) {
	ctx := getTrackingContext()
	ctx.pending = append(ctx.pending, e)
	if ctx.batchDepth == 0 && !ctx.flushing {
		flush(ctx, true)
	}
}

// flush runs pending effects until none are left. Effects scheduled during a
// pass run in the next pass.
func flush(ctx *TrackingContext, propagate bool) {
	if len(ctx.pending) == 0 {
		releaseIfIdle(ctx)
		return
	}

	ctx.flushing = true
	defer func() {
		ctx.flushing = false
		releaseIfIdle(ctx)
	}()

	var first *EffectError
	ran := 0
	limit := int(maxFlushPasses.Load())

	pass := 0
	for ; len(ctx.pending) > 0; pass++ {
		if pass >= limit {
			dropped := ctx.pending
			ctx.pending = nil
			for _, e := range dropped {
				e.pending.Store(false)
			}
			err := fmt.Errorf("%w: %d effects still pending after %d passes", ErrFlushLimit, len(dropped), limit)
			if propagate && first == nil {
				panic(err)
			}
			reportError(err)
			break
		}

		queue := ctx.pending
		ctx.pending = nil

		for _, e := range queue {
			// Disposed effects and effects already run by an earlier entry
			// are skipped.
			if !e.pending.Load() || e.disposed.Load() {
				continue
			}
			ran++
			if err := e.runSafe(); err != nil {
				if propagate {
					if first == nil {
						first = err
					}
					continue
				}
				reportError(err)
			}
		}
	}

	currentObserver().BatchFlushed(ran, pass)

	if first != nil {
		panic(first)
	}
}

// Untracked runs fn without tracking reads as dependencies.
//
// For a single read, Peek is shorter.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// UntrackedGet reads a signal without creating a dependency.
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}

// InBatch reports whether the calling goroutine is inside Batch.
func InBatch() bool {
	return getBatchDepth() > 0
}
