package reactive

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/vango-dev/reconcile/internal/errors"
)

// ErrCircularDependency is raised when a computed reads itself, directly or
// through other computeds, while it is being evaluated.
var ErrCircularDependency = errors.New(errors.CodeCircularDependency)

// ErrFlushLimit is reported when effects keep scheduling each other and a
// flush does not settle within the configured number of passes.
var ErrFlushLimit = errors.New(errors.CodeFlushLimit)

// ErrEffectPanic matches every *EffectError with errors.Is.
var ErrEffectPanic = errors.New(errors.CodeEffectPanic)

// EffectError is a panic recovered from an effect body.
type EffectError struct {
	// EffectID is the ID of the failing effect.
	EffectID uint64

	// Name is the effect name, if one was given.
	Name string

	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack at the time of the panic.
	Stack []byte
}

func newEffectError(e *Effect, value any) *EffectError {
	return &EffectError{
		EffectID: e.id,
		Name:     e.name,
		Value:    value,
		Stack:    debug.Stack(),
	}
}

// Error implements the error interface.
func (e *EffectError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("reactive: effect %q (%d) panicked: %v", e.Name, e.EffectID, e.Value)
	}
	return fmt.Sprintf("reactive: effect %d panicked: %v", e.EffectID, e.Value)
}

// Is reports whether target is ErrEffectPanic.
func (e *EffectError) Is(target error) bool {
	return target == error(ErrEffectPanic)
}

// Unwrap returns the panic value when it is an error.
func (e *EffectError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorHandler receives effect failures that cannot be returned to a caller,
// namely panics isolated during an explicit Batch flush and ErrFlushLimit.
type ErrorHandler func(err error)

var errorHandler atomic.Pointer[ErrorHandler]

// SetErrorHandler installs h as the global error handler. A nil h restores
// the default, which logs through slog.Default().
func SetErrorHandler(h ErrorHandler) {
	if h == nil {
		errorHandler.Store(nil)
		return
	}
	errorHandler.Store(&h)
}

func reportError(err error) {
	if h := errorHandler.Load(); h != nil {
		(*h)(err)
		return
	}
	var effErr *EffectError
	if errors.As(err, &effErr) {
		slog.Error("reactive: effect failed during batch flush",
			"effect_id", effErr.EffectID,
			"effect", effErr.Name,
			"error", err,
		)
		return
	}
	slog.Error("reactive: flush error", "error", err)
}
