package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/applier"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/reactive"
	"github.com/vango-dev/reconcile/pkg/telemetry"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// ErrDisposed is returned by a Root that was disposed.
var ErrDisposed = errors.New(errors.CodeDisposed)

// =============================================================================
// Options
// =============================================================================

// Option configures a Root.
type Option func(*Root)

// WithLogger sets the logger used by the root and its applier.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Root) {
		r.logger = logger
	}
}

// WithMetrics records diff and apply activity in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Root) {
		r.metrics = m
	}
}

// WithTracer traces every update. Without it updates are not traced.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Root) {
		r.tracer = tracer
	}
}

// WithDiffOptions sets the differ options.
func WithDiffOptions(opts vdom.Options) Option {
	return func(r *Root) {
		r.diffOpts = opts
	}
}

// WithConfig applies the engine section of a config file: diff options,
// template cache, element ID prefix and the effect flush limit. The flush
// limit is process-wide.
func WithConfig(cfg config.Engine) Option {
	return func(r *Root) {
		r.diffOpts = cfg.DiffOptions()
		r.applierOpts = append(r.applierOpts,
			applier.WithTemplates(cfg.Templates),
			applier.WithIDPrefix(cfg.IDPrefix),
		)
		if cfg.MaxFlushPasses > 0 {
			reactive.SetMaxFlushPasses(cfg.MaxFlushPasses)
		}
	}
}

// WithContext sets the parent context of update spans.
func WithContext(ctx context.Context) Option {
	return func(r *Root) {
		r.ctx = ctx
	}
}

// =============================================================================
// Root
// =============================================================================

// Frame describes one applied update.
type Frame struct {
	Seq      uint64
	Patches  []vdom.Patch
	Tree     *vdom.VNode
	Duration time.Duration
}

var rootSeq atomic.Uint64

// Root owns one container of a host tree and the virtual tree rendered
// into it.
type Root struct {
	id        string
	host      host.Host
	container host.Node

	applier     *applier.Applier
	applierOpts []applier.Option
	differ      *vdom.Differ
	diffOpts    vdom.Options

	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	ctx     context.Context

	mu       sync.Mutex
	current  *vdom.VNode
	seq      uint64
	disposed bool

	// owner disposes everything created by Render. scope is the owner of
	// the current Render.
	owner *reactive.Owner
	scope *reactive.Owner

	listenersMu sync.Mutex
	listeners   []func(Frame)
}

// New creates a Root rendering into container.
func New(h host.Host, container host.Node, opts ...Option) *Root {
	r := &Root{
		id:        "r" + strconv.FormatUint(rootSeq.Add(1), 10),
		host:      h,
		container: container,
		diffOpts:  vdom.DefaultOptions(),
		logger:    slog.Default(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("root", r.id)
	r.differ = vdom.NewDiffer(r.diffOpts)
	r.applier = applier.New(h, append([]applier.Option{applier.WithLogger(r.logger)}, r.applierOpts...)...)
	r.owner = reactive.NewOwner(nil)
	return r
}

// ID returns the root's identifier, used in logs and spans.
func (r *Root) ID() string {
	return r.id
}

// Applier returns the applier that owns the identity cache.
func (r *Root) Applier() *applier.Applier {
	return r.applier
}

// Container returns the container node.
func (r *Root) Container() host.Node {
	return r.container
}

// Current returns the last applied tree. It must not be modified.
func (r *Root) Current() *vdom.VNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// OnFrame registers fn to be called after each applied update.
func (r *Root) OnFrame(fn func(Frame)) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Mount renders v into an empty root. Use Update for later trees.
func (r *Root) Mount(v *vdom.VNode) error {
	r.mu.Lock()
	mounted := r.current != nil
	r.mu.Unlock()
	if mounted {
		return fmt.Errorf("reconcile: root %s is already mounted", r.id)
	}
	return r.Update(v)
}

// Update makes the live tree match next. On a diff error the live tree is
// left untouched. On an apply error the live tree is in an unknown state;
// the root clears the container so that the next Update rebuilds it.
func (r *Root) Update(next *vdom.VNode) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrDisposed
	}

	_, span := telemetry.StartSpan(r.ctx, r.tracer, "update", telemetry.AttrRoot.String(r.id))
	frame, err := r.update(next)
	r.mu.Unlock()
	if err == nil {
		span.SetAttributes(telemetry.PatchAttributes(frame.Patches)...)
	}
	telemetry.EndSpan(span, err)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError(err)
		}
		return err
	}

	r.emit(frame)
	return nil
}

func (r *Root) update(next *vdom.VNode) (Frame, error) {
	start := time.Now()
	patches, err := r.differ.Diff(r.current, next)
	diffTime := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveDiff(diffTime)
	}
	if err != nil {
		r.logger.Warn("reconcile: diff failed", "error", err)
		return Frame{}, err
	}

	applyStart := time.Now()
	if err := r.applier.Apply(r.container, patches); err != nil {
		r.logger.Error("reconcile: apply failed, clearing container", "error", err, "patches", len(patches))
		r.clear()
		return Frame{}, err
	}
	r.applier.Rebind(next)
	applyTime := time.Since(applyStart)

	if r.metrics != nil {
		r.metrics.RecordPatches(patches)
		r.metrics.ObserveApply(applyTime, r.applier.Stats().Live)
	}

	r.current = next
	r.seq++
	r.logger.Debug("reconcile: update applied",
		"seq", r.seq,
		"patches", len(patches),
		"diff", diffTime,
		"apply", applyTime)

	return Frame{
		Seq:      r.seq,
		Patches:  patches,
		Tree:     next,
		Duration: time.Since(start),
	}, nil
}

// clear detaches every child of the container and forgets all live nodes.
func (r *Root) clear() {
	for _, n := range r.host.Children(r.container) {
		if err := r.host.RemoveChild(r.container, n); err != nil {
			r.logger.Warn("reconcile: clear failed", "error", err)
		}
	}
	r.applier.Reset()
	r.current = nil
}

func (r *Root) emit(f Frame) {
	r.listenersMu.Lock()
	listeners := slices.Clone(r.listeners)
	r.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(f)
	}
}

// Render mounts view and re-renders it whenever a signal or computed it
// read changes. A previous Render of the same root is replaced.
//
// The first render error is returned. Later errors panic out of the
// signal write that caused them, or reach the reactive error handler when
// the write happened inside Batch.
func (r *Root) Render(view func() *vdom.VNode) (err error) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrDisposed
	}
	prev := r.scope
	scope := reactive.NewOwner(r.owner)
	r.scope = scope
	r.mu.Unlock()
	if prev != nil {
		prev.Dispose()
	}

	defer func() {
		if rec := recover(); rec != nil {
			scope.Dispose()
			if e, ok := rec.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("reconcile: render panicked: %v", rec)
		}
	}()

	reactive.WithOwner(scope, func() {
		reactive.CreateEffect(func() {
			next := view()
			reactive.Untracked(func() {
				if err := r.Update(next); err != nil {
					panic(err)
				}
			})
		}, reactive.EffectName("render "+r.id))
	})
	return nil
}

// Dispose stops rendering, removes the tree from the container and clears
// the identity cache. Dispose is idempotent.
func (r *Root) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	r.mu.Unlock()

	r.owner.Dispose()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		patches, _ := r.differ.Diff(r.current, nil)
		if err := r.applier.Apply(r.container, patches); err != nil {
			r.logger.Warn("reconcile: dispose failed", "error", err)
		}
	}
	r.applier.Reset()
	r.current = nil
	r.logger.Debug("reconcile: root disposed")
}
