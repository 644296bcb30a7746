package reconcile

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/reactive"
	"github.com/vango-dev/reconcile/pkg/telemetry"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func newRoot(t *testing.T, opts ...Option) (*Root, *host.Memory, *host.Element) {
	t.Helper()
	mem := host.NewMemory()
	container := mem.NewContainer("body")
	r := New(mem, container, opts...)
	t.Cleanup(r.Dispose)
	return r, mem, container
}

func todoList(items ...string) *vdom.VNode {
	return vdom.Ul(vdom.Range(items, func(item string, _ int) *vdom.VNode {
		return vdom.Li(vdom.Key(item), vdom.Text(item))
	}))
}

func TestMountAndUpdate(t *testing.T) {
	r, mem, container := newRoot(t)

	if err := r.Mount(todoList("a", "b")); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	first := r.Current().Children[0]
	live, _ := r.Applier().Node(first.HID)

	if err := r.Update(todoList("b", "a", "c")); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := mem.RenderChildren(container); got != "<ul><li>b</li><li>a</li><li>c</li></ul>" {
		t.Errorf("html = %s", got)
	}

	// "a" moved to index 1 and kept its live node.
	moved := r.Current().Children[1]
	if moved.HID != first.HID {
		t.Errorf("HID of a = %q, want %q", moved.HID, first.HID)
	}
	if n, _ := r.Applier().Node(moved.HID); n != live {
		t.Error("live node of a was recreated")
	}

	if err := r.Mount(vdom.Div()); err == nil {
		t.Error("second Mount succeeded")
	}
}

func TestUpdateDiffErrorKeepsTree(t *testing.T) {
	r, mem, container := newRoot(t)
	if err := r.Mount(todoList("a")); err != nil {
		t.Fatal(err)
	}
	before := r.Current()

	err := r.Update(todoList("x", "x"))
	if !errors.Is(err, vdom.ErrDuplicateKey) {
		t.Fatalf("Update() error = %v, want ErrDuplicateKey", err)
	}
	if r.Current() != before {
		t.Error("Current changed after a failed diff")
	}
	if got := mem.RenderChildren(container); got != "<ul><li>a</li></ul>" {
		t.Errorf("html = %s", got)
	}
}

// failingHost fails InsertChild once armed.
type failingHost struct {
	*host.Memory
	armed bool
}

func (h *failingHost) InsertChild(parent, child host.Node, index int) error {
	if h.armed {
		return errors.New("insert refused")
	}
	return h.Memory.InsertChild(parent, child, index)
}

func TestUpdateApplyErrorClears(t *testing.T) {
	mem := host.NewMemory()
	fh := &failingHost{Memory: mem}
	container := mem.NewContainer("body")
	r := New(fh, container)
	defer r.Dispose()

	if err := r.Mount(todoList("a")); err != nil {
		t.Fatal(err)
	}
	fh.armed = true
	if err := r.Update(todoList("a", "b")); err == nil {
		t.Fatal("Update() succeeded with a failing host")
	}
	if r.Current() != nil || mem.RenderChildren(container) != "" {
		t.Error("container was not cleared after a failed apply")
	}

	fh.armed = false
	if err := r.Update(todoList("a", "b")); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if got := mem.RenderChildren(container); got != "<ul><li>a</li><li>b</li></ul>" {
		t.Errorf("html = %s", got)
	}
}

func TestRenderReactsToSignals(t *testing.T) {
	r, mem, container := newRoot(t)
	count := reactive.NewSignal(0)
	label := reactive.NewSignal("Count")

	renders := 0
	err := r.Render(func() *vdom.VNode {
		renders++
		return vdom.Button(
			vdom.OnClick(func() { count.Update(func(n int) int { return n + 1 }) }),
			vdom.Textf("%s: %d", label.Get(), count.Get()),
		)
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	btn, _ := r.Applier().Node(r.Current().HID)

	mem.Dispatch(btn, "click", nil)
	mem.Dispatch(btn, "click", nil)
	if got := mem.RenderChildren(container); got != `<button data-on-click="true">Count: 2</button>` {
		t.Errorf("html = %s", got)
	}

	reactive.Batch(func() {
		count.Set(10)
		label.Set("Total")
	})
	if got := mem.RenderChildren(container); !strings.Contains(got, "Total: 10") {
		t.Errorf("html = %s", got)
	}
	if renders != 4 {
		t.Errorf("renders = %d, want 4", renders)
	}

	// The button was patched in place the whole time.
	if n, _ := r.Applier().Node(r.Current().HID); n != btn {
		t.Error("button was recreated")
	}
}

func TestRenderErrors(t *testing.T) {
	r, _, _ := newRoot(t)

	err := r.Render(func() *vdom.VNode { return todoList("a", "a") })
	if !errors.Is(err, vdom.ErrDuplicateKey) {
		t.Fatalf("Render() error = %v, want ErrDuplicateKey", err)
	}

	items := reactive.NewSignal([]string{"a"})
	if err := r.Render(func() *vdom.VNode { return todoList(items.Get()...) }); err != nil {
		t.Fatal(err)
	}

	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, vdom.ErrDuplicateKey) {
			t.Errorf("Set() panic = %v, want a duplicate key error", rec)
		}
	}()
	items.Set([]string{"b", "b"})
}

func TestDispose(t *testing.T) {
	r, mem, container := newRoot(t)
	n := reactive.NewSignal(1)
	if err := r.Render(func() *vdom.VNode { return vdom.P(vdom.Textf("%d", n.Get())) }); err != nil {
		t.Fatal(err)
	}

	r.Dispose()
	r.Dispose()

	if got := mem.RenderChildren(container); got != "" {
		t.Errorf("html after Dispose = %s", got)
	}
	if n.SubscriberCount() != 0 {
		t.Error("render effect still subscribed")
	}
	n.Set(2)
	if err := r.Update(vdom.Div()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Update() error = %v, want ErrDisposed", err)
	}
	if err := r.Render(func() *vdom.VNode { return nil }); !errors.Is(err, ErrDisposed) {
		t.Errorf("Render() error = %v, want ErrDisposed", err)
	}
}

func TestOnFrame(t *testing.T) {
	r, _, _ := newRoot(t)
	var frames []Frame
	r.OnFrame(func(f Frame) {
		frames = append(frames, f)
		_ = r.Current() // listeners may call back into the root
	})

	_ = r.Mount(vdom.P(vdom.Text("a")))
	_ = r.Update(vdom.P(vdom.Text("b")))

	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[1].Seq != 2 || len(frames[1].Patches) != 1 {
		t.Errorf("second frame = %+v", frames[1])
	}
}

func TestWithConfigAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := config.New()
	cfg.Engine.IDPrefix = "x"
	cfg.Engine.Diff.CoalesceMoves = true

	r, _, _ := newRoot(t,
		WithConfig(cfg.Engine),
		WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
		WithTracer(telemetry.Tracer()),
	)
	if err := r.Mount(todoList("a", "b", "c")); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(r.Current().HID, "x") {
		t.Errorf("HID = %q, want prefix x", r.Current().HID)
	}
	if err := r.Update(todoList("c", "b", "a")); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{"reconcile_patches_total", "reconcile_diff_duration_seconds", "reconcile_live_nodes"} {
		if !found[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestOnFrameListenersSnapshot(t *testing.T) {
	r, _, _ := newRoot(t)
	var outer, inner int
	r.OnFrame(func(Frame) {
		outer++
		if outer == 1 {
			r.OnFrame(func(Frame) { inner++ })
		}
	})

	_ = r.Mount(vdom.P(vdom.Text("a")))
	if inner != 0 {
		t.Errorf("listener added during a frame ran in that frame")
	}
	_ = r.Update(vdom.P(vdom.Text("b")))
	if outer != 2 || inner != 1 {
		t.Errorf("outer = %d, inner = %d, want 2 and 1", outer, inner)
	}
}
