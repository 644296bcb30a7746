package vtest

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	reconcile "github.com/vango-dev/reconcile"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Harness is a Root rendering into an in-memory host.
type Harness struct {
	t         testing.TB
	Mem       *host.Memory
	Container *host.Element
	Root      *reconcile.Root
}

// New creates a Harness. The root is disposed when the test ends.
func New(t testing.TB, opts ...reconcile.Option) *Harness {
	t.Helper()
	mem := host.NewMemory()
	container := mem.NewContainer("body")
	root := reconcile.New(mem, container, opts...)
	t.Cleanup(root.Dispose)
	return &Harness{t: t, Mem: mem, Container: container, Root: root}
}

// Update applies v and fails the test on error.
func (h *Harness) Update(v *vdom.VNode) {
	h.t.Helper()
	if err := h.Root.Update(v); err != nil {
		h.t.Fatalf("Update() error = %v", err)
	}
}

// Render renders view reactively and fails the test on error.
func (h *Harness) Render(view func() *vdom.VNode) {
	h.t.Helper()
	if err := h.Root.Render(view); err != nil {
		h.t.Fatalf("Render() error = %v", err)
	}
}

// Current returns the last applied tree.
func (h *Harness) Current() *vdom.VNode {
	return h.Root.Current()
}

// HTML returns the markup of the live tree.
func (h *Harness) HTML() string {
	return h.Mem.RenderChildren(h.Container)
}

// Node returns the live node of v, failing the test when there is none.
func (h *Harness) Node(v *vdom.VNode) host.Node {
	h.t.Helper()
	n, ok := h.Root.Applier().Node(v.HID)
	if !ok {
		h.t.Fatalf("no live node for element %q", v.HID)
	}
	return n
}

// Dispatch fires event on the live node of v.
func (h *Harness) Dispatch(v *vdom.VNode, event string, arg any) {
	h.t.Helper()
	if !h.Mem.Dispatch(h.Node(v), event, arg) {
		h.t.Fatalf("no %s listener on element %q", event, v.HID)
	}
}

// AssertConsistent checks that the live tree matches the last applied tree.
func (h *Harness) AssertConsistent() {
	h.t.Helper()
	live := h.Mem.Children(h.Container)
	current := h.Current()
	switch {
	case current == nil && len(live) == 0:
		return
	case current == nil || len(live) != 1:
		h.t.Fatalf("container has %d children, tree is %v", len(live), current)
	}
	AssertTreeEqual(h.t, h.Mem.Snapshot(live[0]), current)
}

// Normalize returns a copy of v without keys, element IDs and static
// flags, with every event prop replaced by true.
func Normalize(v *vdom.VNode) *vdom.VNode {
	if v == nil {
		return nil
	}
	out := vdom.Clone(v)
	vdom.Walk(out, func(n *vdom.VNode) bool {
		n.Key = ""
		n.HID = ""
		n.Static = false
		for _, key := range slices.Collect(vdom.EventKeys(n.Props)) {
			delete(n.Props, key)
			n.Props["on"+vdom.EventName(key)] = true
		}
		if len(n.Props) == 0 {
			n.Props = nil
		}
		return true
	})
	return out
}

// AssertTreeEqual fails the test when got and want differ after
// normalization.
func AssertTreeEqual(t testing.TB, got, want *vdom.VNode) {
	t.Helper()
	g, w := Normalize(got), Normalize(want)
	if vdom.Equal(g, w) {
		return
	}
	t.Errorf("trees differ\ngot:  %s\nwant: %s", truncate(toJSON(g), 2000), truncate(toJSON(w), 2000))
}

func toJSON(v *vdom.VNode) string {
	data, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// RenderToString mounts node into a fresh in-memory host and returns the
// markup.
//
// Example:
//
//	html := vtest.RenderToString(TodoList(items))
//	if !strings.Contains(html, "expected text") {
//	    t.Error("missing expected text")
//	}
func RenderToString(node *vdom.VNode) string {
	mem := host.NewMemory()
	container := mem.NewContainer("body")
	root := reconcile.New(mem, container)
	defer root.Dispose()
	if err := root.Mount(vdom.Clone(node)); err != nil {
		return ""
	}
	return mem.RenderChildren(container)
}

// ExpectContains asserts that rendered output contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, view(), "Welcome Admin")
func ExpectContains(t testing.TB, node *vdom.VNode, expected string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, node *vdom.VNode, unexpected string) {
	t.Helper()
	html := RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that rendered output contains a specific tag.
func ExpectElement(t testing.TB, node *vdom.VNode, tag string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
//
// Example:
//
//	vtest.ExpectAttribute(t, view(), "class", "btn-primary")
func ExpectAttribute(t testing.TB, node *vdom.VNode, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
