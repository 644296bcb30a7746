package host

import (
	"errors"
	"testing"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

func mustElement(t *testing.T, m *Memory, tag string) *Element {
	t.Helper()
	n, err := m.CreateElement(tag)
	if err != nil {
		t.Fatalf("CreateElement(%q) error = %v", tag, err)
	}
	return n.(*Element)
}

func mustText(t *testing.T, m *Memory, text string) *Element {
	t.Helper()
	n, err := m.CreateText(text)
	if err != nil {
		t.Fatalf("CreateText(%q) error = %v", text, err)
	}
	return n.(*Element)
}

func TestMemoryBuildAndRender(t *testing.T) {
	m := NewMemory()
	root := m.NewContainer("body")

	div := mustElement(t, m, "div")
	_ = m.SetAttribute(div, "class", "card")
	_ = m.SetAttribute(div, "hidden", false)
	_ = m.SetAttribute(div, "data-n", 3)
	_ = m.SetListener(div, "click", func(any) {})
	_ = m.InsertChild(div, mustText(t, m, "a < b"), 0)
	_ = m.InsertChild(div, mustElement(t, m, "br"), 1)
	_ = m.InsertChild(root, div, 0)

	want := `<div class="card" data-n="3" data-on-click="true">a &lt; b<br></div>`
	if got := m.RenderChildren(root); got != want {
		t.Errorf("RenderChildren() =\n%s\nwant\n%s", got, want)
	}
	if got := m.Render(root); got != "<body>"+want+"</body>" {
		t.Errorf("Render() = %s", got)
	}
}

func TestMemoryInsertRemoveMove(t *testing.T) {
	m := NewMemory()
	root := m.NewContainer("ul")
	a, b, c := mustElement(t, m, "a"), mustElement(t, m, "b"), mustElement(t, m, "c")

	_ = m.InsertChild(root, a, 0)
	_ = m.InsertChild(root, c, 5) // past the end appends
	_ = m.InsertChild(root, b, 1)
	if got := m.RenderChildren(root); got != "<a></a><b></b><c></c>" {
		t.Fatalf("after insert: %s", got)
	}

	if err := m.MoveChild(root, c, 0); err != nil {
		t.Fatal(err)
	}
	if got := m.RenderChildren(root); got != "<c></c><a></a><b></b>" {
		t.Errorf("after move: %s", got)
	}

	if err := m.RemoveChild(root, a); err != nil {
		t.Fatal(err)
	}
	if a.Parent() != nil {
		t.Error("removed node still has a parent")
	}
	if got := m.RenderChildren(root); got != "<c></c><b></b>" {
		t.Errorf("after remove: %s", got)
	}

	if err := m.RemoveChild(root, a); !errors.Is(err, ErrHostFailure) {
		t.Errorf("removing a detached node: err = %v", err)
	}
	if err := m.InsertChild(root, b, 0); !errors.Is(err, ErrHostFailure) {
		t.Errorf("inserting an attached node: err = %v", err)
	}

	s := m.Stats()
	if s.Inserted != 3 || s.Moved != 1 || s.Removed != 1 || s.Created != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestMemoryMovePreservesState(t *testing.T) {
	m := NewMemory()
	root := m.NewContainer("div")
	input := mustElement(t, m, "input")
	other := mustElement(t, m, "span")
	_ = m.InsertChild(root, input, 0)
	_ = m.InsertChild(root, other, 1)

	m.SetState(input, "focused", true)
	_ = m.MoveChild(root, input, 1)

	if v, ok := m.State(input, "focused"); !ok || v != true {
		t.Error("move dropped transient state")
	}
	if IndexOf(m, root, input) != 1 {
		t.Errorf("IndexOf() = %d, want 1", IndexOf(m, root, input))
	}
}

func TestMemoryDispatch(t *testing.T) {
	m := NewMemory()
	btn := mustElement(t, m, "button")

	var got any
	_ = m.SetListener(btn, "click", func(arg any) { got = arg })
	if !m.Dispatch(btn, "click", 42) || got != 42 {
		t.Errorf("Dispatch: got = %v", got)
	}
	if m.Dispatch(btn, "input", nil) {
		t.Error("Dispatch reported a missing listener as handled")
	}

	_ = m.RemoveListener(btn, "click")
	if m.Dispatch(btn, "click", 1) {
		t.Error("listener still installed after RemoveListener")
	}
}

func TestMemoryCloneDropsListenersAndState(t *testing.T) {
	m := NewMemory()
	div := mustElement(t, m, "div")
	_ = m.SetAttribute(div, "class", "x")
	_ = m.SetListener(div, "click", func(any) {})
	m.SetState(div, "scroll", 10)
	_ = m.InsertChild(div, mustText(t, m, "hi"), 0)

	n, err := m.Clone(div)
	if err != nil {
		t.Fatal(err)
	}
	c := n.(*Element)
	if c == div || c.ID() == div.ID() {
		t.Fatal("clone shares identity")
	}
	if got := m.Render(c); got != `<div class="x">hi</div>` {
		t.Errorf("clone = %s", got)
	}
	if _, ok := m.State(c, "scroll"); ok {
		t.Error("clone copied transient state")
	}
	if len(m.Listeners(c)) != 0 {
		t.Error("clone copied listeners")
	}
}

func TestMemoryErrors(t *testing.T) {
	m := NewMemory()
	text := mustText(t, m, "x")
	div := mustElement(t, m, "div")

	if _, err := m.CreateElement(""); !errors.Is(err, ErrHostFailure) {
		t.Errorf("empty tag: err = %v", err)
	}
	if err := m.SetText(div, "y"); !errors.Is(err, ErrHostFailure) {
		t.Errorf("SetText on element: err = %v", err)
	}
	if err := m.SetAttribute(text, "a", 1); !errors.Is(err, ErrHostFailure) {
		t.Errorf("attribute on text: err = %v", err)
	}
	if err := m.InsertChild(text, div, 0); !errors.Is(err, ErrHostFailure) {
		t.Errorf("insert into text: err = %v", err)
	}
	if err := m.SetText("not a node", "y"); !errors.Is(err, ErrHostFailure) {
		t.Errorf("foreign node: err = %v", err)
	}
}

func TestMemorySnapshot(t *testing.T) {
	m := NewMemory()
	root := m.NewContainer("div")
	li := mustElement(t, m, "li")
	_ = m.SetAttribute(li, "class", "item")
	_ = m.SetListener(li, "click", func(any) {})
	_ = m.InsertChild(li, mustText(t, m, "one"), 0)
	_ = m.InsertChild(root, li, 0)

	got := m.Snapshot(root)
	want := vdom.Div(vdom.Li(vdom.Class("item"), vdom.Attribute("onclick", true), vdom.Text("one")))
	if !vdom.Equal(got, want) {
		t.Errorf("Snapshot() = %s, want %s", m.Render(root), want.Tag)
	}
}
