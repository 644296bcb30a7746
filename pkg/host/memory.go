package host

import (
	"maps"
	"slices"
	"sync"
)

// Element is a node of a Memory tree.
type Element struct {
	id     uint64
	tag    string
	text   string
	isText bool

	attrs     map[string]any
	listeners map[string]Listener
	state     map[string]any

	parent   *Element
	children []*Element
}

// ID returns the identity of the element. IDs are never reused.
func (e *Element) ID() uint64 { return e.id }

// Tag returns the tag, or "" for a text node.
func (e *Element) Tag() string { return e.tag }

// IsText reports whether e is a text node.
func (e *Element) IsText() bool { return e.isText }

// Parent returns the parent element, or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// MemoryStats counts the operations a Memory host performed.
type MemoryStats struct {
	Created   int // Elements and text nodes created, clones included
	Inserted  int
	Removed   int
	Moved     int
	AttrSets  int
	TextSets  int
	Listeners int // SetListener calls
}

// Memory is an in-memory Host. It is safe for concurrent use: tooling may
// render or snapshot the tree while the engine mutates it.
type Memory struct {
	mu     sync.RWMutex
	nextID uint64
	stats  MemoryStats
}

// NewMemory creates an empty in-memory host.
func NewMemory() *Memory {
	return &Memory{}
}

// NewContainer creates a detached element to mount trees into. It is not
// counted in the stats.
func (m *Memory) NewContainer(tag string) *Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return &Element{id: m.nextID, tag: tag}
}

// Stats returns the operation counters.
func (m *Memory) Stats() MemoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// ResetStats zeroes the operation counters.
func (m *Memory) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = MemoryStats{}
}

func (m *Memory) newElement() *Element {
	m.nextID++
	m.stats.Created++
	return &Element{id: m.nextID}
}

func element(n Node) (*Element, error) {
	e, ok := n.(*Element)
	if !ok || e == nil {
		return nil, hostError("not a memory element: %T", n)
	}
	return e, nil
}

func (m *Memory) CreateElement(tag string) (Node, error) {
	if tag == "" {
		return nil, hostError("empty tag")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.newElement()
	e.tag = tag
	return e, nil
}

func (m *Memory) CreateText(text string) (Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.newElement()
	e.isText = true
	e.text = text
	return e, nil
}

func (m *Memory) SetAttribute(n Node, key string, value any) error {
	e, err := element(n)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.isText {
		return hostError("set attribute %q on text node", key)
	}
	if e.attrs == nil {
		e.attrs = make(map[string]any)
	}
	e.attrs[key] = value
	m.stats.AttrSets++
	return nil
}

func (m *Memory) RemoveAttribute(n Node, key string) error {
	e, err := element(n)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(e.attrs, key)
	return nil
}

func (m *Memory) SetListener(n Node, event string, fn Listener) error {
	e, err := element(n)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string]Listener)
	}
	e.listeners[event] = fn
	m.stats.Listeners++
	return nil
}

func (m *Memory) RemoveListener(n Node, event string) error {
	e, err := element(n)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(e.listeners, event)
	return nil
}

func (m *Memory) InsertChild(parent, child Node, index int) error {
	p, err := element(parent)
	if err != nil {
		return err
	}
	c, err := element(child)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.isText {
		return hostError("insert into text node")
	}
	if c.parent != nil {
		return hostError("node %d is already attached to %d", c.id, c.parent.id)
	}
	if index < 0 || index > len(p.children) {
		index = len(p.children)
	}
	p.children = slices.Insert(p.children, index, c)
	c.parent = p
	m.stats.Inserted++
	return nil
}

func (m *Memory) RemoveChild(parent, child Node) error {
	p, err := element(parent)
	if err != nil {
		return err
	}
	c, err := element(child)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(p.children, c)
	if i < 0 {
		return hostError("node %d is not a child of %d", c.id, p.id)
	}
	p.children = slices.Delete(p.children, i, i+1)
	c.parent = nil
	m.stats.Removed++
	return nil
}

func (m *Memory) MoveChild(parent, child Node, index int) error {
	p, err := element(parent)
	if err != nil {
		return err
	}
	c, err := element(child)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(p.children, c)
	if i < 0 {
		return hostError("node %d is not a child of %d", c.id, p.id)
	}
	if index < 0 || index >= len(p.children) {
		index = len(p.children) - 1
	}
	if i == index {
		return nil
	}
	p.children = slices.Delete(p.children, i, i+1)
	p.children = slices.Insert(p.children, index, c)
	m.stats.Moved++
	return nil
}

func (m *Memory) SetText(n Node, text string) error {
	e, err := element(n)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !e.isText {
		return hostError("set text on <%s>", e.tag)
	}
	e.text = text
	m.stats.TextSets++
	return nil
}

func (m *Memory) Clone(n Node) (Node, error) {
	e, err := element(n)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clone(e), nil
}

func (m *Memory) clone(e *Element) *Element {
	c := m.newElement()
	c.tag = e.tag
	c.text = e.text
	c.isText = e.isText
	if len(e.attrs) > 0 {
		c.attrs = maps.Clone(e.attrs)
	}
	for _, child := range e.children {
		cc := m.clone(child)
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

func (m *Memory) Children(n Node) []Node {
	e, err := element(n)
	if err != nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Node, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}

// Attr returns an attribute value.
func (m *Memory) Attr(e *Element, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := e.attrs[key]
	return v, ok
}

// Text returns the content of a text node.
func (m *Memory) Text(e *Element) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return e.text
}

// Listeners returns the events e has listeners for, sorted.
func (m *Memory) Listeners(e *Element) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.listeners))
}

// Dispatch calls the listener for event on n with arg. It reports whether
// a listener was installed. The listener runs without the host lock held,
// so it may update the tree.
func (m *Memory) Dispatch(n Node, event string, arg any) bool {
	e, err := element(n)
	if err != nil {
		return false
	}
	m.mu.RLock()
	fn := e.listeners[event]
	m.mu.RUnlock()
	if fn == nil {
		return false
	}
	fn(arg)
	return true
}

// SetState attaches transient host state to a node, the way a real UI
// keeps focus, selection or scroll position on the live node.
func (m *Memory) SetState(n Node, key string, value any) {
	e, err := element(n)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.state == nil {
		e.state = make(map[string]any)
	}
	e.state[key] = value
}

// State returns transient host state set with SetState.
func (m *Memory) State(n Node, key string) (any, bool) {
	e, err := element(n)
	if err != nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := e.state[key]
	return v, ok
}

var _ Host = (*Memory)(nil)
