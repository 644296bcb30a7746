package applier

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Stats counts what an Applier did since it was created or Reset.
type Stats struct {
	Created        int // VNodes built into live nodes, template clones included
	Removed        int // Subtrees detached
	Replaced       int
	Updated        int // Update patches applied
	Moved          int // Host MoveChild calls
	TextSet        int
	PropsChanged   int
	TemplateHits   int
	TemplateMisses int
	Live           int // Entries in the identity cache
	Templates      int // Static templates held
}

// Option configures an Applier.
type Option func(*Applier)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applier) {
		a.logger = logger
	}
}

// WithIDPrefix sets the prefix of generated element IDs. The default is "h".
func WithIDPrefix(prefix string) Option {
	return func(a *Applier) {
		a.prefix = prefix
	}
}

// WithTemplates enables or disables the static template cache. It is
// enabled by default.
func WithTemplates(enabled bool) Option {
	return func(a *Applier) {
		a.useTemplates = enabled
	}
}

type template struct {
	node host.Node
	refs int
}

// Applier mutates a host tree according to vdom patches.
type Applier struct {
	host   host.Host
	logger *slog.Logger
	prefix string

	mu sync.Mutex

	// nodes is the identity cache.
	nodes map[string]host.Node

	// handlers holds the current event handlers per element ID. Host
	// listeners dispatch through it, so a handler can change without
	// touching the host.
	handlers map[string]map[string]any

	useTemplates bool
	templates    map[uint64]*template
	// instances maps the element ID of a static subtree root to its
	// template hash.
	instances map[string]uint64

	nextID uint64
	stats  Stats
}

// New creates an Applier for h.
func New(h host.Host, opts ...Option) *Applier {
	a := &Applier{
		host:         h,
		logger:       slog.Default(),
		prefix:       "h",
		nodes:        make(map[string]host.Node),
		handlers:     make(map[string]map[string]any),
		useTemplates: true,
		templates:    make(map[uint64]*template),
		instances:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Host returns the host the applier mutates.
func (a *Applier) Host() host.Host {
	return a.host
}

// Mount builds v and appends it to container. v and its descendants get
// fresh element IDs.
func (a *Applier) Mount(container host.Node, v *vdom.VNode) error {
	if container == nil {
		return ErrNoContainer
	}
	if err := vdom.Validate(v); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.build(v)
	if err != nil {
		return err
	}
	if err := a.host.InsertChild(container, n, len(a.host.Children(container))); err != nil {
		return hostFailure("mount", err)
	}
	return nil
}

// Apply applies patches, as returned by vdom.Diff, to the children of
// container.
func (a *Applier) Apply(container host.Node, patches []vdom.Patch) error {
	if container == nil {
		return ErrNoContainer
	}
	if len(patches) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applyChildren(container, patches)
}

// Node returns the live node for an element ID.
func (a *Applier) Node(hid string) (host.Node, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.nodes[hid]
	return n, ok
}

// Evict removes v and its descendants from the identity cache without
// touching the host.
func (a *Applier) Evict(v *vdom.VNode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.evict(v)
}

// Reset empties the identity cache, the handler table and the templates.
func (a *Applier) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.nodes)
	clear(a.handlers)
	clear(a.templates)
	clear(a.instances)
	a.stats = Stats{}
}

// Stats returns the applier counters.
func (a *Applier) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.Live = len(a.nodes)
	s.Templates = len(a.templates)
	return s
}

// Rebind refreshes the handler table from v, which must be the tree that
// was last applied. Handlers that the differ considered unchanged (same
// code, possibly different captured values) are replaced by the ones in v.
func (a *Applier) Rebind(v *vdom.VNode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	vdom.Walk(v, func(n *vdom.VNode) bool {
		if n.HID == "" || !n.IsInteractive() {
			return true
		}
		table := a.handlers[n.HID]
		for key, fn := range n.Props {
			if event := vdom.EventName(key); event != "" && table != nil {
				if _, ok := table[event]; ok {
					table[event] = fn
				}
			}
		}
		return true
	})
}

func (a *Applier) newID() string {
	a.nextID++
	return a.prefix + strconv.FormatUint(a.nextID, 10)
}

func (a *Applier) lookup(op string, v *vdom.VNode) (host.Node, error) {
	if v == nil {
		return nil, staleNode(op, "")
	}
	n, ok := a.nodes[v.HID]
	if !ok {
		return nil, staleNode(op, v.HID)
	}
	return n, nil
}

// build creates the live subtree for v and records it in the identity
// cache. The returned node is detached.
func (a *Applier) build(v *vdom.VNode) (host.Node, error) {
	if v.Static && v.Kind == vdom.KindElement && a.useTemplates {
		return a.buildStatic(v)
	}
	return a.buildFresh(v, true)
}

// buildFresh creates v node by node. Static descendants use templates only
// when nested is set.
func (a *Applier) buildFresh(v *vdom.VNode, nested bool) (host.Node, error) {
	a.stats.Created++

	if v.Kind == vdom.KindText {
		n, err := a.host.CreateText(v.Text)
		if err != nil {
			return nil, hostFailure("create text", err)
		}
		a.register(v, n)
		return n, nil
	}

	n, err := a.host.CreateElement(v.Tag)
	if err != nil {
		return nil, hostFailure("create <"+v.Tag+">", err)
	}
	a.register(v, n)

	for _, key := range slices.Sorted(maps.Keys(v.Props)) {
		if err := a.setProp(n, v.HID, key, v.Props[key]); err != nil {
			return nil, err
		}
	}
	for i, child := range v.Children {
		var c host.Node
		var err error
		if nested {
			c, err = a.build(child)
		} else {
			c, err = a.buildFresh(child, false)
		}
		if err != nil {
			return nil, err
		}
		if err := a.host.InsertChild(n, c, i); err != nil {
			return nil, hostFailure("insert child", err)
		}
	}
	return n, nil
}

func (a *Applier) register(v *vdom.VNode, n host.Node) {
	v.HID = a.newID()
	a.nodes[v.HID] = n
}

// evict drops v's subtree from the identity cache and the handler table
// and releases static templates.
func (a *Applier) evict(v *vdom.VNode) {
	vdom.Walk(v, func(n *vdom.VNode) bool {
		if n.HID == "" {
			return true
		}
		delete(a.nodes, n.HID)
		delete(a.handlers, n.HID)
		if h, ok := a.instances[n.HID]; ok {
			delete(a.instances, n.HID)
			a.releaseTemplate(h)
		}
		return true
	})
}
