package applier

import (
	"slices"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// buildStatic creates a static element subtree from its template, building
// and storing the template on first use.
func (a *Applier) buildStatic(v *vdom.VNode) (host.Node, error) {
	h := vdom.Hash(v)

	if t, ok := a.templates[h]; ok {
		n, err := a.host.Clone(t.node)
		if err != nil {
			return nil, hostFailure("clone template", err)
		}
		if err := a.bind(v, n); err != nil {
			return nil, err
		}
		t.refs++
		a.instances[v.HID] = h
		a.stats.TemplateHits++
		return n, nil
	}

	n, err := a.buildFresh(v, false)
	if err != nil {
		return nil, err
	}
	tn, err := a.host.Clone(n)
	if err != nil {
		return nil, hostFailure("clone template", err)
	}
	a.templates[h] = &template{node: tn, refs: 1}
	a.instances[v.HID] = h
	a.stats.TemplateMisses++
	a.logger.Debug("applier: static template stored", "hash", h, "nodes", vdom.Count(v))
	return n, nil
}

// bind walks v and a clone of its template in parallel, registering each
// live node and installing event listeners, which clones do not carry.
func (a *Applier) bind(v *vdom.VNode, n host.Node) error {
	a.stats.Created++
	a.register(v, n)

	for _, key := range slices.Sorted(vdom.EventKeys(v.Props)) {
		if err := a.setProp(n, v.HID, key, v.Props[key]); err != nil {
			return err
		}
	}

	live := a.host.Children(n)
	if len(live) != len(v.Children) {
		return badPatch("template for <%s> has %d children, node has %d", v.Tag, len(live), len(v.Children))
	}
	for i, child := range v.Children {
		if err := a.bind(child, live[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) releaseTemplate(h uint64) {
	t, ok := a.templates[h]
	if !ok {
		return
	}
	t.refs--
	if t.refs <= 0 {
		delete(a.templates, h)
	}
}
