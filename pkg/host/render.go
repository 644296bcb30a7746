package host

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// booleanAttrs render without a value when true and are omitted when false.
var booleanAttrs = map[string]bool{
	"autofocus": true,
	"checked":   true,
	"disabled":  true,
	"hidden":    true,
	"multiple":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
}

// Render serializes the tree under n as HTML-like markup. Attributes are
// sorted and listeners are shown as data-on-<event> markers, so the output
// is deterministic and suited for golden comparisons.
func (m *Memory) Render(n Node) string {
	e, err := element(n)
	if err != nil {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	renderElement(&b, e)
	return b.String()
}

// RenderChildren is Render for the children of a container, without the
// container's own tag.
func (m *Memory) RenderChildren(n Node) string {
	e, err := element(n)
	if err != nil {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	for _, c := range e.children {
		renderElement(&b, c)
	}
	return b.String()
}

func renderElement(b *strings.Builder, e *Element) {
	if e.isText {
		b.WriteString(escapeHTML(e.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(e.tag)
	for _, key := range slices.Sorted(maps.Keys(e.attrs)) {
		value := e.attrs[key]
		if booleanAttrs[key] {
			if on, ok := value.(bool); ok {
				if on {
					b.WriteString(" " + key)
				}
				continue
			}
		}
		fmt.Fprintf(b, ` %s="%s"`, key, escapeAttr(attrToString(value)))
	}
	for _, event := range slices.Sorted(maps.Keys(e.listeners)) {
		fmt.Fprintf(b, ` data-on-%s="true"`, event)
	}
	b.WriteByte('>')

	if vdom.IsVoidElement(e.tag) && len(e.children) == 0 {
		return
	}
	for _, c := range e.children {
		renderElement(b, c)
	}
	fmt.Fprintf(b, "</%s>", e.tag)
}

func attrToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// escapeHTML escapes text for inclusion in markup.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for inclusion in a quoted attribute value.
func escapeAttr(s string) string {
	s = escapeHTML(s)
	return strings.NewReplacer(`"`, "&quot;", "\n", "&#10;", "\t", "&#9;").Replace(s)
}

// Snapshot converts the live tree under n back into a VNode tree. Attribute
// values are copied as they are. Listeners become props mapping "on"+event
// to true, so a snapshot records which events are bound but not to what.
// Each VNode's HID is empty; use the applier to map nodes to HIDs.
func (m *Memory) Snapshot(n Node) *vdom.VNode {
	e, err := element(n)
	if err != nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshot(e)
}

func snapshot(e *Element) *vdom.VNode {
	if e.isText {
		return vdom.Text(e.text)
	}
	v := &vdom.VNode{
		Kind:  vdom.KindElement,
		Tag:   e.tag,
		Props: make(vdom.Props, len(e.attrs)+len(e.listeners)),
	}
	for k, val := range e.attrs {
		v.Props[k] = val
	}
	for event := range e.listeners {
		v.Props["on"+event] = true
	}
	for _, c := range e.children {
		v.Children = append(v.Children, snapshot(c))
	}
	return v
}
