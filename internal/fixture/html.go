package fixture

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// ParseHTML decodes an HTML fragment. Every top-level element is one tree.
// Whitespace-only text is dropped and other text is trimmed. A key
// attribute sets the node key and a static attribute marks the subtree
// static; every other attribute becomes a string prop.
func ParseHTML(file string, data []byte) ([]*vdom.VNode, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(data), body)
	if err != nil {
		return nil, rerrors.New(rerrors.CodeInvalidFixture).
			WithDetail(err.Error()).
			WithLocation(file, 0, 0)
	}

	var frames []*vdom.VNode
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		v := fromHTML(n)
		if err := vdom.Validate(v); err != nil {
			return nil, rerrors.New(rerrors.CodeInvalidFixture).
				WithLocation(file, 0, 0).
				Wrap(err)
		}
		frames = append(frames, v)
	}
	if len(frames) == 0 {
		return nil, rerrors.New(rerrors.CodeInvalidFixture).
			WithDetail("no element found").
			WithLocation(file, 0, 0)
	}
	return frames, nil
}

func fromHTML(n *html.Node) *vdom.VNode {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return nil
		}
		return vdom.Text(text)
	case html.ElementNode:
		v := &vdom.VNode{
			Kind:  vdom.KindElement,
			Tag:   n.Data,
			Props: make(vdom.Props, len(n.Attr)),
		}
		for _, a := range n.Attr {
			switch a.Key {
			case "key":
				v.Key = a.Val
			case "static":
				v.Static = true
			default:
				v.Props[a.Key] = a.Val
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				v.Children = append(v.Children, child)
			}
		}
		return v
	}
	// comments and doctypes
	return nil
}

func isHTML(path string) bool {
	path = strings.ToLower(path)
	return strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm")
}
