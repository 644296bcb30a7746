// Package fixture reads and writes virtual trees as YAML or JSON.
//
// A node is a mapping with either a text key or a tag key:
//
//	tag: ul
//	props: {class: todo}
//	children:
//	  - tag: li
//	    key: a
//	    children: [Buy milk]     # a bare string is a text node
//	  - tag: li
//	    key: b
//	    static: true
//	    children:
//	      - text: Walk dog
//
// Event props (onclick, oninput, ...) keep their value, usually the name
// of the handler, which is enough to diff and inspect trees.
//
// A file may contain several YAML documents. LoadFrames returns one tree
// per document; Load requires exactly one. Files ending in .html are read
// with ParseHTML instead, one tree per top-level element.
package fixture

import (
	"bytes"
	"errors"
	"io"
	"os"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// ErrInvalid is returned for documents that do not describe a tree.
var ErrInvalid = rerrors.New(rerrors.CodeInvalidFixture)

// Load reads the single tree in path.
func Load(path string) (*vdom.VNode, error) {
	frames, err := LoadFrames(path)
	if err != nil {
		return nil, err
	}
	if len(frames) != 1 {
		return nil, rerrors.New(rerrors.CodeInvalidFixture).
			WithDetailf("expected one tree, found %d", len(frames)).
			WithLocation(path, 1, 0)
	}
	return frames[0], nil
}

// LoadFrames reads every tree in path. "-" reads standard input.
func LoadFrames(path string) ([]*vdom.VNode, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, rerrors.New(rerrors.CodeFixtureRead).WithDetail(path).Wrap(err)
	}
	if isHTML(path) {
		return ParseHTML(path, data)
	}
	return Parse(path, data)
}

// Parse decodes every document of data. file is only used in errors.
func Parse(file string, data []byte) ([]*vdom.VNode, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var frames []*vdom.VNode
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rerrors.New(rerrors.CodeInvalidFixture).
				WithDetail(err.Error()).
				WithLocation(file, 0, 0)
		}
		if len(doc.Content) == 0 {
			continue
		}
		p := parser{file: file}
		v, err := p.node(doc.Content[0])
		if err != nil {
			return nil, err
		}
		frames = append(frames, v)
	}
	if len(frames) == 0 {
		return nil, rerrors.New(rerrors.CodeInvalidFixture).
			WithDetail("no tree found").
			WithLocation(file, 0, 0)
	}
	return frames, nil
}

type parser struct {
	file string
}

func (p parser) errorf(n *yaml.Node, format string, args ...any) error {
	return rerrors.New(rerrors.CodeInvalidFixture).
		WithDetailf(format, args...).
		WithLocation(p.file, n.Line, n.Column)
}

func (p parser) node(n *yaml.Node) (*vdom.VNode, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return vdom.Text(n.Value), nil
	case yaml.MappingNode:
	default:
		return nil, p.errorf(n, "a node must be a mapping or a string")
	}

	v := &vdom.VNode{}
	var hasText, hasTag bool
	var children *yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "tag":
			hasTag = true
			v.Tag = val.Value
		case "text":
			hasText = true
			v.Kind = vdom.KindText
			v.Text = val.Value
		case "key":
			v.Key = val.Value
		case "static":
			if err := val.Decode(&v.Static); err != nil {
				return nil, p.errorf(val, "static must be a boolean")
			}
		case "props":
			if val.Kind != yaml.MappingNode {
				return nil, p.errorf(val, "props must be a mapping")
			}
			props := make(vdom.Props, len(val.Content)/2)
			for j := 0; j+1 < len(val.Content); j += 2 {
				var pv any
				if err := val.Content[j+1].Decode(&pv); err != nil {
					return nil, p.errorf(val.Content[j+1], "prop %s: %v", val.Content[j].Value, err)
				}
				props[val.Content[j].Value] = pv
			}
			v.Props = props
		case "children":
			if val.Kind != yaml.SequenceNode {
				return nil, p.errorf(val, "children must be a list")
			}
			children = val
		default:
			return nil, p.errorf(key, "unknown field %q", key.Value)
		}
	}

	switch {
	case hasText && hasTag:
		return nil, p.errorf(n, "a node has either text or tag, not both")
	case hasText && children != nil:
		return nil, p.errorf(n, "a text node cannot have children")
	case !hasText && (!hasTag || v.Tag == ""):
		return nil, p.errorf(n, "element without tag")
	}

	if children != nil {
		seen := make(map[string]bool)
		for _, c := range children.Content {
			child, err := p.node(c)
			if err != nil {
				return nil, err
			}
			if child.Key != "" {
				if seen[child.Key] {
					return nil, p.errorf(c, "duplicate key %q", child.Key)
				}
				seen[child.Key] = true
			}
			v.Children = append(v.Children, child)
		}
	}
	return v, nil
}

// Marshal encodes v as a YAML document in the format Parse reads. Function
// props are written as "func".
func Marshal(v *vdom.VNode) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(encode(v)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(v *vdom.VNode) *yaml.Node {
	if v.Kind == vdom.KindText {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text}
	}

	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, val *yaml.Node) {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, val)
	}
	scalar := func(s string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	}

	add("tag", scalar(v.Tag))
	if v.Key != "" {
		add("key", scalar(v.Key))
	}
	if v.Static {
		add("static", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"})
	}
	if len(v.Props) > 0 {
		props := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		keys := make([]string, 0, len(v.Props))
		for k := range v.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var val yaml.Node
			if err := val.Encode(propValue(v.Props[k])); err != nil {
				val = *scalar("?")
			}
			props.Content = append(props.Content, scalar(k), &val)
		}
		add("props", props)
	}
	if len(v.Children) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range v.Children {
			seq.Content = append(seq.Content, encode(c))
		}
		add("children", seq)
	}
	return m
}

func propValue(v any) any {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return v
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "func"
	}
	return v
}
