package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// staticMarker is accepted by element factories to mark the element Static.
type staticMarker struct{}

// H creates an element with the given tag. Arguments can be: nil, Attr,
// []Attr, Props, EventHandler, *VNode, []*VNode, string (a text child) or
// the value returned by AsStatic.
func H(tag string, args ...any) *VNode {
	return createElement(tag, args)
}

// CreateElement creates an element from a tag, a props map and children.
// A "key" entry in props becomes the node Key.
func CreateElement(tag string, props Props, children ...*VNode) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props, len(props)),
	}
	for k, v := range props {
		node.setProp(k, v)
	}
	for _, child := range children {
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			node.setProp(v.Key, v.Value)

		case []Attr:
			for _, a := range v {
				node.setProp(a.Key, a.Value)
			}

		case Props:
			for k, val := range v {
				node.setProp(k, val)
			}

		case EventHandler:
			node.setProp(v.Event, v.Handler)

		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case string:
			node.Children = append(node.Children, Text(v))

		case staticMarker:
			node.Static = true
		}
	}

	return node
}

// setProp stores one prop. The key prop goes to Key instead of Props.
func (v *VNode) setProp(key string, value any) {
	if key == "" {
		return
	}
	if key == "key" {
		if s, ok := value.(string); ok {
			v.Key = s
		}
		return
	}
	v.Props[key] = value
}

// Document structure and sectioning

func Html(args ...any) *VNode    { return createElement("html", args) }
func Body(args ...any) *VNode    { return createElement("body", args) }
func Header(args ...any) *VNode  { return createElement("header", args) }
func Footer(args ...any) *VNode  { return createElement("footer", args) }
func Main(args ...any) *VNode    { return createElement("main", args) }
func Nav(args ...any) *VNode     { return createElement("nav", args) }
func Section(args ...any) *VNode { return createElement("section", args) }
func Article(args ...any) *VNode { return createElement("article", args) }
func H1(args ...any) *VNode      { return createElement("h1", args) }
func H2(args ...any) *VNode      { return createElement("h2", args) }
func H3(args ...any) *VNode      { return createElement("h3", args) }

// Text content

func Div(args ...any) *VNode    { return createElement("div", args) }
func P(args ...any) *VNode      { return createElement("p", args) }
func Span(args ...any) *VNode   { return createElement("span", args) }
func Pre(args ...any) *VNode    { return createElement("pre", args) }
func Ul(args ...any) *VNode     { return createElement("ul", args) }
func Ol(args ...any) *VNode     { return createElement("ol", args) }
func Li(args ...any) *VNode     { return createElement("li", args) }
func Hr(args ...any) *VNode     { return createElement("hr", args) }
func A(args ...any) *VNode      { return createElement("a", args) }
func Em(args ...any) *VNode     { return createElement("em", args) }
func Code(args ...any) *VNode   { return createElement("code", args) }
func Br(args ...any) *VNode     { return createElement("br", args) }
func Strong(args ...any) *VNode { return createElement("strong", args) }

// Forms

func Form(args ...any) *VNode     { return createElement("form", args) }
func Input(args ...any) *VNode    { return createElement("input", args) }
func Textarea(args ...any) *VNode { return createElement("textarea", args) }
func Select(args ...any) *VNode   { return createElement("select", args) }
func Option(args ...any) *VNode   { return createElement("option", args) }
func Button(args ...any) *VNode   { return createElement("button", args) }
func Label(args ...any) *VNode    { return createElement("label", args) }

// Tables

func Table(args ...any) *VNode { return createElement("table", args) }
func Thead(args ...any) *VNode { return createElement("thead", args) }
func Tbody(args ...any) *VNode { return createElement("tbody", args) }
func Tr(args ...any) *VNode    { return createElement("tr", args) }
func Th(args ...any) *VNode    { return createElement("th", args) }
func Td(args ...any) *VNode    { return createElement("td", args) }

// Media

func Img(args ...any) *VNode    { return createElement("img", args) }
func Canvas(args ...any) *VNode { return createElement("canvas", args) }
func Svg(args ...any) *VNode    { return createElement("svg", args) }
