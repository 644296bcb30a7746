package vdom

import "encoding/json"

type nodeJSON struct {
	Kind     string         `json:"kind"`
	Tag      string         `json:"tag,omitempty"`
	Key      string         `json:"key,omitempty"`
	HID      string         `json:"hid,omitempty"`
	Text     *string        `json:"text,omitempty"`
	Static   bool           `json:"static,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*VNode       `json:"children,omitempty"`
}

// MarshalJSON encodes the node for tooling. Function props are encoded as
// the string "func".
func (v *VNode) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		Kind:     v.Kind.String(),
		Tag:      v.Tag,
		Key:      v.Key,
		HID:      v.HID,
		Static:   v.Static,
		Props:    jsonProps(v.Props),
		Children: v.Children,
	}
	if v.Kind == KindText {
		text := v.Text
		out.Text = &text
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format written by MarshalJSON. Function props
// come back as the string "func".
func (v *VNode) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = VNode{
		Tag:      in.Tag,
		Key:      in.Key,
		HID:      in.HID,
		Static:   in.Static,
		Children: in.Children,
	}
	switch in.Kind {
	case "Text":
		v.Kind = KindText
		if in.Text != nil {
			v.Text = *in.Text
		}
	case "Element", "":
		v.Kind = KindElement
	default:
		return invalidNode(v, "unknown kind "+in.Kind)
	}
	if len(in.Props) > 0 {
		v.Props = Props(in.Props)
	}
	return nil
}

func jsonProps(props Props) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, val := range props {
		if isFunc(val) {
			out[k] = "func"
			continue
		}
		out[k] = val
	}
	return out
}

type propPatchJSON struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
}

type moveJSON struct {
	HID  string `json:"hid"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

type patchJSON struct {
	Op       string          `json:"op"`
	HID      string          `json:"hid,omitempty"`
	Node     *VNode          `json:"node,omitempty"`
	Index    *int            `json:"index,omitempty"`
	From     *int            `json:"from,omitempty"`
	Text     *string         `json:"text,omitempty"`
	Props    []propPatchJSON `json:"props,omitempty"`
	Children []Patch         `json:"children,omitempty"`
	Moves    []moveJSON      `json:"moves,omitempty"`
}

// MarshalJSON encodes the patch for tooling. Only the fields meaningful for
// the patch Op are written; an Update carries no node body.
func (p Patch) MarshalJSON() ([]byte, error) {
	out := patchJSON{
		Op:       p.Op.String(),
		HID:      p.HID(),
		Children: p.Children,
	}
	index, from := p.Index, p.From
	switch p.Op {
	case OpCreate:
		out.Node = p.Node
		out.Index = &index
	case OpReplace:
		out.Node = p.Node
	case OpMove:
		out.From = &from
		out.Index = &index
	case OpRemove:
		out.From = &from
	case OpText:
		text := p.Text
		out.Text = &text
	}
	for _, pp := range p.Props {
		val := pp.Value
		if isFunc(val) {
			val = "func"
		}
		out.Props = append(out.Props, propPatchJSON{Op: pp.Op.String(), Key: pp.Key, Value: val})
	}
	for _, m := range p.Moves {
		hid := ""
		if m.Node != nil {
			hid = m.Node.HID
		}
		out.Moves = append(out.Moves, moveJSON{HID: hid, From: m.From, To: m.To})
	}
	return json.Marshal(out)
}
