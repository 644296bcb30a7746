package vdom

import (
	"fmt"
	"strings"
)

// Op is the type of patch operation.
type Op uint8

const (
	OpCreate  Op = iota + 1 // Build Node and insert it at Index
	OpRemove                // Detach Old
	OpReplace               // Build Node and put it where Old is
	OpUpdate                // Patch Old in place with Props and Children
	OpReorder               // Apply Moves to existing siblings
	OpMove                  // Move Old from From to Index
	OpText                  // Set the content of text node Old
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "Create"
	case OpRemove:
		return "Remove"
	case OpReplace:
		return "Replace"
	case OpUpdate:
		return "Update"
	case OpReorder:
		return "Reorder"
	case OpMove:
		return "Move"
	case OpText:
		return "Text"
	default:
		return "Unknown"
	}
}

// PropOp is the type of a prop change.
type PropOp uint8

const (
	AddProp PropOp = iota + 1
	RemoveProp
	UpdateProp
)

// String returns the string representation of the PropOp.
func (op PropOp) String() string {
	switch op {
	case AddProp:
		return "AddProp"
	case RemoveProp:
		return "RemoveProp"
	case UpdateProp:
		return "UpdateProp"
	default:
		return "Unknown"
	}
}

// PropPatch is one prop change of an Update patch.
type PropPatch struct {
	Op    PropOp
	Key   string
	Value any // New value; nil for RemoveProp
}

// Move relocates one existing child as part of a Reorder patch.
type Move struct {
	Node *VNode // New node; carries the HID of the moved live node
	From int    // Index in the old children
	To   int    // Index in the new children
}

// Patch is one instruction to mutate the live tree.
//
// Child patches of an Update are relative to the updated node: Index is a
// position in the new children list and From a position in the old one.
// Children without a patch keep their relative order.
type Patch struct {
	Op       Op
	Old      *VNode      // Matched old node (Remove, Replace, Update, Move, Text)
	Node     *VNode      // New node (Create, Replace, Update, Move, Text)
	Index    int         // Target index (Create, Move)
	From     int         // Source index (Remove, Move, and matched pairs)
	Text     string      // New content (Text)
	Props    []PropPatch // Prop changes (Update)
	Children []Patch     // Child patches (Update)
	Moves    []Move      // Moves (Reorder)
}

// HID returns the HID of the live node the patch targets, or "" for
// Create and Reorder.
func (p Patch) HID() string {
	if p.Old != nil {
		return p.Old.HID
	}
	return ""
}

// String returns a one-line description of the patch.
func (p Patch) String() string {
	switch p.Op {
	case OpCreate:
		return fmt.Sprintf("Create %s at %d", describe(p.Node), p.Index)
	case OpRemove:
		return fmt.Sprintf("Remove %s", describe(p.Old))
	case OpReplace:
		return fmt.Sprintf("Replace %s with %s", describe(p.Old), describe(p.Node))
	case OpUpdate:
		return fmt.Sprintf("Update %s (%d props, %d children)", describe(p.Old), len(p.Props), len(p.Children))
	case OpReorder:
		return fmt.Sprintf("Reorder %d children", len(p.Moves))
	case OpMove:
		return fmt.Sprintf("Move %s %d -> %d", describe(p.Old), p.From, p.Index)
	case OpText:
		return fmt.Sprintf("Text %s = %q", describe(p.Old), p.Text)
	default:
		return "Unknown"
	}
}

func describe(v *VNode) string {
	if v == nil {
		return "<nil>"
	}
	var b strings.Builder
	if v.Kind == KindText {
		fmt.Fprintf(&b, "text %q", truncate(v.Text, 24))
	} else {
		b.WriteString("<" + v.Tag + ">")
	}
	if v.Key != "" {
		fmt.Fprintf(&b, " key=%s", v.Key)
	}
	if v.HID != "" {
		fmt.Fprintf(&b, " #%s", v.HID)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// Format renders patches as an indented list, one patch per line.
func Format(patches []Patch) string {
	var b strings.Builder
	formatPatches(&b, patches, 0)
	return b.String()
}

func formatPatches(b *strings.Builder, patches []Patch, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range patches {
		b.WriteString(indent + p.String() + "\n")
		for _, pp := range p.Props {
			if pp.Op == RemoveProp {
				fmt.Fprintf(b, "%s  %s %s\n", indent, pp.Op, pp.Key)
			} else {
				fmt.Fprintf(b, "%s  %s %s=%v\n", indent, pp.Op, pp.Key, formatValue(pp.Value))
			}
		}
		for _, m := range p.Moves {
			fmt.Fprintf(b, "%s  Move %s %d -> %d\n", indent, describe(m.Node), m.From, m.To)
		}
		formatPatches(b, p.Children, depth+1)
	}
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if isFunc(v) {
		return "func"
	}
	return fmt.Sprint(v)
}

// CountOps counts patches by Op, including nested child patches and the
// moves of Reorder patches (counted as OpMove).
func CountOps(patches []Patch) map[Op]int {
	counts := make(map[Op]int)
	countOps(patches, counts)
	return counts
}

func countOps(patches []Patch, counts map[Op]int) {
	for _, p := range patches {
		counts[p.Op]++
		counts[OpMove] += len(p.Moves)
		countOps(p.Children, counts)
	}
}
