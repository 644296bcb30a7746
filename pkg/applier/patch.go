package applier

import (
	"slices"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// placed is a node whose final index among its siblings is fixed by a
// Create or Move.
type placed struct {
	node  host.Node
	fresh bool
}

// applyChildren applies the patches of one children list of parent.
func (a *Applier) applyChildren(parent host.Node, patches []vdom.Patch) error {
	// Removals first, so indices below refer to surviving nodes only.
	for _, p := range patches {
		if p.Op != vdom.OpRemove {
			continue
		}
		n, err := a.lookup("remove", p.Old)
		if err != nil {
			return err
		}
		if err := a.host.RemoveChild(parent, n); err != nil {
			return hostFailure("remove", err)
		}
		a.evict(p.Old)
		a.stats.Removed++
	}

	// Replacements and in-place changes keep the node's position.
	for _, p := range patches {
		var err error
		switch p.Op {
		case vdom.OpReplace:
			err = a.replace(parent, p)
		case vdom.OpUpdate:
			err = a.update(p)
		case vdom.OpText:
			err = a.setText(p)
		}
		if err != nil {
			return err
		}
	}

	return a.place(parent, patches)
}

func (a *Applier) replace(parent host.Node, p vdom.Patch) error {
	old, err := a.lookup("replace", p.Old)
	if err != nil {
		return err
	}
	idx := host.IndexOf(a.host, parent, old)
	if idx < 0 {
		return badPatch("replace: element %q is not a child of the patched parent", p.Old.HID)
	}
	n, err := a.build(p.Node)
	if err != nil {
		return err
	}
	if err := a.host.InsertChild(parent, n, idx); err != nil {
		return hostFailure("replace", err)
	}
	if err := a.host.RemoveChild(parent, old); err != nil {
		return hostFailure("replace", err)
	}
	a.evict(p.Old)
	a.stats.Replaced++
	return nil
}

func (a *Applier) update(p vdom.Patch) error {
	n, err := a.lookup("update", p.Old)
	if err != nil {
		return err
	}
	a.stats.Updated++
	if err := a.applyProps(n, p.Old.HID, p.Props); err != nil {
		return err
	}
	if len(p.Children) > 0 {
		return a.applyChildren(n, p.Children)
	}
	return nil
}

func (a *Applier) setText(p vdom.Patch) error {
	n, err := a.lookup("text", p.Old)
	if err != nil {
		return err
	}
	if err := a.host.SetText(n, p.Text); err != nil {
		return hostFailure("text", err)
	}
	a.stats.TextSet++
	return nil
}

// place builds created nodes and puts created and moved nodes at their
// target index. Children without a target keep their relative order and
// fill the remaining slots.
func (a *Applier) place(parent host.Node, patches []vdom.Patch) error {
	anchors := make(map[int]placed)
	moved := make(map[host.Node]bool)

	anchor := func(index int, pl placed) error {
		if _, dup := anchors[index]; dup {
			return badPatch("two nodes placed at index %d", index)
		}
		anchors[index] = pl
		return nil
	}
	move := func(v *vdom.VNode, index int) error {
		n, err := a.lookup("move", v)
		if err != nil {
			return err
		}
		if moved[n] {
			return badPatch("element %q moved twice", v.HID)
		}
		moved[n] = true
		return anchor(index, placed{node: n})
	}

	for _, p := range patches {
		switch p.Op {
		case vdom.OpCreate:
			n, err := a.build(p.Node)
			if err != nil {
				return err
			}
			if err := anchor(p.Index, placed{node: n, fresh: true}); err != nil {
				return err
			}
		case vdom.OpMove:
			if err := move(p.Old, p.Index); err != nil {
				return err
			}
		case vdom.OpReorder:
			for _, m := range p.Moves {
				if err := move(m.Node, m.To); err != nil {
					return err
				}
			}
		}
	}
	if len(anchors) == 0 {
		return nil
	}

	current := a.host.Children(parent)
	total := len(current)
	for _, pl := range anchors {
		if pl.fresh {
			total++
		}
	}

	order := make([]host.Node, total)
	for index, pl := range anchors {
		if index < 0 || index >= total {
			return badPatch("index %d out of range for %d children", index, total)
		}
		order[index] = pl.node
	}
	slot := 0
	for _, n := range current {
		if moved[n] {
			delete(moved, n)
			continue
		}
		for slot < total && order[slot] != nil {
			slot++
		}
		if slot == total {
			return badPatch("more children than slots")
		}
		order[slot] = n
	}
	if len(moved) > 0 {
		return badPatch("moved node is not a child of the patched parent")
	}

	return a.realize(parent, current, order, anchors)
}

// realize turns the children of parent from current into order. Nodes
// on a longest increasing run of current positions stay put; the others
// are inserted or moved in front of their right neighbour, right to left.
func (a *Applier) realize(parent host.Node, current, order []host.Node, anchors map[int]placed) error {
	pos := make(map[host.Node]int, len(current))
	for i, n := range current {
		pos[n] = i
	}

	var seq, at []int
	for i, n := range order {
		if pl, ok := anchors[i]; ok && pl.fresh {
			continue
		}
		seq = append(seq, pos[n])
		at = append(at, i)
	}
	keep := make([]bool, len(order))
	for _, k := range increasingRun(seq) {
		keep[at[k]] = true
	}

	mirror := slices.Clone(current)
	for i := len(order) - 1; i >= 0; i-- {
		if keep[i] {
			continue
		}
		want := order[i]
		idx := len(mirror)
		if i+1 < len(order) {
			idx = slices.Index(mirror, order[i+1])
		}

		if pl, ok := anchors[i]; ok && pl.fresh {
			if err := a.host.InsertChild(parent, want, idx); err != nil {
				return hostFailure("insert", err)
			}
			mirror = slices.Insert(mirror, idx, want)
			continue
		}

		k := slices.Index(mirror, want)
		if k < 0 || idx < 0 {
			return badPatch("lost track of a child at index %d", i)
		}
		target := idx
		if k < idx {
			target--
		}
		if target == k {
			continue
		}
		if err := a.host.MoveChild(parent, want, target); err != nil {
			return hostFailure("move", err)
		}
		mirror = slices.Delete(mirror, k, k+1)
		mirror = slices.Insert(mirror, target, want)
		a.stats.Moved++
	}
	return nil
}

// increasingRun returns the indices of a longest strictly increasing
// subsequence of seq.
func increasingRun(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}
	prev := make([]int, len(seq))
	// tails[l] is the index in seq of the smallest tail of a run of
	// length l+1.
	var tails []int
	for i, v := range seq {
		l, _ := slices.BinarySearchFunc(tails, v, func(t, v int) int {
			return seq[t] - v
		})
		if l > 0 {
			prev[i] = tails[l-1]
		} else {
			prev[i] = -1
		}
		if l == len(tails) {
			tails = append(tails, i)
		} else {
			tails[l] = i
		}
	}

	run := make([]int, len(tails))
	for i, k := len(tails)-1, tails[len(tails)-1]; i >= 0; i, k = i-1, prev[k] {
		run[i] = k
	}
	return run
}
