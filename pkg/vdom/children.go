package vdom

// children diffs the children of two matched elements.
func (d *Differ) children(old, next *VNode) ([]Patch, error) {
	oc, nc := old.Children, next.Children
	if len(oc) == 0 && len(nc) == 0 {
		return nil, nil
	}

	for _, child := range oc {
		if child == nil {
			return nil, invalidNode(old, "nil child")
		}
	}
	for _, child := range nc {
		if child == nil {
			return nil, invalidNode(next, "nil child")
		}
	}

	// Duplicate keys are a defect of the caller's tree in every mode.
	oldKeys, err := keyIndex(old)
	if err != nil {
		return nil, err
	}
	newKeys, err := keyIndex(next)
	if err != nil {
		return nil, err
	}

	var patches []Patch
	switch {
	case d.opts.Keyed && (oldKeys != nil || newKeys != nil):
		patches, err = d.keyedChildren(oc, nc, oldKeys)
	case d.opts.LCS:
		patches, err = d.lcsChildren(oc, nc)
	default:
		patches, err = d.positionalChildren(oc, nc)
	}
	if err != nil {
		return nil, err
	}

	if d.opts.CoalesceMoves {
		patches = coalesceMoves(patches)
	}
	return patches, nil
}

// keyedChildren matches keyed children by key and unkeyed children
// positionally among the unkeyed siblings. A matched pair whose index
// changed gets a Move in addition to its own patch.
func (d *Differ) keyedChildren(oc, nc []*VNode, oldKeys map[string]int) ([]Patch, error) {
	var patches []Patch

	var oldUnkeyed []int
	for i, child := range oc {
		if child.Key == "" {
			oldUnkeyed = append(oldUnkeyed, i)
		}
	}

	// Old children without a counterpart go first.
	matched := make([]bool, len(oc))
	unkeyed := 0
	for _, child := range nc {
		if child.Key != "" {
			if i, ok := oldKeys[child.Key]; ok {
				matched[i] = true
			}
		} else if unkeyed < len(oldUnkeyed) {
			matched[oldUnkeyed[unkeyed]] = true
			unkeyed++
		}
	}
	for i, child := range oc {
		if !matched[i] {
			patches = append(patches, Patch{Op: OpRemove, Old: child, From: i})
		}
	}

	unkeyed = 0
	for j, child := range nc {
		from := -1
		if child.Key != "" {
			if i, ok := oldKeys[child.Key]; ok {
				from = i
			}
		} else {
			if unkeyed < len(oldUnkeyed) {
				from = oldUnkeyed[unkeyed]
			}
			unkeyed++
		}

		if from < 0 {
			if err := Validate(child); err != nil {
				return nil, err
			}
			patches = append(patches, Patch{Op: OpCreate, Node: child, Index: j})
			continue
		}

		prev := oc[from]
		p, err := d.pair(prev, child)
		if err != nil {
			return nil, err
		}

		if p != nil && p.Op == OpReplace && from != j {
			// A replaced node has no identity to move.
			patches = append(patches,
				Patch{Op: OpRemove, Old: prev, From: from},
				Patch{Op: OpCreate, Node: child, Index: j},
			)
			continue
		}
		if from != j {
			patches = append(patches, Patch{Op: OpMove, Old: prev, Node: child, From: from, Index: j})
		}
		if p != nil {
			p.From, p.Index = from, j
			patches = append(patches, *p)
		}
	}

	return patches, nil
}

// positionalChildren diffs children pairwise by index.
func (d *Differ) positionalChildren(oc, nc []*VNode) ([]Patch, error) {
	var patches []Patch

	for i := len(nc); i < len(oc); i++ {
		patches = append(patches, Patch{Op: OpRemove, Old: oc[i], From: i})
	}

	for i, child := range nc {
		if i >= len(oc) {
			if err := Validate(child); err != nil {
				return nil, err
			}
			patches = append(patches, Patch{Op: OpCreate, Node: child, Index: i})
			continue
		}
		p, err := d.pair(oc[i], child)
		if err != nil {
			return nil, err
		}
		if p != nil {
			p.From, p.Index = i, i
			patches = append(patches, *p)
		}
	}

	return patches, nil
}

// coalesceMoves replaces the Move patches of one children list with a
// single Reorder patch at the position of the first Move.
func coalesceMoves(patches []Patch) []Patch {
	first := -1
	var moves []Move
	for i, p := range patches {
		if p.Op == OpMove {
			if first < 0 {
				first = i
			}
			moves = append(moves, Move{Node: p.Node, From: p.From, To: p.Index})
		}
	}
	if first < 0 {
		return patches
	}

	out := make([]Patch, 0, len(patches)-len(moves)+1)
	for i, p := range patches {
		if i == first {
			out = append(out, Patch{Op: OpReorder, Moves: moves})
			continue
		}
		if p.Op != OpMove {
			out = append(out, p)
		}
	}
	return out
}
