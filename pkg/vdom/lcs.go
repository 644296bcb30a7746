package vdom

// lcsTable returns the suffix LCS lengths of two child lists:
// t[i*(m+1)+j] is the LCS length of oc[i:] and nc[j:].
func lcsTable(oc, nc []*VNode) []int32 {
	n, m := len(oc), len(nc)
	w := m + 1
	t := make([]int32, (n+1)*w)

	// Equality is checked through the cached structural hash first, so
	// each pair costs a full comparison only when the hashes agree.
	newHashes := make([]uint64, m)
	for j, c := range nc {
		newHashes[j] = Hash(c)
	}

	for i := n - 1; i >= 0; i-- {
		oh := Hash(oc[i])
		for j := m - 1; j >= 0; j-- {
			if oh == newHashes[j] && Equal(oc[i], nc[j]) {
				t[i*w+j] = t[(i+1)*w+j+1] + 1
			} else if down, right := t[(i+1)*w+j], t[i*w+j+1]; down >= right {
				t[i*w+j] = down
			} else {
				t[i*w+j] = right
			}
		}
	}
	return t
}

// lcsChildren keeps the longest common subsequence of equal children in
// place, removes old children outside it and creates new ones.
func (d *Differ) lcsChildren(oc, nc []*VNode) ([]Patch, error) {
	// Common prefix and suffix need no table.
	start := 0
	for start < len(oc) && start < len(nc) && Equal(oc[start], nc[start]) {
		carryHIDs(oc[start], nc[start])
		start++
	}
	endOld, endNew := len(oc), len(nc)
	for endOld > start && endNew > start && Equal(oc[endOld-1], nc[endNew-1]) {
		carryHIDs(oc[endOld-1], nc[endNew-1])
		endOld--
		endNew--
	}

	ocMid, ncMid := oc[start:endOld], nc[start:endNew]
	t := lcsTable(ocMid, ncMid)
	w := len(ncMid) + 1

	var patches []Patch
	var gapOld, gapNew []int

	flushGap := func() error {
		ps, err := d.gap(oc, nc, gapOld, gapNew)
		if err != nil {
			return err
		}
		patches = append(patches, ps...)
		gapOld, gapNew = gapOld[:0], gapNew[:0]
		return nil
	}

	i, j := 0, 0
	for i < len(ocMid) || j < len(ncMid) {
		switch {
		case i < len(ocMid) && j < len(ncMid) && t[i*w+j] == t[(i+1)*w+j+1]+1 &&
			Hash(ocMid[i]) == Hash(ncMid[j]) && Equal(ocMid[i], ncMid[j]):
			if err := flushGap(); err != nil {
				return nil, err
			}
			carryHIDs(ocMid[i], ncMid[j])
			i++
			j++
		case j >= len(ncMid) || (i < len(ocMid) && t[(i+1)*w+j] >= t[i*w+j+1]):
			gapOld = append(gapOld, start+i)
			i++
		default:
			gapNew = append(gapNew, start+j)
			j++
		}
	}
	if err := flushGap(); err != nil {
		return nil, err
	}

	return patches, nil
}

// gap resolves the children removed (gapOld) and created (gapNew) between
// two LCS anchors. With MatchGaps, pairs of the same kind and tag are
// diffed instead of recreated.
func (d *Differ) gap(oc, nc []*VNode, gapOld, gapNew []int) ([]Patch, error) {
	var patches []Patch

	paired := 0
	if d.opts.MatchGaps {
		for paired < len(gapOld) && paired < len(gapNew) {
			o, n := oc[gapOld[paired]], nc[gapNew[paired]]
			if o.Kind != n.Kind || o.Tag != n.Tag || o.Key != n.Key {
				break
			}
			paired++
		}
	}

	for _, i := range gapOld[paired:] {
		patches = append(patches, Patch{Op: OpRemove, Old: oc[i], From: i})
	}
	for k := 0; k < paired; k++ {
		i, j := gapOld[k], gapNew[k]
		p, err := d.pair(oc[i], nc[j])
		if err != nil {
			return nil, err
		}
		if p != nil {
			p.From, p.Index = i, j
			patches = append(patches, *p)
		}
	}
	for _, j := range gapNew[paired:] {
		if err := Validate(nc[j]); err != nil {
			return nil, err
		}
		patches = append(patches, Patch{Op: OpCreate, Node: nc[j], Index: j})
	}

	return patches, nil
}
