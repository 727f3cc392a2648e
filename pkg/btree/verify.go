package btree

import "errors"

// Verify walks the whole tree checking the structural invariants spec.md
// §8 requires: leaf keys are non-decreasing and every separator correctly
// bounds its subtree. It releases every pin it takes during the walk, but
// it does not check the pin balance of any other operation.
// It's meant for use from tests, not from any production code path.
func (idx *Index) Verify() error {
	h, err := idx.readHeader()
	if err != nil {
		return err
	}
	defer idx.pgr.UnpinPage(h.pg, false)
	_, _, err = idx.verifySubtree(h.rootPN())
	return err
}

// verifySubtree returns the minimum and maximum keys found under pn.
func (idx *Index) verifySubtree(pn int64) (lo, hi int32, err error) {
	pg, err := idx.pgr.ReadPage(pn)
	if err != nil {
		return 0, 0, err
	}
	defer idx.pgr.UnpinPage(pg, false)

	if pageKind(pg) == LeafKind {
		leaf := asLeaf(pg)
		n := leaf.numKeys()
		if n == 0 {
			return 0, 0, nil
		}
		for i := int32(1); i < n; i++ {
			if leaf.keyAt(i-1) > leaf.keyAt(i) {
				return 0, 0, errors.New("btree: leaf keys are not non-decreasing")
			}
		}
		return leaf.keyAt(0), leaf.keyAt(n - 1), nil
	}

	internal := asInternal(pg)
	n := internal.numKeys()
	var lowest, highest int32
	for i := int32(0); i <= n; i++ {
		childLo, childHi, err := idx.verifySubtree(internal.childAt(i))
		if err != nil {
			return 0, 0, err
		}
		if i == 0 {
			lowest = childLo
		}
		if i == n {
			highest = childHi
		}
		if i > 0 && childLo < internal.keyAt(i-1) {
			return 0, 0, errors.New("btree: child's minimum key precedes its left separator")
		}
		if i < n && childHi >= internal.keyAt(i) {
			return 0, 0, errors.New("btree: child's maximum key does not precede its right separator")
		}
	}
	return lowest, highest, nil
}
