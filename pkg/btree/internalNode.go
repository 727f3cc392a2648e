package btree

import (
	"fmt"
	"io"
	"sort"

	"relindex/pkg/pager"
)

// internalNode is a thin view over a page holding N separator keys and N+1
// child page ids, per spec.md §4.1. Like leafNode, occupancy is tracked by
// an explicit count rather than a page-id sentinel scan.
type internalNode struct {
	pg *pager.Page
}

func asInternal(pg *pager.Page) *internalNode { return &internalNode{pg: pg} }

func createInternal(pgr *pager.Pager) (*internalNode, error) {
	pg, err := pgr.AllocPage()
	if err != nil {
		return nil, err
	}
	initPage(pg, InternalKind)
	return asInternal(pg), nil
}

func (n *internalNode) kind() NodeKind    { return InternalKind }
func (n *internalNode) numKeys() int32    { return readNumKeys(n.pg) }
func (n *internalNode) page() *pager.Page { return n.pg }

func (n *internalNode) setNumKeys(k int32) { writeNumKeys(n.pg, k) }

func (n *internalNode) keyAt(i int32) int32 {
	off := internalKeysOffset() + int64(i)*KeySize
	return getInt32(n.pg.Data(), off)
}

func (n *internalNode) setKeyAt(i int32, key int32) {
	buf := make([]byte, KeySize)
	putInt32(buf, 0, key)
	n.pg.Update(buf, internalKeysOffset()+int64(i)*KeySize, KeySize)
}

func (n *internalNode) childAt(i int32) int64 {
	off := internalChildrenOffset() + int64(i)*PNSize
	return int64(getInt32(n.pg.Data(), off))
}

func (n *internalNode) setChildAt(i int32, pn int64) {
	buf := make([]byte, PNSize)
	putInt32(buf, 0, int32(pn))
	n.pg.Update(buf, internalChildrenOffset()+int64(i)*PNSize, PNSize)
}

// findSubTree returns the index of the child to descend into for key,
// i.e. the first index whose separator key exceeds key.
func (n *internalNode) findSubTree(key int32) int32 {
	nk := int(n.numKeys())
	idx := sort.Search(nk, func(i int) bool { return n.keyAt(int32(i)) > key })
	return int32(idx)
}

func (n *internalNode) full() bool {
	return n.numKeys() >= int32(KeysPerInternal)
}

// insertSeparator inserts a promoted (key, rightChildPN) pair into this
// internal node, which must not be full.
func (n *internalNode) insertSeparator(key int32, rightPN int64) {
	nk := n.numKeys()
	pos := n.findSubTree(key)
	for i := nk - 1; i >= pos; i-- {
		n.setKeyAt(i+1, n.keyAt(i))
	}
	for i := nk; i > pos; i-- {
		n.setChildAt(i+1, n.childAt(i))
	}
	n.setKeyAt(pos, key)
	n.setChildAt(pos+1, rightPN)
	n.setNumKeys(nk + 1)
}

// split moves the upper half of this internal node's keys and children into
// a freshly allocated internal node, per spec.md §4.2. The median key is
// promoted (not copied into either child), matching the "push-up" split of
// an internal node as opposed to a leaf's "copy-up".
func (n *internalNode) split(pgr *pager.Pager) (split, error) {
	right, err := createInternal(pgr)
	if err != nil {
		return split{}, err
	}
	defer pgr.UnpinPage(right.pg, true)

	nk := n.numKeys()
	mid := (nk - 1) / 2
	medianKey := n.keyAt(mid)

	var j int32
	for i := mid + 1; i < nk; i++ {
		right.setKeyAt(j, n.keyAt(i))
		right.setChildAt(j, n.childAt(i))
		j++
	}
	right.setChildAt(j, n.childAt(nk))
	right.setNumKeys(nk - mid - 1)
	n.setNumKeys(mid)

	return split{ok: true, key: medianKey, rightPN: right.pg.PageNum()}, nil
}

func (n *internalNode) print(w io.Writer, prefix string) {
	fmtPageHeader(w, prefix, "internal", n.pg.PageNum(), n.numKeys())
	for i := int32(0); i < n.numKeys(); i++ {
		fmt.Fprintf(w, "%s  key[%d]=%d\n", prefix, i, n.keyAt(i))
	}
}
