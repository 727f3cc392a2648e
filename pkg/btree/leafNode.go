package btree

import (
	"fmt"
	"io"
	"sort"

	"relindex/pkg/pager"
	"relindex/pkg/rid"
)

// leafNode is a thin view over a page holding L (key, RID) slots plus a
// right-sibling pointer, per spec.md §4.1. Slot occupancy is tracked by an
// explicit count in the node header rather than by scanning for the RID
// sentinel (a deliberate departure from the sentinel-scan approach, per the
// REDESIGN FLAGS in spec.md §9).
type leafNode struct {
	pg *pager.Page
}

func asLeaf(pg *pager.Page) *leafNode { return &leafNode{pg: pg} }

// createLeaf allocates and initializes a new, empty leaf page.
func createLeaf(pgr *pager.Pager) (*leafNode, error) {
	pg, err := pgr.AllocPage()
	if err != nil {
		return nil, err
	}
	initPage(pg, LeafKind)
	leaf := asLeaf(pg)
	leaf.setRightSibling(0)
	return leaf, nil
}

func (l *leafNode) kind() NodeKind    { return LeafKind }
func (l *leafNode) numKeys() int32    { return readNumKeys(l.pg) }
func (l *leafNode) page() *pager.Page { return l.pg }

func (l *leafNode) setNumKeys(n int32) { writeNumKeys(l.pg, n) }

func (l *leafNode) rightSibling() int64 {
	return int64(getInt32(l.pg.Data(), RightSiblingOffset))
}

func (l *leafNode) setRightSibling(pn int64) {
	buf := make([]byte, RightSiblingSize)
	putInt32(buf, 0, int32(pn))
	l.pg.Update(buf, RightSiblingOffset, RightSiblingSize)
}

func (l *leafNode) slotOffset(i int32) int64 {
	return SlotsBegin + int64(i)*SlotSize
}

func (l *leafNode) keyAt(i int32) int32 {
	return getInt32(l.pg.Data(), l.slotOffset(i))
}

func (l *leafNode) setKeyAt(i int32, key int32) {
	buf := make([]byte, KeySize)
	putInt32(buf, 0, key)
	l.pg.Update(buf, l.slotOffset(i), KeySize)
}

func (l *leafNode) ridAt(i int32) rid.RID {
	off := l.slotOffset(i) + KeySize
	return rid.Unmarshal(l.pg.Data()[off : off+int64(rid.Size)])
}

func (l *leafNode) setRIDAt(i int32, r rid.RID) {
	l.pg.Update(r.Marshal(), l.slotOffset(i)+KeySize, int64(rid.Size))
}

func (l *leafNode) setSlot(i int32, key int32, r rid.RID) {
	l.setKeyAt(i, key)
	l.setRIDAt(i, r)
}

// search returns the first index whose key is strictly greater than the
// given key, or numKeys() if none is. Inserting at this index preserves
// non-decreasing key order and, among equal keys, insertion order.
func (l *leafNode) search(key int32) int32 {
	n := int(l.numKeys())
	idx := sort.Search(n, func(i int) bool { return l.keyAt(int32(i)) > key })
	return int32(idx)
}

// full reports whether the leaf has no free slot left.
func (l *leafNode) full() bool {
	return l.numKeys() >= int32(SlotsPerLeaf)
}

// insertLocal inserts (key, r) into this leaf, which must not be full. It
// does not check for a preexisting occupant, so callers wanting sentinel
// semantics for duplicates must check themselves; this index allows
// duplicate keys, threading them in insertion order.
func (l *leafNode) insertLocal(key int32, r rid.RID) {
	n := l.numKeys()
	pos := l.search(key)
	for i := n - 1; i >= pos; i-- {
		l.setSlot(i+1, l.keyAt(i), l.ridAt(i))
	}
	l.setSlot(pos, key, r)
	l.setNumKeys(n + 1)
}

// split moves the upper half of this leaf's slots into a freshly allocated
// leaf, threads the sibling chain, and inserts (key, r) into whichever half
// now covers it. Returns the pushed-up separator and the new leaf's page
// number, per spec.md §4.2.
func (l *leafNode) split(pgr *pager.Pager, key int32, r rid.RID) (split, error) {
	right, err := createLeaf(pgr)
	if err != nil {
		return split{}, err
	}
	defer pgr.UnpinPage(right.pg, true)

	n := l.numKeys()
	mid := n / 2
	if n%2 == 1 && key > l.keyAt(mid) {
		mid++
	}
	var j int32
	for i := mid; i < n; i++ {
		right.setSlot(j, l.keyAt(i), l.ridAt(i))
		j++
	}
	right.setNumKeys(n - mid)
	l.setNumKeys(mid)

	right.setRightSibling(l.rightSibling())
	l.setRightSibling(right.pg.PageNum())

	if mid == 0 || key > l.keyAt(mid-1) {
		right.insertLocal(key, r)
	} else {
		l.insertLocal(key, r)
	}

	return split{ok: true, key: right.keyAt(0), rightPN: right.pg.PageNum()}, nil
}

func (l *leafNode) print(w io.Writer, prefix string) {
	fmtPageHeader(w, prefix, "leaf", l.pg.PageNum(), l.numKeys())
	for i := int32(0); i < l.numKeys(); i++ {
		r := l.ridAt(i)
		fmt.Fprintf(w, "%s  (%d, (%d,%d))\n", prefix, l.keyAt(i), r.PageNum, r.SlotNum)
	}
	if sib := l.rightSibling(); sib != 0 {
		fmt.Fprintf(w, "%s  --> sibling @ %d\n", prefix, sib)
	}
}
