package btree

import (
	"encoding/binary"

	"relindex/pkg/pager"
	"relindex/pkg/rid"
)

// HeaderPN is the fixed page number of the index's header page.
const HeaderPN int64 = 0

// Node header layout, shared by leaf and internal nodes.
const (
	NodeKindOffset int64 = 0
	NodeKindSize   int64 = 1
	NumKeysOffset  int64 = NodeKindOffset + NodeKindSize
	NumKeysSize    int64 = 4
	NodeHeaderSize int64 = NodeKindSize + NumKeysSize
)

// NodeKind occupies the first byte of every non-header page and disambiguates
// leaf pages from internal ones (spec.md §9 leaves this an open question;
// here it's resolved with an explicit tag rather than inferring it from
// context).
type NodeKind byte

const (
	InternalKind NodeKind = 0
	LeafKind     NodeKind = 1
)

// Leaf node layout: header, then a right-sibling page id, then a flat array
// of (key, rid) slots.
const (
	RightSiblingOffset int64 = NodeHeaderSize
	RightSiblingSize   int64 = 4
	LeafHeaderSize     int64 = RightSiblingOffset + RightSiblingSize

	KeySize    int64 = 4
	SlotSize   int64 = KeySize + int64(rid.Size)
	SlotsBegin int64 = LeafHeaderSize
)

// SlotsPerLeaf is L in spec.md's terminology: the fixed capacity of a leaf
// node's slot array.
var SlotsPerLeaf int64 = (pager.Pagesize - LeafHeaderSize) / SlotSize

// Internal node layout: header, then N keys, then N+1 child page ids. The
// physical key array is sized for N+1 keys, one slot wider than the logical
// capacity: split-on-insert briefly needs to hold one extra separator
// before the median is promoted and the node is cut in two.
const (
	PNSize             int64 = 4
	internalHeaderSize int64 = NodeHeaderSize
)

// KeysPerInternal is N: the number of separator keys an internal node holds
// before it must split (it therefore has N+1 children while not full).
var KeysPerInternal int64 = (pager.Pagesize-internalHeaderSize-KeySize)/(KeySize+PNSize) - 1

func internalKeysOffset() int64 {
	return internalHeaderSize
}

func internalChildrenOffset() int64 {
	return internalHeaderSize + KeySize*(KeysPerInternal+1)
}

func getInt32(data []byte, offset int64) int32 {
	return int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
}

func putInt32(data []byte, offset int64, v int32) {
	binary.LittleEndian.PutUint32(data[offset:offset+4], uint32(v))
}
