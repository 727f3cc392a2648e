package btree

import (
	"fmt"
	"io"

	"relindex/pkg/pager"
)

// split carries the information a child hands its parent when an insert
// caused it to split: the separator key to insert and the new right
// sibling's page id. A zero-value split (via ok == false) means no split
// happened.
type split struct {
	ok      bool
	key     int32
	rightPN int64
}

// node is the common interface leaf and internal nodes satisfy so the
// recursive insert and scan logic in btree.go doesn't need to switch on
// concrete type at every level.
type node interface {
	kind() NodeKind
	numKeys() int32
	page() *pager.Page
	print(w io.Writer, prefix string)
}

// initPage zeroes page and stamps its node-kind byte.
func initPage(page *pager.Page, kind NodeKind) {
	blank := make([]byte, pager.Pagesize)
	blank[NodeKindOffset] = byte(kind)
	page.Update(blank, 0, pager.Pagesize)
}

// pageKind reads the node-kind byte off of a page without fully decoding it.
func pageKind(page *pager.Page) NodeKind {
	return NodeKind(page.Data()[NodeKindOffset])
}

// pageToNode wraps page in the leaf or internal view matching its stored
// node-kind byte.
func pageToNode(page *pager.Page) node {
	if pageKind(page) == LeafKind {
		return asLeaf(page)
	}
	return asInternal(page)
}

func readNumKeys(page *pager.Page) int32 {
	return getInt32(page.Data(), NumKeysOffset)
}

func writeNumKeys(page *pager.Page, n int32) {
	buf := make([]byte, NumKeysSize)
	putInt32(buf, 0, n)
	page.Update(buf, NumKeysOffset, NumKeysSize)
}

func fmtPageHeader(w io.Writer, prefix string, label string, pn int64, n int32) {
	fmt.Fprintf(w, "%s[%d] %s size: %d\n", prefix, pn, label, n)
}
