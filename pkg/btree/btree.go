// Package btree implements a disk-resident B+Tree index over a
// fixed-width int32 key, backed by a page-oriented buffered file. It
// supports bulk-load construction from a relation, single-entry insertion,
// and bounded range scans.
package btree

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"relindex/pkg/pager"
	"relindex/pkg/relation"
	"relindex/pkg/rid"
)

// ErrBadIndexInfo is returned when an index file already exists but its
// stored relation name, attribute byte offset, or attribute type disagrees
// with the arguments passed to OpenIndex/Construct.
var ErrBadIndexInfo = errors.New("btree: index file exists but its metadata disagrees with the given relation name, attribute offset, or attribute type")

// Index is a B+Tree index over a single int32-keyed attribute.
type Index struct {
	pgr *pager.Pager
	log *zap.Logger
}

// OpenIndex opens an existing index file over relationName's attribute at
// attrByteOffset, or creates a fresh empty one at filename if it doesn't yet
// exist. Reopening a file whose stored metadata disagrees with the given
// arguments fails with ErrBadIndexInfo.
func OpenIndex(filename, relationName string, attrByteOffset int32, attrType AttrType, log *zap.Logger) (*Index, error) {
	idx, _, err := openOrCreate(filename, relationName, attrByteOffset, attrType, log)
	return idx, err
}

// openOrCreate implements spec.md's open-or-create step shared by OpenIndex
// and Construct: on an empty file it bootstraps a fresh header and root
// leaf; on an existing file it validates the stored metadata against the
// caller's arguments. created reports whether a new index was bootstrapped.
func openOrCreate(filename, relationName string, attrByteOffset int32, attrType AttrType, log *zap.Logger) (idx *Index, created bool, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	pgr, err := pager.New(filename, log)
	if err != nil {
		return nil, false, err
	}
	idx = &Index{pgr: pgr, log: log}
	if pgr.NumPages() == 0 {
		if err := idx.bootstrap(relationName, attrByteOffset, attrType); err != nil {
			idx.pgr.Close()
			return nil, false, err
		}
		return idx, true, nil
	}

	h, err := idx.readHeader()
	if err != nil {
		idx.pgr.Close()
		return nil, false, err
	}
	mismatch := h.relationName() != truncatedRelationName(relationName) ||
		h.attrByteOffset() != attrByteOffset ||
		h.attrType() != attrType
	idx.pgr.UnpinPage(h.pg, false)
	if mismatch {
		idx.pgr.Close()
		return nil, false, ErrBadIndexInfo
	}
	return idx, false, nil
}

// bootstrap allocates the header page and an empty root leaf for a
// brand-new index file.
func (idx *Index) bootstrap(relationName string, attrByteOffset int32, attrType AttrType) error {
	headerPg, err := idx.pgr.AllocPage()
	if err != nil {
		return err
	}
	rootLeaf, err := createLeaf(idx.pgr)
	if err != nil {
		idx.pgr.UnpinPage(headerPg, false)
		return err
	}
	initHeader(headerPg, relationName, attrByteOffset, attrType, rootLeaf.pg.PageNum())
	idx.pgr.UnpinPage(headerPg, true)
	idx.pgr.UnpinPage(rootLeaf.pg, true)
	return nil
}

// Construct opens or creates an index over rel's int32 attribute at
// attrByteOffset, exactly as OpenIndex does, then, if the index file was
// just created, bulk-loads it by scanning rel once and inserting every
// tuple's (key, rid) pair in sequence. Per spec.md's bulk-load equivalence
// property, the resulting tree is indistinguishable by scan from one built
// by n individual InsertEntry calls in the same order. If the index file
// already existed, its metadata is validated but rel is never rescanned.
func Construct(filename, relationName string, rel *relation.Relation, attrByteOffset int32, attrType AttrType, log *zap.Logger) (*Index, error) {
	idx, created, err := openOrCreate(filename, relationName, attrByteOffset, attrType, log)
	if err != nil {
		return nil, err
	}
	if !created {
		return idx, nil
	}
	for {
		tuple, tupleRID, err := rel.ScanNext()
		if err == relation.ErrEndOfRelation {
			break
		}
		if err != nil {
			return nil, err
		}
		key := relation.Int32At(tuple, int(attrByteOffset))
		if err := idx.InsertEntry(key, tupleRID); err != nil {
			return nil, err
		}
	}
	idx.pgr.FlushFile()
	return idx, nil
}

// Close flushes all outstanding writes and closes the backing file.
func (idx *Index) Close() error {
	return idx.pgr.Close()
}

func (idx *Index) readHeader() (*header, error) {
	pg, err := idx.pgr.ReadPage(HeaderPN)
	if err != nil {
		return nil, err
	}
	return asHeader(pg), nil
}

// InsertEntry inserts (key, r) into the tree, growing the root if the
// initial insertion propagates a split all the way up, per spec.md §4.3-4.4.
// r must be a valid RID (PageNum != 0); the reserved sentinel can never be
// stored.
func (idx *Index) InsertEntry(key int32, r rid.RID) error {
	if !r.IsValid() {
		return errors.New("btree: RID with page number 0 is reserved and cannot be inserted")
	}
	h, err := idx.readHeader()
	if err != nil {
		return err
	}
	rootPN := h.rootPN()
	sp, err := idx.recInsert(rootPN, key, r)
	if err != nil {
		idx.pgr.UnpinPage(h.pg, false)
		return err
	}
	if !sp.ok {
		idx.pgr.UnpinPage(h.pg, false)
		return nil
	}
	if err := idx.growRoot(h, rootPN, sp); err != nil {
		idx.pgr.UnpinPage(h.pg, false)
		return err
	}
	idx.pgr.UnpinPage(h.pg, true)
	return nil
}

// growRoot builds a new internal root over the old root and its split-off
// sibling, then repoints the header at it, per spec.md §4.4's root-grow
// protocol.
func (idx *Index) growRoot(h *header, oldRootPN int64, sp split) error {
	newRoot, err := createInternal(idx.pgr)
	if err != nil {
		return err
	}
	newRoot.setChildAt(0, oldRootPN)
	newRoot.setChildAt(1, sp.rightPN)
	newRoot.setKeyAt(0, sp.key)
	newRoot.setNumKeys(1)
	h.setRootPN(newRoot.pg.PageNum())
	idx.pgr.UnpinPage(newRoot.pg, true)
	return nil
}

// recInsert is the recursive top-down-descent, bottom-up split-propagation
// insertion of spec.md §4.3: it descends to the leaf that should hold key,
// inserts (splitting if full), and on the way back up threads any split
// into the parent.
func (idx *Index) recInsert(pn int64, key int32, r rid.RID) (split, error) {
	pg, err := idx.pgr.ReadPage(pn)
	if err != nil {
		return split{}, err
	}

	if pageKind(pg) == LeafKind {
		leaf := asLeaf(pg)
		if !leaf.full() {
			leaf.insertLocal(key, r)
			idx.pgr.UnpinPage(pg, true)
			return split{}, nil
		}
		sp, err := leaf.split(idx.pgr, key, r)
		idx.pgr.UnpinPage(pg, true)
		return sp, err
	}

	internal := asInternal(pg)
	childIdx := internal.findSubTree(key)
	childPN := internal.childAt(childIdx)
	childSplit, err := idx.recInsert(childPN, key, r)
	if err != nil {
		idx.pgr.UnpinPage(pg, false)
		return split{}, err
	}
	if !childSplit.ok {
		idx.pgr.UnpinPage(pg, false)
		return split{}, nil
	}
	wasFull := internal.full()
	internal.insertSeparator(childSplit.key, childSplit.rightPN)
	if !wasFull {
		idx.pgr.UnpinPage(pg, true)
		return split{}, nil
	}
	sp, err := internal.split(idx.pgr)
	idx.pgr.UnpinPage(pg, true)
	return sp, err
}

// Print pretty-prints the tree rooted at the header's current root page.
func (idx *Index) Print(w io.Writer) error {
	h, err := idx.readHeader()
	if err != nil {
		return err
	}
	defer idx.pgr.UnpinPage(h.pg, false)
	return idx.printSubtree(w, h.rootPN(), "")
}

func (idx *Index) printSubtree(w io.Writer, pn int64, prefix string) error {
	pg, err := idx.pgr.ReadPage(pn)
	if err != nil {
		return err
	}
	defer idx.pgr.UnpinPage(pg, false)
	n := pageToNode(pg)
	n.print(w, prefix)
	if internal, ok := n.(*internalNode); ok {
		for i := int32(0); i <= internal.numKeys(); i++ {
			if err := idx.printSubtree(w, internal.childAt(i), prefix+"  "); err != nil {
				return err
			}
		}
	}
	return nil
}
