package btree_test

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"relindex/pkg/btree"
	"relindex/pkg/relation"
)

func TestConstructMatchesIncrementalInserts(t *testing.T) {
	const tupleSize = 16
	const keyOffset = 4
	const n = 300

	tuples := make([][]byte, n)
	for i := range tuples {
		tuple := make([]byte, tupleSize)
		binary.LittleEndian.PutUint32(tuple[keyOffset:], uint32((i*37+11)%997))
		tuples[i] = tuple
	}

	relPath := filepath.Join(t.TempDir(), "rel.tbl")
	if err := relation.Create(relPath, tupleSize, tuples); err != nil {
		t.Fatalf("Create relation: %v", err)
	}

	bulkPath := filepath.Join(t.TempDir(), "bulk.db")
	rel, err := relation.Open(relPath, tupleSize)
	if err != nil {
		t.Fatalf("Open relation: %v", err)
	}
	defer rel.Close()
	bulk, err := btree.Construct(bulkPath, "rel", rel, keyOffset, btree.AttrTypeInt, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	defer bulk.Close()
	if err := bulk.Verify(); err != nil {
		t.Fatalf("Verify bulk-loaded tree: %v", err)
	}

	incPath := filepath.Join(t.TempDir(), "inc.db")
	incremental, err := btree.OpenIndex(incPath, "rel", keyOffset, btree.AttrTypeInt, nil)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer incremental.Close()
	rel2, err := relation.Open(relPath, tupleSize)
	if err != nil {
		t.Fatalf("reopen relation: %v", err)
	}
	defer rel2.Close()
	for {
		tuple, tupleRID, err := rel2.ScanNext()
		if err == relation.ErrEndOfRelation {
			break
		}
		if err != nil {
			t.Fatalf("ScanNext: %v", err)
		}
		key := relation.Int32At(tuple, keyOffset)
		if err := incremental.InsertEntry(key, tupleRID); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	bulkRIDs := scanAll(t, bulk, -1, btree.OpGT, 1000, btree.OpLT)
	incRIDs := scanAll(t, incremental, -1, btree.OpGT, 1000, btree.OpLT)
	if len(bulkRIDs) != len(incRIDs) {
		t.Fatalf("got %d bulk RIDs, %d incremental RIDs", len(bulkRIDs), len(incRIDs))
	}
	for i := range bulkRIDs {
		if bulkRIDs[i] != incRIDs[i] {
			t.Fatalf("RID %d differs: bulk %+v, incremental %+v", i, bulkRIDs[i], incRIDs[i])
		}
	}
}

func TestConstructSkipsBulkLoadOnMatchingReopen(t *testing.T) {
	const tupleSize = 16
	const keyOffset = 4

	relPath := filepath.Join(t.TempDir(), "rel.tbl")
	if err := relation.Create(relPath, tupleSize, [][]byte{make([]byte, tupleSize)}); err != nil {
		t.Fatalf("Create relation: %v", err)
	}
	dbPath := filepath.Join(t.TempDir(), "index.db")

	rel, err := relation.Open(relPath, tupleSize)
	if err != nil {
		t.Fatalf("Open relation: %v", err)
	}
	idx, err := btree.Construct(dbPath, "rel", rel, keyOffset, btree.AttrTypeInt, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	rel.Close()
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rel2, err := relation.Open(relPath, tupleSize)
	if err != nil {
		t.Fatalf("reopen relation: %v", err)
	}
	defer rel2.Close()

	reopened, err := btree.Construct(dbPath, "rel", rel2, keyOffset, btree.AttrTypeInt, nil)
	if err != nil {
		t.Fatalf("Construct on existing index: %v", err)
	}
	defer reopened.Close()
	// rel2's single tuple must still be unread: had Construct rescanned the
	// relation for an already-existing, metadata-matching index, this
	// ScanNext would fail with ErrEndOfRelation.
	if _, _, err := rel2.ScanNext(); err != nil {
		t.Fatalf("ScanNext: %v", err)
	}
	if err := reopened.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestConstructRejectsMismatchedMetadata(t *testing.T) {
	const tupleSize = 16
	const keyOffset = 4

	relPath := filepath.Join(t.TempDir(), "rel.tbl")
	if err := relation.Create(relPath, tupleSize, [][]byte{make([]byte, tupleSize)}); err != nil {
		t.Fatalf("Create relation: %v", err)
	}
	dbPath := filepath.Join(t.TempDir(), "index.db")

	rel, err := relation.Open(relPath, tupleSize)
	if err != nil {
		t.Fatalf("Open relation: %v", err)
	}
	idx, err := btree.Construct(dbPath, "rel", rel, keyOffset, btree.AttrTypeInt, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	rel.Close()
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rel2, err := relation.Open(relPath, tupleSize)
	if err != nil {
		t.Fatalf("reopen relation: %v", err)
	}
	defer rel2.Close()

	if _, err := btree.Construct(dbPath, "other-rel", rel2, keyOffset, btree.AttrTypeInt, nil); err != btree.ErrBadIndexInfo {
		t.Fatalf("got %v, want ErrBadIndexInfo", err)
	}
}
