// Package relation implements the Relation Scanner collaborator described in
// spec.md §6: a fixed-width tuple heap file that Construct reads
// sequentially to bulk-load an index, mirroring the FileScan/getRecord
// pattern of the reference corpus's blob-file relations.
package relation

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"relindex/pkg/rid"
)

// ErrEndOfRelation is returned by ScanNext once every tuple has been
// visited.
var ErrEndOfRelation = errors.New("relation: end of relation")

// Relation is a flat file of fixed-width tuples, one per slot, with no
// deletions or free-space bookkeeping: exactly what a bulk load needs to
// walk once, in file order, handing out a RID per tuple.
type Relation struct {
	file      *os.File
	tupleSize int
	numTuples int64
	nextTuple int64
}

// Create writes a new relation file at path containing the given tuples,
// each of which must be exactly tupleSize bytes.
func Create(path string, tupleSize int, tuples [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, tuple := range tuples {
		if len(tuple) != tupleSize {
			return errors.New("relation: tuple has wrong width")
		}
		if _, err := f.Write(tuple); err != nil {
			return err
		}
	}
	return nil
}

// Open opens an existing relation file for scanning.
func Open(path string, tupleSize int) (*Relation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size()%int64(tupleSize) != 0 {
		f.Close()
		return nil, errors.New("relation: file size is not a multiple of the tuple width")
	}
	return &Relation{
		file:      f,
		tupleSize: tupleSize,
		numTuples: info.Size() / int64(tupleSize),
	}, nil
}

// Close closes the underlying file.
func (r *Relation) Close() error {
	return r.file.Close()
}

// TupleSize returns the fixed width of every tuple in the relation.
func (r *Relation) TupleSize() int {
	return r.tupleSize
}

// ScanNext advances the scan and returns the next tuple's bytes together
// with a RID identifying it, or ErrEndOfRelation once the file is
// exhausted. The RID's slot number is the tuple's ordinal position; its
// page number is always 1, since a Relation is a single unpaged file
// rather than a paged one (spec.md's paging model applies only to the
// index file itself).
func (r *Relation) ScanNext() ([]byte, rid.RID, error) {
	if r.nextTuple >= r.numTuples {
		return nil, rid.RID{}, ErrEndOfRelation
	}
	buf := make([]byte, r.tupleSize)
	off := r.nextTuple * int64(r.tupleSize)
	if _, err := r.file.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, rid.RID{}, err
	}
	tupleRID := rid.New(1, int32(r.nextTuple)+1)
	r.nextTuple++
	return buf, tupleRID, nil
}

// Reset rewinds the scan to the first tuple.
func (r *Relation) Reset() {
	r.nextTuple = 0
}

// Int32At extracts a little-endian int32 attribute from tuple at the given
// byte offset, matching the attrByteOffset convention of the reference
// corpus's IndexMetaInfo.
func Int32At(tuple []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(tuple[offset : offset+4]))
}
