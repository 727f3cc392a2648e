// Package rid defines the Record Identifier the index stores alongside each
// key: an opaque, client-supplied pointer back to a tuple in some relation.
package rid

import "encoding/binary"

// Size is the number of bytes a marshaled RID occupies on disk.
const Size = 8

// RID identifies a tuple by its page number and slot number within that
// page. The index never interprets these fields; it only compares, stores,
// and returns them.
//
// PageNum == 0 is reserved: IsValid reports false for it, and the index
// refuses to insert such a RID. Leaf nodes track their occupied slots with
// an explicit count, not by looking for page number 0.
type RID struct {
	PageNum int32
	SlotNum int32
}

// New constructs a RID from a page number and slot number.
func New(pageNum, slotNum int32) RID {
	return RID{PageNum: pageNum, SlotNum: slotNum}
}

// IsValid reports whether r could legitimately be stored in a leaf slot.
func (r RID) IsValid() bool {
	return r.PageNum != 0
}

// Marshal serializes r into a fixed 8-byte little-endian encoding.
func (r RID) Marshal() []byte {
	buf := make([]byte, Size)
	r.Put(buf)
	return buf
}

// Put writes r's fixed-width encoding into the first Size bytes of buf.
func (r RID) Put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.PageNum))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.SlotNum))
}

// Unmarshal decodes a RID from the first Size bytes of data.
func Unmarshal(data []byte) RID {
	return RID{
		PageNum: int32(binary.LittleEndian.Uint32(data[0:4])),
		SlotNum: int32(binary.LittleEndian.Uint32(data[4:8])),
	}
}
