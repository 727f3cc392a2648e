package btree

import (
	"bytes"

	"relindex/pkg/config"
	"relindex/pkg/pager"
)

// AttrType identifies the type of the attribute an index is built over.
// Only integer attributes are supported; the type is still stored and
// checked on reopen so a mismatched index file is caught the same way a
// mismatched relation name or byte offset is.
type AttrType int32

const AttrTypeInt AttrType = 0

// Header page layout (page HeaderPN). It records the metadata an index
// needs to rediscover its own shape on reopen, and to validate a reopen
// call against: the indexed relation name and attribute, and which page is
// currently the root.
const (
	headerRelationNameOffset int64 = 0
	headerRelationNameSize   int64 = int64(config.MaxRelationNameLen) + 1 // +1 for the NUL terminator
	headerRootPNOffset       int64 = headerRelationNameOffset + headerRelationNameSize
	headerRootPNSize         int64 = 4
	headerInitialRootOffset  int64 = headerRootPNOffset + headerRootPNSize
	headerInitialRootSize    int64 = 4
	headerAttrOffsetOffset   int64 = headerInitialRootOffset + headerInitialRootSize
	headerAttrOffsetSize     int64 = 4
	headerAttrTypeOffset     int64 = headerAttrOffsetOffset + headerAttrOffsetSize
	headerAttrTypeSize       int64 = 4
)

// header is a thin view over the index's header page.
type header struct {
	pg *pager.Page
}

func asHeader(pg *pager.Page) *header { return &header{pg: pg} }

// initHeader stamps a fresh header page for a brand new index whose only
// node so far is the leaf at rootPN.
func initHeader(pg *pager.Page, relationName string, attrByteOffset int32, attrType AttrType, rootPN int64) {
	blank := make([]byte, pager.Pagesize)
	pg.Update(blank, 0, pager.Pagesize)
	h := asHeader(pg)
	h.setRelationName(relationName)
	h.setRootPN(rootPN)
	h.setInitialRootPN(rootPN)
	h.setAttrByteOffset(attrByteOffset)
	h.setAttrType(attrType)
}

// truncatedRelationName applies the same 19-byte-plus-NUL truncation the
// header field itself is bound by, so a caller's relation name can be
// compared against a stored one on equal footing.
func truncatedRelationName(name string) string {
	max := int(headerRelationNameSize) - 1
	if len(name) > max {
		return name[:max]
	}
	return name
}

func (h *header) relationName() string {
	raw := h.pg.Data()[headerRelationNameOffset : headerRelationNameOffset+headerRelationNameSize]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

// setRelationName truncates name to MaxRelationNameLen bytes on write, so
// the field always ends in a NUL, matching the reference corpus's
// strncpy-into-a-fixed-field convention. Truncation only happens at index
// creation time; reopening an index never rewrites this field.
func (h *header) setRelationName(name string) {
	buf := make([]byte, headerRelationNameSize)
	copy(buf[:headerRelationNameSize-1], name)
	h.pg.Update(buf, headerRelationNameOffset, headerRelationNameSize)
}

func (h *header) rootPN() int64 {
	return int64(getInt32(h.pg.Data(), headerRootPNOffset))
}

func (h *header) setRootPN(pn int64) {
	buf := make([]byte, headerRootPNSize)
	putInt32(buf, 0, int32(pn))
	h.pg.Update(buf, headerRootPNOffset, headerRootPNSize)
}

// initialRootPN returns the page number the root occupied when the index
// was created. As long as the current root still lives on this page, the
// tree is known to be a single leaf without walking it (spec.md §4.4's
// "is_initial_root" proxy).
func (h *header) initialRootPN() int64 {
	return int64(getInt32(h.pg.Data(), headerInitialRootOffset))
}

func (h *header) setInitialRootPN(pn int64) {
	buf := make([]byte, headerInitialRootSize)
	putInt32(buf, 0, int32(pn))
	h.pg.Update(buf, headerInitialRootOffset, headerInitialRootSize)
}

func (h *header) attrByteOffset() int32 {
	return getInt32(h.pg.Data(), headerAttrOffsetOffset)
}

func (h *header) setAttrByteOffset(off int32) {
	buf := make([]byte, headerAttrOffsetSize)
	putInt32(buf, 0, off)
	h.pg.Update(buf, headerAttrOffsetOffset, headerAttrOffsetSize)
}

func (h *header) attrType() AttrType {
	return AttrType(getInt32(h.pg.Data(), headerAttrTypeOffset))
}

func (h *header) setAttrType(t AttrType) {
	buf := make([]byte, headerAttrTypeSize)
	putInt32(buf, 0, int32(t))
	h.pg.Update(buf, headerAttrTypeOffset, headerAttrTypeSize)
}
