package pager

import "sync/atomic"

// NoPage is the pagenum for a frame that currently holds no page.
const NoPage = -1

// Page caches one page's worth of bytes from the backing file, plus the
// bookkeeping the pager needs to know when a frame can be reused.
//
// The index is single-threaded and synchronous (spec.md §5), so unlike the
// teacher's Page there is no per-page lock here: the only discipline that
// matters is pin/unpin, enforced by the Pager.
type Page struct {
	pager    *Pager       // The pager that owns this page's frame.
	pagenum  int64        // Unique identifier for the page within its file.
	pinCount atomic.Int64 // The number of outstanding pins on this page.
	dirty    bool         // Whether the page's bytes differ from what's on disk.
	data     []byte       // The page's raw contents.
}

// PageNum returns the page's identifier (unique within its file).
func (page *Page) PageNum() int64 {
	return page.pagenum
}

// IsDirty reports whether the page has unflushed writes.
func (page *Page) IsDirty() bool {
	return page.dirty
}

// setDirty is only ever invoked by the pager, at UnpinPage, so that
// dirtiness is set exactly once per pin/unpin cycle and callers can't
// forget to flag a page they modified.
func (page *Page) setDirty(dirty bool) {
	page.dirty = page.dirty || dirty
}

// Data returns the page's raw bytes for reading or in-place writing.
func (page *Page) Data() []byte {
	return page.data
}

// Update copies size bytes of data into the page starting at offset.
// It does not itself mark the page dirty; the caller communicates that at
// UnpinPage time, per the buffer manager contract of spec.md §6.
func (page *Page) Update(data []byte, offset int64, size int64) {
	copy(page.data[offset:offset+size], data[:size])
}

// pin increments the pin count, indicating another caller now holds a
// reference obtained from ReadPage/AllocPage.
func (page *Page) pin() {
	page.pinCount.Add(1)
}

// unpin decrements the pin count and returns the resulting value.
func (page *Page) unpin() int64 {
	return page.pinCount.Add(-1)
}
