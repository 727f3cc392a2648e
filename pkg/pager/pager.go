// Package pager implements the Paged File and Buffer Manager collaborators
// described in spec.md §6: a fixed-size page abstraction over a single
// backing file, with a pin-counted buffer pool sitting in front of it.
package pager

import (
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ncw/directio"

	"relindex/pkg/config"
	"relindex/pkg/list"
)

// Pagesize is the size, in bytes, of a single page. Every B+Tree node is
// sized to fit exactly one page (spec.md §4.1).
const Pagesize int64 = directio.BlockSize

// ErrRanOutOfPages is returned when no frame is free or evictable.
var ErrRanOutOfPages = errors.New("pager: no available page frames")

// ErrPagesStillPinned is returned by Close if pages remain pinned.
var ErrPagesStillPinned = errors.New("pager: pages are still pinned on close")

// Pager manages the pages of a single backing file, keeping up to
// config.MaxPagesInBuffer of them resident in memory at once.
type Pager struct {
	file     *os.File
	numPages int64

	freeList     *list.List // Preallocated frames never yet assigned a page.
	unpinnedList *list.List // Resident pages with a pin count of zero.
	pinnedList   *list.List // Resident pages currently pinned by a caller.
	pageTable    map[int64]*list.Link

	log *zap.Logger
}

// New opens (or creates) a Pager backed by the file at filePath, using the
// given logger for diagnostic events. A nil logger is treated as
// zap.NewNop(), matching the convention in RichardKnop-minisql of
// defaulting to a no-op logger when none is supplied.
func New(filePath string, log *zap.Logger) (*Pager, error) {
	return NewWithCapacity(filePath, config.MaxPagesInBuffer, log)
}

// NewWithCapacity is like New but sets the buffer pool's frame count
// explicitly, primarily so tests can force eviction without allocating a
// full-size buffer pool.
func NewWithCapacity(filePath string, capacity int, log *zap.Logger) (*Pager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pager := &Pager{
		pageTable:    make(map[int64]*list.Link),
		freeList:     list.NewList(),
		unpinnedList: list.NewList(),
		pinnedList:   list.NewList(),
		log:          log,
	}
	frames := directio.AlignedBlock(int(Pagesize) * capacity)
	for i := 0; i < capacity; i++ {
		frame := frames[i*int(Pagesize) : (i+1)*int(Pagesize)]
		pager.freeList.PushTail(&Page{pager: pager, pagenum: NoPage, data: frame})
	}
	if err := pager.open(filePath); err != nil {
		return nil, err
	}
	return pager, nil
}

// FileName returns the path of the file backing this pager.
func (pager *Pager) FileName() string {
	return pager.file.Name()
}

// NumPages returns the number of pages currently allocated in the file.
func (pager *Pager) NumPages() int64 {
	return pager.numPages
}

// open (re)initializes the pager against the file at filePath, creating it
// if it doesn't already exist.
func (pager *Pager) open(filePath string) error {
	if idx := strings.LastIndex(filePath, "/"); idx != -1 {
		if err := os.MkdirAll(filePath[:idx], 0775); err != nil {
			return err
		}
	}
	file, err := directio.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	pager.file = file

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size()%Pagesize != 0 {
		return errors.New("pager: file size is not a multiple of the page size")
	}
	pager.numPages = info.Size() / Pagesize
	return nil
}

// Close flushes all dirty pages and closes the backing file. It refuses to
// close while any page remains pinned, since that would silently drop a
// caller's outstanding reference.
func (pager *Pager) Close() error {
	if pager.pinnedList.PeekHead() != nil {
		return ErrPagesStillPinned
	}
	pager.FlushFile()
	pager.log.Info("pager closed", zap.String("file", pager.file.Name()))
	return pager.file.Close()
}

func (pager *Pager) fillFromDisk(page *Page) error {
	if _, err := pager.file.Seek(page.pagenum*Pagesize, io.SeekStart); err != nil {
		return err
	}
	if _, err := pager.file.Read(page.data); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// newFrame returns a Page frame ready to be assigned pagenum, evicting an
// unpinned page if the free list is empty.
func (pager *Pager) newFrame(pagenum int64) (*Page, error) {
	if link := pager.freeList.PeekHead(); link != nil {
		link.PopSelf()
		page := link.GetValue().(*Page)
		page.pagenum = pagenum
		page.dirty = false
		page.pinCount.Store(1)
		return page, nil
	}
	if link := pager.unpinnedList.PeekHead(); link != nil {
		link.PopSelf()
		page := link.GetValue().(*Page)
		pager.flush(page)
		delete(pager.pageTable, page.pagenum)
		pager.log.Debug("evicted page", zap.Int64("pagenum", page.pagenum))
		page.pagenum = pagenum
		page.dirty = false
		page.pinCount.Store(1)
		return page, nil
	}
	return nil, ErrRanOutOfPages
}

// AllocPage returns a new, zero-filled, pinned page with the next available
// page number.
func (pager *Pager) AllocPage() (*Page, error) {
	page, err := pager.newFrame(pager.numPages)
	if err != nil {
		return nil, err
	}
	for i := range page.data {
		page.data[i] = 0
	}
	page.dirty = true
	link := pager.pinnedList.PushTail(page)
	pager.pageTable[page.pagenum] = link
	pager.numPages++
	return page, nil
}

// ReadPage returns the (pinned) page with the given page number, reading it
// from disk if it isn't already resident.
func (pager *Pager) ReadPage(pagenum int64) (*Page, error) {
	if pagenum < 0 || pagenum > pager.numPages-1 {
		return nil, errors.New("pager: invalid page number")
	}
	if link, ok := pager.pageTable[pagenum]; ok {
		page := link.GetValue().(*Page)
		if link.GetList() != pager.pinnedList {
			link.PopSelf()
			pager.pageTable[pagenum] = pager.pinnedList.PushTail(page)
		}
		page.pin()
		return page, nil
	}

	page, err := pager.newFrame(pagenum)
	if err != nil {
		return nil, err
	}
	if err := pager.fillFromDisk(page); err != nil {
		pager.freeList.PushTail(page)
		return nil, err
	}
	page.dirty = false
	pager.pageTable[pagenum] = pager.pinnedList.PushTail(page)
	return page, nil
}

// UnpinPage releases one reference to page, flagging it dirty if dirty is
// true. Once a page's pin count reaches zero it moves to the unpinned list
// and becomes eligible for eviction.
func (pager *Pager) UnpinPage(page *Page, dirty bool) error {
	page.setDirty(dirty)
	remaining := page.unpin()
	if remaining < 0 {
		return errors.New("pager: page unpinned more times than it was pinned")
	}
	if remaining == 0 {
		link := pager.pageTable[page.pagenum]
		link.PopSelf()
		pager.pageTable[page.pagenum] = pager.unpinnedList.PushTail(page)
	}
	return nil
}

// flush writes page's bytes to disk if it is dirty, and clears the dirty
// bit. The caller must already hold whatever pin/eviction rights are needed.
func (pager *Pager) flush(page *Page) {
	if !page.IsDirty() {
		return
	}
	if _, err := pager.file.WriteAt(page.data, page.pagenum*Pagesize); err != nil {
		pager.log.Error("failed to flush page", zap.Int64("pagenum", page.pagenum), zap.Error(err))
		return
	}
	page.dirty = false
}

// FlushFile flushes every dirty resident page to disk.
func (pager *Pager) FlushFile() {
	flushOne := func(link *list.Link) { pager.flush(link.GetValue().(*Page)) }
	pager.pinnedList.Map(flushOne)
	pager.unpinnedList.Map(flushOne)
}
