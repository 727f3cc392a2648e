package pager_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"relindex/pkg/pager"
)

func newPager(t *testing.T) *pager.Pager {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	p, err := pager.New(dbFile, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestAllocPageIncrementsCount(t *testing.T) {
	p := newPager(t)
	if p.NumPages() != 0 {
		t.Fatalf("expected 0 pages, got %d", p.NumPages())
	}
	page, err := p.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if page.PageNum() != 0 {
		t.Fatalf("expected first page to be numbered 0, got %d", page.PageNum())
	}
	if p.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", p.NumPages())
	}
	if err := p.UnpinPage(page, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
}

func TestWritesSurviveCloseAndReopen(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	p, err := pager.New(dbFile, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	page, err := p.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	want := bytes.Repeat([]byte{0x42}, 16)
	page.Update(want, 0, int64(len(want)))
	if err := p.UnpinPage(page, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := pager.New(dbFile, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.NumPages() != 1 {
		t.Fatalf("expected 1 page after reopen, got %d", reopened.NumPages())
	}
	page, err = reopened.ReadPage(0)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	defer reopened.UnpinPage(page, false)
	if !bytes.Equal(page.Data()[:len(want)], want) {
		t.Fatalf("data did not survive reopen: got %v, want %v", page.Data()[:len(want)], want)
	}
}

func TestCloseFailsWithPinnedPages(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	p, err := pager.New(dbFile, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	page, err := p.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if err := p.Close(); err != pager.ErrPagesStillPinned {
		t.Fatalf("expected ErrPagesStillPinned, got %v", err)
	}
	p.UnpinPage(page, true)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestEvictionRecyclesUnpinnedFrames(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	const capacity = 4
	p, err := pager.NewWithCapacity(dbFile, capacity, nil)
	if err != nil {
		t.Fatalf("NewWithCapacity: %v", err)
	}
	defer p.Close()

	// Allocate more pages than fit in the buffer, unpinning each
	// immediately so frames are recycled from the unpinned list.
	for i := 0; i < capacity*3; i++ {
		page, err := p.AllocPage()
		if err != nil {
			t.Fatalf("AllocPage %d: %v", i, err)
		}
		marker := []byte{byte(i)}
		page.Update(marker, 0, 1)
		if err := p.UnpinPage(page, true); err != nil {
			t.Fatalf("UnpinPage %d: %v", i, err)
		}
	}
	if p.NumPages() != int64(capacity*3) {
		t.Fatalf("expected %d pages, got %d", capacity*3, p.NumPages())
	}
	// Every page's write should be recoverable even though most were
	// evicted from the buffer pool along the way.
	for i := 0; i < capacity*3; i++ {
		page, err := p.ReadPage(int64(i))
		if err != nil {
			t.Fatalf("ReadPage %d: %v", i, err)
		}
		if page.Data()[0] != byte(i) {
			t.Fatalf("page %d: got %d, want %d", i, page.Data()[0], i)
		}
		p.UnpinPage(page, false)
	}
}

func TestAllocPageRunsOutWhenAllPinned(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	const capacity = 2
	p, err := pager.NewWithCapacity(dbFile, capacity, nil)
	if err != nil {
		t.Fatalf("NewWithCapacity: %v", err)
	}
	defer func() {
		for i := int64(0); i < p.NumPages(); i++ {
			if page, err := p.ReadPage(i); err == nil {
				p.UnpinPage(page, false)
				p.UnpinPage(page, false)
			}
		}
	}()

	for i := 0; i < capacity; i++ {
		if _, err := p.AllocPage(); err != nil {
			t.Fatalf("AllocPage %d: %v", i, err)
		}
	}
	if _, err := p.AllocPage(); err != pager.ErrRanOutOfPages {
		t.Fatalf("expected ErrRanOutOfPages, got %v", err)
	}
}
