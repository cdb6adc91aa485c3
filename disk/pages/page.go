package pages

import (
	"diskdb/disk"
	"sync"
)

// IPage is a wrapper for actual physical pages in the file system. It can provide the actual content of the
// physical page as a byte array. It also keeps some useful information about the page for buffer pool.
type IPage interface {
	GetData() []byte

	// GetWholeData returns the whole backing array of the page, header included, as opposed to GetData
	// which callers historically used for the payload region.
	GetWholeData() []byte

	// GetPageId returns the page_id of the physical page.
	GetPageId() uint64
	GetPinCount() int
	IsDirty() bool
	SetDirty()
	SetClean()
	WLatch()
	WUnlatch()
	RLatch()
	RUnLatch()
	TryRLatch() bool
	IncrPinCount()
	DecrPinCount()

	// GetPageLSN and SetPageLSN track the LSN of the last log record that describes a modification to this
	// page's content, used by the buffer pool to enforce write-ahead-logging before eviction.
	GetPageLSN() LSN
	SetPageLSN(lsn LSN)
}

// PageType tags a raw page with the layout its content is formatted as, so a
// page can be cast back to the right concrete type without the caller having
// to remember what it allocated it as.
type PageType uint8

const (
	TypeInvalidPage PageType = iota
	TypeSlottedPage
	TypeHeapPage
	TypeCopyAtPage
)

type RawPage struct {
	PageId   uint64
	pageLSN  LSN
	isDirty  bool
	pageType PageType
	rwLatch  sync.RWMutex
	PinCount int
	Data     []byte
}

func NewRawPage(pageId uint64) *RawPage {
	return &RawPage{
		PageId:   pageId,
		isDirty:  false,
		rwLatch:  sync.RWMutex{},
		PinCount: 0,
		Data:     make([]byte, disk.PageSize, disk.PageSize),
	}
}

func (p *RawPage) IncrPinCount() {
	p.PinCount++
}

func (p *RawPage) DecrPinCount() {
	p.PinCount--
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

// GetWholeData is an alias of GetData kept for callers that think of a page as the unit the disk manager
// reads and writes, header and payload together.
func (p *RawPage) GetWholeData() []byte {
	return p.Data
}

func (p *RawPage) GetPageId() uint64 {
	return p.PageId
}

// SetPageId re-stamps the frame with a new identity. Used by the buffer pool when a frame is reused for a
// different page after eviction.
func (p *RawPage) SetPageId(pageId uint64) {
	p.PageId = pageId
}

func (p *RawPage) GetPinCount() int {
	return p.PinCount
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

// GetType returns the page layout this page's content was last formatted as.
func (p *RawPage) GetType() PageType {
	return p.pageType
}

// SetType stamps the page with the layout it is being formatted as.
func (p *RawPage) SetType(t PageType) {
	p.pageType = t
}

func (p *RawPage) GetPageLSN() LSN {
	return p.pageLSN
}

func (p *RawPage) SetPageLSN(lsn LSN) {
	p.pageLSN = lsn
}

// Clear zeroes the page's backing array and resets its bookkeeping fields. Used before a reused frame is
// handed out as a brand new page so stale content from the previous occupant is never visible.
func (p *RawPage) Clear() {
	for i := range p.Data {
		p.Data[i] = 0
	}
	p.isDirty = false
	p.pageLSN = ZeroLSN
}

func (p *RawPage) WLatch() {
	p.rwLatch.Lock()
}

func (p *RawPage) WUnlatch() {
	p.rwLatch.Unlock()
}

func (p *RawPage) RLatch() {
	p.rwLatch.RLock()
}

func (p *RawPage) RUnLatch() {
	p.rwLatch.RUnlock()
}

// TryRLatch attempts to take a shared latch without blocking, used by the buffer pool's flush path so
// concurrent readers never stall an eviction.
func (p *RawPage) TryRLatch() bool {
	return p.rwLatch.TryRLock()
}

var _ IPage = &RawPage{}
