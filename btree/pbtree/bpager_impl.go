package pbtree

import (
	"diskdb/btree/btree"
	"diskdb/buffer"
	"diskdb/disk"
	"diskdb/disk/wal"
	"diskdb/heap/heap"
	"diskdb/heap/pheap"
	"diskdb/transaction"
)

const (
	MaxPageSizeForOverflow = 8
)

var _ btree.BPager = &BufferPoolBPager{}

// BufferPoolBPager is a btree.BPager implementation using buffer pool so that it is persistent.
type BufferPoolBPager struct {
	pool      buffer.Pool
	lm        wal.LogManager
	heapPager *pheap.BufferPoolPager
}

func NewBufferPoolBPager(pool buffer.Pool, lm wal.LogManager) *BufferPoolBPager {
	return &BufferPoolBPager{pool: pool, lm: lm, heapPager: pheap.NewBufferPoolPager(pool, lm)}
}

func (b *BufferPoolBPager) NewBPage(txn transaction.Transaction) (btree.BPageReleaser, error) {
	p, err := b.pool.NewPage(txn)
	if err != nil {
		return nil, err
	}
	p.WLatch()

	lsp := btree.InitLoggedSlottedPage(txn, p, b.lm)
	return &writeBPageReleaser{lsp, b}, nil
}

func (b *BufferPoolBPager) GetBPageToRead(txn transaction.Transaction, pointer btree.Pointer) (btree.BPageReleaser, error) {
	p, err := b.pool.GetPage(uint64(pointer))
	if err != nil {
		return nil, err
	}

	p.RLatch()
	lsp := btree.CastLoggedSlottedPage(p, b.lm)
	return &readBPageReleaser{&lsp, b}, nil
}

func (b *BufferPoolBPager) GetBPageToWrite(txn transaction.Transaction, pointer btree.Pointer) (btree.BPageReleaser, error) {
	p, err := b.pool.GetPage(uint64(pointer))
	if err != nil {
		return nil, err
	}

	p.WLatch()
	lsp := btree.CastLoggedSlottedPage(p, b.lm)
	return &writeBPageReleaser{&lsp, b}, nil
}

func (b *BufferPoolBPager) Unpin(p btree.Pointer) {
	b.pool.Unpin(uint64(p), true)
}

func (b *BufferPoolBPager) FreeBPage(txn transaction.Transaction, p btree.Pointer) {
	txn.FreePage(uint64(p))
}

func (b *BufferPoolBPager) CreateOverflow(txn transaction.Transaction) (btree.OverflowReleaser, error) {
	slotSize := disk.PageUsableSize / int(btree.MaxRequiredSize)

	h, err := heap.InitHeap(txn, slotSize, MaxPageSizeForOverflow, uint16(disk.PageUsableSize), b.heapPager)
	if err != nil {
		return nil, err
	}

	return &heapOverflow{h}, nil
}

func (b *BufferPoolBPager) FreeOverflow(txn transaction.Transaction, p btree.Pointer) error {
	h, err := heap.OpenHeap(uint64(p), MaxPageSizeForOverflow, uint16(disk.PageUsableSize), b.heapPager)
	if err != nil {
		return err
	}

	return h.Free(txn)
}

func (b *BufferPoolBPager) GetOverflowReleaser(p btree.Pointer) (btree.OverflowReleaser, error) {
	h, err := heap.OpenHeap(uint64(p), MaxPageSizeForOverflow, uint16(disk.PageUsableSize), b.heapPager)
	if err != nil {
		return nil, err
	}

	return &heapOverflow{h}, nil
}

// readBPageReleaser and writeBPageReleaser pair a latched LoggedSlottedPage with the bpager that
// handed it out, so Release both unpins the underlying buffer frame and drops the matching latch.
type readBPageReleaser struct {
	*btree.LoggedSlottedPage
	bpager *BufferPoolBPager
}

func (r *readBPageReleaser) Release() {
	r.bpager.Unpin(r.GetPageId())
	r.RUnLatch()
}

type writeBPageReleaser struct {
	*btree.LoggedSlottedPage
	bpager *BufferPoolBPager
}

func (w *writeBPageReleaser) Release() {
	w.bpager.Unpin(w.GetPageId())
	w.WUnlatch()
}

var _ btree.OverflowReleaser = &heapOverflow{}

// heapOverflow adapts heap.Heap, whose GetAt/Count methods predate the btree overflow interface's
// txn-threaded signatures, onto btree.Overflow.
type heapOverflow struct {
	*heap.Heap
}

func (h *heapOverflow) GetAt(txn transaction.Transaction, idx int) ([]byte, error) {
	return h.Heap.GetAt(idx)
}

func (h *heapOverflow) Count(txn transaction.Transaction) (int, error) {
	return h.Heap.Count()
}
