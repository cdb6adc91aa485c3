package concurrency

import (
	"errors"
	"diskdb/buffer"
	"diskdb/disk"
	"diskdb/disk/pages"
	"diskdb/transaction"
	"io"
)

// DiskManager fronts the buffer pool with the page-id-keyed, SlottedPage-typed
// surface the recovery and freelist layers were written against.
type DiskManager interface {
	Unpin(pageId uint64)
	NewPage(pageId uint64) (*pages.SlottedPage, error)
	GetPage(pageId uint64) (*pages.SlottedPage, error)
	FreePage(txn transaction.Transaction, pageID uint64)
	FreePageInRecovery(txn transaction.Transaction, pageID uint64, undoNext pages.LSN)
	GetFreeListLsn() pages.LSN
}

type diskManager struct {
	dm   *disk.Manager
	pool buffer.Pool
}

var _ DiskManager = &diskManager{}

func (d *diskManager) Unpin(pageId uint64) {
	d.pool.Unpin(pageId, false)
}

func (d *diskManager) NewPage(pageId uint64) (*pages.SlottedPage, error) {
	_, err := d.pool.GetPage(pageId)
	if err != io.EOF {
		return nil, errors.New("tried to allocate a page but it is already allocated")
	}

	// TODO: it may not be a slotted page.
	sp := pages.InitSlottedPage(pages.NewRawPage(pageId))
	if err := d.dm.WritePage(sp.GetWholeData(), pageId); err != nil {
		return nil, err
	}

	// to place it in pool try fetching again
	p, err := d.pool.GetPage(pageId)
	if err != nil {
		return nil, err
	}

	return pages.CastSlottedPage(p), nil
}

func (d *diskManager) GetPage(pageId uint64) (*pages.SlottedPage, error) {
	p, err := d.pool.GetPage(pageId)
	if err != nil {
		return nil, err
	}

	return pages.CastSlottedPage(p), nil
}

func (d *diskManager) FreePage(txn transaction.Transaction, pageID uint64) {
	d.pool.GetFreeList().Add(txn, pageID)
}

func (d *diskManager) FreePageInRecovery(txn transaction.Transaction, pageID uint64, undoNext pages.LSN) {
	d.pool.GetFreeList().AddInRecovery(txn, pageID, undoNext)
}

func (d *diskManager) GetFreeListLsn() pages.LSN {
	return d.pool.GetFreeList().GetHeaderPageLsn()
}
