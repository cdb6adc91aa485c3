package structures

import (
	"errors"
	"diskdb/btree"
	"diskdb/buffer"
	"diskdb/disk/pages"
	"diskdb/transaction"
)

type Rid btree.SlotPointer

func NewRid(pageID uint64, slotIdx int) Rid {
	return Rid{
		PageId:  int64(pageID),
		SlotIdx: int16(slotIdx),
	}
}

type ITableHeap interface {
	// InsertTuple Insert a tuple into the table. If the tuple is too large (>= page_size), return error.
	InsertTuple(tuple Row, txn transaction.Transaction) (Rid, error)

	// UpdateTuple if the new tuple is too large to fit in the old page, return error (will delete and insert)
	UpdateTuple(tuple Row, rid Rid, txn transaction.Transaction) error

	// ReadTuple if tuple does not exist at rid returns an error
	ReadTuple(rid Rid, dest *Row, txn transaction.Transaction) error

	// HardDeleteTuple if tuple does not exist at rid returns an error
	HardDeleteTuple(rid Rid, txn transaction.Transaction) error

	// Vacuum compresses the structure so that there are no gaps between pages and in pages.
	Vacuum() error
}

type TableHeap struct {
	Pool        *buffer.BufferPool
	FirstPageID uint64
	LastPageID  uint64
}

// NewTableHeapWithTxn allocates the first page of a brand new table heap and returns a heap rooted at it.
func NewTableHeapWithTxn(pool *buffer.BufferPool, txn transaction.Transaction) (*TableHeap, error) {
	page, err := pool.NewPage(txn)
	if err != nil {
		return nil, err
	}

	pages.InitSlottedPage(page)
	pageId := page.GetPageId()
	pool.Unpin(pageId, true)

	return &TableHeap{
		Pool:        pool,
		FirstPageID: pageId,
		LastPageID:  pageId,
	}, nil
}

func (t *TableHeap) HardDeleteTuple(rid Rid, txn transaction.Transaction) error {
	page, err := t.Pool.GetPage(uint64(rid.PageId))
	if err != nil {
		return err
	}

	slottedPage := pages.SlottedPageInstanceFromRawPage(page)
	if err := slottedPage.HardDelete(int(rid.SlotIdx)); err != nil {
		return err
	}

	return nil
}

func (t *TableHeap) InsertTuple(tuple Row, txn transaction.Transaction) (Rid, error) {
	// TODO: unpin pages
	if tuple.Length()+pages.SLOT_ARRAY_ENTRY_SIZE > (&pages.SlottedPage{}).Cap() {
		return Rid{}, errors.New("tuple is too large to fit in a page")
	}

	currPage, err := t.GetFirstPage()
	if err != nil {
		return Rid{}, err
	}

	for {
		// if there is enough space in the current page insert tuple and return rid
		if currPage.GetFreeSpace() >= (tuple.Length())+pages.SLOT_ARRAY_ENTRY_SIZE {
			idx, err := currPage.InsertTuple(tuple.GetData())
			if err != nil {
				return Rid{}, err
			}
			t.Pool.Unpin(currPage.GetPageId(), true)
			return NewRid(currPage.GetPageId(), idx), nil
		}

		// else get next page and try again
		if currPage.GetHeader().NextPageID == 0 {
			page, err := t.Pool.NewPage(txn)
			if err != nil {
				return Rid{}, err
			}

			currPage.WLatch()
			h := currPage.GetHeader()
			h.NextPageID = int64(page.GetPageId())
			currPage.SetHeader(h)
			currPage.WUnlatch()

			t.Pool.Unpin(currPage.GetPageId(), true)
			currPage = pages.FormatAsSlottedPage(page)
			continue
		}

		// if next page id is set move on to that page
		t.Pool.Unpin(currPage.GetPageId(), false)
		raw, err := t.Pool.GetPage(uint64(currPage.GetHeader().NextPageID))
		if err != nil {
			return Rid{}, err
		}
		currPage = pages.SlottedPageInstanceFromRawPage(raw)
	}
}

func (t *TableHeap) UpdateTuple(tuple Row, rid Rid, txn transaction.Transaction) error {
	page, err := t.Pool.GetPage(uint64(rid.PageId))
	if err != nil {
		return err
	}

	slottedPage := pages.SlottedPageInstanceFromRawPage(page)
	if err := slottedPage.UpdateTuple(int(rid.SlotIdx), tuple.GetData()); err != nil {
		// if error is because of tuple does not have enough space then update should do delete-insert
		return err
	}

	return nil
}

func (t *TableHeap) ReadTuple(rid Rid, dest *Row, txn transaction.Transaction) error {
	p, err := t.Pool.GetPage(uint64(rid.PageId))
	if err != nil {
		return err
	}

	slottedPage := pages.SlottedPageInstanceFromRawPage(p)
	data := slottedPage.GetTuple(int(rid.SlotIdx))
	dest.Data = data
	dest.Rid = rid
	t.Pool.Unpin(p.GetPageId(), false)
	return nil
}

func (t *TableHeap) Vacuum() error {
	// TODO: should it have a transaction? it might be beneficial to have a special transaction for these kind of
	// background jobs so that they can work in parallel to other processes too.
	panic("implement me")
}

func (t *TableHeap) GetLastPage() (*pages.SlottedPage, error) {
	rawPage, err := t.Pool.GetPage(t.LastPageID)
	if err != nil {
		return nil, err
	}
	slottedPage := pages.SlottedPageInstanceFromRawPage(rawPage)

	return slottedPage, nil
}

func (t *TableHeap) GetFirstPage() (*pages.SlottedPage, error) {
	rawPage, err := t.Pool.GetPage(t.FirstPageID)
	if err != nil {
		return nil, err
	}
	slottedPage := pages.SlottedPageInstanceFromRawPage(rawPage)

	return slottedPage, nil
}
