package structures

import (
	"diskdb/common"
	"diskdb/disk/pages"
	"diskdb/transaction"
)

type Iterator interface {
	Next() interface{}
}

type TableIterator struct {
	txn  transaction.Transaction
	rid  Rid
	heap *TableHeap
}

func (it *TableIterator) Next() *Row {
	// TODO: get pool from somewhere else
	pool := it.heap.Pool
	dest := Row{}

	currPage, err := pool.GetPage(uint64(it.rid.PageId))
	common.PanicIfErr(err)
	sp := pages.SlottedPageInstanceFromRawPage(currPage)

	nextIdx, err := sp.GetNextIdx(int(it.rid.SlotIdx))
	if err != nil {
		for {
			nextPageID := sp.GetHeader().NextPageID
			if nextPageID == 0 {
				// we come to the end of heap
				return nil
			}

			currPage, err = pool.GetPage(uint64(nextPageID))
			common.PanicIfErr(err)
			sp = pages.SlottedPageInstanceFromRawPage(currPage)
			nextIdx, err = sp.GetNextIdx(-1)
			if err != nil {
				continue
			}
			break
		}
	}

	nextRid := Rid{
		PageId:  int64(sp.GetPageId()),
		SlotIdx: int16(nextIdx),
	}
	if err := it.heap.ReadTuple(nextRid, &dest, it.txn); err != nil {
		panic(err)
	}

	it.rid = nextRid
	return &dest
}

func NewTableIterator(txn transaction.Transaction, heap *TableHeap) *TableIterator {
	return &TableIterator{
		txn: txn,
		rid: Rid{
			PageId:  int64(heap.FirstPageID),
			SlotIdx: -1,
		},
		heap: heap,
	}
}
