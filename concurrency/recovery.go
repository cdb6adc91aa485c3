package concurrency

import (
	"diskdb/buffer"
	"diskdb/disk"
	"diskdb/disk/pages"
	"diskdb/disk/wal"
	"diskdb/transaction"
)

// Recovery replays a write-ahead log against the buffer pool on startup: every record with an LSN
// newer than its page's current LSN is redone, then any transaction that never reached a txn-end
// record is undone.
type Recovery struct {
	iter wal.LogIterator
	lm   wal.LogManager
	dm   RecoveryDiskManager
}

// NewRecovery wraps dm/pool as a RecoveryDiskManager and returns a Recovery ready to run against
// the log iter points at.
func NewRecovery(iter wal.LogIterator, lm wal.LogManager, dm disk.IDiskManager, pool buffer.Pool) *Recovery {
	return &Recovery{iter: iter, lm: lm, dm: &recoveryDiskManager{dm: dm, pool: pool}}
}

// Recover runs the analysis, redo and undo passes in order.
func (r *Recovery) Recover() error {
	records, losers, err := r.analyze()
	if err != nil {
		return err
	}

	if err := r.redo(records); err != nil {
		return err
	}

	return r.undo(losers)
}

// analyze walks the log backward from where iter was opened, collecting every record in the order
// they were originally appended, along with the set of transactions that were still active when
// the crash happened.
func (r *Recovery) analyze() ([]*wal.LogRecord, map[transaction.TxnID]bool, error) {
	var records []*wal.LogRecord
	losers := map[transaction.TxnID]bool{}
	ended := map[transaction.TxnID]bool{}

	for {
		lr, err := r.iter.Prev()
		if err == wal.ErrIteratorAtBeginning {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if lr == nil {
			break
		}

		records = append(records, lr)

		switch lr.T {
		case wal.TypeTxnEnd, wal.TypeAbort:
			// records are visited newest first, so an end record is seen before the txn's other records
			ended[lr.TxnID] = true
			delete(losers, lr.TxnID)
		case wal.TypeTxnBegin, wal.TypeInsert, wal.TypeSet, wal.TypeDelete, wal.TypeCopyAt, wal.TypeNewPage, wal.TypeFreePage:
			if !ended[lr.TxnID] {
				losers[lr.TxnID] = true
			}
		}
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, losers, nil
}

// redo reapplies every record whose page's persisted LSN is older than the record's own LSN, so a
// partially-flushed buffer pool catches back up to what the log says happened.
func (r *Recovery) redo(records []*wal.LogRecord) error {
	for _, lr := range records {
		switch lr.T {
		case wal.TypeInsert, wal.TypeSet, wal.TypeDelete, wal.TypeCopyAt, wal.TypePageFormat:
			if err := r.applyPageRecord(lr, false); err != nil {
				return err
			}
		case wal.TypeFreePage:
			if err := r.dm.FreePage(transaction.TxnTODO(), lr.PageID); err != nil {
				return err
			}
		}
	}

	return nil
}

// undo negates every record belonging to a transaction that never committed or aborted, walking
// that transaction's records in reverse and writing a CLR for each one so a second crash mid-undo
// does not redo work that was already rolled back.
func (r *Recovery) undo(losers map[transaction.TxnID]bool) error {
	for id := range losers {
		it := wal.NewTxnLogIterator(id, nil)
		for {
			lr, err := it.Prev()
			if err != nil {
				return err
			}
			if lr == nil {
				break
			}

			if err := r.Undo(lr, 0); err != nil {
				return err
			}
		}

		r.lm.AppendLog(wal.NewAbortLogRecord(id))
		r.lm.AppendLog(wal.NewTxnEndLogRecord(id))
	}

	return nil
}

// Undo negates a single log record: it builds the record's CLR, applies the CLR's physical effect
// to the page it targets, and appends the CLR to the log so undo is itself crash-safe.
func (r *Recovery) Undo(lr *wal.LogRecord, undoNext pages.LSN) error {
	if lr.T == wal.TypeFreePage {
		return nil
	}

	clr, err := lr.Clr()
	if err != nil {
		// record cannot be negated, e.g. txn begin/commit/checkpoint markers: nothing to undo.
		return nil
	}

	clr.UndoNext = undoNext
	if err := r.applyPageRecord(clr, true); err != nil {
		return err
	}

	r.lm.AppendLog(clr)
	return nil
}

// applyPageRecord reapplies a single physical log record's effect to the page it targets, skipping
// it when the page is already at least as new, unless force is set (undo always applies).
func (r *Recovery) applyPageRecord(lr *wal.LogRecord, force bool) error {
	if lr.PageID == 0 {
		return nil
	}

	p, err := r.dm.GetPage(lr.PageID)
	if err != nil {
		return err
	}
	defer r.dm.Unpin(lr.PageID)

	if !force && p.GetPageLSN() >= lr.Lsn {
		return nil
	}

	sp := pages.CastSlottedPage(p)
	switch lr.T {
	case wal.TypePageFormat:
		pages.InitSlottedPage(p)
	case wal.TypeInsert:
		if _, err := sp.InsertTuple(lr.Payload); err != nil {
			return err
		}
	case wal.TypeDelete:
		if err := sp.HardDelete(int(lr.Idx)); err != nil {
			return err
		}
	case wal.TypeSet:
		if err := sp.UpdateTuple(int(lr.Idx), lr.Payload); err != nil {
			return err
		}
	case wal.TypeCopyAt:
		cp := pages.CastCopyAtPage(p)
		cp.CopyAt(lr.Offset, lr.Payload)
	}

	p.SetPageLSN(lr.Lsn)
	return nil
}
