package wal

import (
	"errors"
	"diskdb/disk/pages"
	"diskdb/transaction"
)

type LogRecordType uint8

const (
	TypeInvalid = iota
	TypeInsert
	TypeSet
	TypeDelete
	TypeNewPage
	TypeFreePage
	TypeCheckpointBegin
	TypeCheckpointEnd
	TypeTxnBegin
	TypeCommit
	TypeAbort
	TypeTxnEnd
	TypePageFormat
	TypeCopyAt
)

const (
	LogRecordInlineSize = 1 + 8 + 8 + 8 + 2 + 8 + 8 + 1
)

type LogRecord struct {
	T       LogRecordType
	TxnID   transaction.TxnID
	Lsn     pages.LSN
	PrevLsn pages.LSN

	// for delete, insert and set
	Idx     uint16
	Payload []byte

	// for update
	OldPayload []byte

	// for new page
	PageID     uint64
	PrevPageID uint64

	// for heap page linkage
	TailPageID uint64
	HeadPageID uint64
	PageType   uint64

	// for page format
	FormattedAs pages.PageType

	// Raw holds the raw serialized bytes this record was deserialized from.
	Raw []byte

	// for copy-at
	Offset uint16

	// for commit
	FreedPages []uint64

	// for checkpoint begin/end
	Actives []transaction.TxnID

	// UndoNext carries the LSN a CLR should resume undoing from, once past this record.
	UndoNext pages.LSN

	// indicates if this is a clr log record
	IsClr bool
}

func (l *LogRecord) Type() LogRecordType {
	return l.T
}

func (l *LogRecord) GetTxnID() transaction.TxnID {
	return l.TxnID
}

func (l *LogRecord) Clr() (*LogRecord, error) {
	var clr *LogRecord
	switch l.T {
	case TypeDelete:
		clr = NewInsertLogRecord(l.TxnID, l.Idx, l.OldPayload, l.PageID)
	case TypeSet:
		clr = NewSetLogRecord(l.TxnID, l.Idx, l.OldPayload, l.Payload, l.PageID)
	case TypeInsert:
		clr = NewDeleteLogRecord(l.TxnID, l.Idx, l.Payload, l.PageID)
	default:
		return nil, errors.New("log record cannot be negated")
	}

	clr.IsClr = true
	return clr, nil
}

func NewInsertLogRecord(txnID transaction.TxnID, idx uint16, payload []byte, pageID uint64) *LogRecord {
	return &LogRecord{T: TypeInsert, TxnID: txnID, Idx: idx, Payload: payload, PageID: pageID}
}

func NewDeleteLogRecord(txnID transaction.TxnID, idx uint16, deleted []byte, pageID uint64) *LogRecord {
	return &LogRecord{T: TypeDelete, TxnID: txnID, Idx: idx, OldPayload: deleted, PageID: pageID}
}

func NewSetLogRecord(txnID transaction.TxnID, idx uint16, payload, oldPayload []byte, pageID uint64) *LogRecord {
	return &LogRecord{T: TypeSet, TxnID: txnID, Idx: idx, Payload: payload, OldPayload: oldPayload, PageID: pageID}
}

func NewAllocPageLogRecord(txnID transaction.TxnID, pageID uint64) *LogRecord {
	return &LogRecord{T: TypeNewPage, TxnID: txnID, PageID: pageID}
}

func NewFreePageLogRecord(txnID transaction.TxnID, pageID uint64) *LogRecord {
	return &LogRecord{T: TypeFreePage, TxnID: txnID, PageID: pageID}
}

func NewAbortLogRecord(txnID transaction.TxnID) *LogRecord {
	return &LogRecord{T: TypeAbort, TxnID: txnID}
}

// NewCommitLogRecord records a transaction's commit along with the pages it freed. Recovery does not read
// FreedPages from commit records; the frees are done by the transaction manager after the commit record is flushed.
func NewCommitLogRecord(txnID transaction.TxnID, freedPages []uint64) *LogRecord {
	return &LogRecord{T: TypeCommit, TxnID: txnID, FreedPages: freedPages}
}

// NewTxnEndLogRecord marks a transaction as fully finished, after its freed pages have been reclaimed.
// Recovery treats a transaction with no end record as needing undo even if a commit record exists.
func NewTxnEndLogRecord(txnID transaction.TxnID) *LogRecord {
	return &LogRecord{T: TypeTxnEnd, TxnID: txnID}
}

// NewPageFormatLogRecord records that pageID was (re)formatted as the given page layout, so redo can
// recreate the page's header before replaying the tuple-level records that follow it.
func NewPageFormatLogRecord(txnID transaction.TxnID, formattedAs pages.PageType, pageID uint64) *LogRecord {
	return &LogRecord{T: TypePageFormat, TxnID: txnID, FormattedAs: formattedAs, PageID: pageID}
}

// NewCopyAtLogRecord records a CopyAtPage byte-range overwrite, logging the old bytes so it can be undone.
func NewCopyAtLogRecord(txnID transaction.TxnID, offset uint16, payload, oldPayload []byte, pageID uint64) *LogRecord {
	return &LogRecord{T: TypeCopyAt, TxnID: txnID, Offset: offset, Payload: payload, OldPayload: oldPayload, PageID: pageID}
}

// NewDiskAllocPageLogRecord is an alias of NewAllocPageLogRecord for call sites phrased around the disk
// manager's page allocation rather than the buffer pool's.
func NewDiskAllocPageLogRecord(txnID transaction.TxnID, pageID uint64) *LogRecord {
	return NewAllocPageLogRecord(txnID, pageID)
}

func NewCheckpointBeginLogRecord(activeTxnList ...transaction.TxnID) *LogRecord {
	return &LogRecord{T: TypeCheckpointBegin, Actives: activeTxnList}
}

func NewCheckpointEndLogRecord(activeTxnList ...transaction.TxnID) *LogRecord {
	return &LogRecord{T: TypeCheckpointEnd, Actives: activeTxnList}
}
