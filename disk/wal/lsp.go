package wal

import (
	"diskdb/common"
	"diskdb/disk/pages"
	"diskdb/transaction"
)

// LSP wraps a slotted page so every mutation is logged to the wal right after
// it is applied to the page, the minimal write-ahead discipline the freelist's own pages
// need since they are not covered by the table heap's logging path.
type LSP struct {
	*pages.SlottedPage
	lm LogManager
}

func (p *LSP) InsertAt(txn transaction.Transaction, idx int, data []byte) error {
	i, err := p.SlottedPage.InsertTuple(data)
	if err != nil {
		return err
	}
	p.lm.AppendLog(NewInsertLogRecord(txn.GetID(), uint16(i), data, p.GetPageId()))
	_ = idx
	return nil
}

func (p *LSP) SetAt(txn transaction.Transaction, idx int, data []byte) error {
	old := common.Clone(p.SlottedPage.GetTuple(idx))
	if err := p.SlottedPage.UpdateTuple(idx, data); err != nil {
		return err
	}
	p.lm.AppendLog(NewSetLogRecord(txn.GetID(), uint16(idx), data, old, p.GetPageId()))
	return nil
}

func (p *LSP) DeleteAt(txn transaction.Transaction, idx int) error {
	deleted := common.Clone(p.SlottedPage.GetTuple(idx))
	if err := p.SlottedPage.HardDelete(idx); err != nil {
		return err
	}
	p.lm.AppendLog(NewDeleteLogRecord(txn.GetID(), uint16(idx), deleted, p.GetPageId()))
	return nil
}

func (p *LSP) GetAt(idx int) []byte {
	return p.SlottedPage.GetTuple(idx)
}

func NewLSP(sp *pages.SlottedPage, lm LogManager) LSP {
	return LSP{
		SlottedPage: sp,
		lm:          lm,
	}
}
