package pfreelistv1

import (
	"diskdb/common"
	"diskdb/disk/pages"
	"diskdb/disk/wal"
	"diskdb/freelist/freelistv1"
	"diskdb/transaction"
)

var _ freelistv1.FreeListPage = &loggedFreelistPage{}

type loggedFreelistPage struct {
	sp   *pages.SlottedPage
	pool Pool
	lm   wal.LogManager
}

func (s *loggedFreelistPage) Get() []byte {
	return s.sp.GetTuple(0)
}

func (s *loggedFreelistPage) Set(txn transaction.Transaction, bytes []byte, l *freelistv1.OpLog) error {
	old := common.Clone(s.Get())

	if err := s.sp.UpdateTuple(0, bytes); err != nil {
		if _, insertErr := s.sp.InsertTuple(bytes); insertErr != nil {
			return insertErr
		}
	}

	lsn := s.lm.AppendLog(wal.NewSetLogRecord(txn.GetID(), 0, bytes, old, s.sp.GetPageId()))
	s.sp.SetPageLSN(lsn)
	s.sp.SetDirty()

	return nil
}

func (s *loggedFreelistPage) GetPageId() uint64 {
	return s.sp.GetPageId()
}

func (s *loggedFreelistPage) GetLSN() uint64 {
	return uint64(s.sp.GetPageLSN())
}

func (s *loggedFreelistPage) Release() {
	s.pool.Unpin(s.sp.GetPageId(), true)
	s.sp.WUnlatch()
}

func newLoggedFreelistPage(p *pages.RawPage, pool Pool, lm wal.LogManager) *loggedFreelistPage {
	return &loggedFreelistPage{sp: pages.CastSlottedPage(p), pool: pool, lm: lm}
}

func initLoggedFreelistPage(txn transaction.Transaction, p *pages.RawPage, pool Pool, lm wal.LogManager) *loggedFreelistPage {
	lsn := lm.AppendLog(wal.NewPageFormatLogRecord(txn.GetID(), pages.TypeSlottedPage, p.GetPageId()))

	sp := pages.InitSlottedPage(p)
	sp.SetPageLSN(lsn)
	sp.SetDirty()

	return &loggedFreelistPage{sp: sp, pool: pool, lm: lm}
}
