package concurrency

import (
	"diskdb/buffer"
	"diskdb/disk/pages"
	"diskdb/disk/wal"
	"diskdb/locker"
	"diskdb/transaction"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var _ transaction.Transaction = &txn{}

type txn struct {
	id          transaction.TxnID
	freedPages  []uint64
	prevLsn     pages.LSN
	undoingLog  []byte
	isolation   transaction.IsolationLevel
	state       transaction.State
	lockMgr     *locker.LockManager
}

func (t *txn) SetPrevLsn(lsn pages.LSN) {
	t.prevLsn = lsn
}

func (t *txn) GetPrevLsn() pages.LSN {
	return t.prevLsn
}

func (t *txn) GetID() transaction.TxnID {
	return t.id
}

func (t *txn) FreePage(pageID uint64) {
	t.freedPages = append(t.freedPages, pageID)
}

func (t *txn) GetUndoingLog() []byte {
	return t.undoingLog
}

func (t *txn) SetUndoingLog(b []byte) {
	t.undoingLog = b
}

func (t *txn) GetIsolationLevel() transaction.IsolationLevel {
	return t.isolation
}

func (t *txn) GetState() transaction.State {
	return t.state
}

func (t *txn) SetState(s transaction.State) {
	t.state = s
}

// AcquireLock and AcquireLatch/ReleaseLatch/ReleaseLocks defer to the page-latch manager shared
// with the buffer pool: this is latch crabbing over physical pages (B+Tree/heap page access), a
// different concern from the table/row transactional locks concurrency/lockmanager grants.
func (t *txn) AcquireLock(pageID uint64, lockType transaction.LockType) error {
	return t.lockMgr.AcquireLock(pageID, uint64(t.id), toLockerMode(lockType))
}

func (t *txn) AcquireLatch(pageID uint64, lockType transaction.LockType) error {
	return t.lockMgr.AcquireLatch(pageID, uint64(t.id), toLockerMode(lockType))
}

func (t *txn) ReleaseLatch(pageID uint64) {
	t.lockMgr.ReleaseLatch(pageID, uint64(t.id))
}

func (t *txn) ReleaseLocks() {
	t.lockMgr.ReleaseLocks(uint64(t.id))
}

func toLockerMode(lockType transaction.LockType) locker.LockMode {
	if lockType == transaction.Exclusive {
		return locker.ExclusiveLock
	}
	return locker.SharedLock
}

// TxnManager keeps track of running transactions.
type TxnManager interface {
	Begin() transaction.Transaction
	Commit(transaction.Transaction) error
	AsyncCommit(transaction transaction.Transaction)
	CommitByID(transaction.TxnID) error
	Abort(transaction.Transaction)
	AbortByID(id transaction.TxnID)

	// GetByID returns the active transaction registered under id, or nil if none is active under
	// that id (e.g. it already committed or aborted).
	GetByID(id transaction.TxnID) transaction.Transaction

	BlockAllTransactions()
	ResumeTransactions()

	BlockNewTransactions()
	ResumeNewTransactions()

	ActiveTransactions() []transaction.TxnID

	// Close blocks new transactions and waits for active ones to finish.
	Close() error
}

var _ TxnManager = &TxnManagerImpl{}

type TxnManagerImpl struct {
	actives    map[transaction.TxnID]*txn
	lm         wal.LogManager
	r          *Recovery
	lockMgr    *locker.LockManager
	segmentSize uint64
	logDir     string
	txnCounter atomic.Int64
	mut        *sync.Mutex
	newTxn     *sync.RWMutex
	pool       buffer.Pool
}

// NewTxnManager builds a TxnManager backed by pool/lm for running transactions and wires a
// Recovery instance over pool/lm for undoing aborted transactions' logs; segmentSize and logDir
// are only stored on the manager.
func NewTxnManager(pool buffer.Pool, lm wal.LogManager, lockMgr *locker.LockManager, segmentSize uint64, logDir string) *TxnManagerImpl {
	r := NewRecovery(nil, lm, nil, pool)
	return &TxnManagerImpl{
		actives:     map[transaction.TxnID]*txn{},
		lm:          lm,
		r:           r,
		lockMgr:     lockMgr,
		segmentSize: segmentSize,
		logDir:      logDir,
		txnCounter:  atomic.Int64{},
		mut:         &sync.Mutex{},
		newTxn:      &sync.RWMutex{},
		pool:        pool,
	}
}

func (t *TxnManagerImpl) Begin() transaction.Transaction {
	t.newTxn.RLock()
	defer t.newTxn.RUnlock()

	t.mut.Lock()
	defer t.mut.Unlock()

	id := t.txnCounter.Add(1)
	txn := txn{id: transaction.TxnID(id), isolation: transaction.RepeatableRead, lockMgr: t.lockMgr}
	t.actives[txn.GetID()] = &txn
	return &txn
}

var s = time.Now()

// Commit waits until commit record is flushed. Hence, it guarantees that txn is committed to persistent storage.
func (t *TxnManagerImpl) Commit(transaction transaction.Transaction) error {
	err := t.CommitByID(transaction.GetID())
	if int(transaction.GetID())%5000 == 0 {
		log.Printf("txn:%v tps: %v\n", transaction.GetID(), 5000/time.Since(s).Seconds())
		s = time.Now()
	}
	return err
}

// AsyncCommit does not wait for commit record to be flushed.
func (t *TxnManagerImpl) AsyncCommit(transaction transaction.Transaction) {
	t.mut.Lock()
	defer t.mut.Unlock()

	txn := t.actives[transaction.GetID()]
	t.lm.AppendLog(wal.NewCommitLogRecord(transaction.GetID(), txn.freedPages))
	delete(t.actives, transaction.GetID())
}

func (t *TxnManagerImpl) Abort(transaction transaction.Transaction) {
	t.AbortByID(transaction.GetID())
}

func (t *TxnManagerImpl) CommitByID(id transaction.TxnID) error {
	t.mut.Lock()
	txn := t.actives[id]
	t.mut.Unlock()

	if _, err := t.lm.WaitAppendLog(wal.NewCommitLogRecord(id, txn.freedPages)); err != nil {
		return err
	}
	// IMPORTANT NOTE: if a checkpoint begins right at this line commit log record is persisted but active txn table
	// still includes this log record. Hence, in undo phase there might seem commit log records. In that case that
	// txn should not be rolled back.
	t.mut.Lock()
	delete(t.actives, id)
	for _, page := range txn.freedPages {
		t.pool.FreePage(txn, page, true)
	}
	t.lm.AppendLog(wal.NewTxnEndLogRecord(id))
	t.mut.Unlock()
	return nil
}

func (t *TxnManagerImpl) AbortByID(id transaction.TxnID) {
	// 1. create an iterator on logs that will iterate a transaction's logs in reverse order
	// 2. create clr logs that are basically logical negations of corresponding logs
	// 3. apply clr records and append them to wal
	// 4. append abort log

	// create a log iterator starting from given lsn
	//lsn := t.lm.WaitAppendLog(wal.NewAbortLogRecord(id))
	//wal.NewTxnLogIterator(id)

	logs := wal.NewTxnLogIterator(id, nil)
	for {
		lr, err := logs.Prev()
		if err != nil {
			// TODO: what to do?
			panic(err)
		}

		if lr == nil {
			// if logs are finished it is rolled back
			break
		}

		if err := t.r.Undo(lr, 0); err != nil {
			panic(err)
		}
	}
}

func (t *TxnManagerImpl) BlockAllTransactions() {
	t.mut.Lock()
}

func (t *TxnManagerImpl) ResumeTransactions() {
	t.mut.Unlock()
}

func (t *TxnManagerImpl) BlockNewTransactions() {
	t.newTxn.Lock()
}

func (t *TxnManagerImpl) ResumeNewTransactions() {
	t.newTxn.Unlock()
}

func (t *TxnManagerImpl) ActiveTransactions() []transaction.TxnID {
	res := make([]transaction.TxnID, 0, len(t.actives))
	for id := range t.actives {
		res = append(res, id)
	}
	return res
}

func (t *TxnManagerImpl) GetByID(id transaction.TxnID) transaction.Transaction {
	t.mut.Lock()
	defer t.mut.Unlock()

	txn, ok := t.actives[id]
	if !ok {
		return nil
	}
	return txn
}

// Close blocks new transactions from starting and waits for active ones to finish before
// returning, so a shutdown never leaves a transaction half-committed.
func (t *TxnManagerImpl) Close() error {
	t.BlockNewTransactions()
	t.BlockAllTransactions()
	defer t.ResumeTransactions()

	for len(t.actives) != 0 {
		t.ResumeTransactions()
		time.Sleep(time.Millisecond)
		t.BlockAllTransactions()
	}

	return nil
}
