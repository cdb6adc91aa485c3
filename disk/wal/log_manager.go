package wal

import (
	"diskdb/disk/pages"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	bufSize = 1024 * 64
)

// LogManager is the append-only write-ahead log collaborator C3 (buffer pool
// write-through) and C5 (tree mutation) consult before a dirty page is
// allowed to leave memory. It is the concrete, build-ready form of the
// "logging hooks ... named but not designed" collaborator: SimpleLogManager,
// BWALLogManager, and noopLM are its three implementations.
type LogManager interface {
	// AppendLog appends a log record, stamps it with a fresh LSN, and
	// returns that LSN without necessarily flushing it to disk.
	AppendLog(lr *LogRecord) pages.LSN
	// WaitAppendLog is like AppendLog, but blocks until the record is durably flushed. Used for
	// commit records so a transaction is not reported as committed before it is crash-safe.
	WaitAppendLog(lr *LogRecord) (pages.LSN, error)
	// Flush forces every appended-but-unflushed record to stable storage.
	Flush() error
	// GetFlushedLSN returns the highest LSN known to be durable.
	GetFlushedLSN() pages.LSN
}

// SimpleLogManager is an in-memory ring-buffer log manager writing to an
// arbitrary io.Writer, grounded on the teacher's original LogManager.
type SimpleLogManager struct {
	// serializer is used to convert between bytes and LogRecord.
	serializer LogRecordSerializer

	currLsn       uint64
	persistentLsn uint64

	bufM sync.Mutex

	gw     *GroupWriter
	w      io.Writer
	logger *zap.Logger
}

func NewLogManager(w io.Writer) *SimpleLogManager {
	return NewLogManagerWithLogger(w, zap.NewNop())
}

func NewLogManagerWithLogger(w io.Writer, logger *zap.Logger) *SimpleLogManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimpleLogManager{
		serializer:    &DefaultLogRecordSerializer{area: make([]byte, 0, 100)},
		currLsn:       0,
		persistentLsn: 0,
		bufM:          sync.Mutex{},
		gw:            NewGroupWriter(bufSize, w),
		logger:        logger,
	}
}

// AppendLog appends a log record to wal, set its lsn and return it. This method does not directly flush
// log buffer's content to disk.
func (l *SimpleLogManager) AppendLog(lr *LogRecord) pages.LSN {
	l.bufM.Lock()
	defer l.bufM.Unlock()

	lr.Lsn = pages.LSN(atomic.AddUint64(&l.currLsn, 1))

	l.serializer.Serialize(lr, l.gw)
	return lr.Lsn
}

// WaitAppendLog is same as AppendLog, but it waits until appended log is flushed. It can be useful to make sure that
// commit log record is persisted before returning.
func (l *SimpleLogManager) WaitAppendLog(lr *LogRecord) (pages.LSN, error) {
	l.bufM.Lock()

	lr.Lsn = pages.LSN(atomic.AddUint64(&l.currLsn, 1))

	l.serializer.Serialize(lr, l.gw)
	l.bufM.Unlock()

	l.gw.flushEvent.Wait()
	return lr.Lsn, nil
}

func (l *SimpleLogManager) RunFlusher() {
	l.gw.RunFlusher()
}

func (l *SimpleLogManager) StopFlusher() error {
	return l.gw.StopFlusher()
}

// Flush is an atomic operation that swaps logBuf and flushBuf followed by an fsync flushBuf.
func (l *SimpleLogManager) Flush() error {
	l.bufM.Lock()
	defer l.bufM.Unlock()

	if err := l.gw.SwapAndWaitFlush(); err != nil {
		l.logger.Warn("wal flush failed", zap.Error(err))
		return err
	}
	return nil
}

// GetFlushedLSN returns latest lsn persisted to disk.
func (l *SimpleLogManager) GetFlushedLSN() pages.LSN {
	return l.gw.latestFlushed
}

var _ LogManager = &SimpleLogManager{}
