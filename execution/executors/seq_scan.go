package executors

import (
	"diskdb/catalog"
	"diskdb/concurrency/lockmanager"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/plans"
	"diskdb/transaction"
)

type SeqScanExecutor struct {
	BaseExecutor
	plan      *plans.SeqScanPlanNode
	tableIter *structures.TableIterator
	tableOID  catalog.TableOID
}

func (e *SeqScanExecutor) Init() {
	table := e.executorCtx.Catalog.GetTableByOID(e.plan.GetTableOID())
	it := structures.NewTableIterator(e.executorCtx.Txn, table.Heap)
	e.tableIter = it
	e.tableOID = e.plan.GetTableOID()

	lockTableIntentionShared(e.executorCtx, e.tableOID)
}

func (e *SeqScanExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *SeqScanExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	it := e.tableIter
	for {
		row := it.Next()
		if row == nil {
			unlockTableAtScanEnd(e.executorCtx, e.tableOID)
			return ErrNoTuple{}
		}

		*t = *catalog.CastRowAsTuple(row)
		*rid = t.Rid

		lockRowShared(e.executorCtx, e.tableOID, *rid)

		pred := e.plan.GetPredicate()
		if pred != nil {
			val := pred.Eval(*t, e.GetOutSchema())
			if !val.GetAsInterface().(bool) {
				continue
			}
		}

		return nil
	}
}

func NewSeqScanExecutor(ctx *execution.ExecutorContext, plan *plans.SeqScanPlanNode) *SeqScanExecutor {
	return &SeqScanExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan: plan,
	}
}

// lockTableIntentionShared acquires an intention-shared table lock before a scan, unless the
// transaction runs under read-uncommitted, which never takes shared/intention locks at all.
func lockTableIntentionShared(ctx *execution.ExecutorContext, oid catalog.TableOID) {
	if ctx.LockManager == nil || ctx.Txn.GetIsolationLevel() == transaction.ReadUncommitted {
		return
	}
	ctx.LockManager.LockTable(ctx.Txn, lockmanager.IntentionShared, oid)
}

// lockRowShared takes a shared row lock on the row a scan is about to yield. Under read-committed
// the lock is dropped again immediately: it only needed to exist long enough to make the read of
// this one row consistent. Under repeatable-read (and stricter) it is left held for the
// transaction's duration.
func lockRowShared(ctx *execution.ExecutorContext, oid catalog.TableOID, rid structures.Rid) {
	if ctx.LockManager == nil || ctx.Txn.GetIsolationLevel() == transaction.ReadUncommitted {
		return
	}
	if err := ctx.LockManager.LockRow(ctx.Txn, lockmanager.Shared, oid, rid); err != nil {
		return
	}
	if ctx.Txn.GetIsolationLevel() == transaction.ReadCommitted {
		ctx.LockManager.UnlockRow(ctx.Txn, oid, rid)
	}
}

// unlockTableAtScanEnd drops the table-level intention lock once a scan is exhausted. This only
// applies under read-committed, where row locks were already released row-by-row as they were
// read, so no row lock remains that would make UnlockTable refuse. Under repeatable-read (and
// stricter) both the table and its row locks stay held until the transaction commits or aborts.
func unlockTableAtScanEnd(ctx *execution.ExecutorContext, oid catalog.TableOID) {
	if ctx.LockManager == nil || ctx.Txn.GetIsolationLevel() != transaction.ReadCommitted {
		return
	}
	ctx.LockManager.UnlockTable(ctx.Txn, oid)
}
