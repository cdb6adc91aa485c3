package executors

import (
	"diskdb/catalog"
	"diskdb/concurrency/lockmanager"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/plans"
)

type InsertExecutor struct {
	BaseExecutor
	plan                  *plans.InsertPlanNode
	childExecutor         IExecutor
	lastInsertedRawValue  int
}

func (e *InsertExecutor) Init() {
	e.lastInsertedRawValue = -1
	if !e.plan.IsRawInsert() {
		e.childExecutor.Init()
	}

	lockTableIntentionExclusive(e.executorCtx, e.plan.GetTableOID())
}

func (e *InsertExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *InsertExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	// TODO: validate schemas
	tOID := e.plan.GetTableOID()
	table := e.executorCtx.Catalog.GetTableByOID(tOID)
	if e.plan.IsRawInsert() {
		e.lastInsertedRawValue++

		if e.lastInsertedRawValue == len(e.plan.RawValues()) {
			return ErrNoTuple{}
		}

		insertedRid, err := table.InsertTupleViaValues(e.plan.RawValuesAt(e.lastInsertedRawValue), e.executorCtx.Txn)
		if err != nil {
			return err
		}
		lockRowExclusive(e.executorCtx, tOID, *insertedRid)
		*rid = *insertedRid
		return nil
	} else {
		if err := e.childExecutor.Next(t, rid); err != nil {
			return err
		}
	}

	insertedRid, err := table.InsertTuple(t, e.executorCtx.Txn)
	if err != nil {
		return err
	}
	lockRowExclusive(e.executorCtx, tOID, *insertedRid)
	*rid = *insertedRid

	return nil
}

func NewInsertExecutor(ctx *execution.ExecutorContext, plan *plans.InsertPlanNode, childExecutor IExecutor) *InsertExecutor {
	return &InsertExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan:                 plan,
		childExecutor:        childExecutor,
		lastInsertedRawValue: -1,
	}
}

// lockTableIntentionExclusive acquires an intention-exclusive table lock before a mutating
// executor (Insert/Delete) starts writing rows, signalling to concurrent scanners that exclusive
// row locks are coming.
func lockTableIntentionExclusive(ctx *execution.ExecutorContext, oid catalog.TableOID) {
	if ctx.LockManager == nil {
		return
	}
	ctx.LockManager.LockTable(ctx.Txn, lockmanager.IntentionExclusive, oid)
}

// lockRowExclusive takes an exclusive row lock on a row an Insert/Delete executor just touched; it
// stays held until the transaction ends, per strict two-phase locking.
func lockRowExclusive(ctx *execution.ExecutorContext, oid catalog.TableOID, rid structures.Rid) {
	if ctx.LockManager == nil {
		return
	}
	ctx.LockManager.LockRow(ctx.Txn, lockmanager.Exclusive, oid, rid)
}
