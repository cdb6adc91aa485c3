package executors

import (
	"diskdb/catalog"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/plans"
)

// DeleteExecutor drains its child executor and hard-deletes every row it yields, maintaining
// indexes the same way InsertExecutor does on the way in.
type DeleteExecutor struct {
	BaseExecutor
	plan          *plans.DeletePlanNode
	childExecutor IExecutor
	deletedCount  int32
}

func (e *DeleteExecutor) Init() {
	e.childExecutor.Init()
	e.deletedCount = 0

	lockTableIntentionExclusive(e.executorCtx, e.plan.GetTableOID())
}

func (e *DeleteExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

// DeletedCount returns how many rows this executor has hard-deleted so far.
func (e *DeleteExecutor) DeletedCount() int32 {
	return e.deletedCount
}

// Next deletes rows one at a time as the child yields them, returning ErrNoTuple once the child
// is exhausted since a delete has no rows of its own to yield.
func (e *DeleteExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	tOID := e.plan.GetTableOID()
	table := e.executorCtx.Catalog.GetTableByOID(tOID)

	var childTuple catalog.Tuple
	var childRid structures.Rid
	for {
		if err := e.childExecutor.Next(&childTuple, &childRid); err != nil {
			return ErrNoTuple{}
		}

		lockRowExclusive(e.executorCtx, tOID, childRid)

		if err := table.DeleteTuple(childRid, e.executorCtx.Txn); err != nil {
			return err
		}
		e.deletedCount++
	}
}

func NewDeleteExecutor(ctx *execution.ExecutorContext, plan *plans.DeletePlanNode, childExecutor IExecutor) *DeleteExecutor {
	return &DeleteExecutor{
		BaseExecutor:  BaseExecutor{executorCtx: ctx},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
