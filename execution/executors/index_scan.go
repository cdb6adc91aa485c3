package executors

import (
	"diskdb/btree"
	"diskdb/catalog"
	"diskdb/common"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/expressions"
	"diskdb/execution/plans"
)

type IndexScanExecutor struct {
	BaseExecutor
	plan  *plans.IndexScanPlanNode
	index *catalog.IndexInfo
	done  bool
}

func (e *IndexScanExecutor) Init() {
	e.index = e.executorCtx.Catalog.GetIndexByOID(e.plan.GetIndexOID())
	e.done = false

	lockTableIntentionShared(e.executorCtx, e.index.GetTable().OID)
}

func (e *IndexScanExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

// Next does a point lookup: the plan's predicate must be an equality comparison between a column
// and a constant, the constant side supplies the key probed against the B+Tree.
func (e *IndexScanExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	if e.done {
		return ErrNoTuple{}
	}
	e.done = true

	key := equalityKeyOf(e.plan.GetPredicate(), e.index.BareSchema)
	if key == nil {
		return ErrNoTuple{}
	}

	val := e.index.Index.Find(key)
	if val == nil {
		return ErrNoTuple{}
	}

	table := e.index.GetTable()
	lockRowShared(e.executorCtx, table.OID, structures.Rid(val.(btree.SlotPointer)))

	*rid = structures.Rid(val.(btree.SlotPointer))
	if err := table.Heap.ReadTuple(*rid, t.GetRow(), e.executorCtx.Txn); err != nil {
		return err
	}
	t.Rid = *rid

	return nil
}

// equalityKeyOf walks an equality comparison expression and wraps its constant operand in a
// TupleKey against keySchema, the same shape InsertTupleKey builds when it indexed the row;
// returns nil if the predicate is not an equality comparison with a constant operand.
func equalityKeyOf(pred expressions.IExpression, keySchema catalog.Schema) common.Key {
	comp, ok := pred.(*expressions.CompExpression)
	if !ok || comp.CompType != expressions.Equal {
		return nil
	}

	var blank catalog.Tuple
	for _, side := range []int{1, 0} {
		if constExpr, ok := comp.GetChildAt(side).(*expressions.ConstExpression); ok {
			val := constExpr.Eval(blank, nil)
			return catalog.NewTupleKey(keySchema, &val)
		}
	}
	return nil
}

func NewIndexScanExecutor(ctx *execution.ExecutorContext, plan *plans.IndexScanPlanNode) *IndexScanExecutor {
	return &IndexScanExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan: plan,
	}
}
