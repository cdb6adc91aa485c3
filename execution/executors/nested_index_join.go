package executors

import (
	"diskdb/btree"
	"diskdb/catalog"
	"diskdb/catalog/db_types"
	"diskdb/common"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/plans"
)

// NestedIndexJoinExecutor joins its outer child against an inner table by probing the inner
// table's B+Tree index with a key computed from each outer tuple, instead of rescanning the whole
// inner table once per outer tuple the way NestedLoopJoinExecutor does.
type NestedIndexJoinExecutor struct {
	BaseExecutor
	plan       *plans.NestedIndexJoinPlanNode
	outerExec  IExecutor
	index      *catalog.IndexInfo
	innerTable *catalog.TableInfo
}

func (e *NestedIndexJoinExecutor) Init() {
	e.outerExec.Init()
	e.index = e.executorCtx.Catalog.GetIndexByOID(e.plan.GetInnerIndexOID())
	e.innerTable = e.executorCtx.Catalog.GetTableByOID(e.plan.GetInnerTableOID())

	lockTableIntentionShared(e.executorCtx, e.innerTable.OID)
}

func (e *NestedIndexJoinExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

// Next pulls one outer tuple at a time and probes the inner index with the plan's key
// expression. A miss is skipped for an InnerJoin and null-padded for a LeftJoin; likewise for an
// outer predicate that rejects the matched inner row.
func (e *NestedIndexJoinExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	outerSchema := e.plan.GetOuterPlan().GetOutSchema()
	innerSchema := e.plan.GetInnerSchema()

	var outerTuple catalog.Tuple
	var outerRid structures.Rid
	for {
		if err := e.outerExec.Next(&outerTuple, &outerRid); err != nil {
			return err
		}

		keyVal := e.plan.GetKeyExpr().Eval(outerTuple, outerSchema)
		key := catalog.NewTupleKey(e.index.BareSchema, &keyVal)

		val := e.index.Index.Find(key)
		if val == nil {
			if e.plan.GetJoinType() == plans.LeftJoin {
				*t = joinRows(outerTuple, nullTupleFor(innerSchema))
				return nil
			}
			continue
		}

		innerRid := structures.Rid(val.(btree.SlotPointer))
		var innerTuple catalog.Tuple
		if err := e.innerTable.Heap.ReadTuple(innerRid, innerTuple.GetRow(), e.executorCtx.Txn); err != nil {
			return err
		}

		if pred := e.plan.GetPredicate(); pred != nil {
			match := pred.EvalJoin(outerTuple, outerSchema, innerTuple, innerSchema)
			if !match.GetAsInterface().(bool) {
				if e.plan.GetJoinType() == plans.LeftJoin {
					*t = joinRows(outerTuple, nullTupleFor(innerSchema))
					return nil
				}
				continue
			}
		}

		lockRowShared(e.executorCtx, e.innerTable.OID, innerRid)

		*t = joinRows(outerTuple, innerTuple)
		return nil
	}
}

func joinRows(outer, inner catalog.Tuple) catalog.Tuple {
	return catalog.Tuple{Row: concatRows(outer.Row, inner.Row)}
}

// nullTupleFor builds a zero-valued tuple shaped like schema, used to pad the inner side of a
// LeftJoin row when the probe misses.
func nullTupleFor(schema catalog.Schema) catalog.Tuple {
	cols := schema.GetColumns()
	vals := make([]*db_types.Value, len(cols))
	for i, col := range cols {
		vals[i] = zeroValueFor(col.TypeId)
	}

	tuple, err := catalog.NewTupleWithSchema(vals, schema)
	common.PanicIfErr(err)
	return *tuple
}

func zeroValueFor(typeID db_types.TypeID) *db_types.Value {
	switch typeID.KindID {
	case 1:
		return db_types.NewValue(int32(0))
	case 2:
		return db_types.NewValue("")
	case 3:
		return db_types.NewValue(make([]byte, typeID.Size))
	case 4:
		return db_types.NewValue(float64(0))
	case 5:
		return db_types.NewValue(false)
	default:
		return db_types.NewValue(int32(0))
	}
}

func NewNestedIndexJoinExecutor(ctx *execution.ExecutorContext, plan *plans.NestedIndexJoinPlanNode, outer IExecutor) *NestedIndexJoinExecutor {
	return &NestedIndexJoinExecutor{
		BaseExecutor: BaseExecutor{executorCtx: ctx},
		plan:         plan,
		outerExec:    outer,
	}
}
