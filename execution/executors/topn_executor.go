package executors

import (
	"diskdb/catalog"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/plans"
	"sort"
)

// TopNExecutor drains its child fully on Init, sorts the buffered rows by the plan's (possibly
// multi-column, mixed ASC/DESC) sort keys, keeps only the first N, then yields them one at a time.
type TopNExecutor struct {
	BaseExecutor
	plan          *plans.TopNPlanNode
	childExecutor IExecutor
	buffered      []catalog.Tuple
	cursor        int
}

func (e *TopNExecutor) Init() {
	e.childExecutor.Init()
	e.buffered = nil
	e.cursor = 0

	schema := e.childExecutor.GetOutSchema()
	var tuple catalog.Tuple
	var rid structures.Rid
	for {
		if err := e.childExecutor.Next(&tuple, &rid); err != nil {
			break
		}
		e.buffered = append(e.buffered, tuple)
	}

	sortKeys := e.plan.GetSortKeys()
	sort.SliceStable(e.buffered, func(i, j int) bool {
		for _, sk := range sortKeys {
			vi := sk.Expr.Eval(e.buffered[i], schema)
			vj := sk.Expr.Eval(e.buffered[j], schema)

			if vi.LessThanValue(&vj) {
				return !sk.Desc
			}
			if vj.LessThanValue(&vi) {
				return sk.Desc
			}
		}
		return false
	})

	if n := e.plan.GetN(); n >= 0 && n < len(e.buffered) {
		e.buffered = e.buffered[:n]
	}
}

func (e *TopNExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *TopNExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	if e.cursor >= len(e.buffered) {
		return ErrNoTuple{}
	}

	*t = e.buffered[e.cursor]
	*rid = t.Rid
	e.cursor++
	return nil
}

func NewTopNExecutor(ctx *execution.ExecutorContext, plan *plans.TopNPlanNode, childExecutor IExecutor) *TopNExecutor {
	return &TopNExecutor{
		BaseExecutor:  BaseExecutor{executorCtx: ctx},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
