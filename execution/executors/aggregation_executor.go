package executors

import (
	"diskdb/catalog"
	"diskdb/catalog/db_types"
	"diskdb/disk/structures"
	"diskdb/execution"
	"diskdb/execution/plans"
	"fmt"
	"strings"
)

type aggGroup struct {
	groupVals []*db_types.Value
	accum     []*db_types.Value
}

// AggregationExecutor drains its child fully on Init, hashing rows into groups by the plan's
// group-by expressions, then yields one output tuple per group (group-by columns followed by the
// computed aggregates) on successive calls to Next.
type AggregationExecutor struct {
	BaseExecutor
	plan          *plans.AggregationPlanNode
	childExecutor IExecutor
	groups        []*aggGroup
	cursor        int
}

func (e *AggregationExecutor) Init() {
	e.childExecutor.Init()
	e.groups = nil
	e.cursor = 0

	byKey := map[string]*aggGroup{}
	order := make([]string, 0)

	childSchema := e.childExecutor.GetOutSchema()
	groupBys := e.plan.GetGroupBys()
	aggregates := e.plan.GetAggregates()

	var tuple catalog.Tuple
	var rid structures.Rid
	for {
		if err := e.childExecutor.Next(&tuple, &rid); err != nil {
			break
		}

		groupVals := make([]*db_types.Value, len(groupBys))
		keyParts := make([]string, len(groupBys))
		for i, expr := range groupBys {
			v := expr.Eval(tuple, childSchema)
			groupVals[i] = &v
			keyParts[i] = fmt.Sprintf("%v", v.GetAsInterface())
		}
		key := strings.Join(keyParts, "\x1f")

		g, ok := byKey[key]
		if !ok {
			g = &aggGroup{groupVals: groupVals, accum: make([]*db_types.Value, len(aggregates))}
			byKey[key] = g
			order = append(order, key)
		}

		for i, agg := range aggregates {
			var val *db_types.Value
			if agg.FuncExpr != nil {
				v := agg.FuncExpr.Eval(tuple, childSchema)
				val = &v
			}
			g.accum[i] = accumulate(g.accum[i], val, agg.Func)
		}
	}

	for _, key := range order {
		e.groups = append(e.groups, byKey[key])
	}

	// a group-by-less aggregate still produces one row even when the input was empty, e.g.
	// SELECT COUNT(*) over no matching rows yields a single row with 0, not zero rows.
	if len(groupBys) == 0 && len(e.groups) == 0 {
		g := &aggGroup{accum: make([]*db_types.Value, len(aggregates))}
		for i, agg := range aggregates {
			if agg.Func == plans.CountStar {
				g.accum[i] = db_types.NewValue(int32(0))
				continue
			}
			g.accum[i] = accumulate(nil, nil, agg.Func)
		}
		e.groups = append(e.groups, g)
	}
}

func (e *AggregationExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *AggregationExecutor) Next(t *catalog.Tuple, rid *structures.Rid) error {
	if e.cursor >= len(e.groups) {
		return ErrNoTuple{}
	}
	g := e.groups[e.cursor]
	e.cursor++

	values := make([]*db_types.Value, 0, len(g.groupVals)+len(g.accum))
	values = append(values, g.groupVals...)
	values = append(values, g.accum...)

	tuple, err := catalog.NewTupleWithSchema(values, e.GetOutSchema())
	if err != nil {
		return err
	}
	*t = *tuple
	return nil
}

// accumulate folds val into running according to fn. running is nil for a group's first row;
// CountStar ignores val entirely since it counts rows, not column values.
func accumulate(running, val *db_types.Value, fn plans.AggregateFunc) *db_types.Value {
	switch fn {
	case plans.CountStar:
		count := int32(0)
		if running != nil {
			count = running.GetAsInterface().(int32)
		}
		return db_types.NewValue(count + 1)
	case plans.Count:
		count := int32(0)
		if running != nil {
			count = running.GetAsInterface().(int32)
		}
		if val != nil {
			count++
		}
		return db_types.NewValue(count)
	case plans.Sum:
		sum := int32(0)
		if running != nil {
			sum = running.GetAsInterface().(int32)
		}
		if val != nil {
			sum += val.GetAsInterface().(int32)
		}
		return db_types.NewValue(sum)
	case plans.Min:
		if val == nil {
			return running
		}
		if running == nil || val.LessThanValue(running) {
			return val
		}
		return running
	case plans.Max:
		if val == nil {
			return running
		}
		if running == nil || running.LessThanValue(val) {
			return val
		}
		return running
	default:
		panic("unknown aggregate function")
	}
}

func NewAggregationExecutor(ctx *execution.ExecutorContext, plan *plans.AggregationPlanNode, childExecutor IExecutor) *AggregationExecutor {
	return &AggregationExecutor{
		BaseExecutor:  BaseExecutor{executorCtx: ctx},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
