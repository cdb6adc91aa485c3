package plans

import (
	"diskdb/catalog"
	"diskdb/execution/expressions"
)

type AggregateFunc int

const (
	CountStar AggregateFunc = iota
	Count
	Sum
	Min
	Max
)

// AggregateExpression pairs the aggregate function with the expression it is computed over; the
// expression is nil for CountStar.
type AggregateExpression struct {
	FuncExpr expressions.IExpression
	Func     AggregateFunc
}

type AggregationPlanNode struct {
	BasePlanNode
	groupBys   []expressions.IExpression
	aggregates []AggregateExpression
}

func (n *AggregationPlanNode) GetType() PlanType {
	return Aggregation
}

func (n *AggregationPlanNode) GetChildPlan() IPlanNode {
	return n.GetChildAt(0)
}

func (n *AggregationPlanNode) GetGroupBys() []expressions.IExpression {
	return n.groupBys
}

func (n *AggregationPlanNode) GetAggregates() []AggregateExpression {
	return n.aggregates
}

func NewAggregationPlanNode(outSchema catalog.Schema, child IPlanNode, groupBys []expressions.IExpression, aggregates []AggregateExpression) *AggregationPlanNode {
	return &AggregationPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: outSchema,
			Children:  []IPlanNode{child},
		},
		groupBys:   groupBys,
		aggregates: aggregates,
	}
}
