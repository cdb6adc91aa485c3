package plans

import (
	"diskdb/catalog"
	"diskdb/execution/expressions"
)

// SortKey is one column of a multi-key ORDER BY; Desc reverses the usual ascending Less comparison.
type SortKey struct {
	Expr expressions.IExpression
	Desc bool
}

type TopNPlanNode struct {
	BasePlanNode
	sortKeys []SortKey
	n        int
}

func (n *TopNPlanNode) GetType() PlanType {
	return TopN
}

func (n *TopNPlanNode) GetChildPlan() IPlanNode {
	return n.GetChildAt(0)
}

func (n *TopNPlanNode) GetSortKeys() []SortKey {
	return n.sortKeys
}

func (n *TopNPlanNode) GetN() int {
	return n.n
}

func NewTopNPlanNode(outSchema catalog.Schema, child IPlanNode, sortKeys []SortKey, limit int) *TopNPlanNode {
	return &TopNPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: outSchema,
			Children:  []IPlanNode{child},
		},
		sortKeys: sortKeys,
		n:        limit,
	}
}
