package plans

import (
	"diskdb/catalog"
	"diskdb/execution/expressions"
)

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

// NestedIndexJoinPlanNode probes innerIndexOID's B+Tree index with a key computed from each outer
// tuple, instead of scanning the inner table once per outer tuple like NestedLoopJoinPlanNode does.
type NestedIndexJoinPlanNode struct {
	BasePlanNode
	keyExpr      expressions.IExpression
	predicate    expressions.IExpression
	innerTableOID catalog.TableOID
	innerIndexOID catalog.IndexOID
	joinType     JoinType
	innerSchema  catalog.Schema
}

func (n *NestedIndexJoinPlanNode) GetType() PlanType {
	return NestedIndexJoin
}

func (n *NestedIndexJoinPlanNode) GetOuterPlan() IPlanNode {
	return n.GetChildAt(0)
}

func (n *NestedIndexJoinPlanNode) GetKeyExpr() expressions.IExpression {
	return n.keyExpr
}

func (n *NestedIndexJoinPlanNode) GetPredicate() expressions.IExpression {
	return n.predicate
}

func (n *NestedIndexJoinPlanNode) GetInnerTableOID() catalog.TableOID {
	return n.innerTableOID
}

func (n *NestedIndexJoinPlanNode) GetInnerIndexOID() catalog.IndexOID {
	return n.innerIndexOID
}

func (n *NestedIndexJoinPlanNode) GetJoinType() JoinType {
	return n.joinType
}

func (n *NestedIndexJoinPlanNode) GetInnerSchema() catalog.Schema {
	return n.innerSchema
}

func NewNestedIndexJoinPlanNode(outSchema catalog.Schema, outer IPlanNode, keyExpr, predicate expressions.IExpression,
	innerTableOID catalog.TableOID, innerIndexOID catalog.IndexOID, innerSchema catalog.Schema, joinType JoinType) *NestedIndexJoinPlanNode {
	return &NestedIndexJoinPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: outSchema,
			Children:  []IPlanNode{outer},
		},
		keyExpr:       keyExpr,
		predicate:     predicate,
		innerTableOID: innerTableOID,
		innerIndexOID: innerIndexOID,
		innerSchema:   innerSchema,
		joinType:      joinType,
	}
}
