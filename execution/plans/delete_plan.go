package plans

import (
	"diskdb/catalog"
)

type DeletePlanNode struct {
	BasePlanNode
	tableOID catalog.TableOID
}

func (n *DeletePlanNode) GetType() PlanType {
	return Delete
}

func (n *DeletePlanNode) GetTableOID() catalog.TableOID {
	return n.tableOID
}

func (n *DeletePlanNode) GetChildPlan() IPlanNode {
	return n.GetChildAt(0)
}

func NewDeletePlanNode(child IPlanNode, toid catalog.TableOID) *DeletePlanNode {
	return &DeletePlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: nil,
			Children:  []IPlanNode{child},
		},
		tableOID: toid,
	}
}
