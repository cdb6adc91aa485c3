package expressions

import (
	"diskdb/catalog"
	"diskdb/catalog/db_types"
)

// IExpression is the node in expression tree
type IExpression interface{
	Eval(catalog.Tuple, catalog.Schema) db_types.Value

	// EvalJoin evaluates the expression against a pair of tuples from a join's two sides, each
	// under its own schema, rather than a single tuple/schema pair.
	EvalJoin(lt catalog.Tuple, ls catalog.Schema, rt catalog.Tuple, rs catalog.Schema) db_types.Value
	GetChildAt(idx int) IExpression
	GetChildren() []IExpression
}

// BaseExpression implements trivial methods needed for each type implementing IExpression interface such as 
// tree traversal methods
type BaseExpression struct{
	Children []IExpression
}

func (e *BaseExpression) Eval(catalog.Tuple, catalog.Schema) db_types.Value{
	panic("implement me")
}

func (e *BaseExpression) EvalJoin(catalog.Tuple, catalog.Schema, catalog.Tuple, catalog.Schema) db_types.Value{
	panic("implement me")
}

func (e *BaseExpression) GetChildAt(idx int) IExpression{
	return e.Children[idx]
}

func (e *BaseExpression) GetChildren() []IExpression{
	return e.Children
}