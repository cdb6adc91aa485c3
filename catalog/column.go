package catalog

import "diskdb/catalog/db_types"

type Column struct {
	Name   string
	TypeId db_types.TypeID

	// Offset is the columns offset in the tuple
	Offset uint16
}

// NewColumn builds a Column of the given name and type, leaving Offset to be assigned by NewSchema.
func NewColumn(name string, typeID db_types.TypeID) Column {
	return Column{
		Name:   name,
		TypeId: typeID,
	}
}

// IsInlined returns true always for now
func (c *Column) IsInlined() bool {
	return true
}

// InlinedSize returns the number of bytes this column occupies in a tuple's fixed-length region.
func (c *Column) InlinedSize() uint32 {
	return uint32(db_types.GetType(c.TypeId).Length())
}
