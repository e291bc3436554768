// Package models contains database model definitions.
package models

// TableNames is the only table of the database.
const TableNames = "names"

// Name is one row of the names table.
type Name struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name"                        json:"name"`
}

// TableName implements gorm's tabler interface.
func (Name) TableName() string {
	return TableNames
}
