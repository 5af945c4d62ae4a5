// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package resource

// Names of the fixed columns a source row may carry.
const (
	ColumnID              = "id"
	ColumnName            = "name"
	ColumnDescription     = "description"
	ColumnTextDescription = "textDescription"
	ColumnCategoryLvl1    = "categoryLvl1"
	ColumnCategoryLvl2    = "categoryLvl2"
	ColumnCategoryLvl3    = "categoryLvl3"
	ColumnCategoryLvl4    = "categoryLvl4"
	ColumnCreatedDate     = "createdDate"
	ColumnUpdatedDate     = "updatedDate"
	ColumnDeletedDate     = "deletedDate"

	// PathRoot marks a dynamic column whose name is a path into the document attributes.
	PathRoot = "$"
)

// Column is a dynamically named column and its raw value.
type Column struct {
	Name  string
	Value any
}

// Row is a single record read from the relational source.
// Fixed columns are already normalized to text; every other column is kept in source order.
type Row struct {
	ID              string
	Name            string
	Description     string
	TextDescription string

	CategoryLvl1 string
	CategoryLvl2 string
	CategoryLvl3 string
	CategoryLvl4 string

	CreatedDate string
	UpdatedDate string
	DeletedDate string

	Columns []Column
}

// NewRow builds a Row from parallel column names and values. Values for fixed columns are
// stored in their text form; nil leaves the field empty.
func NewRow(names []string, values []any) Row {
	row := Row{}
	for i, name := range names {
		var value any
		if i < len(values) {
			value = values[i]
		}

		if field := row.fixedField(name); field != nil {
			if value != nil {
				*field = Stringify(value)
			}
			continue
		}
		row.Columns = append(row.Columns, Column{Name: name, Value: value})
	}
	return row
}

func (r *Row) fixedField(name string) *string {
	switch name {
	case ColumnID:
		return &r.ID
	case ColumnName:
		return &r.Name
	case ColumnDescription:
		return &r.Description
	case ColumnTextDescription:
		return &r.TextDescription
	case ColumnCategoryLvl1:
		return &r.CategoryLvl1
	case ColumnCategoryLvl2:
		return &r.CategoryLvl2
	case ColumnCategoryLvl3:
		return &r.CategoryLvl3
	case ColumnCategoryLvl4:
		return &r.CategoryLvl4
	case ColumnCreatedDate:
		return &r.CreatedDate
	case ColumnUpdatedDate:
		return &r.UpdatedDate
	case ColumnDeletedDate:
		return &r.DeletedDate
	default:
		return nil
	}
}
