// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package datagrid implements an in-memory tabular view-and-transform engine.
// An immutable row store is overlaid with a typed schema; a derived View
// exposes region-addressed access to cells and headers, and a pipeline of
// declarative sort/filter transforms produces new Views without ever touching
// the original data.
package datagrid

import "fmt"

// ColumnType describes the declared type of a column.
type ColumnType int

const (
	// TypeAny represents untyped or mixed data.
	TypeAny ColumnType = iota
	// TypeString represents text data.
	TypeString
	// TypeBoolean represents boolean data.
	TypeBoolean
	// TypeInteger represents whole-number data.
	TypeInteger
	// TypeNumber represents floating-point data.
	TypeNumber
	// TypeDate represents calendar dates (without time of day).
	TypeDate
	// TypeDatetime represents instants (date + time).
	TypeDatetime
	// TypeDuration represents elapsed-time data.
	TypeDuration
)

// String returns the wire name of a ColumnType.
func (ct ColumnType) String() string {
	switch ct {
	case TypeAny:
		return "any"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeDatetime:
		return "datetime"
	case TypeDuration:
		return "duration"
	default:
		return fmt.Sprintf("unknown(%d)", ct)
	}
}

// ParseColumnType maps a wire type name to a ColumnType.
// Unrecognized names map to TypeAny.
func ParseColumnType(s string) ColumnType {
	switch s {
	case "string":
		return TypeString
	case "boolean":
		return TypeBoolean
	case "integer":
		return TypeInteger
	case "number":
		return TypeNumber
	case "date":
		return TypeDate
	case "datetime", "time":
		return TypeDatetime
	case "duration":
		return TypeDuration
	default:
		return TypeAny
	}
}

// IsTemporal reports whether values of this type carry calendar semantics.
func (ct ColumnType) IsTemporal() bool {
	return ct == TypeDate || ct == TypeDatetime
}

// IsNumeric reports whether values of this type order numerically.
func (ct ColumnType) IsNumeric() bool {
	return ct == TypeInteger || ct == TypeNumber
}

// Region identifies one of the four logical quadrants of a grid display.
type Region int

const (
	// RegionBody addresses the data cells.
	RegionBody Region = iota
	// RegionRowHeader addresses the primary-key cells along the left edge.
	RegionRowHeader
	// RegionColumnHeader addresses the column labels along the top edge.
	RegionColumnHeader
	// RegionCornerHeader addresses the primary-key labels in the top-left corner.
	RegionCornerHeader
)

// String returns the wire name of a Region.
func (r Region) String() string {
	switch r {
	case RegionBody:
		return "body"
	case RegionRowHeader:
		return "row-header"
	case RegionColumnHeader:
		return "column-header"
	case RegionCornerHeader:
		return "corner-header"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// ParseRegion maps a wire region name to a Region.
func ParseRegion(s string) (Region, error) {
	switch s {
	case "body":
		return RegionBody, nil
	case "row-header":
		return RegionRowHeader, nil
	case "column-header":
		return RegionColumnHeader, nil
	case "corner-header":
		return RegionCornerHeader, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRegion, s)
	}
}

// isHeaderRow reports whether the region's rows are header rows rather than
// data rows.
func (r Region) isHeaderRow() bool {
	return r == RegionColumnHeader || r == RegionCornerHeader
}

// isHeaderColumn reports whether the region's columns index into the
// primary-key fields rather than the body fields.
func (r Region) isHeaderColumn() bool {
	return r == RegionRowHeader || r == RegionCornerHeader
}

// CellMetadata describes the field behind a region-addressed cell.
type CellMetadata struct {
	// Region is the quadrant the cell was addressed in.
	Region Region
	// Row is the region-relative row coordinate.
	Row int
	// Column is the region-relative column coordinate.
	Column int
	// Name is the name of the field the cell belongs to.
	Name string
	// Type is the declared type of that field.
	Type ColumnType
}

// CellChange describes a single-cell edit, as delivered to change listeners.
type CellChange struct {
	// Region is the quadrant the edit was addressed in.
	Region Region
	// Row is the region-relative row coordinate.
	Row int
	// Column is the region-relative column coordinate.
	Column int
	// Value is the new cell value.
	Value any
}
