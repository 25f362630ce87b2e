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

package datagrid

import (
	"fmt"

	"github.com/magpierre/gridmodel/internal/compare"
)

// View is a read-only projection of (schema, rows). It answers
// region-addressed counts, metadata and cell lookups against the rows it
// captured at construction time. A View is never the source of truth: the
// facade replaces it wholesale whenever transform state changes, so held
// references become stale snapshots rather than live views.
type View struct {
	schema       *Schema
	rows         []Record
	headerFields []Field
	bodyFields   []Field
	missing      map[string]struct{}
}

// NewView projects the given schema over a row sequence.
func NewView(schema *Schema, rows []Record) *View {
	header, body := schema.Split()
	return &View{
		schema:       schema,
		rows:         rows,
		headerFields: header,
		bodyFields:   body,
		missing:      schema.missingSet(),
	}
}

// Schema returns the schema behind the view.
func (v *View) Schema() *Schema {
	return v.schema
}

// HeaderFields returns the primary-key fields, in declaration order.
func (v *View) HeaderFields() []Field {
	return v.headerFields
}

// BodyFields returns the non-key fields, in declaration order.
func (v *View) BodyFields() []Field {
	return v.bodyFields
}

// headerRowCount is the number of header rows: the display-path depth of the
// body columns, 1 when headers are flat.
func (v *View) headerRowCount() int {
	if len(v.bodyFields) == 0 {
		return 1
	}
	if n := len(v.bodyFields[0].DisplayPath); n > 0 {
		return n
	}
	return 1
}

// RowCount returns the number of rows in a region: data rows for body and
// row-header, header rows for column-header and corner-header.
func (v *View) RowCount(region Region) int {
	if region.isHeaderRow() {
		return v.headerRowCount()
	}
	return len(v.rows)
}

// ColumnCount returns the number of columns in a region: body fields for
// body and column-header, primary-key fields for row-header and
// corner-header.
func (v *View) ColumnCount(region Region) int {
	if region.isHeaderColumn() {
		return len(v.headerFields)
	}
	return len(v.bodyFields)
}

// field resolves a region-relative column to its Field.
func (v *View) field(region Region, column int) (Field, error) {
	fields := v.bodyFields
	if region.isHeaderColumn() {
		fields = v.headerFields
	}
	if column < 0 || column >= len(fields) {
		return Field{}, fmt.Errorf("%w: %d in %s", ErrInvalidColumn, column, region)
	}
	return fields[column], nil
}

// Metadata returns the field descriptor behind a region-addressed cell,
// together with its coordinates.
func (v *View) Metadata(region Region, row, column int) (CellMetadata, error) {
	f, err := v.field(region, column)
	if err != nil {
		return CellMetadata{}, err
	}
	if row < 0 || row >= v.RowCount(region) {
		return CellMetadata{}, fmt.Errorf("%w: %d in %s", ErrInvalidRow, row, region)
	}
	return CellMetadata{
		Region: region,
		Row:    row,
		Column: column,
		Name:   f.Name,
		Type:   f.Type,
	}, nil
}

// Data returns the value of a region-addressed cell. Body and row-header
// cells come from the rows; column-header and corner-header cells come from
// the field display paths. Any value equal to a configured missing-value
// string reads back as nil, never as the raw string.
func (v *View) Data(region Region, row, column int) (any, error) {
	f, err := v.field(region, column)
	if err != nil {
		return nil, err
	}

	if region.isHeaderRow() {
		if row < 0 || row >= v.headerRowCount() {
			return nil, fmt.Errorf("%w: %d in %s", ErrInvalidRow, row, region)
		}
		return f.Label(row), nil
	}

	if row < 0 || row >= len(v.rows) {
		return nil, fmt.Errorf("%w: %d in %s", ErrInvalidRow, row, region)
	}
	return normalize(v.rows[row][f.Name], v.missing), nil
}

// SchemaIndex converts a region-relative column index into the absolute
// schema index carried by transforms. Corner-header columns map onto the
// raw field position; every other region is offset past the header fields.
func (v *View) SchemaIndex(region Region, index int) SchemaIndex {
	if region == RegionCornerHeader {
		return SchemaIndex(index)
	}
	return SchemaIndex(len(v.headerFields) + index)
}

// fieldBySchemaIndex resolves an absolute schema index back to its Field.
func (v *View) fieldBySchemaIndex(index SchemaIndex) (Field, error) {
	i := int(index)
	if i < 0 || i >= len(v.headerFields)+len(v.bodyFields) {
		return Field{}, fmt.Errorf("%w: schema index %d", ErrInvalidColumn, i)
	}
	if i < len(v.headerFields) {
		return v.headerFields[i], nil
	}
	return v.bodyFields[i-len(v.headerFields)], nil
}

// nanKey stands in for NaN in the dedup set. NaN compares unequal to itself,
// so it can never be found as its own map key.
type nanKey struct{}

// UniqueValues returns the distinct values of the addressed column in
// first-occurrence order, scanning the captured rows once. The result is an
// eagerly materialized snapshot. All NaN values collapse to one entry.
func (v *View) UniqueValues(region Region, column int) ([]any, error) {
	f, err := v.field(region, column)
	if err != nil {
		return nil, err
	}

	seen := make(map[any]struct{}, len(v.rows))
	var out []any
	for _, rec := range v.rows {
		val := normalize(rec[f.Name], v.missing)
		key := val
		if compare.IsNaN(val) {
			key = nanKey{}
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, val)
	}
	return out, nil
}

// replaceRow swaps one captured row in place. Used by the facade's
// copy-on-write cell edits, which bypass the transform pipeline.
func (v *View) replaceRow(row int, rec Record) error {
	if row < 0 || row >= len(v.rows) {
		return fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	v.rows[row] = rec
	return nil
}

// Rows returns the captured row sequence. Callers must treat it as
// read-only.
func (v *View) Rows() []Record {
	return v.rows
}
