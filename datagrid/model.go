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
	"reflect"

	"github.com/magpierre/gridmodel/internal/compare"
)

// GridModel is the facade over one immutable dataset. It owns the
// DataSource, the transform state and the current View, rebuilding the View
// from the original rows on every transform-state change so that the
// displayed order is always a function of (dataset, active state) and never
// accumulates drift.
//
// The model is single-threaded by contract: one logical actor drives it per
// turn, and every operation runs to completion before returning.
type GridModel struct {
	schema     *Schema
	source     *DataSource
	transforms *TransformStateManager
	view       *View

	resetListeners []func()
	cellListeners  []func(CellChange)
}

// NewGridModel builds a model over the given schema and data source, with an
// initial untransformed View.
func NewGridModel(schema *Schema, source *DataSource) (*GridModel, error) {
	if source == nil {
		return nil, ErrNoDataSource
	}

	m := &GridModel{
		schema:     schema,
		source:     source,
		transforms: NewTransformStateManager(),
	}
	m.transforms.OnChange(func([]Transform) { m.rebuild() })

	view, err := m.transforms.CreateView(schema, source)
	if err != nil {
		return nil, err
	}
	m.view = view
	return m, nil
}

// rebuild replays the full executor pipeline over the original dataset and
// swaps in the resulting View. On pipeline failure the state manager has
// already reset itself and re-driven a rebuild with empty state, so the
// failed attempt is simply abandoned.
func (m *GridModel) rebuild() {
	view, err := m.transforms.CreateView(m.schema, m.source)
	if err != nil {
		return
	}
	m.view = view
	m.fireReset()
}

func (m *GridModel) fireReset() {
	for _, fn := range m.resetListeners {
		fn()
	}
}

func (m *GridModel) fireCellChanged(change CellChange) {
	for _, fn := range m.cellListeners {
		fn(change)
	}
}

// OnModelReset registers a listener invoked whenever the current View is
// swapped. Collaborators must re-fetch counts and cells afterwards; held
// View references are stale snapshots.
func (m *GridModel) OnModelReset(fn func()) {
	m.resetListeners = append(m.resetListeners, fn)
}

// OnCellChanged registers a listener invoked after a single-cell edit.
func (m *GridModel) OnCellChanged(fn func(CellChange)) {
	m.cellListeners = append(m.cellListeners, fn)
}

// OnTransformsChanged registers a listener invoked with the active-transform
// snapshot after every transform-state change.
func (m *GridModel) OnTransformsChanged(fn func([]Transform)) {
	m.transforms.OnChange(fn)
}

// CurrentView returns the current fully-transformed View.
func (m *GridModel) CurrentView() *View {
	return m.view
}

// SetDataset replaces the dataset wholesale. Transform state is reset and a
// fresh untransformed View installed.
func (m *GridModel) SetDataset(schema *Schema, source *DataSource) error {
	if source == nil {
		return ErrNoDataSource
	}
	m.transforms.wipe()
	m.schema = schema
	m.source = source
	view, err := m.transforms.CreateView(schema, source)
	if err != nil {
		return err
	}
	m.view = view
	m.fireReset()
	return nil
}

// RowCount returns the row count of a region in the current View.
func (m *GridModel) RowCount(region Region) int {
	return m.view.RowCount(region)
}

// ColumnCount returns the column count of a region in the current View.
func (m *GridModel) ColumnCount(region Region) int {
	return m.view.ColumnCount(region)
}

// Metadata returns cell metadata from the current View.
func (m *GridModel) Metadata(region Region, row, column int) (CellMetadata, error) {
	return m.view.Metadata(region, row, column)
}

// Data returns a cell value from the current View.
func (m *GridModel) Data(region Region, row, column int) (any, error) {
	return m.view.Data(region, row, column)
}

// SchemaIndex converts a region-relative column index to its schema index.
func (m *GridModel) SchemaIndex(region Region, index int) SchemaIndex {
	return m.view.SchemaIndex(region, index)
}

// UniqueValues returns the distinct values of a column in the current View,
// in first-occurrence order.
func (m *GridModel) UniqueValues(region Region, column int) ([]any, error) {
	return m.view.UniqueValues(region, column)
}

// validateColumn rejects transforms addressing a column outside the
// displayed schema before any state is touched.
func (m *GridModel) validateColumn(col SchemaIndex) error {
	total := len(m.view.HeaderFields()) + len(m.view.BodyFields())
	if int(col) < 0 || int(col) >= total {
		return fmt.Errorf("%w: schema index %d", ErrInvalidColumn, int(col))
	}
	return nil
}

// AddTransform inserts or overwrites one transform.
func (m *GridModel) AddTransform(t Transform) error {
	if err := m.validateColumn(t.Column); err != nil {
		return err
	}
	return m.transforms.Add(t)
}

// ReplaceTransforms rebuilds the transform state from the given specs. It is
// idempotent against the current active list.
func (m *GridModel) ReplaceTransforms(specs []Transform) error {
	for _, t := range specs {
		if err := m.validateColumn(t.Column); err != nil {
			return err
		}
	}
	return m.transforms.Replace(specs)
}

// RemoveTransform clears one transform kind from a column.
func (m *GridModel) RemoveTransform(col SchemaIndex, kind TransformType) {
	m.transforms.Remove(col, kind)
}

// ClearTransforms removes all transforms.
func (m *GridModel) ClearTransforms() {
	m.transforms.Clear()
}

// ActiveTransforms returns the current declarative transform list, suitable
// for persistence and for round-tripping through ReplaceTransforms.
func (m *GridModel) ActiveTransforms() []Transform {
	return m.transforms.ActiveTransforms()
}

// sameRecord reports whether two records are the same underlying map.
func sameRecord(a, b Record) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// sourceIndexOf locates a view record in the original data source.
func (m *GridModel) sourceIndexOf(rec Record) (int, error) {
	for i, candidate := range m.source.Records() {
		if sameRecord(candidate, rec) {
			return i, nil
		}
	}
	return 0, ErrRowNotFound
}

// SetData writes a single cell addressed through the current View. The edit
// bypasses the transform pipeline: the underlying record is replaced
// copy-on-write in both the DataSource and the current View, and a
// cell-changed notification is emitted instead of a model reset.
func (m *GridModel) SetData(region Region, row, column int, value any) error {
	if region.isHeaderRow() {
		return fmt.Errorf("%w: %s cells are not editable", ErrInvalidRegion, region)
	}
	f, err := m.view.field(region, column)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(m.view.rows) {
		return fmt.Errorf("%w: %d in %s", ErrInvalidRow, row, region)
	}

	srcIdx, err := m.sourceIndexOf(m.view.rows[row])
	if err != nil {
		return err
	}
	source, rec, err := m.source.WithValue(srcIdx, f.Name, value)
	if err != nil {
		return err
	}
	m.source = source
	if err := m.view.replaceRow(row, rec); err != nil {
		return err
	}

	m.fireCellChanged(CellChange{Region: region, Row: row, Column: column, Value: value})
	return nil
}

// bodyColumnNames returns the names of the displayed non-key columns.
func (m *GridModel) bodyColumnNames() []string {
	fields := m.view.BodyFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// ColumnIndexToName maps a body column index to its name.
func (m *GridModel) ColumnIndexToName(index int) (string, error) {
	names := m.bodyColumnNames()
	if index < 0 || index >= len(names) {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumn, index)
	}
	return names[index], nil
}

// ColumnNameToIndex maps a body column name to its index.
func (m *GridModel) ColumnNameToIndex(name string) (int, error) {
	for i, n := range m.bodyColumnNames() {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// RowIndicesOfPrimaryKey returns the positions in the original dataset whose
// primary-key columns (excluding the synthetic row id) equal the given
// values. The value count must match the trimmed primary key.
func (m *GridModel) RowIndicesOfPrimaryKey(values ...any) ([]int, error) {
	key := m.schema.TrimmedPrimaryKey()
	if len(values) != len(key) {
		return nil, fmt.Errorf("%w: got %d values for key of length %d",
			ErrKeyMismatch, len(values), len(key))
	}

	missing := m.schema.missingSet()
	var out []int
	for i, rec := range m.source.Records() {
		match := true
		for k, name := range key {
			if !compare.Equal(normalize(rec[name], missing), values[k]) {
				match = false
				break
			}
		}
		if match {
			out = append(out, i)
		}
	}
	return out, nil
}

// GetCellValue returns the values of the named column for every row whose
// primary key equals the given values.
func (m *GridModel) GetCellValue(column string, keyValues ...any) ([]any, error) {
	if _, ok := m.schema.FieldByName(column); !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	rows, err := m.RowIndicesOfPrimaryKey(keyValues...)
	if err != nil {
		return nil, err
	}

	missing := m.schema.missingSet()
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = normalize(m.source.records[row][column], missing)
	}
	return out, nil
}

// SetCellValue writes the named column of every row whose primary key equals
// the given values, emitting one cell-changed notification per row.
func (m *GridModel) SetCellValue(column string, keyValues []any, value any) error {
	if _, ok := m.schema.FieldByName(column); !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	rows, err := m.RowIndicesOfPrimaryKey(keyValues...)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrRowNotFound
	}

	for _, row := range rows {
		if err := m.SetCellValueByIndex(column, row, value); err != nil {
			return err
		}
	}
	return nil
}

// GetCellValueByIndex returns the named column of one original-dataset row.
func (m *GridModel) GetCellValueByIndex(column string, row int) (any, error) {
	if _, ok := m.schema.FieldByName(column); !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	rec, err := m.source.Record(row)
	if err != nil {
		return nil, err
	}
	return normalize(rec[column], m.schema.missingSet()), nil
}

// SetCellValueByIndex writes the named column of one original-dataset row
// copy-on-write and emits a cell-changed notification.
func (m *GridModel) SetCellValueByIndex(column string, row int, value any) error {
	if _, ok := m.schema.FieldByName(column); !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	old, err := m.source.Record(row)
	if err != nil {
		return err
	}
	source, rec, err := m.source.WithValue(row, column, value)
	if err != nil {
		return err
	}
	m.source = source

	// Keep the current View in step without replaying the pipeline.
	for i, viewRec := range m.view.rows {
		if sameRecord(viewRec, old) {
			m.view.rows[i] = rec
			break
		}
	}

	change := CellChange{Region: RegionBody, Row: row, Column: -1, Value: value}
	if idx, err := m.ColumnNameToIndex(column); err == nil {
		change.Column = idx
	}
	m.fireCellChanged(change)
	return nil
}

// SetRowValue writes every body column of the rows matching the given
// primary key, in column order.
func (m *GridModel) SetRowValue(keyValues []any, values []any) error {
	names := m.bodyColumnNames()
	if len(values) != len(names) {
		return fmt.Errorf("%w: got %d values for %d columns",
			ErrInvalidColumn, len(values), len(names))
	}
	rows, err := m.RowIndicesOfPrimaryKey(keyValues...)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrRowNotFound
	}

	for _, row := range rows {
		for i, name := range names {
			if err := m.SetCellValueByIndex(name, row, values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// VisibleData materializes the current View as a fresh record sequence in
// displayed order. Both the schema and the records are copies; mutating them
// leaves the live dataset untouched.
func (m *GridModel) VisibleData() (*Schema, []Record) {
	rows := make([]Record, len(m.view.rows))
	for i, rec := range m.view.rows {
		rows[i] = rec.clone()
	}
	return m.schema.clone(), rows
}
