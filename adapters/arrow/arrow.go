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

// Package arrowadapter builds grid datasets from Apache Arrow records and
// tables. Arrow columns are materialized into flat records; nulls become the
// engine's null, temporal columns become time.Time values, and a synthetic
// row-id column is appended so that duplicate key values stay addressable.
package arrowadapter

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/uuid"

	"github.com/magpierre/gridmodel/datagrid"
)

// Options configures dataset construction.
type Options struct {
	// PrimaryKey names the columns rendered as row headers. May be empty.
	PrimaryKey []string

	// RowIDField overrides the name of the synthesized row-id column.
	RowIDField string
}

// FromRecord builds a schema and data source from one Arrow record batch.
func FromRecord(rec arrow.Record, opts Options) (*datagrid.Schema, *datagrid.DataSource, error) {
	if rec == nil {
		return nil, nil, datagrid.ErrNoDataSource
	}

	fields := rec.Schema().Fields()
	records := newRecords(int(rec.NumRows()))
	for i, f := range fields {
		if err := appendColumn(records, 0, f.Name, rec.Column(i)); err != nil {
			return nil, nil, err
		}
	}
	return assemble(fields, records, opts)
}

// FromTable builds a schema and data source from an Arrow table, walking
// each column's chunks in order.
func FromTable(tbl arrow.Table, opts Options) (*datagrid.Schema, *datagrid.DataSource, error) {
	if tbl == nil {
		return nil, nil, datagrid.ErrNoDataSource
	}

	fields := tbl.Schema().Fields()
	records := newRecords(int(tbl.NumRows()))
	for i, f := range fields {
		offset := 0
		for _, chunk := range tbl.Column(i).Data().Chunks() {
			if err := appendColumn(records, offset, f.Name, chunk); err != nil {
				return nil, nil, err
			}
			offset += chunk.Len()
		}
	}
	return assemble(fields, records, opts)
}

func newRecords(n int) []datagrid.Record {
	records := make([]datagrid.Record, n)
	for i := range records {
		records[i] = make(datagrid.Record)
	}
	return records
}

// assemble finishes the dataset: schema fields, row-id column, primary key.
func assemble(fields []arrow.Field, records []datagrid.Record, opts Options) (*datagrid.Schema, *datagrid.DataSource, error) {
	schema := &datagrid.Schema{
		PrimaryKey: append([]string(nil), opts.PrimaryKey...),
	}
	for _, f := range fields {
		schema.Fields = append(schema.Fields, datagrid.Field{
			Name: f.Name,
			Type: columnType(f.Type),
		})
	}

	rowID := opts.RowIDField
	if rowID == "" {
		rowID = "_rowid"
	}
	if _, taken := schema.FieldByName(rowID); taken {
		rowID = "_rowid_" + uuid.NewString()
	}
	schema.RowIDField = rowID
	schema.Fields = append(schema.Fields, datagrid.Field{
		Name: rowID,
		Type: datagrid.TypeString,
	})
	schema.PrimaryKey = append(schema.PrimaryKey, rowID)
	for i := range records {
		records[i][rowID] = uuid.NewString()
	}

	return schema, datagrid.NewDataSource(records), nil
}

// columnType maps an Arrow data type onto the engine's column types.
func columnType(dt arrow.DataType) datagrid.ColumnType {
	switch dt.ID() {
	case arrow.BOOL:
		return datagrid.TypeBoolean
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return datagrid.TypeInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DECIMAL128, arrow.DECIMAL256:
		return datagrid.TypeNumber
	case arrow.STRING, arrow.LARGE_STRING:
		return datagrid.TypeString
	case arrow.DATE32, arrow.DATE64:
		return datagrid.TypeDate
	case arrow.TIMESTAMP:
		return datagrid.TypeDatetime
	case arrow.DURATION:
		return datagrid.TypeDuration
	default:
		return datagrid.TypeAny
	}
}

// appendColumn writes one Arrow array's values into the records starting at
// the given row offset.
func appendColumn(records []datagrid.Record, offset int, name string, col arrow.Array) error {
	for i := 0; i < col.Len(); i++ {
		row := offset + i
		if row >= len(records) {
			return fmt.Errorf("%w: chunk overruns table rows", datagrid.ErrInvalidRow)
		}
		if col.IsNull(i) {
			records[row][name] = nil
			continue
		}
		records[row][name] = cellValue(col, i)
	}
	return nil
}

// cellValue extracts one non-null value as an engine scalar.
func cellValue(col arrow.Array, i int) any {
	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(i)
	case *array.Int8:
		return int64(arr.Value(i))
	case *array.Int16:
		return int64(arr.Value(i))
	case *array.Int32:
		return int64(arr.Value(i))
	case *array.Int64:
		return arr.Value(i)
	case *array.Uint8:
		return int64(arr.Value(i))
	case *array.Uint16:
		return int64(arr.Value(i))
	case *array.Uint32:
		return int64(arr.Value(i))
	case *array.Uint64:
		return int64(arr.Value(i))
	case *array.Float32:
		return float64(arr.Value(i))
	case *array.Float64:
		return arr.Value(i)
	case *array.String:
		return arr.Value(i)
	case *array.LargeString:
		return arr.Value(i)
	case *array.Date32:
		return arr.Value(i).ToTime()
	case *array.Date64:
		return arr.Value(i).ToTime()
	case *array.Timestamp:
		if ts, ok := arr.DataType().(*arrow.TimestampType); ok {
			return arr.Value(i).ToTime(ts.Unit)
		}
		return arr.ValueStr(i)
	default:
		return col.ValueStr(i)
	}
}
