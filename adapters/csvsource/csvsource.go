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

// Package csvsource reads CSV input into a grid dataset, inferring a column
// type for each field from the values observed in the file. A column's type
// is the narrowest one every non-empty value parses as; anything else falls
// back to string.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magpierre/gridmodel/datagrid"
)

var (
	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
	}

	datetimeLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
	}
)

// Options configures CSV ingestion.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// PrimaryKey names the columns rendered as row headers. May be empty.
	PrimaryKey []string

	// MissingValues lists strings that read back as null, e.g. "NA".
	// The empty string is always treated as missing.
	MissingValues []string
}

// Read consumes CSV input whose first row holds the column names and builds
// a typed schema and data source.
func Read(r io.Reader, opts Options) (*datagrid.Schema, *datagrid.DataSource, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv header: %w", err)
	}
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			return nil, nil, fmt.Errorf("%w: %q", datagrid.ErrDuplicateColumn, name)
		}
		seen[name] = struct{}{}
	}

	missing := make(map[string]struct{}, len(opts.MissingValues)+1)
	missing[""] = struct{}{}
	for _, v := range opts.MissingValues {
		missing[v] = struct{}{}
	}

	var raw [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading csv row %d: %w", len(raw)+2, err)
		}
		raw = append(raw, row)
	}

	types := inferTypes(header, raw, missing)

	records := make([]datagrid.Record, len(raw))
	for i, row := range raw {
		rec := make(datagrid.Record, len(header)+1)
		for c, name := range header {
			if c >= len(row) {
				rec[name] = nil
				continue
			}
			rec[name] = convert(row[c], types[c], missing)
		}
		records[i] = rec
	}

	schema := &datagrid.Schema{
		PrimaryKey:    append([]string(nil), opts.PrimaryKey...),
		MissingValues: opts.MissingValues,
	}
	for c, name := range header {
		schema.Fields = append(schema.Fields, datagrid.Field{Name: name, Type: types[c]})
	}

	rowID := "_rowid"
	if _, taken := seen[rowID]; taken {
		rowID = "_rowid_" + uuid.NewString()
	}
	schema.RowIDField = rowID
	schema.Fields = append(schema.Fields, datagrid.Field{Name: rowID, Type: datagrid.TypeString})
	schema.PrimaryKey = append(schema.PrimaryKey, rowID)
	for i := range records {
		records[i][rowID] = uuid.NewString()
	}

	return schema, datagrid.NewDataSource(records), nil
}

// inferTypes picks a column type per field: the narrowest type every
// non-missing value parses as.
func inferTypes(header []string, rows [][]string, missing map[string]struct{}) []datagrid.ColumnType {
	types := make([]datagrid.ColumnType, len(header))
	for c := range header {
		types[c] = inferColumn(rows, c, missing)
	}
	return types
}

func inferColumn(rows [][]string, col int, missing map[string]struct{}) datagrid.ColumnType {
	isInt, isFloat, isBool, isDate, isDatetime := true, true, true, true, true
	sawValue := false

	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		s := strings.TrimSpace(row[col])
		if _, skip := missing[s]; skip {
			continue
		}
		sawValue = true

		if isInt {
			_, err := strconv.ParseInt(s, 10, 64)
			isInt = err == nil
		}
		if isFloat {
			_, err := strconv.ParseFloat(s, 64)
			isFloat = err == nil
		}
		if isBool {
			_, err := strconv.ParseBool(s)
			isBool = err == nil
		}
		if isDate {
			isDate = parses(s, dateLayouts)
		}
		if isDatetime {
			isDatetime = parses(s, datetimeLayouts)
		}

		if !isInt && !isFloat && !isBool && !isDate && !isDatetime {
			return datagrid.TypeString
		}
	}

	switch {
	case !sawValue:
		return datagrid.TypeString
	case isBool:
		return datagrid.TypeBoolean
	case isInt:
		return datagrid.TypeInteger
	case isFloat:
		return datagrid.TypeNumber
	case isDate:
		return datagrid.TypeDate
	case isDatetime:
		return datagrid.TypeDatetime
	default:
		return datagrid.TypeString
	}
}

func parses(s string, layouts []string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// convert parses one raw cell into the column's scalar type. Missing values
// become nil; values that fail to parse stay as their raw text.
func convert(s string, typ datagrid.ColumnType, missing map[string]struct{}) any {
	trimmed := strings.TrimSpace(s)
	if _, skip := missing[trimmed]; skip {
		return nil
	}

	switch typ {
	case datagrid.TypeBoolean:
		if b, err := strconv.ParseBool(trimmed); err == nil {
			return b
		}
	case datagrid.TypeInteger:
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n
		}
	case datagrid.TypeNumber:
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	case datagrid.TypeDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t
			}
		}
	case datagrid.TypeDatetime:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t
			}
		}
	}
	return s
}
