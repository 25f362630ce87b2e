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

// Package query compiles simple search expressions into transform lists.
// An expression is a sequence of comparisons joined by AND, for example
//
//	name = ada AND score >= 7 AND city ~ "york"
//
// Each comparison becomes one filter transform on the named column; the
// result feeds straight into GridModel.ReplaceTransforms. Active filters
// compose conjunctively per column, so OR is not expressible and is
// rejected at parse time.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/magpierre/gridmodel/datagrid"
)

// Parser resolves column names in search expressions against a view's
// displayed columns.
type Parser struct {
	columns map[string]datagrid.SchemaIndex
	types   map[string]datagrid.ColumnType
}

// NewParser builds a parser over the view's header and body columns.
// Column-name matching is case-insensitive.
func NewParser(view *datagrid.View) *Parser {
	p := &Parser{
		columns: make(map[string]datagrid.SchemaIndex),
		types:   make(map[string]datagrid.ColumnType),
	}
	for i, f := range view.HeaderFields() {
		p.index(f, view.SchemaIndex(datagrid.RegionCornerHeader, i))
	}
	for i, f := range view.BodyFields() {
		p.index(f, view.SchemaIndex(datagrid.RegionColumnHeader, i))
	}
	return p
}

func (p *Parser) index(f datagrid.Field, idx datagrid.SchemaIndex) {
	key := strings.ToLower(f.Name)
	p.columns[key] = idx
	p.types[key] = f.Type
}

// comparison operators, longest symbols first so ">=" wins over ">".
var symbols = []struct {
	symbol string
	op     datagrid.Operator
}{
	{">=", datagrid.OpGreaterEqual},
	{"<=", datagrid.OpLessEqual},
	{"!=", datagrid.OpNotEquals},
	{"=", datagrid.OpEquals},
	{">", datagrid.OpGreater},
	{"<", datagrid.OpLess},
	{"~", datagrid.OpStringContains},
}

// Parse compiles an expression into filter transforms, one per comparison.
// An empty expression yields an empty list, which clears all filters when
// replayed through ReplaceTransforms.
func (p *Parser) Parse(expr string) ([]datagrid.Transform, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var transforms []datagrid.Transform
	for _, part := range splitAnd(expr) {
		if strings.EqualFold(part, "OR") {
			return nil, fmt.Errorf("OR is not supported: filters compose conjunctively")
		}
		t, err := p.parseComparison(part)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

// splitAnd splits the expression on word-boundary ANDs, case-insensitive.
func splitAnd(expr string) []string {
	var parts []string
	var current strings.Builder
	i := 0
	for i < len(expr) {
		if i+3 <= len(expr) && strings.EqualFold(expr[i:i+3], "AND") {
			before := i == 0 || isSpace(expr[i-1])
			after := i+3 >= len(expr) || isSpace(expr[i+3])
			if before && after {
				if s := strings.TrimSpace(current.String()); s != "" {
					parts = append(parts, s)
				}
				current.Reset()
				i += 3
				continue
			}
		}
		current.WriteByte(expr[i])
		i++
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseComparison turns "column op value" into one filter transform.
func (p *Parser) parseComparison(s string) (datagrid.Transform, error) {
	if strings.Contains(strings.ToUpper(" "+s+" "), " OR ") {
		return datagrid.Transform{}, fmt.Errorf("OR is not supported: filters compose conjunctively")
	}

	for _, cand := range symbols {
		idx := strings.Index(s, cand.symbol)
		if idx <= 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(s[:idx]))
		operand := strings.Trim(strings.TrimSpace(s[idx+len(cand.symbol):]), `"'`)

		col, ok := p.columns[name]
		if !ok {
			return datagrid.Transform{}, fmt.Errorf("%w: %q", datagrid.ErrColumnNotFound, name)
		}
		return datagrid.NewFilter(col, cand.op, p.operandValue(name, operand)), nil
	}

	return datagrid.Transform{}, fmt.Errorf("no comparison operator in %q", s)
}

// operandValue parses the operand text into the column's scalar type so the
// filter compares natively rather than textually.
func (p *Parser) operandValue(column, raw string) any {
	switch p.types[column] {
	case datagrid.TypeInteger, datagrid.TypeNumber:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case datagrid.TypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}
