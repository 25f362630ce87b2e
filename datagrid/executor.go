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
	"sort"
	"strings"

	"github.com/magpierre/gridmodel/internal/compare"
)

// Executor applies one transform kind to a row sequence. The schema passes
// through unchanged; only the rows change. Executors never mutate their
// input slice.
type Executor interface {
	Apply(schema *Schema, rows []Record) ([]Record, error)
}

// normalize folds configured missing-value strings into nil so that the
// rest of the engine only ever sees one null representation.
func normalize(v any, missing map[string]struct{}) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && missing != nil {
		if _, hit := missing[s]; hit {
			return nil
		}
	}
	return v
}

// filterExecutor drops rows whose value for one column fails a predicate.
type filterExecutor struct {
	field   string
	typ     ColumnType
	op      Operator
	operand any
}

func newFilterExecutor(field Field, op Operator, operand any) *filterExecutor {
	return &filterExecutor{field: field.Name, typ: field.Type, op: op, operand: operand}
}

// Apply implements Executor.
func (f *filterExecutor) Apply(schema *Schema, rows []Record) ([]Record, error) {
	missing := schema.missingSet()
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		keep, err := f.match(normalize(rec[f.field], missing))
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out, nil
}

// match evaluates the predicate against one normalized cell value.
func (f *filterExecutor) match(value any) (bool, error) {
	switch f.op {
	case OpEmpty:
		return value == nil, nil
	case OpNotEmpty:
		return value != nil, nil
	case OpNotEquals:
		if value == nil {
			// A null never equals a concrete operand.
			return f.operand != nil, nil
		}
	default:
		if value == nil {
			return false, nil
		}
	}

	switch f.op {
	case OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		return f.matchOrdered(value)
	case OpEquals:
		return f.matchEqual(value)
	case OpNotEquals:
		eq, err := f.matchEqual(value)
		return !eq, err
	case OpIn:
		return f.matchIn(value)
	case OpBetween:
		return f.matchBetween(value)
	case OpStartsWith:
		return strings.HasPrefix(compare.AsString(value), compare.AsString(f.operand)), nil
	case OpEndsWith:
		return strings.HasSuffix(compare.AsString(value), compare.AsString(f.operand)), nil
	case OpContains:
		return strings.Contains(compare.AsString(value), compare.AsString(f.operand)), nil
	case OpNotContains:
		return !strings.Contains(compare.AsString(value), compare.AsString(f.operand)), nil
	case OpStringContains:
		return strings.Contains(
			strings.ToLower(compare.AsString(value)),
			strings.ToLower(compare.AsString(f.operand)),
		), nil
	case OpSameDay:
		v, vok := compare.AsTime(value)
		o, ook := compare.AsTime(f.operand)
		return vok && ook && compare.SameDay(v, o), nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownOperator, f.op)
	}
}

// matchOrdered handles <, >, <= and >=. Date columns compare at day
// granularity, the operand acting as a calendar-day boundary; numbers
// compare numerically; everything else lexicographically.
func (f *filterExecutor) matchOrdered(value any) (bool, error) {
	var cmp int
	if f.typ.IsTemporal() {
		v, vok := compare.AsTime(value)
		o, ook := compare.AsTime(f.operand)
		if !vok || !ook {
			return false, nil
		}
		cmp = compare.DayOf(v).Compare(compare.DayOf(o))
	} else {
		cmp = compare.Values(value, f.operand)
	}

	switch f.op {
	case OpLess:
		return cmp < 0, nil
	case OpGreater:
		return cmp > 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownOperator, f.op)
	}
}

// matchEqual handles = and the non-null arm of !=. Date columns compare
// same-instant, not same-day.
func (f *filterExecutor) matchEqual(value any) (bool, error) {
	if f.typ.IsTemporal() {
		v, vok := compare.AsTime(value)
		o, ook := compare.AsTime(f.operand)
		return vok && ook && v.Equal(o), nil
	}
	return compare.Equal(value, f.operand), nil
}

// matchIn handles membership in the operand array.
func (f *filterExecutor) matchIn(value any) (bool, error) {
	members, ok := f.operand.([]any)
	if !ok {
		return compare.Equal(value, f.operand), nil
	}
	for _, m := range members {
		if compare.Equal(value, m) {
			return true, nil
		}
	}
	return false, nil
}

// matchBetween handles the operand pair interval: exclusive at both bounds
// for numbers, day-inclusive for dates.
func (f *filterExecutor) matchBetween(value any) (bool, error) {
	pair, ok := f.operand.([]any)
	if !ok || len(pair) != 2 {
		return false, fmt.Errorf("%w: between requires a two-element operand", ErrUnknownOperator)
	}
	lo, hi := pair[0], pair[1]

	if f.typ.IsTemporal() {
		v, vok := compare.AsTime(value)
		tlo, lok := compare.AsTime(lo)
		thi, hok := compare.AsTime(hi)
		if !vok || !lok || !hok {
			return false, nil
		}
		day := compare.DayOf(v)
		return !day.Before(compare.DayOf(tlo)) && !day.After(compare.DayOf(thi)), nil
	}

	return compare.Values(value, lo) > 0 && compare.Values(value, hi) < 0, nil
}

// sortExecutor reorders rows by one column, keeping a stable order among
// ties and always appending unsortable rows at the end.
type sortExecutor struct {
	field string
	typ   ColumnType
	desc  bool
}

func newSortExecutor(field Field, desc bool) *sortExecutor {
	return &sortExecutor{field: field.Name, typ: field.Type, desc: desc}
}

// Apply implements Executor.
func (s *sortExecutor) Apply(schema *Schema, rows []Record) ([]Record, error) {
	missing := schema.missingSet()

	sortable := make([]Record, 0, len(rows))
	var unsortable []Record
	for _, rec := range rows {
		if s.sortable(normalize(rec[s.field], missing)) {
			sortable = append(sortable, rec)
		} else {
			unsortable = append(unsortable, rec)
		}
	}

	sort.SliceStable(sortable, func(i, j int) bool {
		c := s.compareRows(sortable[i], sortable[j], missing)
		if s.desc {
			return c > 0
		}
		return c < 0
	})

	return append(sortable, unsortable...), nil
}

// sortable reports whether a value participates in ordering. Nulls, NaN and
// unparseable dates go to the tail regardless of direction.
func (s *sortExecutor) sortable(v any) bool {
	if v == nil || compare.IsNaN(v) {
		return false
	}
	if s.typ.IsTemporal() {
		_, ok := compare.AsTime(v)
		return ok
	}
	return true
}

// compareRows orders two sortable rows. String-typed columns compare the
// string-coerced form of both operands so that a stray number in a text
// column still sorts as text; other columns use their native ordering.
func (s *sortExecutor) compareRows(a, b Record, missing map[string]struct{}) int {
	va := normalize(a[s.field], missing)
	vb := normalize(b[s.field], missing)

	if s.typ == TypeString {
		return strings.Compare(compare.AsString(va), compare.AsString(vb))
	}
	if s.typ.IsTemporal() {
		ta, _ := compare.AsTime(va)
		tb, _ := compare.AsTime(vb)
		return ta.Compare(tb)
	}
	return compare.Values(va, vb)
}
