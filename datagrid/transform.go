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

	json "github.com/goccy/go-json"
)

// SchemaIndex is the absolute column position across header and body fields
// combined. It is the canonical column identifier carried by transforms;
// region-relative indices are converted through View.SchemaIndex.
type SchemaIndex int

// TransformType tags the two transform kinds.
type TransformType int

const (
	// TransformSort orders rows by one column.
	TransformSort TransformType = iota
	// TransformFilter drops rows failing a predicate on one column.
	TransformFilter
)

// String returns the wire name of a TransformType.
func (tt TransformType) String() string {
	switch tt {
	case TransformSort:
		return "sort"
	case TransformFilter:
		return "filter"
	default:
		return fmt.Sprintf("unknown(%d)", tt)
	}
}

// Operator identifies a filter predicate.
type Operator int

const (
	// OpLess keeps values strictly below the operand.
	OpLess Operator = iota
	// OpGreater keeps values strictly above the operand.
	OpGreater
	// OpLessEqual keeps values at or below the operand.
	OpLessEqual
	// OpGreaterEqual keeps values at or above the operand.
	OpGreaterEqual
	// OpEquals keeps values equal to the operand.
	OpEquals
	// OpNotEquals keeps values not equal to the operand.
	OpNotEquals
	// OpEmpty keeps null values.
	OpEmpty
	// OpNotEmpty keeps non-null values.
	OpNotEmpty
	// OpIn keeps values that appear in the operand array.
	OpIn
	// OpBetween keeps values inside the operand pair. Numeric bounds are
	// exclusive; date bounds are inclusive at day granularity.
	OpBetween
	// OpStartsWith keeps values whose text starts with the operand.
	OpStartsWith
	// OpEndsWith keeps values whose text ends with the operand.
	OpEndsWith
	// OpContains keeps values whose text contains the operand.
	OpContains
	// OpNotContains keeps values whose text does not contain the operand.
	OpNotContains
	// OpStringContains is the case-insensitive form of OpContains, with both
	// sides coerced to strings. Used for free-text search.
	OpStringContains
	// OpSameDay keeps date values on the operand's calendar day.
	OpSameDay
)

var operatorNames = map[Operator]string{
	OpLess:           "<",
	OpGreater:        ">",
	OpLessEqual:      "<=",
	OpGreaterEqual:   ">=",
	OpEquals:         "=",
	OpNotEquals:      "!=",
	OpEmpty:          "empty",
	OpNotEmpty:       "notempty",
	OpIn:             "in",
	OpBetween:        "between",
	OpStartsWith:     "startswith",
	OpEndsWith:       "endswith",
	OpContains:       "contains",
	OpNotContains:    "!contains",
	OpStringContains: "stringContains",
	OpSameDay:        "isOnSameDay",
}

var operatorValues = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[name] = op
	}
	return m
}()

// String returns the wire name of an Operator.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", op)
}

// ParseOperator maps a wire operator name to an Operator.
func ParseOperator(s string) (Operator, error) {
	if op, ok := operatorValues[s]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// Transform is a declarative sort or filter specification targeting one
// column. Sort transforms use Desc; filter transforms use Operator and
// Value.
type Transform struct {
	// Type selects the transform kind.
	Type TransformType

	// Column is the schema index of the target column.
	Column SchemaIndex

	// Desc orders the sort descending. Sort only.
	Desc bool

	// Operator selects the filter predicate. Filter only.
	Operator Operator

	// Value is the filter operand: a scalar, or a two-element pair for
	// "between", or an array for "in". Filter only.
	Value any
}

// NewSort builds a sort transform.
func NewSort(column SchemaIndex, desc bool) Transform {
	return Transform{Type: TransformSort, Column: column, Desc: desc}
}

// NewFilter builds a filter transform.
func NewFilter(column SchemaIndex, op Operator, value any) Transform {
	return Transform{Type: TransformFilter, Column: column, Operator: op, Value: value}
}

type sortJSON struct {
	Type   string      `json:"type"`
	Column SchemaIndex `json:"columnIndex"`
	Desc   bool        `json:"desc"`
}

type filterJSON struct {
	Type     string      `json:"type"`
	Column   SchemaIndex `json:"columnIndex"`
	Operator string      `json:"operator"`
	Value    any         `json:"value,omitempty"`
}

// MarshalJSON renders the transform in its wire shape.
func (t Transform) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case TransformSort:
		return json.Marshal(sortJSON{Type: "sort", Column: t.Column, Desc: t.Desc})
	case TransformFilter:
		return json.Marshal(filterJSON{
			Type:     "filter",
			Column:   t.Column,
			Operator: t.Operator.String(),
			Value:    t.Value,
		})
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTransform, t.Type)
	}
}

// UnmarshalJSON parses the wire shape, dispatching on the "type" tag.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case "sort":
		var raw sortJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*t = NewSort(raw.Column, raw.Desc)
		return nil
	case "filter":
		var raw filterJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		op, err := ParseOperator(raw.Operator)
		if err != nil {
			return err
		}
		*t = NewFilter(raw.Column, op, raw.Value)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransform, tag.Type)
	}
}
