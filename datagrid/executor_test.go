package datagrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberField(name string) Field { return Field{Name: name, Type: TypeNumber} }
func stringField(name string) Field { return Field{Name: name, Type: TypeString} }
func dateField(name string) Field   { return Field{Name: name, Type: TypeDate} }

func values(t *testing.T, rows []Record, field string) []any {
	t.Helper()
	out := make([]any, len(rows))
	for i, rec := range rows {
		out[i] = rec[field]
	}
	return out
}

func TestFilterOrderedOperators(t *testing.T) {
	schema := &Schema{Fields: []Field{numberField("v")}}
	rows := []Record{{"v": 1.0}, {"v": 2.0}, {"v": 3.0}, {"v": nil}}

	tests := []struct {
		op      Operator
		operand any
		want    []any
	}{
		{OpLess, 2.0, []any{1.0}},
		{OpLessEqual, 2.0, []any{1.0, 2.0}},
		{OpGreater, 2.0, []any{3.0}},
		{OpGreaterEqual, 2.0, []any{2.0, 3.0}},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			exec := newFilterExecutor(numberField("v"), tt.op, tt.operand)
			got, err := exec.Apply(schema, rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(t, got, "v"))
		})
	}
}

func TestFilterEmptyAndNotEmpty(t *testing.T) {
	schema := &Schema{
		Fields:        []Field{stringField("v")},
		MissingValues: []string{"NA"},
	}
	rows := []Record{{"v": "a"}, {"v": nil}, {"v": "NA"}, {"v": "b"}}

	empty, err := newFilterExecutor(stringField("v"), OpEmpty, nil).Apply(schema, rows)
	require.NoError(t, err)
	assert.Len(t, empty, 2, "nil and the missing-value string both count as empty")

	notEmpty, err := newFilterExecutor(stringField("v"), OpNotEmpty, nil).Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, values(t, notEmpty, "v"))
}

func TestFilterBetweenNumbersIsExclusive(t *testing.T) {
	schema := &Schema{Fields: []Field{numberField("v")}}
	rows := []Record{{"v": 1.0}, {"v": 2.0}, {"v": 3.0}, {"v": 4.0}}

	exec := newFilterExecutor(numberField("v"), OpBetween, []any{1.0, 4.0})
	got, err := exec.Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0, 3.0}, values(t, got, "v"), "bounds are excluded for numbers")
}

func TestFilterBetweenDatesIsDayInclusive(t *testing.T) {
	schema := &Schema{Fields: []Field{dateField("d")}}
	rows := []Record{
		{"d": "2025-03-01"},
		{"d": "2025-03-02T23:59:00"},
		{"d": "2025-03-04"},
		{"d": "2025-03-05"},
	}

	exec := newFilterExecutor(dateField("d"), OpBetween, []any{"2025-03-02", "2025-03-04"})
	got, err := exec.Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{"2025-03-02T23:59:00", "2025-03-04"}, values(t, got, "d"),
		"date bounds are included at day granularity")
}

func TestFilterDateComparisons(t *testing.T) {
	schema := &Schema{Fields: []Field{dateField("d")}}
	rows := []Record{
		{"d": "2025-03-02T08:00:00"},
		{"d": "2025-03-02T17:30:00"},
		{"d": "2025-03-03"},
	}

	sameDay, err := newFilterExecutor(dateField("d"), OpSameDay, "2025-03-02").Apply(schema, rows)
	require.NoError(t, err)
	assert.Len(t, sameDay, 2)

	// Equality on dates is same-instant, not same-day.
	eq, err := newFilterExecutor(dateField("d"), OpEquals, "2025-03-02T08:00:00").Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{"2025-03-02T08:00:00"}, values(t, eq, "d"))

	// < uses the operand as a calendar-day boundary.
	before, err := newFilterExecutor(dateField("d"), OpLess, "2025-03-03").Apply(schema, rows)
	require.NoError(t, err)
	assert.Len(t, before, 2)
}

func TestFilterSubstringOperators(t *testing.T) {
	schema := &Schema{Fields: []Field{stringField("v")}}
	rows := []Record{{"v": "Alpha"}, {"v": "beta"}, {"v": "alphabet"}}

	tests := []struct {
		name    string
		op      Operator
		operand any
		want    []any
	}{
		{"startswith is case sensitive", OpStartsWith, "alpha", []any{"alphabet"}},
		{"endswith", OpEndsWith, "a", []any{"Alpha", "beta"}},
		{"contains is case sensitive", OpContains, "alpha", []any{"alphabet"}},
		{"not contains", OpNotContains, "alpha", []any{"Alpha", "beta"}},
		{"stringContains is case insensitive", OpStringContains, "ALPHA", []any{"Alpha", "alphabet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFilterExecutor(stringField("v"), tt.op, tt.operand)
			got, err := exec.Apply(schema, rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(t, got, "v"))
		})
	}
}

func TestFilterInMembership(t *testing.T) {
	schema := &Schema{Fields: []Field{numberField("v")}}
	rows := []Record{{"v": 1.0}, {"v": 2.0}, {"v": 3.0}}

	exec := newFilterExecutor(numberField("v"), OpIn, []any{1.0, 3.0, 9.0})
	got, err := exec.Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 3.0}, values(t, got, "v"))
}

func TestFilterNotEqualsKeepsNulls(t *testing.T) {
	schema := &Schema{Fields: []Field{stringField("v")}}
	rows := []Record{{"v": "a"}, {"v": nil}, {"v": "b"}}

	exec := newFilterExecutor(stringField("v"), OpNotEquals, "a")
	got, err := exec.Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "b"}, values(t, got, "v"))
}

func TestFilterUnknownOperatorFails(t *testing.T) {
	schema := &Schema{Fields: []Field{stringField("v")}}
	rows := []Record{{"v": "a"}}

	exec := newFilterExecutor(stringField("v"), Operator(999), nil)
	_, err := exec.Apply(schema, rows)
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestSortAscendingAndDescending(t *testing.T) {
	schema := &Schema{Fields: []Field{numberField("v")}}
	rows := []Record{{"v": 3.0}, {"v": 1.0}, {"v": 2.0}}

	asc, err := newSortExecutor(numberField("v"), false).Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, values(t, asc, "v"))

	desc, err := newSortExecutor(numberField("v"), true).Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0, 2.0, 1.0}, values(t, desc, "v"))
}

func TestSortUnsortableAlwaysAtTail(t *testing.T) {
	schema := &Schema{
		Fields:        []Field{numberField("v")},
		MissingValues: []string{"NA"},
	}
	rows := []Record{
		{"v": 3.0},
		{"v": nil},
		{"v": 1.0},
		{"v": math.NaN()},
		{"v": "NA"},
		{"v": 2.0},
	}

	for _, desc := range []bool{false, true} {
		got, err := newSortExecutor(numberField("v"), desc).Apply(schema, rows)
		require.NoError(t, err)
		require.Len(t, got, 6)

		// The three unsortable rows keep their relative order at the end.
		assert.Nil(t, got[3]["v"])
		assert.True(t, math.IsNaN(got[4]["v"].(float64)))
		assert.Equal(t, "NA", got[5]["v"])
	}
}

func TestSortInvalidDatesAtTail(t *testing.T) {
	schema := &Schema{Fields: []Field{dateField("d")}}
	rows := []Record{
		{"d": "2025-06-01"},
		{"d": "not a date"},
		{"d": "2025-01-15"},
	}

	got, err := newSortExecutor(dateField("d"), false).Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{"2025-01-15", "2025-06-01", "not a date"}, values(t, got, "d"))
}

func TestSortStringColumnCoercesNumbers(t *testing.T) {
	schema := &Schema{Fields: []Field{stringField("v")}}
	rows := []Record{{"v": "b"}, {"v": 10}, {"v": "a"}}

	got, err := newSortExecutor(stringField("v"), false).Apply(schema, rows)
	require.NoError(t, err)
	// 10 sorts as the text "10", before "a" and "b"; the stored value is
	// untouched.
	assert.Equal(t, []any{10, "a", "b"}, values(t, got, "v"))
}

func TestSortIsStable(t *testing.T) {
	schema := &Schema{Fields: []Field{numberField("v"), stringField("tag")}}
	rows := []Record{
		{"v": 1.0, "tag": "first"},
		{"v": 2.0, "tag": "x"},
		{"v": 1.0, "tag": "second"},
		{"v": 1.0, "tag": "third"},
	}

	got, err := newSortExecutor(numberField("v"), false).Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second", "third", "x"}, values(t, got, "tag"))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	schema := &Schema{Fields: []Field{numberField("v")}}
	rows := []Record{{"v": 3.0}, {"v": 1.0}, {"v": 2.0}}

	_, err := newSortExecutor(numberField("v"), false).Apply(schema, rows)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0, 1.0, 2.0}, values(t, rows, "v"))
}
