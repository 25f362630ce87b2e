package datagrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema has one header field (key), two body fields (name, score) and a
// hidden row-id column.
func testSchema() *Schema {
	return &Schema{
		Fields: []Field{
			{Name: "key", Type: TypeInteger},
			{Name: "name", Type: TypeString},
			{Name: "score", Type: TypeNumber},
			{Name: "_rowid", Type: TypeInteger},
		},
		PrimaryKey:    []string{"key", "_rowid"},
		RowIDField:    "_rowid",
		MissingValues: []string{"NA"},
	}
}

func testRows() []Record {
	return []Record{
		{"key": 0, "name": "ada", "score": 10.5, "_rowid": 0},
		{"key": 1, "name": "grace", "score": "NA", "_rowid": 1},
		{"key": 2, "name": "alan", "score": 7.0, "_rowid": 2},
	}
}

func TestViewCounts(t *testing.T) {
	v := NewView(testSchema(), testRows())

	assert.Equal(t, 3, v.RowCount(RegionBody))
	assert.Equal(t, 3, v.RowCount(RegionRowHeader))
	assert.Equal(t, 1, v.RowCount(RegionColumnHeader))
	assert.Equal(t, 1, v.RowCount(RegionCornerHeader))

	assert.Equal(t, 2, v.ColumnCount(RegionBody))
	assert.Equal(t, 2, v.ColumnCount(RegionColumnHeader))
	assert.Equal(t, 1, v.ColumnCount(RegionRowHeader))
	assert.Equal(t, 1, v.ColumnCount(RegionCornerHeader))
}

func TestViewCompoundHeaderRows(t *testing.T) {
	schema := &Schema{
		Fields: []Field{
			{Name: "key", Type: TypeInteger, DisplayPath: []string{"key", ""}},
			{Name: "q1", Type: TypeNumber, DisplayPath: []string{"2025", "q1"}},
			{Name: "q2", Type: TypeNumber, DisplayPath: []string{"2025", "q2"}},
		},
		PrimaryKey: []string{"key"},
	}
	v := NewView(schema, nil)

	assert.Equal(t, 2, v.RowCount(RegionColumnHeader))

	label, err := v.Data(RegionColumnHeader, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025", label)

	label, err = v.Data(RegionColumnHeader, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "q2", label)

	label, err = v.Data(RegionCornerHeader, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "key", label)
}

func TestViewData(t *testing.T) {
	v := NewView(testSchema(), testRows())

	got, err := v.Data(RegionBody, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.5, got)

	got, err = v.Data(RegionRowHeader, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = v.Data(RegionColumnHeader, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "name", got)
}

func TestViewMissingValueReadsAsNull(t *testing.T) {
	v := NewView(testSchema(), testRows())

	got, err := v.Data(RegionBody, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, got, "configured missing value must never surface as its raw string")
}

func TestViewBoundsErrors(t *testing.T) {
	v := NewView(testSchema(), testRows())

	_, err := v.Data(RegionBody, 99, 0)
	assert.ErrorIs(t, err, ErrInvalidRow)

	_, err = v.Data(RegionBody, 0, 99)
	assert.ErrorIs(t, err, ErrInvalidColumn)

	_, err = v.Metadata(RegionRowHeader, 0, 5)
	assert.ErrorIs(t, err, ErrInvalidColumn)
}

func TestViewMetadata(t *testing.T) {
	v := NewView(testSchema(), testRows())

	md, err := v.Metadata(RegionBody, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "score", md.Name)
	assert.Equal(t, TypeNumber, md.Type)
	assert.Equal(t, 1, md.Row)
	assert.Equal(t, 1, md.Column)

	md, err = v.Metadata(RegionCornerHeader, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "key", md.Name)
}

func TestViewSchemaIndexRoundTrip(t *testing.T) {
	// 1 header field, 2 body fields.
	v := NewView(testSchema(), nil)

	assert.Equal(t, SchemaIndex(1), v.SchemaIndex(RegionColumnHeader, 0))
	assert.Equal(t, SchemaIndex(2), v.SchemaIndex(RegionBody, 1))
	assert.Equal(t, SchemaIndex(0), v.SchemaIndex(RegionCornerHeader, 0))
}

func TestViewUniqueValuesFirstOccurrenceOrder(t *testing.T) {
	schema := &Schema{Fields: []Field{{Name: "v", Type: TypeString}}}
	rows := []Record{
		{"v": "A"}, {"v": "C"}, {"v": "B"}, {"v": "A"}, {"v": "C"},
	}
	v := NewView(schema, rows)

	got, err := v.UniqueValues(RegionBody, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "C", "B"}, got)
}

func TestViewUniqueValuesCollapsesNaN(t *testing.T) {
	schema := &Schema{Fields: []Field{{Name: "v", Type: TypeNumber}}}
	rows := []Record{
		{"v": math.NaN()}, {"v": 1.0}, {"v": math.NaN()}, {"v": 2.0},
	}
	v := NewView(schema, rows)

	got, err := v.UniqueValues(RegionBody, 0)
	require.NoError(t, err)
	require.Len(t, got, 3, "every NaN is the same distinct value")
	assert.True(t, math.IsNaN(got[0].(float64)))
	assert.Equal(t, 1.0, got[1])
	assert.Equal(t, 2.0, got[2])
}

func TestViewUniqueValuesFoldsMissing(t *testing.T) {
	schema := &Schema{
		Fields:        []Field{{Name: "v", Type: TypeString}},
		MissingValues: []string{"NA"},
	}
	rows := []Record{{"v": "NA"}, {"v": "x"}, {}, {"v": "NA"}}
	v := NewView(schema, rows)

	got, err := v.UniqueValues(RegionBody, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "x"}, got)
}
