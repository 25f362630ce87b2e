package datagrid

import "fmt"

// Record is one flat row, mapping field names to scalar values. A missing
// key is treated as null.
type Record map[string]any

// clone returns a shallow copy of the record.
func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DataSource is the immutable row store behind a grid model. It is created
// once per dataset and never mutated in place; edits produce a new
// DataSource that shares all untouched records.
type DataSource struct {
	records []Record
}

// NewDataSource creates a data source over the given records. The engine
// takes ownership of the slice; callers must not mutate it afterwards.
func NewDataSource(records []Record) *DataSource {
	return &DataSource{records: records}
}

// Len returns the number of records.
func (ds *DataSource) Len() int {
	return len(ds.records)
}

// Record returns the record at the given index.
// Returns ErrInvalidRow if row is out of range.
func (ds *DataSource) Record(row int) (Record, error) {
	if row < 0 || row >= len(ds.records) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	return ds.records[row], nil
}

// Records returns the backing record slice. Callers must treat it as
// read-only.
func (ds *DataSource) Records() []Record {
	return ds.records
}

// WithValue returns a new DataSource where the named field of the given row
// holds value. The affected record is copied; all other records are shared
// with the receiver.
func (ds *DataSource) WithValue(row int, field string, value any) (*DataSource, Record, error) {
	if row < 0 || row >= len(ds.records) {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	records := make([]Record, len(ds.records))
	copy(records, ds.records)
	rec := records[row].clone()
	rec[field] = value
	records[row] = rec
	return &DataSource{records: records}, rec, nil
}
