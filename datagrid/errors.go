package datagrid

import "errors"

// Common errors returned by the datagrid package.
var (
	// ErrInvalidColumn is returned when a column coordinate is out of range.
	ErrInvalidColumn = errors.New("invalid column index")

	// ErrInvalidRow is returned when a row coordinate is out of range.
	ErrInvalidRow = errors.New("invalid row index")

	// ErrInvalidRegion is returned when a region name or value is not one of
	// the four grid quadrants.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrUnknownOperator is returned when a filter carries an operator the
	// engine does not implement.
	ErrUnknownOperator = errors.New("unknown filter operator")

	// ErrUnknownTransform is returned when a transform carries an
	// unrecognized type tag.
	ErrUnknownTransform = errors.New("unknown transform type")

	// ErrColumnNotFound is returned when a column name matches no field.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when a schema declares the same column
	// name twice.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrNoDataSource is returned when a required data source is nil.
	ErrNoDataSource = errors.New("data source is nil")

	// ErrKeyMismatch is returned when a primary-key lookup value has a
	// different length than the schema's primary key.
	ErrKeyMismatch = errors.New("primary key length mismatch")

	// ErrRowNotFound is returned when a record cannot be located in the
	// underlying data source.
	ErrRowNotFound = errors.New("row not found")
)
