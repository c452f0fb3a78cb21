package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHeader means a raw table has no "Kod stacji" marker row.
	ErrMissingHeader = errors.New("station code header row not found")

	// ErrMissingColumn means the metadata table lacks a required column.
	ErrMissingColumn = errors.New("required metadata column not found")

	// ErrNoData means a stage received no tables to work on.
	ErrNoData = errors.New("no data")

	// ErrYearNotFound means a selection names a year absent from the index.
	ErrYearNotFound = errors.New("year not found")

	errDuplicateHeader = errors.New("station code header row")
)

// FormatError reports a cell that does not fit the expected archive layout.
type FormatError struct {
	Year  int
	Row   int
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("year %d row %d: unexpected value %q: %v", e.Year, e.Row, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
