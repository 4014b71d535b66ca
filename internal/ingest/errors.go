package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrBadDate       = errors.New("unparseable date")
	ErrBadNumber     = errors.New("not a number")
	ErrUnknownSource = errors.New("unknown channel")
	ErrDuplicateDate = errors.New("duplicate date")
)

// MalformedInputError names the table, 1-based data row and column of a cell
// that could not be converted.
type MalformedInputError struct {
	Table  string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: row %d: column %q: %v: %q", e.Table, e.Row, e.Column, e.Err, e.Value)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SchemaError reports a required column missing from an input table.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Table, e.Column)
}

// SourceError wraps a failure to open or read a table source.
type SourceError struct {
	Table string
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }
