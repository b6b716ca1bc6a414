// Package recordset holds the immutable in-memory form of one query result
// and the chunker that partitions it into file-sized views.
package recordset

import (
	"errors"
	"fmt"
	"iter"

	"github.com/elliotchance/orderedmap/v3"
)

var (
	// ErrInvalidConfiguration is returned for options that are rejected before any work starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInconsistentColumns  = errors.New("records do not share the same columns")
	ErrUnknownColumn        = errors.New("unknown column")
)

// Record maps column names to values, keeping column order.
// A Record is never modified after construction.
type Record struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// NewRecord builds a record from parallel column and value slices.
func NewRecord(columns []string, values []Value) (Record, error) {
	if len(columns) != len(values) {
		return Record{}, fmt.Errorf("record has %d columns but %d values", len(columns), len(values))
	}

	fields := orderedmap.NewOrderedMap[string, Value]()
	for i, col := range columns {
		if _, exists := fields.Get(col); exists {
			return Record{}, fmt.Errorf("duplicate column %q in record", col)
		}
		fields.Set(col, values[i])
	}
	return Record{fields: fields}, nil
}

// Get returns the value stored under col.
func (r Record) Get(col string) (Value, bool) {
	if r.fields == nil {
		return NullValue(), false
	}
	return r.fields.Get(col)
}

// Len returns the number of columns in the record.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Columns returns the column names in record order.
func (r Record) Columns() []string {
	cols := make([]string, 0, r.Len())
	for k := range r.All() {
		cols = append(cols, k)
	}
	return cols
}

// All iterates over columns and values in record order.
func (r Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r.fields == nil {
			return
		}
		for k, v := range r.fields.AllFromFront() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// RecordSet is an ordered sequence of records sharing one column set.
// Column order is the order of the first record.
type RecordSet struct {
	columns []string
	records []Record
}

// New validates that every record carries exactly the columns of the first one.
func New(records []Record) (*RecordSet, error) {
	if len(records) == 0 {
		return &RecordSet{}, nil
	}

	columns := records[0].Columns()
	for i, rec := range records[1:] {
		if rec.Len() != len(columns) {
			return nil, fmt.Errorf("%w: record %d has %d columns, expected %d",
				ErrInconsistentColumns, i+2, rec.Len(), len(columns))
		}
		for _, col := range columns {
			if _, ok := rec.Get(col); !ok {
				return nil, fmt.Errorf("%w: record %d is missing column %q", ErrInconsistentColumns, i+2, col)
			}
		}
	}

	owned := make([]Record, len(records))
	copy(owned, records)
	return &RecordSet{columns: columns, records: owned}, nil
}

// FromRows builds a RecordSet from a header and positional rows.
func FromRows(columns []string, rows [][]Value) (*RecordSet, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := NewRecord(columns, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	rs, err := New(records)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rs.columns = append([]string(nil), columns...)
	}
	return rs, nil
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.records)
}

// IsEmpty reports whether the set holds no records.
func (rs *RecordSet) IsEmpty() bool { return rs.Len() == 0 }

// Columns returns a copy of the column names.
func (rs *RecordSet) Columns() []string {
	if rs == nil {
		return nil
	}
	return append([]string(nil), rs.columns...)
}

// HasColumn reports whether col belongs to the column set.
func (rs *RecordSet) HasColumn(col string) bool {
	if rs == nil {
		return false
	}
	for _, c := range rs.columns {
		if c == col {
			return true
		}
	}
	return false
}

// At returns the i-th record.
func (rs *RecordSet) At(i int) Record { return rs.records[i] }

// All iterates over records in order.
func (rs *RecordSet) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		if rs == nil {
			return
		}
		for i, rec := range rs.records {
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Project returns a new set containing only the given columns, in the given order.
func (rs *RecordSet) Project(columns []string) (*RecordSet, error) {
	for _, col := range columns {
		if !rs.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	rows := make([][]Value, rs.Len())
	for i, rec := range rs.All() {
		row := make([]Value, len(columns))
		for j, col := range columns {
			row[j], _ = rec.Get(col)
		}
		rows[i] = row
	}
	return FromRows(columns, rows)
}
