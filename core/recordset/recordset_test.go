package recordset

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func buildSet(t *testing.T, n int) *RecordSet {
	t.Helper()
	rows := make([][]Value, n)
	for i := range rows {
		rows[i] = []Value{IntValue(int64(i)), StringValue(fmt.Sprintf("name-%d", i))}
	}
	rs, err := FromRows([]string{"id", "name"}, rows)
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	return rs
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		rows        int
		rowsPerFile int
		wantChunks  int
		wantErr     bool
	}{
		{name: "exact multiple", rows: 10, rowsPerFile: 5, wantChunks: 2},
		{name: "short last chunk", rows: 11, rowsPerFile: 5, wantChunks: 3},
		{name: "single chunk", rows: 3, rowsPerFile: 100, wantChunks: 1},
		{name: "one row per file", rows: 4, rowsPerFile: 1, wantChunks: 4},
		{name: "empty set", rows: 0, rowsPerFile: 5, wantChunks: 0},
		{name: "zero rows per file", rows: 3, rowsPerFile: 0, wantErr: true},
		{name: "negative rows per file", rows: 3, rowsPerFile: -2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := buildSet(t, tt.rows)
			chunks, err := Split(rs, tt.rowsPerFile)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Fatalf("Split() error = %v, want ErrInvalidConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(chunks) != tt.wantChunks {
				t.Fatalf("Split() returned %d chunks, want %d", len(chunks), tt.wantChunks)
			}

			// Chunks concatenate back to the source, in order.
			next := 0
			for i, c := range chunks {
				if c.Index() != i {
					t.Errorf("chunk %d has index %d", i, c.Index())
				}
				if c.Len() == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				if c.Len() > tt.rowsPerFile {
					t.Errorf("chunk %d has %d rows, limit %d", i, c.Len(), tt.rowsPerFile)
				}
				if i < len(chunks)-1 && c.Len() != tt.rowsPerFile {
					t.Errorf("non-final chunk %d is short: %d", i, c.Len())
				}
				for rec := range c.Records() {
					id, _ := rec.Get("id")
					if got, _ := id.Int(); got != int64(next) {
						t.Fatalf("record out of order: got id %d, want %d", got, next)
					}
					next++
				}
			}
			if next != tt.rows {
				t.Errorf("chunks cover %d records, want %d", next, tt.rows)
			}
		})
	}
}

func TestNewRejectsInconsistentColumns(t *testing.T) {
	a, _ := NewRecord([]string{"id", "name"}, []Value{IntValue(1), StringValue("a")})
	b, _ := NewRecord([]string{"id", "label"}, []Value{IntValue(2), StringValue("b")})
	c, _ := NewRecord([]string{"id"}, []Value{IntValue(3)})

	if _, err := New([]Record{a, b}); !errors.Is(err, ErrInconsistentColumns) {
		t.Errorf("New() with renamed column error = %v, want ErrInconsistentColumns", err)
	}
	if _, err := New([]Record{a, c}); !errors.Is(err, ErrInconsistentColumns) {
		t.Errorf("New() with missing column error = %v, want ErrInconsistentColumns", err)
	}
}

func TestColumnOrderFollowsFirstRecord(t *testing.T) {
	a, _ := NewRecord([]string{"b", "a", "c"}, []Value{IntValue(1), IntValue(2), IntValue(3)})
	b, _ := NewRecord([]string{"c", "b", "a"}, []Value{IntValue(4), IntValue(5), IntValue(6)})

	rs, err := New([]Record{a, b})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := rs.Columns(); !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Errorf("Columns() = %v", got)
	}
}

func TestNewRecordRejectsDuplicates(t *testing.T) {
	if _, err := NewRecord([]string{"id", "id"}, []Value{IntValue(1), IntValue(2)}); err == nil {
		t.Error("NewRecord() with duplicate column should fail")
	}
	if _, err := NewRecord([]string{"id"}, nil); err == nil {
		t.Error("NewRecord() with missing values should fail")
	}
}

func TestProject(t *testing.T) {
	rs := buildSet(t, 3)

	projected, err := rs.Project([]string{"name"})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if got := projected.Columns(); !slices.Equal(got, []string{"name"}) {
		t.Errorf("Columns() = %v", got)
	}
	if projected.Len() != 3 {
		t.Errorf("Len() = %d, want 3", projected.Len())
	}
	if v, _ := projected.At(2).Get("name"); v.String() != "name-2" {
		t.Errorf("At(2) name = %q", v.String())
	}

	if _, err := rs.Project([]string{"missing"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Project() error = %v, want ErrUnknownColumn", err)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", NullValue(), ""},
		{"int", IntValue(-42), "-42"},
		{"float", FloatValue(1.5), "1.5"},
		{"string", StringValue("abc"), "abc"},
		{"from bool", FromAny(true), "true"},
		{"from bytes", FromAny([]byte("raw")), "raw"},
		{"from int32", FromAny(int32(7)), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}

	if FromAny(nil).Kind() != KindNull {
		t.Error("FromAny(nil) should be null")
	}
	if FromAny(3.0).Kind() != KindFloat {
		t.Error("FromAny(float64) should keep float kind")
	}
	if !StringValue("  ").IsBlank() || IntValue(0).IsBlank() {
		t.Error("IsBlank() mismatch")
	}
}
