package exporters

import (
	"testing"

	"github.com/fbz-tec/codexport/core/recordset"
)

// sampleChunk returns the single chunk of a set built from columns and rows.
func sampleChunk(t *testing.T, columns []string, rows ...[]recordset.Value) recordset.Chunk {
	t.Helper()
	rs, err := recordset.FromRows(columns, rows)
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	chunks, err := recordset.Split(rs, len(rows)+1)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	return chunks[0]
}

func str(s string) recordset.Value { return recordset.StringValue(s) }
func num(i int64) recordset.Value  { return recordset.IntValue(i) }
func null() recordset.Value        { return recordset.NullValue() }

func mustExporter(t *testing.T, format string) Exporter {
	t.Helper()
	e, err := Get(format)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", format, err)
	}
	return e
}
