package exporters

import (
	"errors"
	"strings"
	"testing"

	"github.com/fbz-tec/codexport/core/recordset"
)

func TestExportSQL(t *testing.T) {
	tests := []struct {
		name      string
		columns   []string
		rows      [][]recordset.Value
		options   ExportOptions
		wantErr   error
		checkFunc func(t *testing.T, content string)
	}{
		{
			name:    "basic SQL export",
			columns: []string{"id", "name"},
			rows:    [][]recordset.Value{{num(1), str("test")}},
			options: ExportOptions{TableName: "users"},
			checkFunc: func(t *testing.T, content string) {
				want := "INSERT INTO `users` (`id`, `name`) VALUES\n(1, 'test');\n"
				if content != want {
					t.Errorf("content = %q, want %q", content, want)
				}
			},
		},
		{
			name:    "SQL with NULL values",
			columns: []string{"id", "description"},
			rows:    [][]recordset.Value{{num(1), null()}},
			options: ExportOptions{TableName: "items"},
			checkFunc: func(t *testing.T, content string) {
				if !strings.Contains(content, "(1, NULL)") {
					t.Errorf("expected unquoted NULL, got %q", content)
				}
				if strings.Contains(content, "'NULL'") {
					t.Error("NULL should not be quoted")
				}
			},
		},
		{
			name:    "SQL with special characters",
			columns: []string{"name", "path"},
			rows:    [][]recordset.Value{{str("O'Brien"), str(`C:\tmp "x"`)}},
			options: ExportOptions{TableName: "contacts"},
			checkFunc: func(t *testing.T, content string) {
				if !strings.Contains(content, `('O''Brien', 'C:\\tmp \"x\"')`) {
					t.Errorf("unexpected escaping: %q", content)
				}
			},
		},
		{
			name:    "multiple rows in one statement",
			columns: []string{"id"},
			rows:    [][]recordset.Value{{num(1)}, {num(2)}, {num(3)}},
			options: ExportOptions{TableName: "multi_row"},
			checkFunc: func(t *testing.T, content string) {
				if n := strings.Count(content, "INSERT INTO"); n != 1 {
					t.Errorf("expected 1 INSERT statement, got %d", n)
				}
				if !strings.HasSuffix(content, "(3);\n") {
					t.Errorf("statement should end with a semicolon: %q", content)
				}
			},
		},
		{
			name:    "double row duplicates tuples",
			columns: []string{"id", "name"},
			rows:    [][]recordset.Value{{num(1), str("a")}, {num(2), str("b")}},
			options: ExportOptions{TableName: "t", DoubleRow: true},
			checkFunc: func(t *testing.T, content string) {
				if n := strings.Count(content, "INSERT INTO"); n != 1 {
					t.Errorf("expected 1 INSERT statement, got %d", n)
				}
				want := "(1, 'a'),\n(1, 'a'),\n(2, 'b'),\n(2, 'b');"
				if !strings.Contains(content, want) {
					t.Errorf("expected 4 tuples in order, got %q", content)
				}
			},
		},
		{
			name:    "rows per statement splits the VALUES list",
			columns: []string{"id"},
			rows:    [][]recordset.Value{{num(1)}, {num(2)}, {num(3)}, {num(4)}, {num(5)}},
			options: ExportOptions{TableName: "t", RowsPerStatement: 2},
			checkFunc: func(t *testing.T, content string) {
				if n := strings.Count(content, "INSERT INTO"); n != 3 {
					t.Errorf("expected 3 INSERT statements, got %d", n)
				}
				if n := strings.Count(content, ";\n"); n != 3 {
					t.Errorf("expected 3 terminated statements, got %d", n)
				}
			},
		},
		{
			name:    "schema-qualified table name",
			columns: []string{"id"},
			rows:    [][]recordset.Value{{num(1)}},
			options: ExportOptions{TableName: "shop.users"},
			checkFunc: func(t *testing.T, content string) {
				if !strings.HasPrefix(content, "INSERT INTO `shop`.`users`") {
					t.Errorf("unexpected table quoting: %q", content)
				}
			},
		},
		{
			name:    "dotted column name stays one identifier",
			columns: []string{"price.usd"},
			rows:    [][]recordset.Value{{num(1)}},
			options: ExportOptions{TableName: "t"},
			checkFunc: func(t *testing.T, content string) {
				want := "INSERT INTO `t` (`price.usd`) VALUES\n(1);\n"
				if content != want {
					t.Errorf("content = %q, want %q", content, want)
				}
			},
		},
		{
			name:    "missing table name",
			columns: []string{"id"},
			rows:    [][]recordset.Value{{num(1)}},
			options: ExportOptions{TableName: "  "},
			wantErr: ErrMissingRequiredOption,
		},
	}

	exporter := mustExporter(t, FormatSQL)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := sampleChunk(t, tt.columns, tt.rows...)
			payload, err := exporter.Export(chunk, tt.options)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Export() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if payload.Extension != "sql" {
				t.Errorf("Extension = %q, want sql", payload.Extension)
			}
			tt.checkFunc(t, string(payload.Data))
		})
	}
}

func TestExportSQLEmptyChunk(t *testing.T) {
	exporter := mustExporter(t, FormatSQL)
	_, err := exporter.Export(recordset.Chunk{}, ExportOptions{TableName: "t"})
	if !errors.Is(err, ErrEmptyChunk) {
		t.Errorf("Export() error = %v, want ErrEmptyChunk", err)
	}
}

func TestBuildDeleteStatement(t *testing.T) {
	rs, err := recordset.FromRows([]string{"code", "n", "lot.no"}, [][]recordset.Value{
		{str("A1"), num(1), num(7)},
		{str("B'2"), num(2), num(7)},
		{str("A1"), num(3), num(7)},
		{null(), num(4), num(7)},
	})
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}

	tests := []struct {
		name    string
		table   string
		column  string
		want    string
		wantErr bool
	}{
		{
			name:   "string column with duplicates and null",
			table:  "codes",
			column: "code",
			want:   "DELETE FROM `codes` WHERE `code` IN ('A1', 'B''2');",
		},
		{
			name:   "numeric column",
			table:  "codes",
			column: "n",
			want:   "DELETE FROM `codes` WHERE `n` IN (1, 2, 3, 4);",
		},
		{
			name:   "dotted column with qualified table",
			table:  "shop.codes",
			column: "lot.no",
			want:   "DELETE FROM `shop`.`codes` WHERE `lot.no` IN (7);",
		},
		{name: "unknown column", table: "codes", column: "missing", wantErr: true},
		{name: "missing table", table: "", column: "code", wantErr: true},
		{name: "table name too long", table: strings.Repeat("x", 65), column: "code", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildDeleteStatement(rs, tt.table, tt.column)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildDeleteStatement() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExportOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		options ExportOptions
		wantErr error
	}{
		{name: "valid sql", options: ExportOptions{Format: FormatSQL, RowsPerFile: 10, TableName: "t"}},
		{name: "valid text", options: ExportOptions{Format: FormatText, RowsPerFile: 1}},
		{name: "sql without table", options: ExportOptions{Format: FormatSQL, RowsPerFile: 10}, wantErr: ErrMissingRequiredOption},
		{name: "zero rows per file", options: ExportOptions{Format: FormatText}, wantErr: ErrInvalidConfiguration},
		{name: "unknown format", options: ExportOptions{Format: "pdf", RowsPerFile: 1}, wantErr: ErrInvalidConfiguration},
		{name: "table name with empty part", options: ExportOptions{Format: FormatSQL, RowsPerFile: 1, TableName: "shop."}, wantErr: ErrInvalidConfiguration},
		{name: "dotted projected column", options: ExportOptions{Format: FormatText, RowsPerFile: 1, Columns: []string{"price.usd"}}},
		{name: "blank projected column", options: ExportOptions{Format: FormatText, RowsPerFile: 1, Columns: []string{"id", " "}}, wantErr: ErrInvalidConfiguration},
		{name: "negative rows per statement", options: ExportOptions{Format: FormatSQL, RowsPerFile: 1, TableName: "t", RowsPerStatement: -1}, wantErr: ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.options.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"SQL":    FormatSQL,
		" txt ":  FormatText,
		"xlsx":   FormatSpreadsheet,
		"Excel":  FormatSpreadsheet,
		"binary": "binary",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
