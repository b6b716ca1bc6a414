package source

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet() error = %v", err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		checkFunc func(t *testing.T, rs *recordset.RecordSet)
	}{
		{
			name:  "bom header and blanks",
			input: "\ufeffserial, code \n123,AB\n,\n 456 ,\n",
			checkFunc: func(t *testing.T, rs *recordset.RecordSet) {
				if !slices.Equal(rs.Columns(), []string{"serial", "code"}) {
					t.Errorf("Columns = %v", rs.Columns())
				}
				if rs.Len() != 2 {
					t.Fatalf("Len = %d, want 2 (blank row dropped)", rs.Len())
				}
				if v, _ := rs.At(1).Get("code"); !v.IsNull() {
					t.Error("blank cell should be null")
				}
				if v, _ := rs.At(1).Get("serial"); v.String() != " 456 " || v.Kind() != recordset.KindString {
					t.Errorf("cell kept as text, got %q", v.String())
				}
			},
		},
		{
			name:  "short rows padded",
			input: "a,b,c\n1\n",
			checkFunc: func(t *testing.T, rs *recordset.RecordSet) {
				if v, _ := rs.At(0).Get("c"); !v.IsNull() {
					t.Error("missing cell should be null")
				}
			},
		},
		{
			name:  "blank header names",
			input: "a,,c\n1,2,3\n",
			checkFunc: func(t *testing.T, rs *recordset.RecordSet) {
				if !slices.Equal(rs.Columns(), []string{"a", "column_2", "c"}) {
					t.Errorf("Columns = %v", rs.Columns())
				}
			},
		},
		{
			name:    "row wider than header",
			input:   "a\n1,2\n",
			wantErr: true,
		},
		{
			name:    "duplicate header",
			input:   "a,a\n1,2\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Error("ReadCSV() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}
			tt.checkFunc(t, rs)
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("ReadCSV(\"\") error = %v, want ErrNoHeader", err)
	}
}

func TestReadXLSX(t *testing.T) {
	data := workbook(t, "Sheet1", [][]any{
		{"serial", "name"},
		{123, "first"},
		{"AB-1", nil},
	})

	rs, err := ReadXLSX(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if rs.Len() != 2 {
		t.Fatalf("Len = %d", rs.Len())
	}
	if v, _ := rs.At(0).Get("serial"); v.String() != "123" || v.Kind() != recordset.KindString {
		t.Errorf("numeric cell should be read as text, got %s %q", v.Kind(), v.String())
	}
	if v, _ := rs.At(1).Get("name"); !v.IsNull() {
		t.Error("empty cell should be null")
	}
}

func TestReadXLSXNamedSheet(t *testing.T) {
	data := workbook(t, "Codes", [][]any{{"code"}, {"X"}})

	rs, err := ReadXLSX(bytes.NewReader(data), "Codes")
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if rs.Len() != 1 {
		t.Errorf("Len = %d", rs.Len())
	}
	if _, err := ReadXLSX(bytes.NewReader(data), "Missing"); err == nil {
		t.Error("missing sheet should fail")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ids.csv")
	if err := os.WriteFile(csvPath, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if rs, err := Open(csvPath, ""); err != nil || rs.Len() != 1 {
		t.Errorf("Open(csv) = %v, %v", rs, err)
	}

	pdf := filepath.Join(dir, "ids.pdf")
	os.WriteFile(pdf, []byte("%PDF"), 0o644)
	if _, err := Open(pdf, ""); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestStrings(t *testing.T) {
	rs, err := ReadCSV(strings.NewReader("id,other\nA,1\n,2\n42,3\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	values, err := Strings(rs, "id")
	if err != nil {
		t.Fatalf("Strings() error = %v", err)
	}
	if len(values) != 3 || *values[0] != "A" || values[1] != nil || *values[2] != "42" {
		t.Errorf("values = %v", values)
	}
	if _, err := Strings(rs, "missing"); !errors.Is(err, recordset.ErrUnknownColumn) {
		t.Errorf("Strings(missing) error = %v", err)
	}
}
