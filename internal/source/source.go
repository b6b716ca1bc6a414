// Package source turns uploaded spreadsheets and CSV files into record sets.
// Every cell is read as text; blank cells become null.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrNoHeader = errors.New("source file has no header row")

// Open reads path according to its extension. sheet selects a worksheet
// in xlsx files; empty means the first one.
func Open(path, sheet string) (*recordset.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open source file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, sheet)
	case ".csv", ".txt":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported source file type %q (expected .xlsx or .csv)", ext)
	}
}

// ReadXLSX reads one worksheet. The first row is the header.
func ReadXLSX(r io.Reader, sheet string) (*recordset.RecordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file: %v", err)
		}
	}()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}
	logger.Debug("Read %d row(s) from sheet %q", len(rows), sheet)
	return build(rows)
}

// ReadCSV reads comma separated text with a header line. A UTF-8 byte order
// mark is dropped.
func ReadCSV(r io.Reader) (*recordset.RecordSet, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	logger.Debug("Read %d CSV line(s)", len(rows))
	return build(rows)
}

// build turns a header plus ragged rows into a RecordSet. Missing cells are
// null and rows that are entirely blank are dropped.
func build(rows [][]string) (*recordset.RecordSet, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	columns := header(rows[0])
	data := make([][]recordset.Value, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(columns) && !allBlank(row[len(columns):]) {
			return nil, fmt.Errorf("row %d has %d cells but the header has %d", i+2, len(row), len(columns))
		}
		if allBlank(row) {
			continue
		}
		values := make([]recordset.Value, len(columns))
		for j := range columns {
			if j < len(row) && strings.TrimSpace(row[j]) != "" {
				values[j] = recordset.StringValue(row[j])
			}
		}
		data = append(data, values)
	}
	return recordset.FromRows(columns, data)
}

// header trims names and fills blank ones with column_<n>.
func header(row []string) []string {
	columns := make([]string, len(row))
	for i, name := range row {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = name
	}
	return columns
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Strings returns one column as optional strings, nil for null cells.
func Strings(rs *recordset.RecordSet, column string) ([]*string, error) {
	if !rs.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q (available: %s)", recordset.ErrUnknownColumn, column, strings.Join(rs.Columns(), ", "))
	}
	out := make([]*string, rs.Len())
	for i, rec := range rs.All() {
		v, _ := rec.Get(column)
		if v.IsNull() {
			continue
		}
		s := v.String()
		out[i] = &s
	}
	return out, nil
}
