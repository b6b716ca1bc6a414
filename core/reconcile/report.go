package reconcile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/encoders"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReportKind selects which entries and columns a report holds.
type ReportKind string

const (
	// ReportFull lists every entry.
	ReportFull ReportKind = "full"
	// ReportFound lists found entries only.
	ReportFound ReportKind = "found"
	// ReportQRSerial lists found entries as a URL-prefixed qrcode plus serial.
	ReportQRSerial ReportKind = "qr-serial"
)

type ReportFormat string

const (
	ReportXLSX ReportFormat = "xlsx"
	ReportCSV  ReportFormat = "csv"
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

const reportSheet = "Results"

var (
	entryColumns    = []string{"index", "raw", "class", "qrcode", "serial", "status"}
	qrSerialColumns = []string{"qrcode", "serial"}
)

// ReportOptions configures Report. URLPrefix is only used by ReportQRSerial.
type ReportOptions struct {
	Kind      ReportKind
	Format    ReportFormat
	URLPrefix string
}

// ParseReportKind accepts "full", "found" or "qr-serial".
func ParseReportKind(s string) (ReportKind, error) {
	switch k := ReportKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return ReportFull, nil
	case ReportFull, ReportFound, ReportQRSerial:
		return k, nil
	default:
		return "", fmt.Errorf("unknown report kind %q (expected full, found or qr-serial)", s)
	}
}

// ParseReportFormat accepts xlsx, csv, json or yaml.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "excel":
		return ReportXLSX, nil
	case "yml":
		return ReportYAML, nil
	case ReportXLSX, ReportCSV, ReportJSON, ReportYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected xlsx, csv, json or yaml)", s)
	}
}

// Rows projects the result onto the report's columns. index is 1-based.
func (r *Result) Rows(kind ReportKind, urlPrefix string) ([]string, []*encoders.Row) {
	var rows []*encoders.Row
	if kind == ReportQRSerial {
		for _, e := range r.Entries {
			if e.Status != StatusFound {
				continue
			}
			rows = append(rows, encoders.NewRow(qrSerialColumns, []any{urlPrefix + e.QRCode, e.Serial}))
		}
		return qrSerialColumns, rows
	}

	for _, e := range r.Entries {
		if kind == ReportFound && e.Status != StatusFound {
			continue
		}
		var raw any
		if e.RawValue != nil {
			raw = *e.RawValue
		}
		rows = append(rows, encoders.NewRow(entryColumns, []any{
			e.OriginalIndex + 1, raw, e.Class.String(), e.QRCode, e.Serial, string(e.Status),
		}))
	}
	return entryColumns, rows
}

// Report renders the result as a standalone file.
func (r *Result) Report(opts ReportOptions) ([]byte, error) {
	columns, rows := r.Rows(opts.Kind, opts.URLPrefix)
	logger.Debug("Writing %s %s report: %d row(s)", opts.Kind, opts.Format, len(rows))

	switch opts.Format {
	case ReportXLSX:
		return writeXLSX(columns, rows)
	case ReportCSV:
		return writeCSV(columns, rows)
	case ReportJSON:
		return encoders.OrderedJSONEncoder{}.EncodeAll(rows)
	case ReportYAML:
		return encoders.OrderedYAMLEncoder{}.EncodeAll(rows)
	default:
		return nil, fmt.Errorf("unsupported report format %q", opts.Format)
	}
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// writeCSV emits UTF-8 with a byte order mark so spreadsheet tools detect the encoding.
func writeCSV(columns []string, rows []*encoders.Row) ([]byte, error) {
	var buf bytes.Buffer
	tw := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(tw)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("error writing CSV header: %w", err)
	}
	record := make([]string, len(columns))
	for i, row := range rows {
		for j, col := range columns {
			v, _ := row.Get(col)
			record[j] = cellText(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("error writing CSV row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("error encoding CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(columns []string, rows []*encoders.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file: %v", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("error naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		logger.Warn("Failed to create header style: %v", err)
		headerStyle = 0
	}

	sw, err := f.NewStreamWriter(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating stream writer: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = excelize.Cell{Value: col, StyleID: headerStyle}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("error writing headers: %w", err)
	}

	cells := make([]any, len(columns))
	for i, row := range rows {
		for j, col := range columns {
			v, _ := row.Get(col)
			cells[j] = cellText(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("error flushing stream: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
