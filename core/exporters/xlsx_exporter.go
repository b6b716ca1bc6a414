package exporters

import (
	"fmt"
	"time"

	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single sheet written per chunk.
const SheetName = "Sheet1"

type xlsxExporter struct{}

func (e *xlsxExporter) Extension() string { return "xlsx" }

// Export writes the chunk to a one-sheet workbook. Every cell is written as text.
func (e *xlsxExporter) Export(chunk recordset.Chunk, options ExportOptions) (Payload, error) {
	if err := checkChunk(chunk); err != nil {
		return Payload{}, err
	}

	start := time.Now()
	logger.Debug("Preparing XLSX chunk %d (rows=%d, headers=%v, double-row=%v)",
		chunk.Index()+1, chunk.Len(), options.IncludeHeaders, options.DoubleRow)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file: %v", err)
		}
	}()

	columns := chunk.Columns()

	var headerStyleID int
	if options.IncludeHeaders {
		styleID, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			logger.Warn("Failed to create header style: %v", err)
		} else {
			headerStyleID = styleID
		}
	}

	sw, currentRow, err := initSheet(f, columns, options.IncludeHeaders, headerStyleID)
	if err != nil {
		return Payload{}, err
	}

	cells := make([]interface{}, len(columns))
	for _, rec := range dataRows(chunk, options.DoubleRow) {
		for i, name := range columns {
			v, _ := rec.Get(name)
			cells[i] = v.String()
		}

		cell, _ := excelize.CoordinatesToCellName(1, currentRow)
		if err := sw.SetRow(cell, cells); err != nil {
			return Payload{}, fmt.Errorf("error writing row %d: %w", currentRow, err)
		}
		currentRow++
	}

	if err := sw.Flush(); err != nil {
		return Payload{}, fmt.Errorf("error flushing stream: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Payload{}, fmt.Errorf("error writing Excel file: %w", err)
	}

	logger.Debug("XLSX chunk %d encoded: %d sheet rows in %v", chunk.Index()+1, currentRow-1, time.Since(start))

	return Payload{Data: buf.Bytes(), Extension: e.Extension()}, nil
}

// initSheet opens a stream writer on the default sheet and writes the optional header row.
// Returns the stream writer and the first data row number.
func initSheet(f *excelize.File, columns []string, withHeader bool, headerStyleID int) (*excelize.StreamWriter, int, error) {
	currentRow := 1

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, currentRow, fmt.Errorf("error creating stream writer: %w", err)
	}

	if withHeader {
		headerCells := make([]interface{}, len(columns))
		for i, col := range columns {
			headerCells[i] = excelize.Cell{
				Value:   col,
				StyleID: headerStyleID,
			}
		}

		cell, _ := excelize.CoordinatesToCellName(1, currentRow)
		if err := sw.SetRow(cell, headerCells); err != nil {
			return nil, currentRow, fmt.Errorf("error writing headers: %w", err)
		}

		logger.Debug("XLSX headers written: %d columns", len(columns))
		currentRow++
	}

	return sw, currentRow, nil
}

func init() {
	MustRegister(FormatSpreadsheet, func() Exporter {
		return &xlsxExporter{}
	})
}
