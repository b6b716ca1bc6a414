package exporters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/core/validation"
)

const (
	FormatSQL         = "sql"
	FormatText        = "text"
	FormatSpreadsheet = "spreadsheet"
)

var (
	ErrEmptyChunk            = errors.New("chunk has no records")
	ErrMissingRequiredOption = errors.New("missing required option")
	// ErrInvalidConfiguration is shared with the chunker so a single errors.Is check covers both.
	ErrInvalidConfiguration = recordset.ErrInvalidConfiguration
)

// ExportOptions holds export configuration
type ExportOptions struct {
	Format         string
	RowsPerFile    int
	IncludeHeaders bool
	DoubleRow      bool
	TableName      string
	FilePrefix     string
	// Columns restricts and orders the exported columns. Empty means all columns.
	Columns []string
	// RowsPerStatement caps the tuples of one INSERT statement. 0 puts a whole chunk in one statement.
	RowsPerStatement int
}

// Validate checks the options once, before any chunk is produced.
func (o ExportOptions) Validate() error {
	if _, err := Get(o.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	if o.RowsPerFile <= 0 {
		return fmt.Errorf("%w: rows per file must be at least 1", ErrInvalidConfiguration)
	}

	if o.RowsPerStatement < 0 {
		return fmt.Errorf("%w: rows per statement cannot be negative", ErrInvalidConfiguration)
	}

	if o.Format == FormatSQL {
		if strings.TrimSpace(o.TableName) == "" {
			return fmt.Errorf("%w: table name is required for SQL export", ErrMissingRequiredOption)
		}
		if err := validation.ValidateIdentifier(o.TableName); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}

	for _, col := range o.Columns {
		if err := validation.ValidateColumnName(col); err != nil {
			return fmt.Errorf("%w: column: %v", ErrInvalidConfiguration, err)
		}
	}

	return nil
}

// Payload is the encoded content of one chunk.
type Payload struct {
	Data      []byte
	Extension string
}

// Exporter encodes a single chunk into one output file.
type Exporter interface {
	Export(chunk recordset.Chunk, options ExportOptions) (Payload, error)
	Extension() string
}

// dataRows repeats each record when DoubleRow is set.
func dataRows(chunk recordset.Chunk, double bool) []recordset.Record {
	repeat := 1
	if double {
		repeat = 2
	}
	rows := make([]recordset.Record, 0, chunk.Len()*repeat)
	for rec := range chunk.Records() {
		for range repeat {
			rows = append(rows, rec)
		}
	}
	return rows
}

func checkChunk(chunk recordset.Chunk) error {
	if chunk.Len() == 0 {
		return ErrEmptyChunk
	}
	return nil
}
