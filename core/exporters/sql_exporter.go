package exporters

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/fbz-tec/codexport/core/formatters"
	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/core/validation"
	"github.com/fbz-tec/codexport/internal/logger"
)

type sqlExporter struct{}

func (e *sqlExporter) Extension() string { return "sql" }

// Export writes the chunk as multi-row INSERT statements.
func (e *sqlExporter) Export(chunk recordset.Chunk, options ExportOptions) (Payload, error) {
	if err := checkChunk(chunk); err != nil {
		return Payload{}, err
	}
	if strings.TrimSpace(options.TableName) == "" {
		return Payload{}, fmt.Errorf("%w: table name", ErrMissingRequiredOption)
	}

	start := time.Now()
	logger.Debug("Preparing SQL chunk %d (table=%s, rows=%d, rows-per-statement=%d, double-row=%v)",
		chunk.Index()+1, options.TableName, chunk.Len(), options.RowsPerStatement, options.DoubleRow)

	fields := chunk.Columns()
	columns := make([]string, len(fields))
	for i, name := range fields {
		columns[i] = formatters.QuoteIdent(name)
	}

	rows := dataRows(chunk, options.DoubleRow)
	tuples := make([]string, len(rows))
	values := make([]string, len(fields))
	for i, rec := range rows {
		for j, name := range fields {
			v, _ := rec.Get(name)
			values[j] = formatters.EscapeSQLLiteral(v)
		}
		tuples[i] = "(" + strings.Join(values, ", ") + ")"
	}

	batch := options.RowsPerStatement
	if batch <= 0 {
		batch = len(tuples)
	}

	var buf bytes.Buffer
	statementCount := 0
	for lo := 0; lo < len(tuples); lo += batch {
		e.writeBatchInsert(&buf, options.TableName, columns, tuples[lo:min(lo+batch, len(tuples))])
		statementCount++
	}

	logger.Debug("SQL chunk %d encoded: %d tuples in %d INSERT statements (%v)",
		chunk.Index()+1, len(tuples), statementCount, time.Since(start))

	return Payload{Data: buf.Bytes(), Extension: e.Extension()}, nil
}

// writeBatchInsert writes a single or multi-row INSERT statement
func (e *sqlExporter) writeBatchInsert(buf *bytes.Buffer, table string, columns []string, tuples []string) {
	fmt.Fprintf(buf, "INSERT INTO %s (%s) VALUES\n",
		formatters.QuoteTableName(table), strings.Join(columns, ", "))
	buf.WriteString(strings.Join(tuples, ",\n"))
	buf.WriteString(";\n")
}

// BuildDeleteStatement returns a DELETE statement matching every distinct
// non-null value of column in rs. Values keep their first-seen order.
func BuildDeleteStatement(rs *recordset.RecordSet, table, column string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("%w: table name", ErrMissingRequiredOption)
	}
	if err := validation.ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if !rs.HasColumn(column) {
		return "", fmt.Errorf("%w: %q", recordset.ErrUnknownColumn, column)
	}

	seen := make(map[string]struct{}, rs.Len())
	literals := make([]string, 0, rs.Len())
	for _, rec := range rs.All() {
		v, _ := rec.Get(column)
		if v.IsNull() {
			continue
		}
		lit := formatters.EscapeSQLLiteral(v)
		if _, dup := seen[lit]; dup {
			continue
		}
		seen[lit] = struct{}{}
		literals = append(literals, lit)
	}

	if len(literals) == 0 {
		return "", fmt.Errorf("%w: column %q has no values", ErrEmptyChunk, column)
	}

	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s);",
		formatters.QuoteTableName(table), formatters.QuoteIdent(column), strings.Join(literals, ", ")), nil
}

func init() {
	MustRegister(FormatSQL, func() Exporter { return &sqlExporter{} })
}
