package exporters

import (
	"bytes"
	"strings"
	"time"

	"github.com/fbz-tec/codexport/core/formatters"
	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
)

type textExporter struct{}

func (e *textExporter) Extension() string { return "txt" }

// Export writes one comma separated line per record.
// Fields follow EscapeTextField, not encoding/csv quoting.
func (e *textExporter) Export(chunk recordset.Chunk, options ExportOptions) (Payload, error) {
	if err := checkChunk(chunk); err != nil {
		return Payload{}, err
	}

	start := time.Now()
	logger.Debug("Preparing text chunk %d (rows=%d, headers=%v, double-row=%v)",
		chunk.Index()+1, chunk.Len(), options.IncludeHeaders, options.DoubleRow)

	columns := chunk.Columns()

	var buf bytes.Buffer
	if options.IncludeHeaders {
		buf.WriteString(strings.Join(columns, ","))
		buf.WriteByte('\n')
	}

	fields := make([]string, len(columns))
	lineCount := 0
	for rec := range chunk.Records() {
		for i, name := range columns {
			v, _ := rec.Get(name)
			fields[i] = formatters.EscapeTextField(v)
		}
		line := strings.Join(fields, ",")

		buf.WriteString(line)
		buf.WriteByte('\n')
		lineCount++
		if options.DoubleRow {
			buf.WriteString(line)
			buf.WriteByte('\n')
			lineCount++
		}
	}

	logger.Debug("Text chunk %d encoded: %d data lines (%v)", chunk.Index()+1, lineCount, time.Since(start))

	return Payload{Data: buf.Bytes(), Extension: e.Extension()}, nil
}

func init() {
	MustRegister(FormatText, func() Exporter { return &textExporter{} })
}
