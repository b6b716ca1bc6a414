package job

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/exporters"
	"github.com/fbz-tec/codexport/core/formatters"
	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
)

// Source is one named record set with its own export options.
// Single query exports pass one source, batches pass several.
type Source struct {
	Name    string
	Records *recordset.RecordSet
	Options exporters.ExportOptions
}

// baseName picks the file name stem for a source: the file prefix, then the
// source name, then a positional default.
func (s Source) baseName(position int) string {
	fallback := fmt.Sprintf("export_%d", position)
	raw := strings.TrimSpace(s.Options.FilePrefix)
	if raw == "" {
		raw = strings.TrimSpace(s.Name)
	}
	return formatters.SanitizeFilename(raw, formatters.DefaultMaxFilenameLength, fallback)
}

// chunkName numbers a chunk when its source has more than one. Numbers are
// padded to three digits and simply grow past 999.
func chunkName(base string, index, count int, ext string) string {
	if count == 1 {
		return base + "." + ext
	}
	return fmt.Sprintf("%s-%03d.%s", base, index+1, ext)
}

// RunExport encodes every chunk of every source into one archive.
// Configuration problems abort before any chunk is encoded. Sources without
// records are skipped.
func (j *Job) RunExport(ctx context.Context, sources []Source) (*Result, error) {
	if err := j.begin(); err != nil {
		return nil, err
	}
	logger.Debug("[%s] export of %d source(s) into %s", j.short(), len(sources), j.opts.Archive)

	if len(sources) == 0 {
		return nil, j.fail(fmt.Errorf("%w: no sources given", exporters.ErrInvalidConfiguration))
	}

	units, err := planExport(sources)
	if err != nil {
		return nil, j.fail(err)
	}
	if len(units) == 0 {
		return nil, j.fail(ErrNothingToExport)
	}

	return j.encode(ctx, units)
}

func planExport(sources []Source) ([]unit, error) {
	var units []unit
	planned := make(map[string]string)

	for i, src := range sources {
		opts := src.Options
		opts.Format = exporters.Normalize(opts.Format)

		label := src.Name
		if label == "" {
			label = fmt.Sprintf("source %d", i+1)
		}

		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		exp, err := exporters.Get(opts.Format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}

		rs := src.Records
		if rs == nil || rs.IsEmpty() {
			logger.Warn("%s returned no rows, skipped", label)
			continue
		}
		if len(opts.Columns) > 0 {
			if rs, err = rs.Project(opts.Columns); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", exporters.ErrInvalidConfiguration, label, err)
			}
		}

		chunks, err := recordset.Split(rs, opts.RowsPerFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}

		base := src.baseName(i + 1)
		for _, chunk := range chunks {
			name := chunkName(base, chunk.Index(), len(chunks), exp.Extension())
			if prev, dup := planned[name]; dup {
				return nil, fmt.Errorf("%w: %s and %s both produce %s",
					exporters.ErrInvalidConfiguration, prev, label, name)
			}
			planned[name] = label

			units = append(units, unit{
				source: label,
				index:  chunk.Index() + 1,
				name:   name,
				run:    exportChunk(exp, chunk, opts, name),
			})
		}
		logger.Debug("%s: %d rows in %d chunk(s) of at most %d", label, rs.Len(), len(chunks), opts.RowsPerFile)
	}
	return units, nil
}

func exportChunk(exp exporters.Exporter, chunk recordset.Chunk, opts exporters.ExportOptions, name string) func() (archive.Entry, bool, error) {
	return func() (archive.Entry, bool, error) {
		payload, err := exp.Export(chunk, opts)
		if errors.Is(err, exporters.ErrEmptyChunk) || errors.Is(err, exporters.ErrMissingRequiredOption) {
			return archive.Entry{}, false, abortError{err}
		}
		if err != nil {
			return archive.Entry{}, false, err
		}
		return archive.Entry{Name: name, Data: payload.Data}, false, nil
	}
}
