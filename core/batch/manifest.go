// Package batch reads the list of queries exported together by one batch job.
package batch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fbz-tec/codexport/core/exporters"
	"github.com/fbz-tec/codexport/core/validation"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoQueries     = errors.New("no queries found")
	ErrDuplicateName = errors.New("duplicate query name")
)

// Query is one statement of a batch with its per-query overrides.
// Zero values fall back to the manifest, then to the command line.
type Query struct {
	Name           string   `yaml:"name"`
	SQL            string   `yaml:"sql"`
	RowsPerFile    int      `yaml:"rows_per_file"`
	IncludeHeaders *bool    `yaml:"include_headers"`
	DoubleRow      *bool    `yaml:"double_row"`
	Columns        []string `yaml:"columns"`
}

// Manifest describes a batch export.
//
//	prefix: monthly
//	format: xlsx
//	rows_per_file: 5000
//	queries:
//	  - name: active
//	    sql: SELECT * FROM "codes" WHERE active = 1
//	    double_row: true
type Manifest struct {
	Prefix      string  `yaml:"prefix"`
	Format      string  `yaml:"format"`
	Table       string  `yaml:"table"`
	Archive     string  `yaml:"archive"`
	RowsPerFile int     `yaml:"rows_per_file"`
	Queries     []Query `yaml:"queries"`
}

// ParseQueryList reads one query per line. Blank lines and lines starting
// with # are ignored; queries are named query_<line>.
func ParseQueryList(r io.Reader) ([]Query, error) {
	var queries []Query
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		queries = append(queries, Query{Name: fmt.Sprintf("query_%d", line), SQL: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading query list: %w", err)
	}
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	return queries, nil
}

// ParseManifest decodes a YAML manifest. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoQueries
		}
		return nil, fmt.Errorf("invalid batch manifest: %w", err)
	}

	for i := range m.Queries {
		m.Queries[i].SQL = strings.TrimSpace(m.Queries[i].SQL)
		if strings.TrimSpace(m.Queries[i].Name) == "" {
			m.Queries[i].Name = fmt.Sprintf("query_%d", i+1)
		}
	}
	return &m, nil
}

// Load reads a batch file: .yaml and .yml files are manifests, anything
// else is a plain query list.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read batch file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseManifest(data)
	default:
		queries, err := ParseQueryList(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &Manifest{Queries: queries}, nil
	}
}

// Validate checks that every query is named, unique and read-only.
func (m *Manifest) Validate() error {
	if len(m.Queries) == 0 {
		return ErrNoQueries
	}

	seen := make(map[string]struct{}, len(m.Queries))
	for i, q := range m.Queries {
		name := strings.TrimSpace(q.Name)
		if name == "" {
			return fmt.Errorf("query %d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}

		if err := validation.ValidateQuery(q.SQL); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if q.RowsPerFile < 0 {
			return fmt.Errorf("%s: rows_per_file cannot be negative", name)
		}
	}
	return nil
}

// Options resolves the export options of q on top of base. The manifest
// wins over base; the query wins over both.
func (m *Manifest) Options(q Query, base exporters.ExportOptions) exporters.ExportOptions {
	opts := base
	opts.FilePrefix = ""

	if m.Format != "" {
		opts.Format = exporters.Normalize(m.Format)
	}
	if m.Table != "" {
		opts.TableName = m.Table
	}
	if m.RowsPerFile > 0 {
		opts.RowsPerFile = m.RowsPerFile
	}

	if q.RowsPerFile > 0 {
		opts.RowsPerFile = q.RowsPerFile
	}
	if q.IncludeHeaders != nil {
		opts.IncludeHeaders = *q.IncludeHeaders
	}
	if q.DoubleRow != nil {
		opts.DoubleRow = *q.DoubleRow
	}
	if len(q.Columns) > 0 {
		opts.Columns = q.Columns
	}
	return opts
}
