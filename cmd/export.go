package cmd

import (
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/exporters"
	"github.com/fbz-tec/codexport/core/job"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/spf13/cobra"
)

var (
	sqlQuery        string
	sqlFile         string
	outputPath      string
	format          string
	tableName       string
	filePrefix      string
	archiveFormat   string
	columns         []string
	rowsPerFile     int
	rowPerStatement int
	noHeader        bool
	doubleRow       bool
	failOnEmpty     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one query as SQL, text or Excel files packed in an archive",
	Example: `  # 9000 rows per INSERT file, zipped
  codexport export -s "SELECT * FROM codes WHERE lot = 12" -f sql -t codes

  # Excel workbooks of 5000 rows with every row written twice
  codexport export -F lot12.sql -f xlsx --rows-per-file 5000 --double-row --prefix lot12

  # Text files without header into a tar.zst archive
  codexport export -s "SELECT serial, qrcode FROM codes" -f txt --no-header --archive tar.zst -o out/`,
	RunE: runExport,
}

func init() {
	flags := exportCmd.Flags()
	flags.SortFlags = false

	//QUERY INPUT - what to export
	flags.StringVarP(&sqlQuery, "sql", "s", "", "SQL query to execute")
	flags.StringVarP(&sqlFile, "sqlfile", "F", "", "Path to SQL file containing the query")

	addExportFlags(exportCmd)

	flags.StringVar(&filePrefix, "prefix", "export", "Prefix of the generated file names")
	flags.BoolVarP(&failOnEmpty, "fail-on-empty", "x", false, "Exit with error if query returns 0 rows")
}

// addExportFlags registers the output flags shared by export and batch.
func addExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// OUTPUT DESTINATION - where and how to export
	flags.StringVarP(&outputPath, "output", "o", "", "Archive path or directory (defaults to <prefix>_<kind>_files in the current directory)")
	flags.StringVarP(&format, "format", "f", exporters.FormatSQL, "Output format (sql, text/txt, spreadsheet/xlsx)")
	flags.StringVar(&archiveFormat, "archive", string(archive.Zip), "Archive container (zip, tar.gz, tar.zst, tar.lz4)")
	flags.IntVar(&rowsPerFile, "rows-per-file", 0, "Rows per output file (defaults to CODEX_ROWS_PER_FILE or 9000)")
	flags.BoolVarP(&noHeader, "no-header", "n", false, "Skip header row in text and Excel output")
	flags.BoolVar(&doubleRow, "double-row", false, "Write every data row twice")
	flags.StringSliceVar(&columns, "columns", nil, "Comma separated columns to export, in order (defaults to all)")

	// SQL options
	flags.StringVarP(&tableName, "table", "t", "", "Table name for SQL insert exports")
	flags.IntVar(&rowPerStatement, "insert-batch", 0, "Rows per INSERT statement in SQL export (0 = one statement per file)")
}

// exportOptions builds the options given on the command line.
func exportOptions(defaultRows int) exporters.ExportOptions {
	opts := exporters.ExportOptions{
		Format:           exporters.Normalize(format),
		RowsPerFile:      rowsPerFile,
		IncludeHeaders:   !noHeader,
		DoubleRow:        doubleRow,
		TableName:        strings.TrimSpace(tableName),
		FilePrefix:       strings.TrimSpace(filePrefix),
		Columns:          columns,
		RowsPerStatement: rowPerStatement,
	}
	if opts.RowsPerFile == 0 {
		opts.RowsPerFile = defaultRows
	}
	return opts
}

// kindLabel names an export format in archive names.
func kindLabel(format string) string {
	switch exporters.Normalize(format) {
	case exporters.FormatSpreadsheet:
		return "excel"
	case exporters.FormatText:
		return "txt"
	default:
		return exporters.Normalize(format)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	logger.Debug("Initializing export")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	query, err := readQuery(sqlQuery, sqlFile)
	if err != nil {
		return err
	}

	container, err := archive.ParseFormat(archiveFormat)
	if err != nil {
		return err
	}

	opts := exportOptions(cfg.RowsPerFile)
	if err := opts.Validate(); err != nil {
		return err
	}
	logger.Debug("Export options: format=%s rows-per-file=%d headers=%t double-row=%t",
		opts.Format, opts.RowsPerFile, opts.IncludeHeaders, opts.DoubleRow)

	store, err := connectStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	rs, err := runQuery(ctx, store, "query", query)
	if err != nil {
		return err
	}

	if rs.IsEmpty() {
		if failOnEmpty {
			return fmt.Errorf("export failed: query returned 0 rows")
		}
		logger.Warn("Query returned 0 rows. Nothing to export")
		return nil
	}

	j, bar := newJob(container, "Encoding")
	res, err := j.RunExport(ctx, []job.Source{{Name: opts.FilePrefix, Records: rs, Options: opts}})
	bar.Finish()
	recorder.ObserveJob("export", res, err)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	logger.Info("%d rows exported", rs.Len())
	name := archiveName(opts.FilePrefix, "export", kindLabel(opts.Format)+"_files")
	return saveArchive(res, outputPath, name, container)
}
