package cmd

import (
	"context"
	"fmt"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/qr"
	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/fbz-tec/codexport/internal/source"
	"github.com/spf13/cobra"
)

var (
	qrSourceFile string
	qrSheet      string
	qrPrefix     string
	qrSpec       = qr.Spec{Format: qr.FormatPNG, BoxSize: qr.DefaultBoxSize, Border: qr.DefaultBorder}
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Generate one QR code image per row",
	Example: `  # PNG codes named after the serial column
  codexport qr -s "SELECT qrcode, serial FROM codes WHERE lot = 12" --data-column qrcode --name-column serial

  # SVG codes from a spreadsheet, numbered so repeated names stay distinct
  codexport qr --file codes.xlsx --data-column url --name-column label --qr-format svg --index-filenames`,
	RunE: runQR,
}

func init() {
	flags := qrCmd.Flags()
	flags.SortFlags = false

	flags.StringVarP(&sqlQuery, "sql", "s", "", "SQL query to execute")
	flags.StringVarP(&sqlFile, "sqlfile", "F", "", "Path to SQL file containing the query")
	flags.StringVar(&qrSourceFile, "file", "", "Read rows from an .xlsx or .csv file instead of the database")
	flags.StringVar(&qrSheet, "sheet", "", "Worksheet to read from an .xlsx file (defaults to the active sheet)")

	flags.StringVar(&qrSpec.DataColumn, "data-column", "", "Column holding the encoded content (required)")
	flags.StringVar(&qrSpec.NameColumn, "name-column", "", "Column holding the image file name (required)")
	flags.StringVar(&qrSpec.Format, "qr-format", qr.FormatPNG, "Image format (png, jpg, svg)")
	flags.IntVar(&qrSpec.BoxSize, "box-size", qr.DefaultBoxSize, "Pixels per QR module")
	flags.IntVar(&qrSpec.Border, "border", qr.DefaultBorder, "Quiet zone width in modules")
	flags.BoolVar(&qrSpec.SkipEmpty, "skip-empty", false, "Skip rows with an empty data or name cell")
	flags.BoolVar(&qrSpec.IndexFilenames, "index-filenames", false, "Prefix file names with the row number")

	flags.StringVarP(&outputPath, "output", "o", "", "Archive path or directory (defaults to <prefix>_qr_codes in the current directory)")
	flags.StringVar(&archiveFormat, "archive", string(archive.Zip), "Archive container (zip, tar.gz, tar.zst, tar.lz4)")
	flags.StringVar(&qrPrefix, "prefix", "export", "Prefix of the archive name")

	_ = qrCmd.MarkFlagRequired("data-column")
	_ = qrCmd.MarkFlagRequired("name-column")
	qrCmd.MarkFlagsMutuallyExclusive("file", "sql", "sqlfile")
}

func runQR(cmd *cobra.Command, args []string) error {
	container, err := archive.ParseFormat(archiveFormat)
	if err != nil {
		return err
	}
	spec := qrSpec
	spec.Format = qr.NormalizeFormat(spec.Format)

	ctx := cmd.Context()
	rs, err := loadQRRows(ctx)
	if err != nil {
		return err
	}
	logger.Debug("QR source: %d rows, columns %v", rs.Len(), rs.Columns())

	j, bar := newJob(container, "Rendering")
	res, err := j.RunQRBatch(ctx, rs, spec)
	bar.Finish()
	recorder.ObserveJob("qr", res, err)
	if err != nil {
		return fmt.Errorf("QR generation failed: %w", err)
	}

	logger.Info("QR codes: %d generated, %d skipped, %d failed", res.Counts.Success, res.Counts.Skipped, res.Counts.Error)
	return saveArchive(res, outputPath, archiveName(qrPrefix, "export", "qr_codes"), container)
}

// loadQRRows reads the rows from --file, or runs the query.
func loadQRRows(ctx context.Context) (*recordset.RecordSet, error) {
	if qrSourceFile != "" {
		logger.Debug("Reading rows from %s", qrSourceFile)
		return source.Open(qrSourceFile, qrSheet)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	query, err := readQuery(sqlQuery, sqlFile)
	if err != nil {
		return nil, err
	}
	store, err := connectStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return runQuery(ctx, store, "query", query)
}
