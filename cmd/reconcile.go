package cmd

import (
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/db"
	"github.com/fbz-tec/codexport/core/output"
	"github.com/fbz-tec/codexport/core/reconcile"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/fbz-tec/codexport/internal/source"
	"github.com/spf13/cobra"
)

var (
	reconcileFile   string
	reconcileSheet  string
	reconcileColumn string
	catalogTable    string
	reportKind      string
	reportFormat    string
	reportURLPrefix string
	reportPrefix    string
	failOnNotFound  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Look up serial numbers and QR codes from a file in the catalog",
	Long: `Read a column of identifiers from an .xlsx or .csv file and look each one up
in the catalog table. All-digit values are serial numbers and are matched on
the serial column with the "26." prefix; anything else is matched on the
qrcode column. The report keeps the order of the file.

Report kinds:
 • full: every row with its status (found, not_found, empty)
 • found: found rows only
 • qr-serial: found rows as <url-prefix><qrcode> and serial`,
	Example: `  codexport reconcile --file returns.xlsx --column code
  codexport reconcile --file returns.csv --column code --report qr-serial --url-prefix https://example.com/ck/?s= --report-format csv`,
	RunE: runReconcile,
}

func init() {
	flags := reconcileCmd.Flags()
	flags.SortFlags = false

	flags.StringVar(&reconcileFile, "file", "", "The .xlsx or .csv file holding the identifiers (required)")
	flags.StringVar(&reconcileColumn, "column", "", "Column holding the identifiers (required)")
	flags.StringVar(&reconcileSheet, "sheet", "", "Worksheet to read from an .xlsx file (defaults to the active sheet)")
	flags.StringVar(&catalogTable, "catalog", "", "Catalog table with qrcode and serial columns (defaults to CODEX_CATALOG_TABLE or codes)")

	flags.StringVar(&reportKind, "report", string(reconcile.ReportFull), "Report kind (full, found, qr-serial)")
	flags.StringVar(&reportFormat, "report-format", string(reconcile.ReportXLSX), "Report format (xlsx, csv, json, yaml)")
	flags.StringVar(&reportURLPrefix, "url-prefix", "", "Prefix added to codes in qr-serial reports (defaults to CODEX_QR_URL_PREFIX)")
	flags.StringVarP(&outputPath, "output", "o", "", "Report path or directory (defaults to <prefix>_<report> in the current directory)")
	flags.StringVar(&reportPrefix, "prefix", "reconcile", "Prefix of the report name")
	flags.BoolVar(&failOnNotFound, "fail-on-not-found", false, "Exit with error if any identifier is not found")

	_ = reconcileCmd.MarkFlagRequired("file")
	_ = reconcileCmd.MarkFlagRequired("column")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	kind, err := reconcile.ParseReportKind(reportKind)
	if err != nil {
		return err
	}
	reportFmt, err := reconcile.ParseReportFormat(reportFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table := strings.TrimSpace(catalogTable)
	if table == "" {
		table = cfg.CatalogTable
	}
	urlPrefix := reportURLPrefix
	if urlPrefix == "" {
		urlPrefix = cfg.QRURLPrefix
	}

	rs, err := source.Open(reconcileFile, reconcileSheet)
	if err != nil {
		return err
	}
	raws, err := source.Strings(rs, reconcileColumn)
	if err != nil {
		return err
	}
	items := reconcile.ClassifyAll(raws)
	logger.Debug("Read %d identifier(s) from %s", len(items), reconcileFile)

	store, err := connectStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := db.NewCatalog(store, table)
	if err != nil {
		return err
	}

	res, lookupErr := reconcile.Reconcile(cmd.Context(), items, catalog.Lookup)
	if res == nil {
		return lookupErr
	}
	for _, e := range res.LookupErrors {
		logger.Error("%v", e)
	}

	data, err := res.Report(reconcile.ReportOptions{Kind: kind, Format: reportFmt, URLPrefix: urlPrefix})
	if err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	ext := "." + string(reportFmt)
	path := output.ResolvePath(outputPath, archiveName(reportPrefix, "reconcile", string(kind))+ext, ext)
	if err := output.WriteFile(path, data); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}

	s := res.Summary
	recorder.ObserveReconcile(s, lookupErr)
	logger.Info("%d identifier(s): %d found, %d not found (%d empty)", s.Total, s.Found, s.NotFound, s.Empty)
	logger.Success("Report completed -> %s", path)

	if lookupErr != nil {
		return fmt.Errorf("reconcile incomplete: %w", lookupErr)
	}
	if failOnNotFound && s.NotFound > 0 {
		return fmt.Errorf("%d identifier(s) not found", s.NotFound)
	}
	return nil
}
