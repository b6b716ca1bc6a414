package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/batch"
	"github.com/fbz-tec/codexport/core/job"
	"github.com/fbz-tec/codexport/core/schedule"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/spf13/cobra"
)

var (
	batchPrefix   string
	batchSchedule string
)

var batchCmd = &cobra.Command{
	Use:   "batch <queries.sql|manifest.yaml>",
	Short: "Export many queries into one archive",
	Long: `Run every query of a batch and pack all their files into a single archive.

The batch is either a plain file with one query per line (blank lines and
lines starting with # are ignored; files are named query_<line>) or a YAML
manifest naming each query and overriding its options:

  prefix: lot12
  format: xlsx
  rows_per_file: 5000
  queries:
    - name: active
      sql: SELECT * FROM codes WHERE active = 1
      double_row: true
    - name: voided
      sql: SELECT * FROM codes WHERE active = 0
      include_headers: false

With --schedule the batch runs on a cron schedule until interrupted. The
manifest is read again on every run and each archive name gets a timestamp.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	addExportFlags(batchCmd)
	batchCmd.Flags().StringVar(&batchPrefix, "prefix", "batch_export", "Prefix of the archive name")
	batchCmd.Flags().StringVar(&batchSchedule, "schedule", "", "Cron expression (e.g. \"0 3 * * *\" or @hourly) to rerun the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchSchedule == "" {
		return batchOnce(cmd, args[0], "")
	}

	if _, err := schedule.Parse(batchSchedule); err != nil {
		return err
	}
	// The manifest must be valid before the first tick.
	m, err := batch.Load(args[0])
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	_, err = schedule.Run(cmd.Context(), batchSchedule, func(context.Context) error {
		err := batchOnce(cmd, args[0], time.Now().Format("20060102T150405"))
		writeMetrics()
		return err
	})
	return err
}

// batchOnce runs the batch in path once. A non-empty stamp is appended to the
// archive name.
func batchOnce(cmd *cobra.Command, path, stamp string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := batch.Load(path)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	logger.Debug("Batch %s: %d queries", path, len(m.Queries))

	container, err := batchArchive(m, cmd.Flags().Changed("archive"))
	if err != nil {
		return err
	}

	// Resolve and check every query's options before touching the database.
	base := exportOptions(cfg.RowsPerFile)
	sources := make([]job.Source, len(m.Queries))
	for i, q := range m.Queries {
		opts := m.Options(q, base)
		if err := opts.Validate(); err != nil {
			return fmt.Errorf("%s: %w", q.Name, err)
		}
		sources[i] = job.Source{Name: q.Name, Options: opts}
	}

	store, err := connectStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	failed := 0
	for i, q := range m.Queries {
		rs, err := runQuery(ctx, store, q.Name, q.SQL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			logger.Error("%v", err)
			continue
		}
		logger.Info("%s: %d rows", q.Name, rs.Len())
		sources[i].Records = rs
	}
	if failed == len(m.Queries) {
		recorder.ObserveJob("batch", nil, fmt.Errorf("all queries failed"))
		return fmt.Errorf("batch failed: all %d queries failed", failed)
	}

	j, bar := newJob(container, "Encoding")
	res, err := j.RunExport(ctx, sources)
	bar.Finish()
	recorder.ObserveJob("batch", res, err)
	if err != nil {
		return fmt.Errorf("batch export failed: %w", err)
	}

	prefix := batchPrefix
	if m.Prefix != "" && !cmd.Flags().Changed("prefix") {
		prefix = m.Prefix
	}
	name := archiveName(prefix, "batch_export", "batch")
	if stamp != "" {
		name += "_" + stamp
	}
	if err := saveArchive(res, outputPath, name, container); err != nil {
		return err
	}
	if failed > 0 {
		logger.Warn("%d of %d queries failed and are missing from the archive", failed, len(m.Queries))
	}
	return nil
}

// batchArchive picks the container: an explicit flag wins over the manifest.
func batchArchive(m *batch.Manifest, flagSet bool) (archive.Format, error) {
	if flagSet || m.Archive == "" {
		return archive.ParseFormat(archiveFormat)
	}
	return archive.ParseFormat(m.Archive)
}
