package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/batch"
	"github.com/fbz-tec/codexport/core/exporters"
	"github.com/fbz-tec/codexport/core/job"
	"github.com/fbz-tec/codexport/core/metrics"
)

func TestReadQuery(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lot.sql")
	if err := os.WriteFile(file, []byte("  SELECT * FROM \"codes\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		inline  string
		file    string
		want    string
		wantErr string
	}{
		{name: "inline", inline: "SELECT 1", want: "SELECT 1"},
		{name: "from file", file: file, want: `SELECT * FROM "codes"`},
		{name: "neither", wantErr: "must be provided"},
		{name: "both", inline: "SELECT 1", file: file, wantErr: "both"},
		{name: "missing file", file: filepath.Join(dir, "nope.sql"), wantErr: "reading SQL file"},
		{name: "write rejected", inline: "DELETE FROM codes", wantErr: "DELETE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readQuery(tt.inline, tt.file)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("readQuery() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("readQuery() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		prefix, fallback, suffix, want string
	}{
		{"lot12", "export", "excel_files", "lot12_excel_files"},
		{"", "export", "sql_files", "export_sql_files"},
		{"a/b:c", "export", "qr_codes", "a_b_c_qr_codes"},
		{" .. ", "batch_export", "batch", "batch_export_batch"},
	}
	for _, tt := range tests {
		if got := archiveName(tt.prefix, tt.fallback, tt.suffix); got != tt.want {
			t.Errorf("archiveName(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestKindLabel(t *testing.T) {
	tests := map[string]string{
		"xlsx":        "excel",
		"spreadsheet": "excel",
		"TXT":         "txt",
		"text":        "txt",
		"sql":         "sql",
	}
	for in, want := range tests {
		if got := kindLabel(in); got != want {
			t.Errorf("kindLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportOptions(t *testing.T) {
	format, rowsPerFile, noHeader, tableName = "XLSX", 0, true, " codes "
	t.Cleanup(func() { format, rowsPerFile, noHeader, tableName = exporters.FormatSQL, 0, false, "" })

	opts := exportOptions(9000)
	if opts.Format != exporters.FormatSpreadsheet {
		t.Errorf("Format = %q", opts.Format)
	}
	if opts.RowsPerFile != 9000 {
		t.Errorf("RowsPerFile = %d, want the configured default", opts.RowsPerFile)
	}
	if opts.IncludeHeaders {
		t.Error("--no-header should clear IncludeHeaders")
	}
	if opts.TableName != "codes" {
		t.Errorf("TableName = %q", opts.TableName)
	}

	rowsPerFile = 50
	if got := exportOptions(9000).RowsPerFile; got != 50 {
		t.Errorf("flag should win over the default, got %d", got)
	}
}

func TestBatchArchive(t *testing.T) {
	archiveFormat = "zip"
	t.Cleanup(func() { archiveFormat = string(archive.Zip) })

	m := &batch.Manifest{Archive: "tar.zst"}
	if got, _ := batchArchive(m, false); got != archive.TarZstd {
		t.Errorf("manifest archive ignored, got %s", got)
	}
	if got, _ := batchArchive(m, true); got != archive.Zip {
		t.Errorf("explicit flag should win, got %s", got)
	}
	if _, err := batchArchive(&batch.Manifest{Archive: "rar"}, false); err == nil {
		t.Error("unknown archive should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(buf.String(), "codexport ") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestBatchRejectsBadSchedule(t *testing.T) {
	old := batchSchedule
	defer func() { batchSchedule = old }()

	batchSchedule = "every tuesday"
	err := runBatch(batchCmd, []string{filepath.Join(t.TempDir(), "missing.sql")})
	if err == nil || !strings.Contains(err.Error(), "invalid cron schedule") {
		t.Errorf("runBatch() error = %v, want invalid cron schedule", err)
	}
}

func TestWriteMetrics(t *testing.T) {
	oldFile, oldRecorder := metricsFile, recorder
	defer func() { metricsFile, recorder = oldFile, oldRecorder }()

	metricsFile = filepath.Join(t.TempDir(), "codexport.prom")
	recorder = metrics.New()
	recorder.ObserveJob("export", &job.Result{Counts: job.Counts{Success: 2}}, nil)
	writeMetrics()

	content, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(content), "codexport_units_total") {
		t.Errorf("metrics file content:\n%s", content)
	}
}
