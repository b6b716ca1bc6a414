package cmd

import (
	"fmt"
	"os"

	"github.com/fbz-tec/codexport/core/exporters"
	"github.com/fbz-tec/codexport/core/formatters"
	"github.com/fbz-tec/codexport/core/output"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/spf13/cobra"
)

var deleteColumn string

var deleteSQLCmd = &cobra.Command{
	Use:   "delete-sql",
	Short: "Build a DELETE statement for the values of one result column",
	Example: `  # Delete every code of lot 12, statement printed on stdout
  codexport delete-sql -s "SELECT id FROM codes WHERE lot = 12" -t codes --column id -o -`,
	RunE: runDeleteSQL,
}

func init() {
	flags := deleteSQLCmd.Flags()
	flags.SortFlags = false

	flags.StringVarP(&sqlQuery, "sql", "s", "", "SQL query to execute")
	flags.StringVarP(&sqlFile, "sqlfile", "F", "", "Path to SQL file containing the query")
	flags.StringVarP(&tableName, "table", "t", "", "Table to delete from (required)")
	flags.StringVar(&deleteColumn, "column", "", "Result column matched by the WHERE clause (required)")
	flags.StringVarP(&outputPath, "output", "o", "", "Output file path, or - for stdout (defaults to delete_<table>.sql)")

	_ = deleteSQLCmd.MarkFlagRequired("table")
	_ = deleteSQLCmd.MarkFlagRequired("column")
}

func runDeleteSQL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query, err := readQuery(sqlQuery, sqlFile)
	if err != nil {
		return err
	}

	store, err := connectStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rs, err := runQuery(cmd.Context(), store, "query", query)
	if err != nil {
		return err
	}

	stmt, err := exporters.BuildDeleteStatement(rs, tableName, deleteColumn)
	if err != nil {
		return err
	}

	if outputPath == "-" {
		_, err := fmt.Fprintln(os.Stdout, stmt)
		return err
	}

	name := "delete_" + formatters.SanitizeFilename(tableName, formatters.DefaultMaxFilenameLength, "table") + ".sql"
	path := output.ResolvePath(outputPath, name, ".sql")
	if err := output.WriteFile(path, []byte(stmt+"\n")); err != nil {
		return fmt.Errorf("error writing statement: %w", err)
	}
	logger.Success("DELETE statement for %d row(s) -> %s", rs.Len(), path)
	return nil
}
