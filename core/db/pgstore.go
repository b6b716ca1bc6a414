package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const connectTimeout = 10 * time.Second

// PgStore represents a PostgreSQL database store connection.
type PgStore struct {
	dsn  string
	conn *pgx.Conn
}

// NewPgStore creates a new PostgreSQL store instance with the given DSN.
func NewPgStore(dsn string) *PgStore {
	return &PgStore{dsn: dsn}
}

// Connect establishes a connection to the PostgreSQL database.
// Returns an error if the connection fails or if ping fails.
func (s *PgStore) Connect() error {
	if s.conn != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	logger.Debug("Connection timeout: %v", connectTimeout)
	logger.Debug("Attempting to connect to database host: %s", sanitizeDSN(s.dsn))

	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Debug("Database ping successful")
	s.conn = conn
	return nil
}

// Close closes the database connection.
func (s *PgStore) Close() error {
	if s.conn == nil {
		return nil
	}

	logger.Debug("Closing database connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.conn.Close(ctx)
	if err != nil {
		logger.Debug("Error closing database connection: %v", err)
	} else {
		logger.Debug("Database connection closed successfully")
	}
	s.conn = nil
	return err
}

// Query executes a SQL query in a read-only transaction and materializes
// every row into a RecordSet. Column order follows the result's field
// descriptions.
func (s *PgStore) Query(ctx context.Context, sql string, args ...any) (*recordset.RecordSet, error) {
	if s.conn == nil {
		logger.Debug("No active database connection; query cannot be executed")
		return nil, fmt.Errorf("database not connected")
	}

	logger.Debug("Executing SQL query: %s", sql)
	start := time.Now()

	// Queries run in a read-only transaction so a write the validator missed
	// fails on the server.
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("unable to start read-only transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var data [][]recordset.Value
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", len(data)+1, err)
		}
		row := make([]recordset.Value, len(raw))
		for i, v := range raw {
			row[i] = toValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	rs, err := recordset.FromRows(columns, data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Query returned %d row(s), %d column(s) in %v", rs.Len(), len(columns), time.Since(start))
	return rs, nil
}

// toValue converts a decoded pgx value into a scalar Value.
func toValue(v any) recordset.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return recordset.NullValue()
		}
		if i, err := x.Int64Value(); err == nil && i.Valid {
			return recordset.IntValue(i.Int64)
		}
		if f, err := x.Float64Value(); err == nil && f.Valid {
			return recordset.FloatValue(f.Float64)
		}
	case [16]byte:
		return recordset.StringValue(uuid.UUID(x).String())
	}
	return recordset.FromAny(v)
}

// sanitizeDSN masks the password inside a PostgreSQL DSN before logging.
func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<invalid-dsn>"
	}

	var userInfo string
	if u.User != nil {
		username := u.User.Username()
		if _, hasPwd := u.User.Password(); hasPwd {
			userInfo = fmt.Sprintf("%s:***@", username)
		} else {
			userInfo = fmt.Sprintf("%s@", username)
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return fmt.Sprintf("%s://%s%s%s", u.Scheme, userInfo, u.Host, path)
}
