package db

import (
	"context"

	"github.com/fbz-tec/codexport/core/recordset"
)

// Querier runs a query and returns its rows as a RecordSet.
// A query without rows yields an empty set, not an error.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*recordset.RecordSet, error)
}

// Store defines the interface for database operations.
// Implementations should handle connection management and query execution.
type Store interface {
	Querier
	Connect() error
	Close() error
}
