package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/reconcile"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/jackc/pgx/v5"
)

// Catalog looks up codes in a table holding qrcode and serial columns.
type Catalog struct {
	q     Querier
	table pgx.Identifier
}

// NewCatalog binds a catalog to table, which may be schema qualified.
func NewCatalog(q Querier, table string) (*Catalog, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("catalog table name cannot be empty")
	}
	return &Catalog{q: q, table: pgx.Identifier(strings.Split(table, "."))}, nil
}

// Lookup returns every catalog row whose field matches one of keys, in one query.
func (c *Catalog) Lookup(ctx context.Context, field reconcile.LookupField, keys []string) ([]reconcile.LookupRecord, error) {
	if field != reconcile.FieldSerial && field != reconcile.FieldQRCode {
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	sql := c.lookupSQL(field)
	logger.Debug("Catalog lookup on %s.%s with %d key(s)", c.table.Sanitize(), field, len(keys))

	rs, err := c.q.Query(ctx, sql, keys)
	if err != nil {
		return nil, err
	}

	out := make([]reconcile.LookupRecord, 0, rs.Len())
	for _, rec := range rs.All() {
		code, _ := rec.Get(string(reconcile.FieldQRCode))
		serial, _ := rec.Get(string(reconcile.FieldSerial))
		out = append(out, reconcile.LookupRecord{QRCode: code.String(), Serial: serial.String()})
	}
	return out, nil
}

func (c *Catalog) lookupSQL(field reconcile.LookupField) string {
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ANY($1)",
		pgx.Identifier{string(reconcile.FieldQRCode)}.Sanitize(),
		pgx.Identifier{string(reconcile.FieldSerial)}.Sanitize(),
		c.table.Sanitize(),
		pgx.Identifier{string(field)}.Sanitize())
}
