package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fbz-tec/codexport/internal/logger"
)

// LookupField names the catalog field a batch of keys is matched on.
type LookupField string

const (
	FieldSerial LookupField = "serial"
	FieldQRCode LookupField = "qrcode"
)

// LookupRecord is one catalog row returned by a lookup.
type LookupRecord struct {
	QRCode string
	Serial string
}

// LookupFunc returns the catalog rows whose field value is one of keys.
type LookupFunc func(ctx context.Context, field LookupField, keys []string) ([]LookupRecord, error)

type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusEmpty    Status = "empty"
)

// Entry is the reconciled form of one input item.
type Entry struct {
	OriginalIndex int
	RawValue      *string
	Class         Class
	QRCode        string
	Serial        string
	Status        Status
}

// Raw returns the raw input value, or "" when it was missing.
func (e Entry) Raw() string {
	if e.RawValue == nil {
		return ""
	}
	return *e.RawValue
}

// Summary counts entries by outcome. NotFound covers every entry that was
// not found, empty ones included; Empty breaks those out.
type Summary struct {
	Total    int
	Found    int
	NotFound int
	Empty    int
}

// LookupError is a failed batched lookup. Every key of the batch is
// reported as not found.
type LookupError struct {
	Field LookupField
	Keys  int
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup on %s for %d key(s) failed: %v", e.Field, e.Keys, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type Result struct {
	Entries      []Entry
	Summary      Summary
	LookupErrors []*LookupError
}

// Reconcile issues one lookup per non-empty class partition and merges the
// matches back in input order. The result is always complete; the returned
// error joins any lookup failures, which are also kept on the result.
func Reconcile(ctx context.Context, items []Item, lookup LookupFunc) (*Result, error) {
	if lookup == nil {
		return nil, errors.New("reconcile: lookup function is nil")
	}

	start := time.Now()
	serialKeys := uniqueKeys(items, ClassNumeric)
	codeKeys := uniqueKeys(items, ClassOpaque)
	logger.Debug("Reconciling %d item(s): %d serial key(s), %d code key(s)", len(items), len(serialKeys), len(codeKeys))

	res := &Result{Entries: make([]Entry, 0, len(items))}

	bySerial, err := buildIndex(ctx, lookup, FieldSerial, serialKeys, func(r LookupRecord) string { return r.Serial })
	if err != nil {
		res.LookupErrors = append(res.LookupErrors, err)
	}
	byCode, err := buildIndex(ctx, lookup, FieldQRCode, codeKeys, func(r LookupRecord) string { return r.QRCode })
	if err != nil {
		res.LookupErrors = append(res.LookupErrors, err)
	}

	for _, item := range items {
		entry := Entry{
			OriginalIndex: item.OriginalIndex,
			RawValue:      item.RawValue,
			Class:         item.Class,
			Status:        StatusNotFound,
		}

		var index map[string]LookupRecord
		switch item.Class {
		case ClassEmpty:
			entry.Status = StatusEmpty
		case ClassNumeric:
			index = bySerial
		case ClassOpaque:
			index = byCode
		}

		if rec, ok := index[item.LookupKey]; ok {
			entry.Status = StatusFound
			entry.QRCode = rec.QRCode
			entry.Serial = rec.Serial
		}

		res.Summary.add(entry.Status)
		res.Entries = append(res.Entries, entry)
	}

	logger.Debug("Reconciliation done in %v: %d found, %d not found (%d empty)",
		time.Since(start), res.Summary.Found, res.Summary.NotFound, res.Summary.Empty)

	if len(res.LookupErrors) > 0 {
		errs := make([]error, len(res.LookupErrors))
		for i, e := range res.LookupErrors {
			errs[i] = e
		}
		return res, errors.Join(errs...)
	}
	return res, nil
}

func (s *Summary) add(status Status) {
	s.Total++
	switch status {
	case StatusFound:
		s.Found++
	case StatusEmpty:
		s.Empty++
		s.NotFound++
	default:
		s.NotFound++
	}
}

func uniqueKeys(items []Item, class Class) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, item := range items {
		if item.Class != class {
			continue
		}
		if _, dup := seen[item.LookupKey]; dup {
			continue
		}
		seen[item.LookupKey] = struct{}{}
		keys = append(keys, item.LookupKey)
	}
	return keys
}

// buildIndex runs one lookup and indexes the rows by keyOf. The first row
// wins when the catalog returns a key twice.
func buildIndex(ctx context.Context, lookup LookupFunc, field LookupField, keys []string, keyOf func(LookupRecord) string) (map[string]LookupRecord, *LookupError) {
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := lookup(ctx, field, keys)
	if err != nil {
		logger.Warn("Lookup on %s failed, %d key(s) reported as not found: %v", field, len(keys), err)
		return nil, &LookupError{Field: field, Keys: len(keys), Err: err}
	}

	index := make(map[string]LookupRecord, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if _, dup := index[k]; !dup {
			index[k] = r
		}
	}
	logger.Debug("Lookup on %s: %d key(s), %d row(s)", field, len(keys), len(rows))
	return index, nil
}
