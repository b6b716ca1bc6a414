// Package qr renders one QR image per record for archive export.
package qr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/formatters"
	"github.com/fbz-tec/codexport/core/recordset"
)

const (
	DefaultBoxSize = 10
	DefaultBorder  = 5
)

var (
	ErrInvalidSpec = errors.New("invalid QR job spec")
	// ErrEmptyData is a row whose data cell is null or blank while
	// SkipEmpty is off. The row fails on its own; the batch goes on.
	ErrEmptyData = errors.New("no data to encode")
)

// Spec configures a QR batch.
//
// File names are not checked for uniqueness across rows. When the name
// column may repeat, enable IndexFilenames.
type Spec struct {
	DataColumn     string
	NameColumn     string
	Format         string
	BoxSize        int
	Border         int
	SkipEmpty      bool
	IndexFilenames bool
}

// NormalizeFormat maps "JPEG" and friends to the canonical format names.
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "jpeg" {
		return FormatJPG
	}
	return format
}

// Validate checks s against the columns of the source set.
func (s Spec) Validate(columns []string) error {
	switch s.Format {
	case FormatPNG, FormatJPG, FormatSVG:
	default:
		return fmt.Errorf("%w: format %q (expected png, jpg or svg)", ErrInvalidSpec, s.Format)
	}
	if s.BoxSize < 1 {
		return fmt.Errorf("%w: box size must be at least 1", ErrInvalidSpec)
	}
	if s.Border < 0 {
		return fmt.Errorf("%w: border cannot be negative", ErrInvalidSpec)
	}

	for _, col := range []string{s.DataColumn, s.NameColumn} {
		found := false
		for _, c := range columns {
			if c == col {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: column %q not found", ErrInvalidSpec, col)
		}
	}
	return nil
}

// Outcome is the result of one Generate call: either an entry or a skip.
type Outcome struct {
	Entry   archive.Entry
	Skipped bool
	Reason  string
}

// Generate renders the QR image for rec. position is the 1-based row number;
// it feeds the index prefix and the fallback name.
func Generate(rec recordset.Record, position int, spec Spec) (Outcome, error) {
	data, ok := rec.Get(spec.DataColumn)
	if !ok {
		return Outcome{}, fmt.Errorf("column %q missing from record", spec.DataColumn)
	}
	name, ok := rec.Get(spec.NameColumn)
	if !ok {
		return Outcome{}, fmt.Errorf("column %q missing from record", spec.NameColumn)
	}

	if data.IsBlank() {
		if spec.SkipEmpty {
			return Outcome{Skipped: true, Reason: "empty data"}, nil
		}
		return Outcome{}, fmt.Errorf("%w in column %q", ErrEmptyData, spec.DataColumn)
	}

	fallback := fmt.Sprintf("qr_code_%d", position)
	rawName := name.String()
	if name.IsBlank() {
		if spec.SkipEmpty {
			return Outcome{Skipped: true, Reason: "empty name"}, nil
		}
		rawName = fallback
	}

	base := formatters.SanitizeFilename(rawName, formatters.DefaultMaxFilenameLength, fallback)
	if spec.IndexFilenames {
		base = fmt.Sprintf("%05d_%s", position, base)
	}

	img, err := Render(data.String(), spec.Format, spec.BoxSize, spec.Border)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Entry: archive.Entry{Name: base + "." + spec.Format, Data: img}}, nil
}
