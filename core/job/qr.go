package job

import (
	"context"
	"fmt"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/core/qr"
	"github.com/fbz-tec/codexport/core/recordset"
	"github.com/fbz-tec/codexport/internal/logger"
)

// RunQRBatch renders one image per record. Skipped rows and per-row errors
// are counted and the batch continues.
func (j *Job) RunQRBatch(ctx context.Context, rs *recordset.RecordSet, spec qr.Spec) (*Result, error) {
	if err := j.begin(); err != nil {
		return nil, err
	}

	if rs == nil || rs.IsEmpty() {
		return nil, j.fail(ErrNothingToExport)
	}
	if err := spec.Validate(rs.Columns()); err != nil {
		return nil, j.fail(fmt.Errorf("%w: %v", recordset.ErrInvalidConfiguration, err))
	}
	logger.Debug("[%s] QR batch: %d rows, %s, box %d, border %d", j.short(), rs.Len(), spec.Format, spec.BoxSize, spec.Border)

	units := make([]unit, 0, rs.Len())
	for i, rec := range rs.All() {
		position := i + 1
		units = append(units, unit{
			source: "row",
			index:  position,
			run: func() (archive.Entry, bool, error) {
				out, err := qr.Generate(rec, position, spec)
				if err != nil {
					return archive.Entry{}, false, err
				}
				if out.Skipped {
					logger.Debug("row %d skipped: %s", position, out.Reason)
				}
				return out.Entry, out.Skipped, nil
			},
		})
	}

	return j.encode(ctx, units)
}
