// Package job drives record sets through the encoders into one archive.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fbz-tec/codexport/core/archive"
	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/google/uuid"
)

// State is the position of a job in its lifecycle.
type State int

const (
	Idle State = iota
	Chunking
	Encoding
	Archiving
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Chunking:
		return "chunking"
	case Encoding:
		return "encoding"
	case Archiving:
		return "archiving"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrAlreadyStarted  = errors.New("job already started")
)

// ProgressFunc receives the completed fraction in [0,1] after each unit of work.
type ProgressFunc func(completed float64, message string)

type Options struct {
	Archive  archive.Format
	Progress ProgressFunc
}

// UnitFailure records one chunk or row that could not be encoded.
type UnitFailure struct {
	Source string
	Unit   int
	Name   string
	Err    error
}

func (f UnitFailure) Error() string {
	if f.Name != "" {
		return fmt.Sprintf("%s unit %d (%s): %v", f.Source, f.Unit, f.Name, f.Err)
	}
	return fmt.Sprintf("%s unit %d: %v", f.Source, f.Unit, f.Err)
}

func (f UnitFailure) Unwrap() error { return f.Err }

type Counts struct {
	Success int
	Skipped int
	Error   int
}

// Result is what a finished job hands back. Archive holds the complete
// container; Failures lists every unit counted in Counts.Error.
type Result struct {
	Archive  []byte
	Entries  []string
	Counts   Counts
	Failures []UnitFailure
	Elapsed  time.Duration
}

// Job runs a single export or QR batch. A Job is not reusable.
type Job struct {
	ID   string
	opts Options

	mu    sync.Mutex
	state State
}

func New(opts Options) *Job {
	if opts.Archive == "" {
		opts.Archive = archive.Zip
	}
	return &Job{ID: uuid.NewString(), opts: opts}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	prev := j.state
	j.state = s
	j.mu.Unlock()
	logger.Debug("[%s] %s -> %s", j.short(), prev, s)
}

// begin moves an idle job to Chunking.
func (j *Job) begin() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != Idle {
		return fmt.Errorf("%w (state %s)", ErrAlreadyStarted, j.state)
	}
	j.state = Chunking
	return nil
}

func (j *Job) fail(err error) error {
	j.setState(Failed)
	logger.Debug("[%s] job failed: %v", j.short(), err)
	return err
}

func (j *Job) short() string { return j.ID[:8] }

func (j *Job) report(done, total int, message string) {
	if j.opts.Progress == nil || total == 0 {
		return
	}
	j.opts.Progress(float64(done)/float64(total), message)
}

// unit is one step of the encoding loop. It returns the entry to add, or
// skipped=true when the unit produced nothing on purpose.
type unit struct {
	source string
	index  int
	name   string
	run    func() (entry archive.Entry, skipped bool, err error)
}

// abortError marks an encoder error that must stop the whole job.
type abortError struct{ err error }

func (e abortError) Error() string { return e.err.Error() }
func (e abortError) Unwrap() error { return e.err }

// encode folds units into an archive, accumulating counts and failures.
func (j *Job) encode(ctx context.Context, units []unit) (*Result, error) {
	start := time.Now()
	j.setState(Encoding)

	w, err := archive.Open(j.opts.Archive)
	if err != nil {
		return nil, j.fail(err)
	}
	defer w.Discard()

	res := &Result{}
	total := len(units)
	for i, u := range units {
		if err := ctx.Err(); err != nil {
			logger.Warn("[%s] cancelled after %d of %d units", j.short(), i, total)
			return nil, j.fail(fmt.Errorf("job cancelled: %w", err))
		}

		entry, skipped, err := u.run()
		if err == nil && !skipped {
			err = w.Add(entry)
		}

		var abort abortError
		switch {
		case errors.As(err, &abort):
			return nil, j.fail(abort.err)
		case err != nil:
			res.Counts.Error++
			res.Failures = append(res.Failures, UnitFailure{Source: u.source, Unit: u.index, Name: u.name, Err: err})
			logger.Warn("[%s] %s unit %d failed: %v", j.short(), u.source, u.index, err)
		case skipped:
			res.Counts.Skipped++
		default:
			res.Counts.Success++
		}

		j.report(i+1, total, progressMessage(u, i+1, total))
	}

	j.setState(Archiving)
	data, err := w.Close()
	if err != nil {
		return nil, j.fail(err)
	}

	res.Archive = data
	res.Entries = w.Names()
	res.Elapsed = time.Since(start)
	j.setState(Done)

	logger.Debug("[%s] %d ok, %d skipped, %d failed in %v",
		j.short(), res.Counts.Success, res.Counts.Skipped, res.Counts.Error, res.Elapsed)
	return res, nil
}

func progressMessage(u unit, done, total int) string {
	if u.name != "" {
		return fmt.Sprintf("%s (%d/%d)", u.name, done, total)
	}
	return fmt.Sprintf("%s #%d (%d/%d)", u.source, u.index, done, total)
}
