package ui

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressSteps is the resolution of the fraction shown by Progress.
const progressSteps = 1000

// Progress renders a job's completed fraction. A nil *Progress is valid and
// draws nothing.
type Progress struct {
	bar *progressbar.ProgressBar
}

func NewProgress(description string) *Progress {
	return newProgress(os.Stdout, description)
}

func newProgress(w io.Writer, description string) *Progress {
	return &Progress{bar: progressbar.NewOptions(progressSteps,
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(false),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
	)}
}

// Update matches the job progress callback.
func (p *Progress) Update(completed float64, message string) {
	if p == nil || p.bar == nil {
		return
	}
	completed = min(max(completed, 0), 1)
	p.bar.Describe(message)
	_ = p.bar.Set(int(completed * progressSteps))
}

func (p *Progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
