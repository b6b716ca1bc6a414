package ui

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows activity while a query of unknown length runs.
// A nil *Spinner is valid and draws nothing.
type Spinner struct {
	bar  *progressbar.ProgressBar
	stop chan struct{}
	once sync.Once
}

func NewSpinner(description string) *Spinner {
	return newSpinner(os.Stdout, description)
}

func newSpinner(w io.Writer, description string) *Spinner {
	return &Spinner{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(description),
			progressbar.OptionEnableColorCodes(false),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowBytes(false),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWidth(15),
		),
		stop: make(chan struct{}),
	}
}

func (s *Spinner) Start() {
	if s == nil || s.bar == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				_ = s.bar.Add(1)
			}
		}
	}()
}

func (s *Spinner) Update(message string) {
	if s == nil || s.bar == nil {
		return
	}
	s.bar.Describe(message)
}

// Stop halts the animation and clears the line. Safe to call twice.
func (s *Spinner) Stop() {
	if s == nil || s.bar == nil {
		return
	}
	s.once.Do(func() {
		close(s.stop)
		_ = s.bar.Finish()
	})
}
