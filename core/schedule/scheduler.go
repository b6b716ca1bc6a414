// Package schedule reruns a task on a cron schedule until cancelled.
package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/robfig/cron/v3"
)

// Task is one scheduled run. Its error is logged and does not stop the schedule.
type Task func(ctx context.Context) error

// Parse checks a standard five-field cron expression or a descriptor such
// as @daily or @every 30m.
func Parse(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Run blocks until ctx is done, calling task on every tick. A tick that
// fires while the previous run is still going is skipped. Once the
// scheduler has stopped, Run returns the number of runs it started, failed
// runs included. No run is still going at that point.
func Run(ctx context.Context, spec string, task Task) (int, error) {
	sched, err := Parse(spec)
	if err != nil {
		return 0, err
	}

	var runs atomic.Int64
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	c.Schedule(sched, cron.FuncJob(func() {
		n := runs.Add(1)
		logger.Info("Scheduled run #%d started", n)
		start := time.Now()
		if err := task(ctx); err != nil {
			logger.Error("Scheduled run #%d failed: %v", n, err)
			return
		}
		logger.Debug("Scheduled run #%d finished in %v", n, time.Since(start).Round(time.Millisecond))
	}))

	c.Start()
	logger.Info("Schedule %q started, next run at %s", spec, sched.Next(time.Now()).Format(time.DateTime))

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	logger.Info("Schedule stopped after %d run(s)", runs.Load())
	return int(runs.Load()), nil
}

// cronLogger sends the scheduler's own messages to the console logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
