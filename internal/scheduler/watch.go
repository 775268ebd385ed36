package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FlagWatch/FlagWatch/internal/updater"
)

// Runner is the job the watch loop fires. The updater satisfies it.
type Runner interface {
	Run(ctx context.Context) (*updater.Result, error)
}

// Config holds watch loop settings.
type Config struct {
	Cron     string
	LockPath string
}

// Watcher re-runs the update check on a cron schedule. Overlap between
// watcher processes sharing a lock path is settled by skipping the tick,
// never by queueing it.
type Watcher struct {
	cron *CronExpr
	lock *FileLock
	job  Runner
}

func NewWatcher(cfg Config, job Runner) (*Watcher, error) {
	expr, err := ParseCron(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &Watcher{cron: expr, lock: NewFileLock(cfg.LockPath), job: job}, nil
}

// Next reports when the schedule fires after t.
func (w *Watcher) Next(t time.Time) time.Time {
	return w.cron.Next(t)
}

// Run blocks until ctx is cancelled, firing the job on every minute
// tick that matches the schedule. A run that outlasts its minute simply
// delays later ticks; within one process runs never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("Watch loop started", "next_run", w.cron.Next(time.Now()).Format(time.RFC3339))
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watch loop stopped")
			return ctx.Err()
		case t := <-ticker.C:
			if !w.cron.Matches(t) {
				continue
			}
			w.fire(ctx, t)
		}
	}
}

// fire runs one update under the file lock.
func (w *Watcher) fire(ctx context.Context, t time.Time) {
	acquired, err := w.lock.TryLock()
	if err != nil {
		slog.Warn("Watch lock error", "error", err)
		return
	}
	if !acquired {
		slog.Info("Watch tick skipped, lock held by another process")
		return
	}
	defer w.lock.Unlock()

	res, err := w.job.Run(ctx)
	if err != nil {
		slog.Error("Scheduled update failed", "error", err)
	} else {
		slog.Info("Scheduled update finished", "status", res.Status, "changed", res.Changed)
	}
	slog.Info("Next scheduled update", "at", w.cron.Next(t).Format(time.RFC3339))
}
