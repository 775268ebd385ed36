package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/FlagWatch/FlagWatch/internal/updater"
)

type fakeRunner struct {
	calls int
	err   error
}

func (f *fakeRunner) Run(ctx context.Context) (*updater.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &updater.Result{Status: "full_staff"}, nil
}

func TestWatcherRejectsBadSchedule(t *testing.T) {
	if _, err := NewWatcher(Config{Cron: "not a schedule", LockPath: "x"}, &fakeRunner{}); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestWatcherFireRunsJob(t *testing.T) {
	job := &fakeRunner{}
	w, err := NewWatcher(Config{
		Cron:     "0 */6 * * *",
		LockPath: filepath.Join(t.TempDir(), "watch.lock"),
	}, job)
	if err != nil {
		t.Fatal(err)
	}

	w.fire(context.Background(), time.Now())
	if job.calls != 1 {
		t.Fatalf("expected 1 run, got %d", job.calls)
	}

	// A failing run still releases the lock for the next tick.
	job.err = errors.New("model unavailable")
	w.fire(context.Background(), time.Now())
	job.err = nil
	w.fire(context.Background(), time.Now())
	if job.calls != 3 {
		t.Fatalf("expected 3 runs, got %d", job.calls)
	}
}

func TestWatcherSkipsWhenLockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "watch.lock")
	job := &fakeRunner{}
	w, err := NewWatcher(Config{Cron: "* * * * *", LockPath: lockPath}, job)
	if err != nil {
		t.Fatal(err)
	}

	other := NewFileLock(lockPath)
	acquired, err := other.TryLock()
	if err != nil || !acquired {
		t.Fatalf("could not take the lock: acquired=%v err=%v", acquired, err)
	}

	w.fire(context.Background(), time.Now())
	if job.calls != 0 {
		t.Fatalf("expected no runs while lock held, got %d", job.calls)
	}

	if err := other.Unlock(); err != nil {
		t.Fatal(err)
	}
	w.fire(context.Background(), time.Now())
	if job.calls != 1 {
		t.Fatalf("expected 1 run after release, got %d", job.calls)
	}
}

func TestFileLockExcludesSecondHolder(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run.lock")
	l1 := NewFileLock(lockPath)
	l2 := NewFileLock(lockPath)

	acquired, err := l1.TryLock()
	if err != nil || !acquired {
		t.Fatalf("l1 should acquire: acquired=%v err=%v", acquired, err)
	}

	acquired, err = l2.TryLock()
	if err != nil {
		t.Fatalf("unexpected l2 error: %v", err)
	}
	if acquired {
		t.Fatal("l2 acquired the lock while l1 holds it")
	}

	if err := l1.Unlock(); err != nil {
		t.Fatal(err)
	}
	acquired, err = l2.TryLock()
	if err != nil || !acquired {
		t.Fatalf("l2 should acquire after release: acquired=%v err=%v", acquired, err)
	}
	if err := l2.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherNext(t *testing.T) {
	w, err := NewWatcher(Config{
		Cron:     "0 */6 * * *",
		LockPath: filepath.Join(t.TempDir(), "watch.lock"),
	}, &fakeRunner{})
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2025, 1, 2, 7, 30, 0, 0, time.UTC)
	want := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	if next := w.Next(at); !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}
