package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/config"
	"github.com/FlagWatch/FlagWatch/internal/scheduler"
)

var watchCron string
var watchImmediate bool

// Injectable for tests.
var watchSignalNotify = signal.Notify
var watchSignalStop = signal.Stop

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the updater on a schedule until interrupted",
	Run:   runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchCron, "cron", "", "Cron schedule (defaults to watch.cron from config)")
	watchCmd.Flags().BoolVar(&watchImmediate, "immediate", false, "Run one update before the first scheduled tick")
}

func runWatch(cmd *cobra.Command, args []string) {
	printHeader("⏱️ FlagWatch Watch")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	cronExpr := cfg.Watch.Cron
	if watchCron != "" {
		cronExpr = watchCron
	}

	upd, cleanup, err := newUpdater(cfg)
	if err != nil {
		fmt.Printf("Setup error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := config.EnsureDir(filepath.Dir(cfg.Watch.LockPath)); err != nil {
		fmt.Printf("Lock error: %v\n", err)
		os.Exit(1)
	}

	w, err := scheduler.NewWatcher(scheduler.Config{
		Cron:     cronExpr,
		LockPath: cfg.Watch.LockPath,
	}, upd)
	if err != nil {
		fmt.Printf("Schedule error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if watchImmediate {
		if _, err := upd.Run(ctx); err != nil {
			fmt.Printf("Initial update failed: %v\n", err)
		}
	}

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Printf("Watch error: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	watchSignalNotify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer watchSignalStop(sigChan)

	fmt.Printf("Watching on schedule %q. Next run %s. Press Ctrl+C to stop.\n",
		cronExpr, w.Next(time.Now()).Format(time.RFC3339))
	<-sigChan
	fmt.Println("Shutting down...")
	cancel()
}
