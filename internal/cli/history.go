package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/config"
	"github.com/FlagWatch/FlagWatch/internal/runlog"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent update runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.EnsureDir(filepath.Dir(cfg.RunLog.Path)); err != nil {
		return fmt.Errorf("open run history: %w", err)
	}

	runs, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer runs.Close()

	entries, err := runs.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("read run history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	for _, r := range entries {
		glyph := "✓"
		switch r.Outcome {
		case runlog.OutcomeError:
			glyph = "✗"
		case runlog.OutcomeRunning:
			glyph = "…"
		}
		line := fmt.Sprintf("%s %s  %-10s", glyph, r.StartedAt.Format("2006-01-02 15:04"), r.Status)
		if r.Changed {
			line += "  changed"
		}
		if r.ProclamationID != "" {
			line += "  " + r.ProclamationID
		}
		if r.Outcome == runlog.OutcomeError && r.ErrorText != "" {
			line += "  " + firstLine(r.ErrorText)
		}
		if r.DurationMs > 0 {
			line += fmt.Sprintf("  (%dms)", r.DurationMs)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
