package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/config"
	"github.com/FlagWatch/FlagWatch/internal/flagstatus"
	"github.com/FlagWatch/FlagWatch/internal/runlog"
	"github.com/FlagWatch/FlagWatch/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ FlagWatch Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current flag status and setup health",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🇺🇸 FlagWatch Status")
		fmt.Printf("Version: %s\n", version)

		if path, err := config.ConfigPath(); err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:  ✓ " + path)
			} else {
				fmt.Println("Config:  ✗ Not found (run 'flagwatch configure' first)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config:  ✗ Unreadable: %v\n", err)
			return
		}

		if cfg.Inference.APIKey != "" {
			fmt.Println("API Key: ✓ Found")
		} else {
			fmt.Println("API Key: ✗ Not found (set inference.apiKey or ANTHROPIC_API_KEY)")
		}

		st, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Store:   ✗ %v\n", err)
			return
		}
		fmt.Printf("Store:   %s\n", st)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		printCurrentStatus(ctx, st)
		printLastRun(cfg)
	},
}

func printCurrentStatus(ctx context.Context, st store.Store) {
	data, err := st.Get(ctx, store.KeyCurrent)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("Flag:    full staff (no update has run yet)")
		return
	}
	if err != nil {
		fmt.Printf("Flag:    ? Store unreachable: %v\n", err)
		return
	}

	var cur flagstatus.FlagStatus
	if err := json.Unmarshal(data, &cur); err != nil {
		fmt.Printf("Flag:    ? Stored document unreadable: %v\n", err)
		return
	}

	word := color.GreenString("full staff")
	if cur.HalfStaff() {
		word = color.RedString("HALF-STAFF")
	}
	fmt.Printf("Flag:    %s\n", word)
	fmt.Printf("Reason:  %s\n", cur.Reason)
	if cur.EndDate != "" {
		fmt.Printf("Until:   %s\n", cur.EndDate)
	}
	if cur.ProclamationURL != nil && *cur.ProclamationURL != "" {
		fmt.Printf("Source:  %s\n", *cur.ProclamationURL)
	}
	fmt.Printf("Updated: %s\n", cur.LastUpdated)
}

func printLastRun(cfg *config.Config) {
	if cfg.RunLog.Path == "" {
		return
	}
	if _, err := os.Stat(cfg.RunLog.Path); err != nil {
		return
	}
	runs, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		return
	}
	defer runs.Close()

	last, err := runs.LastRun()
	if err != nil || last == nil {
		return
	}
	glyph := "✓"
	if last.Outcome == runlog.OutcomeError {
		glyph = "✗"
	}
	fmt.Printf("Last run: %s %s (%s)\n", glyph, last.StartedAt.Format(time.RFC3339), last.Outcome)
}
