package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/config"
	"github.com/FlagWatch/FlagWatch/internal/runlog"
	"github.com/FlagWatch/FlagWatch/internal/scheduler"
	"github.com/FlagWatch/FlagWatch/internal/store"
)

const (
	doctorPass = "PASS"
	doctorWarn = "WARN"
	doctorFail = "FAIL"
)

type doctorCheck struct {
	Name    string
	Status  string
	Message string
}

// probeStore prefers a backend's own write-read probe and falls back to
// listing the archive namespace.
func probeStore(ctx context.Context, st store.Store) error {
	if hc, ok := st.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	_, err := st.List(ctx, store.PrefixProclamations)
	return err
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, store, and notifier problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		checks := runDoctorChecks()
		failures := 0
		for _, check := range checks {
			if check.Status == doctorFail {
				failures++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", check.Status, check.Name, check.Message)
		}
		if failures > 0 {
			return fmt.Errorf("doctor found %d failing check(s)", failures)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All checks passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctorChecks() []doctorCheck {
	var checks []doctorCheck

	if path, err := config.ConfigPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			checks = append(checks, doctorCheck{"config_file", doctorPass, path})
		} else {
			checks = append(checks, doctorCheck{"config_file", doctorWarn, path + " missing, defaults in effect"})
		}
	}

	cfg, err := config.Load()
	if err != nil {
		checks = append(checks, doctorCheck{"config_load", doctorFail, err.Error()})
		return checks
	}
	checks = append(checks, doctorCheck{"config_load", doctorPass, "config loads cleanly"})

	if st, err := buildStore(cfg); err != nil {
		checks = append(checks, doctorCheck{"store", doctorFail, err.Error()})
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := probeStore(ctx, st); err != nil {
			checks = append(checks, doctorCheck{"store", doctorFail, fmt.Sprintf("%s unreachable: %v", st, err)})
		} else {
			checks = append(checks, doctorCheck{"store", doctorPass, st.String()})
		}
		cancel()
	}

	if cfg.Inference.APIKey != "" {
		checks = append(checks, doctorCheck{"inference_key", doctorPass, "API key present"})
	} else {
		checks = append(checks, doctorCheck{"inference_key", doctorFail, "no API key (set inference.apiKey or ANTHROPIC_API_KEY)"})
	}

	if _, err := scheduler.ParseCron(cfg.Watch.Cron); err != nil {
		checks = append(checks, doctorCheck{"watch_cron", doctorFail, err.Error()})
	} else {
		checks = append(checks, doctorCheck{"watch_cron", doctorPass, cfg.Watch.Cron})
	}

	if cfg.Notify.Slack.Enabled {
		if cfg.Notify.Slack.Token == "" || cfg.Notify.Slack.Channel == "" {
			checks = append(checks, doctorCheck{"notify_slack", doctorFail, "enabled but token or channel missing"})
		} else {
			checks = append(checks, doctorCheck{"notify_slack", doctorPass, "sending to " + cfg.Notify.Slack.Channel})
		}
	} else {
		checks = append(checks, doctorCheck{"notify_slack", doctorPass, "disabled"})
	}

	if cfg.Notify.Kafka.Enabled {
		if cfg.Notify.Kafka.Brokers == "" || cfg.Notify.Kafka.Topic == "" {
			checks = append(checks, doctorCheck{"notify_kafka", doctorFail, "enabled but brokers or topic missing"})
		} else {
			checks = append(checks, doctorCheck{"notify_kafka", doctorPass, cfg.Notify.Kafka.Brokers + " topic " + cfg.Notify.Kafka.Topic})
		}
	} else {
		checks = append(checks, doctorCheck{"notify_kafka", doctorPass, "disabled"})
	}

	if err := config.EnsureDir(filepath.Dir(cfg.RunLog.Path)); err != nil {
		checks = append(checks, doctorCheck{"run_history", doctorWarn, err.Error()})
	} else if runs, err := runlog.Open(cfg.RunLog.Path); err != nil {
		checks = append(checks, doctorCheck{"run_history", doctorWarn, err.Error()})
	} else {
		_ = runs.Close()
		checks = append(checks, doctorCheck{"run_history", doctorPass, cfg.RunLog.Path})
	}

	return checks
}
