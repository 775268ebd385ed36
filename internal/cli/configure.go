package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/config"
	"github.com/FlagWatch/FlagWatch/internal/scheduler"
)

var (
	configureBackend        string
	configureBucket         string
	configureRegion         string
	configureDataDir        string
	configureHost           string
	configurePort           int
	configureCron           string
	configureModel          string
	configureAPIKey         string
	configureSlackToken     string
	configureSlackChannel   string
	configureKafkaBrokers   string
	configureKafkaTopic     string
	configureShow           bool
	configureJSON           bool
	configureNonInteractive bool
)

// Flags that write config; any of these set skips the interactive prompts.
var configureValueFlags = []string{
	"backend", "bucket", "region", "data-dir", "host", "port", "cron",
	"model", "api-key", "slack-token", "slack-channel", "kafka-brokers", "kafka-topic",
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write or update the config file",
	RunE:  runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureBackend, "backend", "", "Store backend (local|s3|memory)")
	configureCmd.Flags().StringVar(&configureBucket, "bucket", "", "S3 bucket for the s3 backend")
	configureCmd.Flags().StringVar(&configureRegion, "region", "", "AWS region for the s3 backend")
	configureCmd.Flags().StringVar(&configureDataDir, "data-dir", "", "Data directory for the local backend")
	configureCmd.Flags().StringVar(&configureHost, "host", "", "API bind host")
	configureCmd.Flags().IntVar(&configurePort, "port", 0, "API bind port")
	configureCmd.Flags().StringVar(&configureCron, "cron", "", "Watch schedule (5-field cron)")
	configureCmd.Flags().StringVar(&configureModel, "model", "", "Inference model name")
	configureCmd.Flags().StringVar(&configureAPIKey, "api-key", "", "Anthropic API key")
	configureCmd.Flags().StringVar(&configureSlackToken, "slack-token", "", "Slack bot token (enables Slack notifications)")
	configureCmd.Flags().StringVar(&configureSlackChannel, "slack-channel", "", "Slack channel for status changes")
	configureCmd.Flags().StringVar(&configureKafkaBrokers, "kafka-brokers", "", "Kafka brokers, comma-separated host:port (enables Kafka notifications)")
	configureCmd.Flags().StringVar(&configureKafkaTopic, "kafka-topic", "", "Kafka topic for status events")
	configureCmd.Flags().BoolVar(&configureShow, "show", false, "Print the effective config without writing")
	configureCmd.Flags().BoolVar(&configureJSON, "json", false, "Output a machine-readable summary")
	configureCmd.Flags().BoolVar(&configureNonInteractive, "non-interactive", false, "Never prompt; write flags over the current config")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if configureShow {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	anyFlag := false
	for _, name := range configureValueFlags {
		if cmd.Flags().Changed(name) {
			anyFlag = true
			break
		}
	}

	if anyFlag || configureNonInteractive {
		if err := applyConfigureFlags(cmd, cfg); err != nil {
			return err
		}
	} else {
		if err := promptConfigure(cmd, cfg); err != nil {
			return err
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	path, _ := config.ConfigPath()
	if configureJSON {
		payload := map[string]any{
			"status":  "ok",
			"path":    path,
			"backend": cfg.Store.Backend,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func applyConfigureFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("backend") {
		backend := strings.ToLower(strings.TrimSpace(configureBackend))
		switch backend {
		case "local", "s3", "memory":
			cfg.Store.Backend = backend
		default:
			return fmt.Errorf("invalid --backend: %s (expected local|s3|memory)", configureBackend)
		}
	}
	if cmd.Flags().Changed("bucket") {
		cfg.Store.Bucket = strings.TrimSpace(configureBucket)
	}
	if cmd.Flags().Changed("region") {
		cfg.Store.Region = strings.TrimSpace(configureRegion)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Store.DataDir = strings.TrimSpace(configureDataDir)
	}
	if cmd.Flags().Changed("host") {
		cfg.API.Host = strings.TrimSpace(configureHost)
	}
	if cmd.Flags().Changed("port") {
		if configurePort < 1 || configurePort > 65535 {
			return fmt.Errorf("invalid --port: %d (expected 1-65535)", configurePort)
		}
		cfg.API.Port = configurePort
	}
	if cmd.Flags().Changed("cron") {
		if _, err := scheduler.ParseCron(configureCron); err != nil {
			return fmt.Errorf("invalid --cron: %w", err)
		}
		cfg.Watch.Cron = strings.TrimSpace(configureCron)
	}
	if cmd.Flags().Changed("model") {
		cfg.Inference.Model = strings.TrimSpace(configureModel)
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Inference.APIKey = strings.TrimSpace(configureAPIKey)
	}
	if cmd.Flags().Changed("slack-token") {
		cfg.Notify.Slack.Token = strings.TrimSpace(configureSlackToken)
		cfg.Notify.Slack.Enabled = cfg.Notify.Slack.Token != ""
	}
	if cmd.Flags().Changed("slack-channel") {
		cfg.Notify.Slack.Channel = strings.TrimSpace(configureSlackChannel)
	}
	if cmd.Flags().Changed("kafka-brokers") {
		cfg.Notify.Kafka.Brokers = strings.TrimSpace(configureKafkaBrokers)
		cfg.Notify.Kafka.Enabled = cfg.Notify.Kafka.Brokers != ""
	}
	if cmd.Flags().Changed("kafka-topic") {
		cfg.Notify.Kafka.Topic = strings.TrimSpace(configureKafkaTopic)
	}
	return nil
}

func promptConfigure(cmd *cobra.Command, cfg *config.Config) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configure FlagWatch. Press Enter to keep the value in brackets.")

	backend := promptValue(reader, out, "Store backend (local|s3|memory)", cfg.Store.Backend)
	backend = strings.ToLower(strings.TrimSpace(backend))
	switch backend {
	case "local", "s3", "memory":
		cfg.Store.Backend = backend
	default:
		return fmt.Errorf("invalid backend: %s (expected local|s3|memory)", backend)
	}

	switch cfg.Store.Backend {
	case "s3":
		cfg.Store.Bucket = promptValue(reader, out, "S3 bucket", cfg.Store.Bucket)
		cfg.Store.Region = promptValue(reader, out, "AWS region", cfg.Store.Region)
	case "local":
		cfg.Store.DataDir = promptValue(reader, out, "Data directory", cfg.Store.DataDir)
	}

	cfg.Inference.APIKey = promptSecret(reader, out, "Anthropic API key", cfg.Inference.APIKey)
	cfg.Watch.Cron = promptValue(reader, out, "Watch schedule", cfg.Watch.Cron)
	if _, err := scheduler.ParseCron(cfg.Watch.Cron); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	token := promptSecret(reader, out, "Slack bot token (blank to skip)", cfg.Notify.Slack.Token)
	if token != "" {
		cfg.Notify.Slack.Enabled = true
		cfg.Notify.Slack.Token = token
		cfg.Notify.Slack.Channel = promptValue(reader, out, "Slack channel", cfg.Notify.Slack.Channel)
	}

	brokers := promptValue(reader, out, "Kafka brokers (blank to skip)", cfg.Notify.Kafka.Brokers)
	if brokers != "" {
		cfg.Notify.Kafka.Enabled = true
		cfg.Notify.Kafka.Brokers = brokers
		cfg.Notify.Kafka.Topic = promptValue(reader, out, "Kafka topic", cfg.Notify.Kafka.Topic)
	}

	return nil
}

func promptValue(r *bufio.Reader, out io.Writer, label, current string) string {
	if current != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

// promptSecret shows whether a value is set instead of echoing it.
func promptSecret(r *bufio.Reader, out io.Writer, label, current string) string {
	state := "unset"
	if current != "" {
		state = "set"
	}
	fmt.Fprintf(out, "%s [%s]: ", label, state)
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}
