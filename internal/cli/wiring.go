package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/FlagWatch/FlagWatch/internal/config"
	"github.com/FlagWatch/FlagWatch/internal/inference"
	"github.com/FlagWatch/FlagWatch/internal/notify"
	"github.com/FlagWatch/FlagWatch/internal/runlog"
	"github.com/FlagWatch/FlagWatch/internal/store"
	"github.com/FlagWatch/FlagWatch/internal/updater"
)

// buildStore constructs the status store named by cfg.Store.Backend.
func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "s3":
		if cfg.Store.Bucket == "" {
			return nil, fmt.Errorf("s3 backend requires a bucket (set store.bucket or BUCKET_NAME)")
		}
		return store.NewS3Store(store.S3Config{
			Bucket:    cfg.Store.Bucket,
			Region:    cfg.Store.Region,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			Endpoint:  cfg.Store.Endpoint,
			PathStyle: cfg.Store.PathStyle,
		}), nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewLocalStore(cfg.Store.DataDir)
	}
}

// buildNotifiers assembles the channels enabled in config. The returned
// func closes any connections the notifiers hold open.
func buildNotifiers(cfg *config.Config) ([]notify.Notifier, func()) {
	var notifiers []notify.Notifier
	var closers []func()

	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.Token != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(
			cfg.Notify.Slack.Token,
			cfg.Notify.Slack.Channel,
			cfg.Notify.Slack.APIBase,
		))
	}
	if cfg.Notify.Kafka.Enabled && cfg.Notify.Kafka.Brokers != "" {
		k := notify.NewKafkaNotifier(cfg.Notify.Kafka.Brokers, cfg.Notify.Kafka.Topic)
		notifiers = append(notifiers, k)
		closers = append(closers, func() { _ = k.Close() })
	}

	return notifiers, func() {
		for _, c := range closers {
			c()
		}
	}
}

// openRunLog opens the run history database, creating its directory
// when needed. Returns nil when the history cannot be opened; runs
// still execute, they just go unrecorded.
func openRunLog(cfg *config.Config) *runlog.Service {
	if cfg.RunLog.Path == "" {
		return nil
	}
	if err := config.EnsureDir(filepath.Dir(cfg.RunLog.Path)); err != nil {
		slog.Warn("Run history unavailable", "path", cfg.RunLog.Path, "error", err)
		return nil
	}
	runs, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		slog.Warn("Run history unavailable", "path", cfg.RunLog.Path, "error", err)
		return nil
	}
	return runs
}

// newUpdater wires a ready-to-run updater from config. The returned
// cleanup closes the run log and any notifier connections.
func newUpdater(cfg *config.Config) (*updater.Updater, func(), error) {
	st, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := inference.NewAnthropicClient(
		cfg.Inference.APIKey,
		cfg.Inference.APIBase,
		cfg.Inference.Model,
		cfg.Inference.MaxTokens,
		cfg.Inference.Timeout,
	)

	notifiers, closeNotifiers := buildNotifiers(cfg)
	runs := openRunLog(cfg)

	upd := updater.New(updater.Options{
		Store:    st,
		Client:   client,
		Notifier: notify.NewDispatcher(notifiers...),
		RunLog:   runs,
	})

	cleanup := func() {
		closeNotifiers()
		if runs != nil {
			_ = runs.Close()
		}
	}
	return upd, cleanup, nil
}
