// Package config provides configuration types and loading for flagwatch.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Store, Inference, API, Watch, Notify, RunLog.
type Config struct {
	Store     StoreConfig     `json:"store"`
	Inference InferenceConfig `json:"inference"`
	API       APIConfig       `json:"api"`
	Watch     WatchConfig     `json:"watch"`
	Notify    NotifyConfig    `json:"notify"`
	RunLog    RunLogConfig    `json:"runlog"`
}

// ---------------------------------------------------------------------------
// Store – status document persistence
// ---------------------------------------------------------------------------

// StoreConfig groups status document storage settings. Backend selects the
// implementation: "local", "s3" or "memory".
type StoreConfig struct {
	Backend   string `json:"backend" envconfig:"BACKEND"`
	DataDir   string `json:"dataDir" envconfig:"DATA_DIR"`
	Bucket    string `json:"bucket" envconfig:"BUCKET"`
	Region    string `json:"region" envconfig:"REGION"`
	AccessKey string `json:"accessKey" envconfig:"ACCESS_KEY"`
	SecretKey string `json:"secretKey" envconfig:"SECRET_KEY"`
	Endpoint  string `json:"endpoint,omitempty" envconfig:"ENDPOINT"`
	PathStyle bool   `json:"pathStyle" envconfig:"PATH_STYLE"`
}

// ---------------------------------------------------------------------------
// Inference – proclamation search model
// ---------------------------------------------------------------------------

// InferenceConfig groups Anthropic API settings for proclamation searches.
type InferenceConfig struct {
	APIKey    string        `json:"apiKey" envconfig:"API_KEY"`
	APIBase   string        `json:"apiBase,omitempty" envconfig:"API_BASE"`
	Model     string        `json:"model" envconfig:"MODEL"`
	MaxTokens int           `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Timeout   time.Duration `json:"timeout" envconfig:"TIMEOUT"`
}

// ---------------------------------------------------------------------------
// API – HTTP server networking
// ---------------------------------------------------------------------------

// APIConfig contains reader API server settings.
type APIConfig struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
}

// ---------------------------------------------------------------------------
// Watch – periodic update scheduling
// ---------------------------------------------------------------------------

// WatchConfig contains settings for the cron-driven watch loop.
type WatchConfig struct {
	Cron     string `json:"cron" envconfig:"CRON"`
	LockPath string `json:"lockPath" envconfig:"LOCK_PATH"`
}

// ---------------------------------------------------------------------------
// Notify – status change notifications
// ---------------------------------------------------------------------------

// NotifyConfig contains all notification channel configurations.
type NotifyConfig struct {
	Slack SlackConfig `json:"slack"`
	Kafka KafkaConfig `json:"kafka"`
}

// SlackConfig configures the Slack notification channel.
type SlackConfig struct {
	Enabled bool   `json:"enabled" envconfig:"SLACK_ENABLED"`
	Token   string `json:"token" envconfig:"SLACK_TOKEN"`
	Channel string `json:"channel" envconfig:"SLACK_CHANNEL"`
	APIBase string `json:"apiBase,omitempty" envconfig:"SLACK_API_BASE"`
}

// KafkaConfig configures the Kafka notification channel.
type KafkaConfig struct {
	Enabled bool   `json:"enabled" envconfig:"KAFKA_ENABLED"`
	Brokers string `json:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string `json:"topic" envconfig:"KAFKA_TOPIC"`
}

// ---------------------------------------------------------------------------
// RunLog – local run history
// ---------------------------------------------------------------------------

// RunLogConfig contains settings for the sqlite-backed run history.
type RunLogConfig struct {
	Path string `json:"path" envconfig:"RUNLOG_PATH"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "local",
			DataDir: "~/.flagwatch/data",
			Region:  "us-east-1",
		},
		Inference: InferenceConfig{
			Model:     "claude-3-sonnet-20240229",
			MaxTokens: 4000,
			Timeout:   120 * time.Second,
		},
		API: APIConfig{
			Host: "127.0.0.1", // Secure default
			Port: 8990,
		},
		Watch: WatchConfig{
			Cron:     "0 */6 * * *",
			LockPath: "~/.flagwatch/watch.lock",
		},
		Notify: NotifyConfig{
			Kafka: KafkaConfig{
				Topic: "flagwatch.status",
			},
		},
		RunLog: RunLogConfig{
			Path: "~/.flagwatch/runs.db",
		},
	}
}
