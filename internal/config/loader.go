package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".flagwatch"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("FLAGWATCH_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := resolveHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("FLAGWATCH_HOME")); h != "" {
		if strings.HasPrefix(h, "~") {
			base, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(base, h[1:]), nil
		}
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home, nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load process env vars from ~/.config/flagwatch/env (and fallbacks) first.
	LoadEnvFileCandidates()

	// Load from file
	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := loadResolvedConfig(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If file doesn't exist, continue with defaults

	// Override with environment variables for each group
	envconfig.Process("FLAGWATCH_STORE", &cfg.Store)
	envconfig.Process("FLAGWATCH_INFERENCE", &cfg.Inference)
	envconfig.Process("FLAGWATCH_API", &cfg.API)
	envconfig.Process("FLAGWATCH_WATCH", &cfg.Watch)
	envconfig.Process("FLAGWATCH_NOTIFY", &cfg.Notify.Slack)
	envconfig.Process("FLAGWATCH_NOTIFY", &cfg.Notify.Kafka)
	envconfig.Process("FLAGWATCH", &cfg.RunLog)

	// Fallback for the inference API key
	if cfg.Inference.APIKey == "" {
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.Inference.APIKey = key
		}
	}

	// Fallbacks for the s3 backend. BUCKET_NAME matches the variable the
	// hosted deployment exports.
	if cfg.Store.Bucket == "" {
		cfg.Store.Bucket = strings.TrimSpace(os.Getenv("BUCKET_NAME"))
	}
	if cfg.Store.AccessKey == "" {
		cfg.Store.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if cfg.Store.SecretKey == "" {
		cfg.Store.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}

	// Expand ~ in paths
	expandHome := func(p *string) {
		if strings.HasPrefix(*p, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				*p = filepath.Join(home, (*p)[1:])
			}
		}
	}
	expandHome(&cfg.Store.DataDir)
	expandHome(&cfg.Watch.LockPath)
	expandHome(&cfg.RunLog.Path)

	normalize(cfg)

	return cfg, nil
}

// normalize pulls out-of-range values back to working defaults.
func normalize(cfg *Config) {
	def := DefaultConfig()

	switch strings.ToLower(strings.TrimSpace(cfg.Store.Backend)) {
	case "s3":
		cfg.Store.Backend = "s3"
	case "memory":
		cfg.Store.Backend = "memory"
	default:
		cfg.Store.Backend = "local"
	}
	if strings.TrimSpace(cfg.Store.DataDir) == "" {
		cfg.Store.DataDir = def.Store.DataDir
	}
	if strings.TrimSpace(cfg.Store.Region) == "" {
		cfg.Store.Region = def.Store.Region
	}

	if cfg.Inference.MaxTokens <= 0 {
		cfg.Inference.MaxTokens = def.Inference.MaxTokens
	}
	if cfg.Inference.Timeout <= 0 {
		cfg.Inference.Timeout = def.Inference.Timeout
	}

	if strings.TrimSpace(cfg.API.Host) == "" {
		cfg.API.Host = def.API.Host
	}
	if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
		cfg.API.Port = def.API.Port
	}

	if strings.TrimSpace(cfg.Watch.Cron) == "" {
		cfg.Watch.Cron = def.Watch.Cron
	}
	if strings.TrimSpace(cfg.Watch.LockPath) == "" {
		cfg.Watch.LockPath = def.Watch.LockPath
	}

	if strings.TrimSpace(cfg.Notify.Kafka.Topic) == "" {
		cfg.Notify.Kafka.Topic = def.Notify.Kafka.Topic
	}

	if strings.TrimSpace(cfg.RunLog.Path) == "" {
		cfg.RunLog.Path = def.RunLog.Path
	}
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// EnsureDir ensures a directory exists with proper permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// loadResolvedConfig reads the config file and substitutes ${VAR}
// references with process environment values before decoding.
func loadResolvedConfig(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	substituteEnvValues(raw)
	return json.Marshal(raw)
}

func substituteEnvValues(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = substituteEnvValues(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = substituteEnvValues(item)
		}
		return t
	case string:
		return envPattern.ReplaceAllStringFunc(t, func(match string) string {
			parts := envPattern.FindStringSubmatch(match)
			if len(parts) != 2 {
				return match
			}
			if value, ok := os.LookupEnv(parts[1]); ok {
				return value
			}
			return match
		})
	default:
		return v
	}
}
