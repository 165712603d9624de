package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/mikesmullin/slack/internal/pathutil"
)

type Config struct {
	Log     LogConfig     `koanf:"log"`
	Storage StorageConfig `koanf:"storage"`
	Remote  RemoteConfig  `koanf:"remote"`
	Pull    PullConfig    `koanf:"pull"`
	Watch   WatchConfig   `koanf:"watch"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type StorageConfig struct {
	// Root is the directory holding record files and the _cache subtree.
	Root string `koanf:"root"`
}

type RemoteConfig struct {
	// Token authenticates against the messaging service. Falls back to
	// the SLACK_TOKEN environment variable via the env provider.
	Token string `koanf:"token"`

	// Timeout bounds every single remote API call.
	Timeout string `koanf:"timeout"`
}

type PullConfig struct {
	Since string `koanf:"since"`
	Limit int    `koanf:"limit"`
}

type WatchConfig struct {
	// Interval between scheduled pulls, in cron or @every syntax.
	Interval string `koanf:"interval"`
	Rules    []RuleConfig `koanf:"rules"`
}

// RuleConfig is one watch rule: a pattern matched against freshly stored
// events and a command to run for each match.
type RuleConfig struct {
	Name    string `koanf:"name"`
	Pattern string `koanf:"pattern"`
	Channel string `koanf:"channel"`
	Command string `koanf:"command"`
}

const (
	DefaultLogLevel      = "info"
	DefaultStorageRoot   = "~/.slack-inbox/storage"
	DefaultRemoteTimeout = "30s"
	DefaultPullSince     = "yesterday"
	DefaultPullLimit     = 100
	DefaultWatchInterval = "@every 5m"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"log.level":      DefaultLogLevel,
		"storage.root":   DefaultStorageRoot,
		"remote.timeout": DefaultRemoteTimeout,
		"pull.since":     DefaultPullSince,
		"pull.limit":     DefaultPullLimit,
		"watch.interval": DefaultWatchInterval,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}
	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".slack-inbox", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
			}
		}
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
		slog.Debug("Config file loaded", "path", configPath)
	}

	// Environment overrides: SLACK_REMOTE_TOKEN -> remote.token
	if err := k.Load(env.Provider("SLACK_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SLACK_")), "_", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Flag overrides
	if cmd != nil {
		if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Legacy token env var, kept for parity with the slack CLI ecosystem.
	if cfg.Remote.Token == "" {
		cfg.Remote.Token = os.Getenv("SLACK_TOKEN")
	}

	root, err := pathutil.Expand(cfg.Storage.Root)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Root = root

	return &cfg, nil
}

// CacheDir returns the resolution cache directory under the storage root.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Storage.Root, "_cache")
}
