// Package conf loads and validates the citewatch configuration. Settings are
// read from config.yaml (working directory or the user config directory),
// with environment variable overrides via viper.
package conf

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/citia/citewatch/internal/errors"
)

//go:embed config.yaml
var defaultConfig []byte

// LogConfig describes a rotating log file.
type LogConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// MainSettings holds application-wide settings.
type MainSettings struct {
	Name string
	Log  LogConfig
}

// DatabaseSettings selects and configures the score/mention store backend.
type DatabaseSettings struct {
	SQLite struct {
		Enabled bool
		Path    string
	}
	MySQL struct {
		Enabled  bool
		Username string
		Password string
		Database string
		Host     string
		Port     string
	}
}

// ExtractSettings bound the mention-extraction stage.
type ExtractSettings struct {
	// WindowHours is the trailing raw-answer window processed per run.
	WindowHours int
	// MaxConcurrency caps parallel answer matching; 0 means GOMAXPROCS.
	MaxConcurrency int
}

// AggregateSettings bound the share-aggregation stage.
type AggregateSettings struct {
	// WindowDays is the trailing mention window scored per run.
	WindowDays int
}

// TrendSettings configure trend-delta computation.
type TrendSettings struct {
	// WindowDays is the length of each of the two compared windows.
	WindowDays int
}

// PipelineSettings configure the three pipeline stages.
type PipelineSettings struct {
	Extract   ExtractSettings
	Aggregate AggregateSettings
	Trend     TrendSettings
	// StageTimeout bounds a single stage invocation. A run that cannot
	// finish in time is abandoned and reported as failed; redelivery
	// retries it.
	StageTimeout time.Duration
}

// ChannelSettings configure one notification channel. An empty URL leaves
// the channel unconfigured, which downgrades sends to logged no-ops.
type ChannelSettings struct {
	Enabled bool
	// URL is a shoutrrr service URL (smtp://..., slack://...).
	URL string
}

// NotificationSettings configure alert dispatch.
type NotificationSettings struct {
	Email ChannelSettings
	Slack ChannelSettings
	// DefaultRecipients receive email alerts when a rule names none.
	DefaultRecipients []string
	RequestsPerMinute int
	BurstSize         int
	SendTimeout       time.Duration
}

// HTTPSettings configure the trigger server.
type HTTPSettings struct {
	Listen string
}

// MetricsSettings configure the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
}

// Settings is the root configuration object. It is loaded once and passed
// explicitly to every component; there is no global settings instance.
type Settings struct {
	Debug        bool
	Main         MainSettings
	Database     DatabaseSettings
	Pipeline     PipelineSettings
	Notification NotificationSettings
	HTTP         HTTPSettings
	Metrics      MetricsSettings
}

// Load reads the configuration and returns validated settings.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("CITEWATCH")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to cwd only
	}
	return []string{".", filepath.Join(configDir, "citewatch")}, nil
}

// createDefaultConfig writes the embedded default config to dir and loads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return viper.ReadInConfig()
}
