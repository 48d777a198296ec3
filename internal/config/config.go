package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig locates the external recognition tooling.
type EngineConfig struct {
	FFmpegPath  string `mapstructure:"ffmpegPath"`
	WhisperPath string `mapstructure:"whisperPath"`
	ModelPath   string `mapstructure:"modelPath"`
}

// WatchdogConfig tunes the per-job stability poller.
type WatchdogConfig struct {
	PollInterval       time.Duration `mapstructure:"pollInterval"`
	StabilityThreshold int           `mapstructure:"stabilityThreshold"`
	TimeoutBuffer      time.Duration `mapstructure:"timeoutBuffer"`
	MinTimeout         time.Duration `mapstructure:"minTimeout"`
}

// RetryConfig bounds default per-job retry behavior.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"maxRetries"`
	Delay      time.Duration `mapstructure:"delay"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel    string         `mapstructure:"logLevel"`
	Locale      string         `mapstructure:"locale"`
	PostgresDSN string         `mapstructure:"postgresDsn"`
	Engine      EngineConfig   `mapstructure:"engine"`
	Watchdog    WatchdogConfig `mapstructure:"watchdog"`
	Retry       RetryConfig    `mapstructure:"retry"`
}

// Load reads configuration from an optional file plus TRANSCRIBER_*
// environment overrides, applying defaults for everything else.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")
	v.SetDefault("locale", "en-US")
	v.SetDefault("postgresDsn", "")
	v.SetDefault("engine.ffmpegPath", "ffmpeg")
	v.SetDefault("engine.whisperPath", "whisper.cpp")
	v.SetDefault("engine.modelPath", "")
	v.SetDefault("watchdog.pollInterval", 500*time.Millisecond)
	v.SetDefault("watchdog.stabilityThreshold", 3)
	v.SetDefault("watchdog.timeoutBuffer", 3*time.Second)
	v.SetDefault("watchdog.minTimeout", 5*time.Second)
	v.SetDefault("retry.maxRetries", 2)
	v.SetDefault("retry.delay", time.Second)

	v.SetEnvPrefix("TRANSCRIBER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects out-of-range tunables.
func (c Config) Validate() error {
	if c.Watchdog.PollInterval <= 0 {
		return fmt.Errorf("config: watchdog poll interval must be positive, got %s", c.Watchdog.PollInterval)
	}
	if c.Watchdog.StabilityThreshold < 1 {
		return fmt.Errorf("config: watchdog stability threshold must be >= 1, got %d", c.Watchdog.StabilityThreshold)
	}
	if c.Watchdog.MinTimeout <= 0 {
		return fmt.Errorf("config: watchdog minimum timeout must be positive, got %s", c.Watchdog.MinTimeout)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: retry max retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("config: retry delay must be >= 0, got %s", c.Retry.Delay)
	}
	return nil
}
