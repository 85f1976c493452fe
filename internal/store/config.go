package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FeedConfig identifies one RSS source.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SnapshotConfig controls where the daily portfolio snapshot comes from.
// Source may be a local path or an http(s) URL. When empty, the URL is
// derived from BaseURL and the run date.
type SnapshotConfig struct {
	Source  string `yaml:"source"`
	BaseURL string `yaml:"base_url"`
}

// LLMConfig configures the completion request.
type LLMConfig struct {
	Model       string  `yaml:"model"` // empty = auto-select free models
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	System      string  `yaml:"system"`
}

// R2Config holds the S3-compatible archive credentials.
type R2Config struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Complete reports whether every required field is present.
func (r R2Config) Complete() bool {
	return r.Bucket != "" && r.Endpoint != "" && r.AccessKey != "" && r.SecretKey != ""
}

// BarkConfig holds the push notification channel settings.
type BarkConfig struct {
	Server string `yaml:"server"`
	Key    string `yaml:"key"`
}

// ScheduleConfig controls the daily trigger.
type ScheduleConfig struct {
	DailyCron  string `yaml:"daily_cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// Config is the full application configuration.
type Config struct {
	Symbols  []string       `yaml:"symbols"`
	Hours    int            `yaml:"hours"`
	Interval string         `yaml:"interval"`
	Feeds    []FeedConfig   `yaml:"feeds"`
	Keywords []string       `yaml:"keywords"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	LLM      LLMConfig      `yaml:"llm"`
	R2       R2Config       `yaml:"r2"`
	Bark     BarkConfig     `yaml:"bark"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// LoadConfig reads config from a YAML file, applies environment variable
// overrides, then fills defaults. A missing file is not an error: every
// field has a usable default except the completion credential, which is
// checked separately at run time.
func LoadConfig(path string) (*Config, error) {
	// Pre-unmarshal default: the file only overrides this when the key is
	// actually present.
	c := &Config{}
	c.Schedule.RunOnStart = true

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DIGEST_SNAPSHOT_BASE_URL"); v != "" {
		c.Snapshot.BaseURL = v
	}
	if v := os.Getenv("DIGEST_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("BARK_KEY"); v != "" {
		c.Bark.Key = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		c.R2.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		c.R2.SecretKey = v
	}
	if v := os.Getenv("DIGEST_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Hours = n
		}
	}

	// Defaults
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"}
	}
	if c.Hours == 0 {
		c.Hours = 24
	}
	if c.Interval == "" {
		c.Interval = "1h"
	}
	if len(c.Feeds) == 0 {
		c.Feeds = []FeedConfig{
			{Name: "Coindesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/"},
			{Name: "BinanceFeed", URL: "https://www.binance.com/en/feed/rss"},
		}
	}
	if len(c.Keywords) == 0 {
		c.Keywords = []string{"btc", "bitcoin", "eth", "ethereum", "bnb", "binance"}
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 600
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.R2.Region == "" {
		c.R2.Region = "auto"
	}
	if c.R2.KeyPrefix == "" {
		c.R2.KeyPrefix = "digests"
	}
	if c.Bark.Server == "" {
		c.Bark.Server = "https://api.day.app"
	}
	if c.Schedule.DailyCron == "" {
		// 02:00 UTC daily, six-field spec with seconds
		c.Schedule.DailyCron = "0 0 2 * * *"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Validate checks field ranges after defaults are applied.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	if c.Hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d", c.Hours)
	}
	if c.Interval == "" {
		return errors.New("interval cannot be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in [0,2], got %.2f", c.LLM.Temperature)
	}
	for _, f := range c.Feeds {
		if f.Name == "" || f.URL == "" {
			return errors.New("every feed needs a name and a url")
		}
	}
	return nil
}
