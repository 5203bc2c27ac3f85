// Package config loads the weekly agent configuration from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Feed is one RSS or plain web source inside a category.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Category describes one output section of the weekly.
type Category struct {
	Name     string   `yaml:"name"`
	Feeds    []Feed   `yaml:"feeds"`
	Keywords []string `yaml:"keywords"`
	MinCount int      `yaml:"min_count"`
	MaxCount int      `yaml:"max_count"`

	LeetCode *LeetCodeConfig `yaml:"leetcode,omitempty"`
}

// LeetCodeConfig configures the training category problem picker.
type LeetCodeConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Count        int      `yaml:"count"`
	Difficulties []string `yaml:"difficulties"`
}

// AIConfig holds the chat-completion settings.
type AIConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// MaxRequests caps model calls per run, 0 means unlimited.
	MaxRequests int `yaml:"max_requests"`
}

// DedupConfig points at the cross-run dedup cache.
type DedupConfig struct {
	CacheFile        string `yaml:"cache_file"`
	CacheExpireHours int    `yaml:"cache_expire_hours"`
}

// StateConfig points at the issue-number state file. Kept separate from
// the weekly block so runs never rewrite the static configuration.
type StateConfig struct {
	IssueFile string `yaml:"issue_file"`
}

// WeeklyConfig controls numbering and output layout.
type WeeklyConfig struct {
	CurrentIssue   int    `yaml:"current_issue"`
	DateFormat     string `yaml:"date_format"`
	OutputTemplate string `yaml:"output_template"`
}

// TimeFilter bounds article freshness.
type TimeFilter struct {
	Hours int `yaml:"hours"`
}

// PreFilter bounds article quality before extraction.
type PreFilter struct {
	MinContentLength int `yaml:"min_content_length"`
}

type Config struct {
	AI         AIConfig            `yaml:"ai"`
	Categories map[string]Category `yaml:"categories"`
	Dedup      DedupConfig         `yaml:"dedup"`
	State      StateConfig         `yaml:"state"`
	Weekly     WeeklyConfig        `yaml:"weekly"`
	TimeFilter TimeFilter          `yaml:"time_filter"`
	PreFilter  PreFilter           `yaml:"pre_filter"`

	// Runtime knobs, env-overridable.
	RequestTimeout time.Duration `yaml:"-"`
	RetryAttempts  int           `yaml:"-"`
	RetryDelay     time.Duration `yaml:"-"`
}

// Load reads the YAML file, applies defaults and env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.AI.APIKeyEnv == "" {
		c.AI.APIKeyEnv = "AI_API_KEY"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-1.5-flash"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 4096
	}
	if c.Dedup.CacheFile == "" {
		c.Dedup.CacheFile = "cache/weekly_processed_urls.json"
	}
	if c.Dedup.CacheExpireHours == 0 {
		c.Dedup.CacheExpireHours = 720
	}
	if c.State.IssueFile == "" {
		c.State.IssueFile = "cache/weekly_state.json"
	}
	if c.Weekly.CurrentIssue == 0 {
		c.Weekly.CurrentIssue = 1
	}
	if c.Weekly.DateFormat == "" {
		c.Weekly.DateFormat = "20060102"
	}
	if c.Weekly.OutputTemplate == "" {
		c.Weekly.OutputTemplate = "output/NO{issue}.前端Weekly({date}).md"
	}
	if c.TimeFilter.Hours == 0 {
		c.TimeFilter.Hours = 168
	}
	if c.PreFilter.MinContentLength == 0 {
		c.PreFilter.MinContentLength = 50
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2 * time.Second
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv(c.AI.APIKeyEnv); key != "" {
		c.AI.APIKey = key
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.RetryAttempts = val
		}
	}
	if v := os.Getenv("MAX_AI_REQUESTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.AI.MaxRequests = val
		}
	}
}

func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("config has no categories")
	}
	for key, cat := range c.Categories {
		if cat.MaxCount > 0 && cat.MinCount > cat.MaxCount {
			return fmt.Errorf("category %s: min_count %d exceeds max_count %d", key, cat.MinCount, cat.MaxCount)
		}
	}
	if strings.TrimSpace(c.Weekly.OutputTemplate) == "" {
		return fmt.Errorf("weekly.output_template is required")
	}
	return nil
}

// CategoryNames returns the display names of all content categories,
// skipping the training category which is filled by the problem picker.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for key, cat := range c.Categories {
		if key == "training" {
			continue
		}
		name := cat.Name
		if name == "" {
			name = key
		}
		names = append(names, name)
	}
	return names
}

// OutputPath renders the output template for one issue.
func (c *Config) OutputPath(issue int, date string) string {
	path := strings.ReplaceAll(c.Weekly.OutputTemplate, "{issue}", strconv.Itoa(issue))
	return strings.ReplaceAll(path, "{date}", date)
}
