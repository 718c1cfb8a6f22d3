// Package config loads the pipeline configuration from a YAML file with
// environment variable expansion. A missing or malformed file falls back
// to built-in defaults with a warning; configuration problems never abort
// a run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// Config holds the application configuration
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	OutputDir    string        `yaml:"output_dir"`

	Database struct {
		DSN             string `yaml:"dsn"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
	} `yaml:"database"`

	Fetch struct {
		Timeout           time.Duration `yaml:"timeout"`
		Attempts          int           `yaml:"attempts"`
		MaxItemsPerSource int           `yaml:"max_items_per_source"`
		EnrichContent     bool          `yaml:"enrich_content"`
	} `yaml:"fetch"`

	Dedup struct {
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		RecentWindow        int     `yaml:"recent_window"`
	} `yaml:"dedup"`

	Health struct {
		HardCooldown  time.Duration `yaml:"hard_cooldown"`
		EmptyCooldown time.Duration `yaml:"empty_cooldown"`
	} `yaml:"health"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Relevance RelevanceConfig `yaml:"relevance"`
	Composer  ComposerConfig  `yaml:"composer"`
	Facebook  FacebookConfig  `yaml:"facebook"`

	ItemDelay time.Duration `yaml:"item_delay"`

	Sources []domain.Source `yaml:"sources"`
}

// RelevanceConfig holds keyword filter settings
type RelevanceConfig struct {
	Enabled          bool     `yaml:"enabled"`
	RequiredKeywords []string `yaml:"required_keywords"`
	CityAliases      []string `yaml:"city_aliases"`
	StrictCityOnly   bool     `yaml:"strict_city_only"`
	PrefixLocality   bool     `yaml:"prefix_locality"`
	DefaultLocality  string   `yaml:"default_locality"`
}

// ComposerConfig holds post composer settings; the AI backend is optional
// and falls back to plain templates when unset or failing.
type ComposerConfig struct {
	Backend     string        `yaml:"backend"` // openai or none
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxPostLen  int           `yaml:"max_post_len"`
	Template    string        `yaml:"template"` // short, summary, qa, bilingual
}

// FacebookConfig holds the optional facebook post writer settings
type FacebookConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Template  string `yaml:"template"`
	MaxImages int    `yaml:"max_images"`
}

// defaultSources is the built-in source list used when no config file is
// present or the sources section is empty.
func defaultSources() []domain.Source {
	return []domain.Source{
		{Name: "Iraq News Agency (INA)", Kind: domain.KindFeed, URL: "https://ina.iq/rss.ashx", Lang: "ar"},
		{Name: "Alsumaria News", Kind: domain.KindFeed, URL: "https://www.alsumaria.tv/rss-feed", Lang: "ar"},
		{Name: "Shafaq News", Kind: domain.KindFeed, URL: "https://shafaq.com/ar/rss", Lang: "ar"},
		{Name: "Rudaw Arabic", Kind: domain.KindFeed, URL: "https://www.rudawarabia.net/rss", Lang: "ar"},
		{Name: "Kurdistan24 Arabic", Kind: domain.KindFeed, URL: "https://www.kurdistan24.net/ar/rss", Lang: "ar"},
		{Name: "Baghdad Today", Kind: domain.KindFeed, URL: "https://baghdadtoday.news/rss", Lang: "ar"},
		{Name: "NRT Arabic", Kind: domain.KindFeed, URL: "https://www.nrttv.com/ar/rss", Lang: "ar"},
	}
}

// defaultKeywords covers the Anbar/Ramadi region and its towns
func defaultKeywords() []string {
	return []string{
		"الأنبار", "الانبار", "الرمادي", "رمادي", "الفلوجة", "هيت", "القائم", "عنه", "عنة", "راوة",
		"حديثة", "الرطبة", "الكرمة", "الگرمة", "الخالدية", "الحبانية", "عامرية الفلوجة", "عكاشات",
	}
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. Any problem reading or
// parsing the file is returned alongside a usable default config; callers
// log the error as a warning and continue.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return Default(), fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in zero values
func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 15 * time.Minute
	}
	if c.OutputDir == "" {
		c.OutputDir = "news_out"
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:iraqnews.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 20 * time.Second
	}
	if c.Fetch.Attempts == 0 {
		c.Fetch.Attempts = 3
	}
	if c.Fetch.MaxItemsPerSource == 0 {
		c.Fetch.MaxItemsPerSource = 30
	}

	if c.Dedup.SimilarityThreshold == 0 {
		c.Dedup.SimilarityThreshold = 0.92
	}
	if c.Dedup.RecentWindow == 0 {
		c.Dedup.RecentWindow = 200
	}

	if c.Health.HardCooldown == 0 {
		c.Health.HardCooldown = 3 * time.Hour
	}
	if c.Health.EmptyCooldown == 0 {
		c.Health.EmptyCooldown = time.Hour
	}

	if c.Composer.Template == "" {
		c.Composer.Template = "summary"
	}
	if c.Composer.MaxPostLen == 0 {
		c.Composer.MaxPostLen = 900
	}
	if c.Composer.Temperature == 0 {
		c.Composer.Temperature = 0.4
	}
	if c.Composer.Timeout == 0 {
		c.Composer.Timeout = 60 * time.Second
	}
	if c.Composer.Model == "" {
		c.Composer.Model = "gpt-4o-mini"
	}

	if c.Facebook.Template == "" {
		c.Facebook.Template = "summary"
	}
	if c.Facebook.MaxImages == 0 {
		c.Facebook.MaxImages = 3
	}

	if c.ItemDelay == 0 {
		c.ItemDelay = 500 * time.Millisecond
	}

	if len(c.Sources) == 0 {
		c.Sources = defaultSources()
	}
	if len(c.Relevance.RequiredKeywords) == 0 {
		c.Relevance.RequiredKeywords = defaultKeywords()
	}
	if len(c.Relevance.CityAliases) == 0 {
		c.Relevance.CityAliases = c.Relevance.RequiredKeywords
	}
	if c.Relevance.DefaultLocality == "" {
		c.Relevance.DefaultLocality = "الأنبار"
	}
}
