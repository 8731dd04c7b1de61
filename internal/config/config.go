// Package config loads and validates the application configuration from
// YAML files and environment variables via viper.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/store"
)

// Crawl defaults.
const (
	// DefaultPageLimit bounds how deep a pagination chain is followed.
	DefaultPageLimit = 15
	// DefaultSitesFile is where per-site configurations live.
	DefaultSitesFile = "sites.yml"
	// DefaultSchedule runs the current-day crawl every six hours.
	DefaultSchedule = "0 */6 * * *"
)

var (
	// ErrMissingProxyKey indicates no rendering proxy API key was configured.
	ErrMissingProxyKey = errors.New("proxy api key is required")
	// ErrMissingProxyURL indicates no rendering proxy endpoint was configured.
	ErrMissingProxyURL = errors.New("proxy base url is required")
)

// CrawlConfig holds the crawl orchestration settings.
type CrawlConfig struct {
	// SitesFile is the path to the per-site YAML configuration.
	SitesFile string `mapstructure:"sites_file"`
	// PageLimit is the pagination depth bound applied to every chain.
	PageLimit int `mapstructure:"page_limit"`
	// Schedule is the cron expression driving scheduled current-day crawls.
	Schedule string `mapstructure:"schedule"`
}

// Config is the application configuration.
type Config struct {
	Logger   logger.Config `mapstructure:"logger"`
	Proxy    fetch.Config  `mapstructure:"proxy"`
	Database store.Config  `mapstructure:"database"`
	Crawl    CrawlConfig   `mapstructure:"crawl"`
}

// Validate checks the parts every command needs.
func (c *Config) Validate() error {
	if c.Proxy.BaseURL == "" {
		return ErrMissingProxyURL
	}
	if c.Proxy.APIKey == "" {
		return ErrMissingProxyKey
	}
	return nil
}

// Load unmarshals the configuration viper has accumulated from defaults,
// config file and environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Crawl.SitesFile == "" {
		cfg.Crawl.SitesFile = DefaultSitesFile
	}
	if cfg.Crawl.PageLimit <= 0 {
		cfg.Crawl.PageLimit = DefaultPageLimit
	}
	if cfg.Crawl.Schedule == "" {
		cfg.Crawl.Schedule = DefaultSchedule
	}
	return &cfg, nil
}
