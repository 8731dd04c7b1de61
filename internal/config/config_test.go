package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newscrawl/internal/config"
)

func TestLoadAppliesCrawlDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSitesFile, cfg.Crawl.SitesFile)
	assert.Equal(t, config.DefaultPageLimit, cfg.Crawl.PageLimit)
	assert.Equal(t, config.DefaultSchedule, cfg.Crawl.Schedule)
}

func TestLoadReadsViperValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("proxy.base_url", "https://proxy.test/v1/")
	viper.Set("proxy.api_key", "secret")
	viper.Set("proxy.timeout", "30s")
	viper.Set("database.host", "db.internal")
	viper.Set("crawl.page_limit", 3)
	viper.Set("crawl.sites_file", "custom.yml")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.test/v1/", cfg.Proxy.BaseURL)
	assert.Equal(t, "secret", cfg.Proxy.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3, cfg.Crawl.PageLimit)
	assert.Equal(t, "custom.yml", cfg.Crawl.SitesFile)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresProxySettings(t *testing.T) {
	cfg := &config.Config{}
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingProxyURL)

	cfg.Proxy.BaseURL = "https://proxy.test/v1/"
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingProxyKey)

	cfg.Proxy.APIKey = "secret"
	assert.NoError(t, cfg.Validate())
}
