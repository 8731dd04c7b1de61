package common

import (
	"context"
	"fmt"

	"github.com/jonesrussell/newscrawl/internal/config"
	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/sites"
	"github.com/jonesrussell/newscrawl/internal/store"
)

// LoadSites loads and validates the per-site configurations.
func LoadSites(cfg *config.Config, log logger.Interface) (*sites.Manager, error) {
	manager, err := sites.Load(cfg.Crawl.SitesFile, log)
	if err != nil {
		return nil, fmt.Errorf("load sites from %s: %w", cfg.Crawl.SitesFile, err)
	}
	return manager, nil
}

// OpenStore connects to PostgreSQL, ensures the schema and returns the
// article store with a cleanup function.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Interface) (*store.Postgres, func(), error) {
	db, err := store.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	articles := store.NewPostgres(db, log)
	if err := articles.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	return articles, func() { db.Close() }, nil
}

// NewFetcher builds the rendering-proxy client after validating its config.
func NewFetcher(cfg *config.Config, log logger.Interface) (*fetch.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return fetch.New(cfg.Proxy, log), nil
}
