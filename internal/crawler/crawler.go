// Package crawler drives the frontier: it turns a site configuration into a
// bounded, resumable traversal of the site's archive, extracting and
// persisting every article not already ingested.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/page"
	"github.com/jonesrussell/newscrawl/internal/sites"
	"github.com/jonesrussell/newscrawl/internal/store"
)

// ErrUnknownKind indicates a site config declares a crawler kind no factory
// knows about.
var ErrUnknownKind = errors.New("unknown crawler kind")

// Fetcher retrieves a page through the rendering proxy.
type Fetcher interface {
	Fetch(ctx context.Context, url string, params fetch.Params) ([]byte, error)
}

// Interface is a site crawler. Run crawls a single archive day; RunBetween
// crawls every day in [start, end]. The site-wide kind has no date
// semantics and treats both as "crawl the current listing pages".
type Interface interface {
	Run(ctx context.Context, date time.Time, pageLimit int) error
	RunBetween(ctx context.Context, start, end time.Time, pageLimit int) error
}

// Deps are the collaborators every crawler kind needs.
type Deps struct {
	Fetcher Fetcher
	Store   store.Store
	Logger  logger.Interface
}

// New builds the crawler for a site, dispatching on the config-declared kind.
func New(site *sites.Config, deps Deps) (Interface, error) {
	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	log := deps.Logger.With("site", site.Name)
	ing := ingester{
		site:    site,
		baseURL: base,
		fetcher: deps.Fetcher,
		store:   deps.Store,
		engine:  extract.NewEngine(log),
		logger:  log,
	}
	analyzer := page.NewAnalyzer(site.Locators, log)

	switch site.Kind {
	case sites.KindArchive:
		return &Archive{ingester: ing, analyzer: analyzer}, nil
	case sites.KindSite:
		return &Site{ingester: ing, analyzer: analyzer}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, site.Kind)
	}
}

// Stats counts what one crawl run did. Logged once at completion.
type Stats struct {
	PagesCrawled     int
	ArticlesIngested int
	ArticlesSkipped  int
	ChainsDropped    int
	ArticleFailures  int
}

func (s *Stats) fields() []any {
	return []any{
		"pages_crawled", s.PagesCrawled,
		"articles_ingested", s.ArticlesIngested,
		"articles_skipped", s.ArticlesSkipped,
		"chains_dropped", s.ChainsDropped,
		"article_failures", s.ArticleFailures,
	}
}
