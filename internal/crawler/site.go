package crawler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/net/html"

	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/frontier"
	"github.com/jonesrussell/newscrawl/internal/page"
)

// Site crawls a publisher without a dated archive: topic listing pages are
// discovered from the front page and each is walked through its pagination.
// There are no date semantics; dedup against the store is the only thing
// keeping repeat runs cheap.
type Site struct {
	ingester
	analyzer *page.Analyzer
}

// Run walks the site's current topic listings. The date argument carries no
// meaning for this kind.
func (s *Site) Run(ctx context.Context, _ time.Time, pageLimit int) error {
	return s.crawl(ctx, pageLimit)
}

// RunBetween is identical to Run; a site-wide crawl has no date window.
func (s *Site) RunBetween(ctx context.Context, _, _ time.Time, pageLimit int) error {
	return s.crawl(ctx, pageLimit)
}

func (s *Site) crawl(ctx context.Context, pageLimit int) error {
	front, err := s.fetchIndexPage(ctx, s.site.BaseURL)
	if err != nil {
		return err
	}

	deque := frontier.NewDeque(nil)
	for _, topic := range s.analyzer.TopicLinks(front, s.baseURL) {
		if s.eligible(topic) {
			deque.PushBack(frontier.Item{URL: topic})
		}
	}
	s.logger.Info("site crawl starting", "topic_count", deque.Len(), "page_limit", pageLimit)

	var stats Stats
	for {
		item, ok := deque.PopFront()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, fetchErr := s.fetchIndexPage(ctx, item.URL)
		if fetchErr != nil {
			if isContextErr(fetchErr) {
				return fetchErr
			}
			s.logger.Error("listing page unreachable, dropping chain", "url", item.URL, "error", fetchErr)
			stats.ChainsDropped++
			continue
		}

		// Topic URLs come from loosely scoped front page markup; anything
		// that is not really a listing page is skipped without charging the
		// page budget.
		if !s.analyzer.IsValidIndexPage(doc) {
			s.logger.Debug("not a listing page, skipping", "url", item.URL)
			continue
		}
		stats.PagesCrawled++

		if s.analyzer.PageLimitExceeded(doc, pageLimit) {
			s.logger.Info("page limit reached, dropping chain", "url", item.URL, "page_limit", pageLimit)
			stats.ChainsDropped++
			continue
		}

		unreachable := false
		for _, link := range s.analyzer.ArticleLinks(doc, s.baseURL) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if ingestErr := s.ingestArticle(ctx, link, &stats); ingestErr != nil {
				if isContextErr(ingestErr) {
					return ingestErr
				}
				// A fetch that exhausted its retries ends the chain. Store
				// errors stay local to the one article.
				var fetchErr *fetch.Error
				if errors.As(ingestErr, &fetchErr) {
					unreachable = true
					break
				}
			}
		}

		if unreachable {
			s.logger.Error("article unreachable, dropping chain", "url", item.URL)
			stats.ChainsDropped++
			continue
		}

		if next := s.analyzer.NextPageURL(doc, s.baseURL); next != "" {
			deque.PushFront(frontier.Item{URL: next})
		}
	}

	s.logger.Info("site crawl finished", stats.fields()...)
	return nil
}

func (s *Site) ingestArticle(ctx context.Context, link string, stats *Stats) error {
	if !s.eligible(link) {
		return nil
	}

	exists, err := s.alreadyIngested(ctx, link)
	if err != nil {
		s.logger.Error("dedup lookup failed", "url", link, "error", err)
		stats.ArticleFailures++
		return err
	}
	if exists {
		stats.ArticlesSkipped++
		return nil
	}

	record, _, err := s.scrapeArticle(ctx, link, time.Time{})
	if err != nil {
		s.logger.Error("article scrape failed", "url", link, "error", err)
		stats.ArticleFailures++
		return err
	}
	if err := s.persist(ctx, record); err != nil {
		s.logger.Error("article insert failed", "url", link, "error", err)
		stats.ArticleFailures++
		return err
	}
	stats.ArticlesIngested++
	return nil
}

func (s *Site) fetchIndexPage(ctx context.Context, pageURL string) (*html.Node, error) {
	content, err := s.fetcher.Fetch(ctx, pageURL, fetch.Params(s.site.CrawlParams))
	if err != nil {
		return nil, err
	}
	return extract.ParseHTML(content)
}
